package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON is returned when no JSON object or array can be recovered.
var ErrNoJSON = errors.New("no JSON value found in content")

// ParseJSON decodes content into an untyped value. The whole string is tried
// first, then every fenced block or balanced {...}/[...] span in order of
// appearance; each candidate is retried through jsonrepair.
func ParseJSON(content string) (any, error) {
	var lastErr error
	for _, candidate := range extractJSONCandidates(content) {
		var value any
		if err := decodeLenient(candidate, &value); err != nil {
			lastErr = err
			continue
		}
		return value, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoJSON, lastErr)
	}
	return nil, ErrNoJSON
}

// ParseStringAs parses content into T.
// For primitive kinds (string, bool, int, uint, float) it converts directly,
// accepting a schema-wrapped {"type":..., "value":...} object as well.
// For structs, maps and slices it behaves like [ParseJSON] with a typed target,
// falling back to unwrapping schema-style values when the direct decode fails.
//
// Example usage:
//
//	person, err := parse.ParseStringAs[Person](`{name: 'John', age: 30}`)
//	count, err := parse.ParseStringAs[int]("42")
func ParseStringAs[T any](content string) (T, error) {
	var result T
	target := reflect.ValueOf(&result).Elem()
	trimmed := strings.TrimSpace(content)

	switch target.Kind() {
	case reflect.String:
		if unwrapped, err := tryUnwrapPrimitive(trimmed); err == nil {
			target.SetString(unwrapped)
		} else {
			target.SetString(content)
		}
		return result, nil

	case reflect.Bool:
		val, err := parsePrimitive(trimmed, strconv.ParseBool)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as bool: %w", err)
		}
		target.SetBool(val)
		return result, nil

	case reflect.Float32, reflect.Float64:
		val, err := parsePrimitive(trimmed, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
		if err != nil {
			return result, fmt.Errorf("failed to parse content as float: %w", err)
		}
		target.SetFloat(val)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := parsePrimitive(trimmed, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
		if err != nil {
			return result, fmt.Errorf("failed to parse content as int: %w", err)
		}
		target.SetInt(val)
		return result, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := parsePrimitive(trimmed, func(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) })
		if err != nil {
			return result, fmt.Errorf("failed to parse content as uint: %w", err)
		}
		target.SetUint(val)
		return result, nil
	}

	var lastErr error
	for _, candidate := range extractJSONCandidates(content) {
		typed, err := decodeTyped[T](candidate)
		if err != nil {
			lastErr = err
			continue
		}
		return typed, nil
	}
	if lastErr == nil {
		lastErr = ErrNoJSON
	}
	return result, fmt.Errorf("failed to unmarshal content as %T: %w", result, lastErr)
}

// decodeTyped tries candidate as-is, then repaired, then with schema-style
// wrappers removed.
func decodeTyped[T any](candidate string) (T, error) {
	var typed T
	if err := json.Unmarshal([]byte(candidate), &typed); err == nil {
		return typed, nil
	}
	var generic any
	if err := decodeLenient(candidate, &generic); err != nil {
		return typed, err
	}
	repaired, err := json.Marshal(generic)
	if err != nil {
		return typed, err
	}
	typed = *new(T)
	if err := json.Unmarshal(repaired, &typed); err == nil {
		return typed, nil
	}
	unwrapped, err := json.Marshal(recursiveUnwrap(generic))
	if err != nil {
		return typed, err
	}
	typed = *new(T)
	if err := json.Unmarshal(unwrapped, &typed); err != nil {
		return typed, err
	}
	return typed, nil
}

func parsePrimitive[V any](content string, convert func(string) (V, error)) (V, error) {
	val, err := convert(content)
	if err == nil {
		return val, nil
	}
	if unwrapped, unwrapErr := tryUnwrapPrimitive(content); unwrapErr == nil {
		if val, retryErr := convert(unwrapped); retryErr == nil {
			return val, nil
		}
	}
	return val, err
}

// decodeLenient unmarshals candidate, retrying once through jsonrepair.
func decodeLenient(candidate string, target any) error {
	err := json.Unmarshal([]byte(candidate), target)
	if err == nil {
		return nil
	}
	repaired, repairErr := jsonrepair.JSONRepair(candidate)
	if repairErr != nil {
		return fmt.Errorf("unmarshal error: %w, repair error: %v", err, repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("failed to unmarshal repaired JSON: %w", err)
	}
	return nil
}

// extractJSONCandidates lists substrings of content that may hold a JSON
// value: the trimmed content itself, the bodies of markdown code fences, and
// each balanced top-level {...} or [...] span. Duplicates are dropped.
func extractJSONCandidates(content string) []string {
	var candidates []string
	seen := make(map[string]bool)
	add := func(candidate string) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || seen[candidate] {
			return
		}
		seen[candidate] = true
		candidates = append(candidates, candidate)
	}

	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		add(trimmed)
	}

	rest := content
	for {
		start := strings.Index(rest, "```")
		if start < 0 {
			break
		}
		body := rest[start+3:]
		end := strings.Index(body, "```")
		if end < 0 {
			break
		}
		block := body[:end]
		if newline := strings.IndexByte(block, '\n'); newline >= 0 && !strings.ContainsAny(block[:newline], "{[") {
			block = block[newline+1:]
		}
		add(block)
		rest = body[end+3:]
	}

	for _, span := range balancedSpans(content) {
		add(span)
	}
	return candidates
}

// balancedSpans returns top-level bracket-balanced spans, ignoring brackets
// inside double-quoted strings.
func balancedSpans(content string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false
	for i := 0; i < len(content); i++ {
		ch := content[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{', '[':
			if depth == 0 {
				start = i
			}
			depth++
		case '}', ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				spans = append(spans, content[start:i+1])
				start = -1
			}
		}
	}
	if depth > 0 && start >= 0 {
		// Unterminated tail; jsonrepair may close it.
		spans = append(spans, content[start:])
	}
	return spans
}

// tryUnwrapPrimitive unwraps {"type": "...", "value": x} into the text of x.
func tryUnwrapPrimitive(content string) (string, error) {
	if !strings.HasPrefix(content, "{") {
		return "", errors.New("not a schema-wrapped value")
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", err
	}
	if _, hasType := data["type"]; !hasType {
		return "", errors.New("not a schema-wrapped value")
	}
	value, hasValue := data["value"]
	if !hasValue || len(data) != 2 {
		return "", errors.New("not a schema-wrapped value")
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case float64, bool:
		return fmt.Sprintf("%v", v), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}

// recursiveUnwrap replaces every {"type":..., "value":...} map with its value.
func recursiveUnwrap(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if _, hasType := v["type"]; hasType {
			if value, hasValue := v["value"]; hasValue && len(v) == 2 {
				return recursiveUnwrap(value)
			}
		}
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[key] = recursiveUnwrap(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = recursiveUnwrap(val)
		}
		return result
	default:
		return data
	}
}
