package chain

import (
	"reflect"
	"regexp"

	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/internal/utils"
)

// referencePattern matches ${result-flow-<id>}.
var referencePattern = regexp.MustCompile(`\$\{result-flow-([^}]+)\}`)

// References returns the flow ids referenced by text, in order of appearance.
func References(text string) []string {
	var ids []string
	for _, match := range referencePattern.FindAllStringSubmatch(text, -1) {
		ids = append(ids, match[1])
	}
	return ids
}

// Render turns a flow result into the text substituted for a reference.
// Strings pass through; for lists the first element is used, and when that
// element is a leaf output (or a map with a "result" key) its result is
// used; anything else is rendered as JSON.
func Render(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case engine.Output:
		return Render(typed.Result)
	case []engine.Output:
		if len(typed) == 0 {
			return ""
		}
		return Render(typed[0].Result)
	}

	reflected := reflect.ValueOf(value)
	if reflected.Kind() == reflect.Slice && reflected.Type().Elem().Kind() != reflect.Uint8 {
		if reflected.Len() == 0 {
			return ""
		}
		first := reflected.Index(0).Interface()
		if entry, ok := first.(map[string]any); ok {
			if result, ok := entry["result"]; ok {
				return Render(result)
			}
		}
		return Render(first)
	}
	return utils.Stringify(value)
}

// substituteString replaces resolvable references in text. lookup returns
// false for unknown flows, whose tokens are kept verbatim and reported.
func substituteString(text string, lookup func(flowID string) (any, bool)) (string, []string) {
	var unresolved []string
	substituted := referencePattern.ReplaceAllStringFunc(text, func(token string) string {
		flowID := referencePattern.FindStringSubmatch(token)[1]
		result, ok := lookup(flowID)
		if !ok {
			unresolved = append(unresolved, flowID)
			return token
		}
		return Render(result)
	})
	return substituted, unresolved
}

// substituteValue walks maps and slices and substitutes inside every string.
func substituteValue(value any, lookup func(flowID string) (any, bool)) (any, []string) {
	switch typed := value.(type) {
	case string:
		return substituteString(typed, lookup)
	case map[string]any:
		var unresolved []string
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			substituted, missing := substituteValue(item, lookup)
			out[key] = substituted
			unresolved = append(unresolved, missing...)
		}
		return out, unresolved
	case []any:
		var unresolved []string
		out := make([]any, len(typed))
		for i, item := range typed {
			substituted, missing := substituteValue(item, lookup)
			out[i] = substituted
			unresolved = append(unresolved, missing...)
		}
		return out, unresolved
	default:
		return value, nil
	}
}
