package engine

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeConfig decodes node data into target, a pointer to a config struct
// tagged with `mapstructure`. Input is weakly typed, so JSON numbers decode
// into ints, "true" into bools, a single string into a []string, and
// "30s" into a time.Duration.
func DecodeConfig(data map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("failed to decode node config: %w", err)
	}
	return nil
}
