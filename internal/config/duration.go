package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that round-trips through YAML as a string
// like "3s" or "500ms".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML accepts either a duration string or a bare number of
// seconds. The node tag decides: yaml decodes any scalar into a string, so
// probing with a string decode cannot tell "3" from "3s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Tag {
	case "!!int", "!!float":
		var secs float64
		if err := value.Decode(&secs); err != nil {
			return fmt.Errorf("invalid duration value at line %d", value.Line)
		}
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	default:
		var s string
		if err := value.Decode(&s); err != nil {
			return fmt.Errorf("invalid duration value at line %d", value.Line)
		}
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
}

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}
