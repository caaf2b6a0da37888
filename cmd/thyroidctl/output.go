package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type format string

const (
	formatText format = "text"
	formatJSON format = "json"
	formatYAML format = "yaml"
)

var globalFormat = formatText

func setOutputFormat(f string) error {
	switch format(f) {
	case formatText, formatJSON, formatYAML:
		globalFormat = format(f)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", f)
	}
}

// output writes data in the structured format, or calls text for text output.
func output(w io.Writer, data any, text func(io.Writer) error) error {
	switch globalFormat {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case formatYAML:
		// Round-trip through JSON so YAML keys match the json tags.
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return text(w)
	}
}
