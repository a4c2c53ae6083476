// FILE: lixenwraith/dotenv/export.go
package dotenv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Export formats
const (
	FormatDotenv = "dotenv"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatTOML   = "toml"
)

// Export writes m to w in format.
// dotenv output keeps insertion order with nulls written as null; toml output drops nulls.
func Export(w io.Writer, m *Map, format string) error {
	switch format {
	case FormatDotenv, "env", "":
		var buf bytes.Buffer
		for k, v := range m.All() {
			line, err := dotenvLine(k, v)
			if err != nil {
				return err
			}
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
		_, err := buf.WriteTo(w)
		return err

	case FormatJSON:
		raw, err := m.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		buf.WriteByte('\n')
		_, err = buf.WriteTo(w)
		return err

	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()

	case FormatTOML:
		doc := make(map[string]any, m.Len())
		for k, v := range m.All() {
			if !v.IsNull() {
				doc[k] = v.Interface()
			}
		}
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("failed to encode TOML: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// dotenvLine encodes one entry with godotenv quoting.
// Lines parsed back in their written order give the same values.
func dotenvLine(key string, v Value) (string, error) {
	text := v.String()
	switch f, isFloat := v.AsFloat(); {
	case v.IsNull():
		text = "null"
	case isFloat && !strings.ContainsAny(text, ".eE"):
		// Keeps integral floats from parsing back as ints
		text = strconv.FormatFloat(f, 'f', 1, 64)
	}
	line, err := godotenv.Marshal(map[string]string{key: text})
	if err != nil {
		return "", fmt.Errorf("failed to encode dotenv entry '%s': %w", key, err)
	}
	return line, nil
}

// Export validates the store and writes its entries to w in format
func (s *Store) Export(w io.Writer, format string) error {
	m, err := s.All()
	if err != nil {
		return err
	}
	return Export(w, m, format)
}
