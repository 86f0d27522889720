package codec

import (
	"strings"

	"gopkg.in/yaml.v3"
)

func encodeYAML(doc any) (string, error) {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeYAML is strict: unknown keys and type mismatches are malformed data.
func decodeYAML(text string, out any) error {
	dec := yaml.NewDecoder(strings.NewReader(text))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return malformed("yaml document", err)
	}
	return nil
}
