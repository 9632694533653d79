package datastore

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// decodeInto maps a stored document onto a typed model. Store maps carry
// native time.Time values, so no decode hooks are needed.
func decodeInto(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
