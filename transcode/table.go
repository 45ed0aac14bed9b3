// Package transcode maps raw subject identifiers to anonymized ones using a
// JSON lookup table of the form {"rawID": "anonID", ...}.
package transcode

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/carbocation/pfx"
)

// Table is the raw-to-anonymized subject ID mapping. A nil Table performs
// identity transcoding, which is what runs outside anonymization studies use.
type Table map[string]string

// Load reads a JSON table from path. The path may be local or a
// gs:// Google Storage object.
func Load(path string) (Table, error) {
	f, err := maybeOpenFromGoogleStorage(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	out := make(Table)
	if err := json.NewDecoder(f).Decode(&out); err != nil {
		if e, ok := err.(*json.SyntaxError); ok {
			log.Printf("syntax error at byte offset %d", e.Offset)
		}

		return nil, pfx.Err(err)
	}

	return out, nil
}

// Lookup resolves a raw subject ID. With a nil table the raw ID passes
// through unchanged; with a loaded table an absent ID is an error.
func (t Table) Lookup(raw string) (string, error) {
	if t == nil {
		return raw, nil
	}

	anon, exists := t[raw]
	if !exists {
		return "", pfx.Err(fmt.Errorf("subject ID %q is not present in the transcoding table", raw))
	}

	return anon, nil
}
