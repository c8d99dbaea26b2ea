package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	actx "go.hackfix.me/pkv/app/context"
)

// The Set command stores the value of a key.
type Set struct {
	Key   string `arg:"" help:"The key that identifies the value."`
	Value string `arg:"" help:"The value."`

	JSON bool `help:"Parse the value as JSON, and store the decoded value instead of the string."`
}

// Run the set command.
func (c *Set) Run(appCtx *actx.Context) error {
	if !c.JSON {
		return appCtx.Store.SetString(c.Key, c.Value)
	}

	val, err := parseJSON(c.Value)
	if err != nil {
		return err
	}

	return appCtx.Store.Set(c.Key, val)
}

// parseJSON decodes a single JSON value from s. Anything but whitespace after
// the value is an error.
func parseJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var val any
	if err := dec.Decode(&val); err != nil {
		return nil, fmt.Errorf("failed parsing value as JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("failed parsing value as JSON: trailing data after value")
	}

	return fromJSON(val), nil
}

// fromJSON converts JSON numbers to int64 when they're integers, and to
// float64 otherwise, so they're stored as numbers instead of strings.
func fromJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case []any:
		for i := range val {
			val[i] = fromJSON(val[i])
		}
	case map[string]any:
		for k := range val {
			val[k] = fromJSON(val[k])
		}
	}
	return v
}
