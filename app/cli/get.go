package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.hackfix.me/pkv"
	actx "go.hackfix.me/pkv/app/context"
)

// The Get command retrieves and prints the value of a key.
type Get struct {
	Key string `arg:"" help:"The key associated with the value."`

	JSON bool `help:"Print the value as JSON. By default string values are printed as is, and other values as JSON."`
}

// Run the get command.
func (c *Get) Run(appCtx *actx.Context) error {
	if !c.JSON {
		str, err := pkv.Get[string](appCtx.Store, c.Key)
		if err == nil {
			fmt.Fprintf(appCtx.Stdout, "%s\n", str)
			return nil
		}
		if !errors.Is(err, pkv.ErrDeserialize) {
			return notFound(c.Key, err)
		}
	}

	val, err := pkv.Get[any](appCtx.Store, c.Key)
	if err != nil {
		return notFound(c.Key, err)
	}

	out, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("failed encoding value of key '%s' as JSON: %w", c.Key, err)
	}
	fmt.Fprintf(appCtx.Stdout, "%s\n", out)

	return nil
}
