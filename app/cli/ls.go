package cli

import (
	"fmt"
	"strings"

	actx "go.hackfix.me/pkv/app/context"
)

// The Ls command prints keys.
type Ls struct {
	KeyPrefix string `arg:"" optional:"" help:"An optional key prefix."`
}

// Run the ls command.
func (c *Ls) Run(appCtx *actx.Context) error {
	keys, err := appCtx.Store.Keys()
	if err != nil {
		return err
	}

	for _, key := range keys {
		if strings.HasPrefix(key, c.KeyPrefix) {
			fmt.Fprintf(appCtx.Stdout, "%s\n", key)
		}
	}

	return nil
}
