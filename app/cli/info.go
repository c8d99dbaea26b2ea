package cli

import (
	"strconv"

	actx "go.hackfix.me/pkv/app/context"
)

// The Info command prints information about the store.
type Info struct{}

// Run the info command.
func (c *Info) Run(appCtx *actx.Context) error {
	keys, err := appCtx.Store.Keys()
	if err != nil {
		return err
	}

	writeProperties(appCtx.Stdout, []property{
		{"Backend", appCtx.Store.Backend()},
		{"Location", appCtx.Store.Location()},
		{"Keys", strconv.Itoa(len(keys))},
		{"Version", appCtx.Version},
	})

	return nil
}
