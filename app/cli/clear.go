package cli

import (
	actx "go.hackfix.me/pkv/app/context"
)

// The Clear command deletes all keys.
type Clear struct{}

// Run the clear command.
func (c *Clear) Run(appCtx *actx.Context) error {
	return appCtx.Store.Clear()
}
