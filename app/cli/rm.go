package cli

import (
	actx "go.hackfix.me/pkv/app/context"
)

// The Rm command deletes a key.
type Rm struct {
	Key string `arg:"" help:"The key to delete."`
}

// Run the rm command.
func (c *Rm) Run(appCtx *actx.Context) error {
	return appCtx.Store.Remove(c.Key)
}
