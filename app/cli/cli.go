package cli

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/alecthomas/kong"

	"go.hackfix.me/pkv"
	actx "go.hackfix.me/pkv/app/context"
	aerrors "go.hackfix.me/pkv/app/errors"
)

// CLI is the command line interface of pkv.
type CLI struct {
	Get   Get   `kong:"cmd,help='Print the value of a key.'"`
	Set   Set   `kong:"cmd,help='Set the value of a key.'"`
	Rm    Rm    `kong:"cmd,help='Delete a key.'"`
	Ls    Ls    `kong:"cmd,help='List keys.'"`
	Clear Clear `kong:"cmd,help='Delete all keys.'"`
	Info  Info  `kong:"cmd,help='Print information about the store.'"`

	Dir           string `kong:"help='Directory of the store. Overrides the location derived from --qualifier, --org and --app.',type='path'"`
	Qualifier     string `kong:"help='Reverse domain qualifier of the application, e.g. \"com\".'"`
	Org           string `kong:"help='Organization that owns the application.'"`
	App           string `kong:"default='pkv',help='Name of the application whose store to open.'"`
	EncryptionKey string `kong:"help='Hex encoded AES key used for encrypting the store.\n It must be either 16, 24, or 32 bytes, for AES-128, AES-192 or AES-256 respectively. ',env='PKV_ENCRYPTION_KEY'"`
	Verbose       bool   `kong:"short='v',help='Log debug messages.'"`
}

// Setup parses args and returns the context of the selected command.
func (c *CLI) Setup(appCtx *actx.Context, args []string, exit func(int), opts ...kong.Option) (*kong.Context, error) {
	opts = append([]kong.Option{
		kong.Name("pkv"),
		kong.Description("Manage a persistent key-value store."),
		kong.UsageOnError(),
		kong.DefaultEnvars("PKV"),
		kong.Exit(exit),
		kong.Writers(appCtx.Stdout, appCtx.Stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
	}, opts...)

	parser, err := kong.New(c, opts...)
	if err != nil {
		return nil, err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return nil, err
	}

	return kctx, nil
}

// OpenStore opens the store selected by the global flags.
func (c *CLI) OpenStore(appCtx *actx.Context) (*pkv.Store, error) {
	opts := []pkv.Option{pkv.WithLogger(appCtx.Logger), pkv.WithFS(appCtx.FS)}

	encKey := c.EncryptionKey
	if encKey == "" && appCtx.Env != nil {
		encKey = appCtx.Env.Get("PKV_ENCRYPTION_KEY")
	}
	if encKey != "" {
		encKeyDec, err := hex.DecodeString(encKey)
		if err != nil {
			return nil, aerrors.NewRuntimeError("invalid encryption key", err,
				"The key must be hex encoded, e.g. the output of 'openssl rand -hex 32'.")
		}
		opts = append(opts, pkv.WithEncryptionKey(encKeyDec))
	}

	var (
		store *pkv.Store
		err   error
	)
	if c.Dir != "" {
		store, err = pkv.OpenDir(c.Dir, opts...)
	} else {
		store, err = pkv.OpenWithQualifier(c.Qualifier, c.Org, c.App, opts...)
	}

	switch {
	case errors.Is(err, pkv.ErrLocked):
		return nil, aerrors.NewRuntimeError("failed opening store", err,
			"Another process has the store open. Close it and try again.")
	case errors.Is(err, pkv.ErrCorrupt):
		return nil, aerrors.NewRuntimeError("failed opening store", err,
			"The store is damaged. Restore it from a backup, or delete it to start over.")
	case errors.Is(err, pkv.ErrLocation):
		return nil, aerrors.NewRuntimeError("failed opening store", err,
			"Set an application name with --app, or a directory with --dir.")
	case err != nil:
		return nil, aerrors.NewRuntimeError("failed opening store", err, "")
	}

	return store, nil
}

func notFound(key string, err error) error {
	if errors.Is(err, pkv.ErrNotFound) {
		return aerrors.NewRuntimeError(fmt.Sprintf("key '%s' not found", key), err, "")
	}
	return err
}
