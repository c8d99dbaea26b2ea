package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kong"
	"github.com/mandelsoft/vfs/pkg/osfs"

	"go.hackfix.me/pkv/app/cli"
	actx "go.hackfix.me/pkv/app/context"
	aerrors "go.hackfix.me/pkv/app/errors"
)

// App is the application.
type App struct {
	ctx        *actx.Context
	logLevel   *slog.LevelVar
	configFile string

	Exit func(int)
}

// New initializes a new application.
func New(opts ...Option) (*App, error) {
	version, err := actx.GetVersion()
	if err != nil {
		return nil, err
	}

	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		Version: version.String(),
		FS:      osfs.New(),
		Logger:  slog.Default(),
		Stdin:   os.Stdin,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	app := &App{
		ctx:        defaultCtx,
		logLevel:   &slog.LevelVar{},
		configFile: filepath.Join(xdg.ConfigHome, "pkv", "config.toml"),
		Exit:       func(int) {},
	}

	for _, opt := range opts {
		opt(app)
	}

	return app, nil
}

// Run parses args and executes the selected command against the store.
func (app *App) Run(args []string) (err error) {
	var kopts []kong.Option
	cfg, err := app.loadConfig(app.configFile)
	if err != nil {
		return err
	}
	if cfg != nil {
		kopts = append(kopts, kong.Resolvers(cfg))
	}

	c := &cli.CLI{}
	kctx, err := c.Setup(app.ctx, args, app.Exit, kopts...)
	if err != nil {
		return err
	}

	if c.Verbose {
		app.logLevel.Set(slog.LevelDebug)
	} else {
		app.logLevel.Set(slog.LevelInfo)
	}

	app.ctx.Store, err = c.OpenStore(app.ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.ctx.Store.Close(); cerr != nil && err == nil {
			err = cerr
		}
		app.ctx.Store = nil
	}()

	return kctx.Run(app.ctx)
}

// FatalIfErrorf terminates the application with an error message if err != nil.
func (app *App) FatalIfErrorf(err error, args ...any) {
	if err == nil {
		return
	}

	var errCause aerrors.WithCause
	if errors.As(err, &errCause) {
		if cause := errCause.Cause(); cause != nil {
			args = append(args, "cause", cause)
		}
	}
	var errHint aerrors.WithHint
	if errors.As(err, &errHint) {
		if hint := errHint.Hint(); hint != "" {
			args = append(args, "hint", hint)
		}
	}

	app.ctx.Logger.Error(err.Error(), args...)
	app.Exit(1)
}
