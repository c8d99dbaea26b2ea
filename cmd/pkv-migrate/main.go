// Command pkv-migrate copies all entries of a store kept by one storage engine
// into a store kept by another, e.g. after switching the engine an
// application is built with.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"go.hackfix.me/pkv/migrate"
)

type cli struct {
	FromKind string `kong:"required,enum='${kinds}',help='Storage engine of the source store. One of: ${kinds}.'"`
	From     string `kong:"required,type='existingdir',help='Directory of the source store.'"`
	ToKind   string `kong:"required,enum='${kinds}',help='Storage engine of the destination store. One of: ${kinds}.'"`
	To       string `kong:"required,type='path',help='Directory of the destination store. It is created if it does not exist.'"`
	Clear    bool   `kong:"help='Delete all entries of the destination store before copying.'"`
	Verbose  bool   `kong:"short='v',help='Log debug messages.'"`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("pkv-migrate"),
		kong.Description("Copy all entries of a store to a store of another storage engine."),
		kong.UsageOnError(),
		kong.DefaultEnvars("PKV_MIGRATE"),
		kong.Vars{"kinds": strings.Join(migrate.Kinds, ",")},
	)

	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		TimeFormat: "2006-01-02 15:04:05.000",
	}))

	n, err := migrate.Run(context.Background(), migrate.Options{
		FromKind: c.FromKind,
		FromDir:  c.From,
		ToKind:   c.ToKind,
		ToDir:    c.To,
		Clear:    c.Clear,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("migration failed", "err", err)
		kctx.Exit(1)
	}

	fmt.Printf("Copied %d entries.\n", n)
}
