package main

import (
	"fmt"
	"os"

	"github.com/mandelsoft/vfs/pkg/osfs"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"go.hackfix.me/pkv/app"
	actx "go.hackfix.me/pkv/app/context"
)

func main() {
	isStdoutTTY := isatty.IsTerminal(os.Stdout.Fd())
	isStderrTTY := isatty.IsTerminal(os.Stderr.Fd())

	a, err := app.New(
		app.WithExit(os.Exit),
		app.WithFDs(
			os.Stdin,
			colorable.NewColorable(os.Stdout),
			colorable.NewColorable(os.Stderr),
		),
		app.WithFS(osfs.New()),
		app.WithEnv(osEnv{}),
		app.WithLogger(isStdoutTTY, isStderrTTY),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed initializing app: %s\n", err)
		os.Exit(1)
	}

	a.FatalIfErrorf(a.Run(os.Args[1:]))
}

type osEnv struct{}

var _ actx.Environment = &osEnv{}

func (e osEnv) Get(key string) string {
	return os.Getenv(key)
}

func (e osEnv) Set(key, val string) error {
	return os.Setenv(key, val)
}
