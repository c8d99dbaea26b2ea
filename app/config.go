package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"
)

// loadConfig reads the TOML configuration file at path, and returns a resolver
// that provides flag values from it. Top-level keys set global flags, and
// tables named after a command set that command's flags, e.g.:
//
//	dir = "/home/user/.local/share/myapp"
//	verbose = true
//
//	[get]
//	json = true
//
// A missing file is not an error.
func (app *App) loadConfig(path string) (kong.Resolver, error) {
	if path == "" {
		return nil, nil
	}

	f, err := app.ctx.FS.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed opening config file: %w", err)
	}
	defer f.Close()

	r, err := tomlResolver(f)
	if err != nil {
		return nil, fmt.Errorf("failed reading config file '%s': %w", path, err)
	}
	app.ctx.Logger.Debug("loaded config file", "path", path)

	return r, nil
}

func tomlResolver(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if _, err := toml.NewDecoder(r).Decode(&values); err != nil {
		return nil, err
	}

	var resolver kong.ResolverFunc = func(_ *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		name := strings.ReplaceAll(flag.Name, "-", "_")
		if parent != nil && parent.Command != nil {
			if section, ok := values[parent.Command.Name].(map[string]any); ok {
				if v, ok := lookup(section, flag.Name, name); ok {
					return v, nil
				}
			}
		}
		if v, ok := lookup(values, flag.Name, name); ok {
			if _, isTable := v.(map[string]any); !isTable {
				return v, nil
			}
		}
		return nil, nil
	}

	return resolver, nil
}

func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}
