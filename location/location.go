// Package location resolves where a store keeps its data: a per-user data
// directory on native platforms, or a storage namespace in the browser.
package location

import (
	"errors"
	"strings"
)

// ErrNoApplication is returned when a location has no application name.
var ErrNoApplication = errors.New("application name is required")

// Location identifies the application owning a store. Qualifier is usually a
// reverse domain component like "com" or "org", and is optional.
type Location struct {
	Qualifier    string
	Organization string
	Application  string
}

// New returns a Location without a qualifier.
func New(organization, application string) Location {
	return Location{Organization: organization, Application: application}
}

// Validate checks that the location can be resolved.
func (l Location) Validate() error {
	if strings.TrimSpace(l.Application) == "" {
		return ErrNoApplication
	}
	return nil
}

// Namespace returns the storage namespace used by backends without a
// filesystem, e.g. "com.example.My App".
func (l Location) Namespace() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Qualifier, l.Organization, l.Application} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}
