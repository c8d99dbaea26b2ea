package sqlite

import "log/slog"

// Option is a function that allows configuring the store.
type Option func(*Store)

// WithLogger sets the logger used to report schema migrations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}
