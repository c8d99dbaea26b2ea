// Package migrator applies the embedded SQL schema migrations of the SQLite
// backend.
package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"time"
)

// MigrationType is the type of the migration.
type MigrationType string

// Migration types.
const (
	MigrationUp   MigrationType = "up"
	MigrationDown MigrationType = "down"
)

// Querier exposes the methods needed to run migrations. It is implemented by
// *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Migration is a schema migration.
type Migration struct {
	Name    string
	Applied bool
	Up      sql.Null[string]
	Down    sql.Null[string]
}

var fnameRx = regexp.MustCompile(`^(?P<name>\d{1,}-[a-z0-9-_]+)\.(?P<type>up|down)\.sql$`)

// LoadMigrations reads SQL files from dir, and returns them sorted by
// migration name. Files that don't follow the <number>-<name>.<up|down>.sql
// naming scheme are ignored.
func LoadMigrations(dir fs.FS) ([]*Migration, error) {
	migrationMap := make(map[string]*Migration)

	err := fs.WalkDir(dir, ".", func(p string, d fs.DirEntry, e error) error {
		if e != nil {
			return e
		}
		if !d.Type().IsRegular() || path.Ext(d.Name()) != ".sql" {
			return nil
		}

		matched := fnameRx.FindStringSubmatch(d.Name())
		if len(matched) == 0 {
			return nil
		}
		data, err := fs.ReadFile(dir, p)
		if err != nil {
			return err
		}
		name := matched[fnameRx.SubexpIndex("name")]
		typ := matched[fnameRx.SubexpIndex("type")]
		m, ok := migrationMap[name]
		if !ok {
			m = &Migration{Name: name}
			migrationMap[name] = m
		}
		val := sql.Null[string]{V: string(data), Valid: true}
		if typ == "up" {
			m.Up = val
		} else {
			m.Down = val
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed loading migrations: %w", err)
	}

	names := make([]string, 0, len(migrationMap))
	for name := range migrationMap {
		names = append(names, name)
	}
	sort.Strings(names)
	migrations := make([]*Migration, 0, len(migrationMap))
	for _, name := range names {
		migrations = append(migrations, migrationMap[name])
	}

	return migrations, nil
}

// RunMigrations applies or rolls back migrations up to and including the
// migration named to, which can also be "all".
func RunMigrations(
	ctx context.Context, q Querier, migrations []*Migration, typ MigrationType,
	to string, logger *slog.Logger,
) error {
	if err := createMigrationSchema(ctx, q); err != nil {
		return fmt.Errorf("failed creating migrations schema: %w", err)
	}

	if err := loadApplied(ctx, q, migrations); err != nil {
		return err
	}

	runPlan, err := createMigrationPlan(migrations, typ, to)
	if err != nil {
		return err
	}

	for _, run := range runPlan {
		if _, err := q.ExecContext(ctx, run.sql); err != nil {
			return fmt.Errorf("failed running migration '%s': %w", run.name, err)
		}
		_, err = q.ExecContext(ctx,
			`INSERT INTO _migration_history (name, type, time) VALUES (?, ?, ?)`,
			run.name, string(run.typ), time.Now().UTC())
		if err != nil {
			return err
		}
		msg := "applied"
		if run.typ == MigrationDown {
			msg = "rolled back"
		}
		logger.Debug(fmt.Sprintf("%s schema migration", msg), "name", run.name)
	}

	return nil
}

// loadApplied marks migrations as applied according to the latest event
// recorded in the history table.
func loadApplied(ctx context.Context, q Querier, migrations []*Migration) error {
	migrationMap := make(map[string]*Migration)
	for _, m := range migrations {
		migrationMap[m.Name] = m
	}

	rows, err := q.QueryContext(ctx, `SELECT name, type FROM _migration_history
		ORDER BY time, rowid`)
	if err != nil {
		return fmt.Errorf("failed retrieving migration history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return fmt.Errorf("failed reading migration history: %w", err)
		}

		m, ok := migrationMap[name]
		if !ok {
			return fmt.Errorf("found unknown migration in history: '%s'", name)
		}
		m.Applied = MigrationType(typ) == MigrationUp
	}

	return rows.Err()
}

type migrationRun struct {
	name string
	typ  MigrationType
	sql  string
}

func createMigrationPlan(
	migrations []*Migration, typ MigrationType, to string,
) ([]migrationRun, error) {
	runPlan := []migrationRun{}

	toIdx := -1
	for i, m := range migrations {
		if m.Name == to {
			toIdx = i
			break
		}
	}

	if toIdx < 0 && to != "all" {
		return nil, fmt.Errorf("migration '%s' doesn't exist", to)
	}

	for idx, m := range migrations {
		if !m.Applied && typ == MigrationUp && (toIdx >= idx || to == "all") {
			runPlan = append(runPlan, migrationRun{
				name: m.Name, typ: MigrationUp, sql: m.Up.V,
			})
		} else if m.Applied && typ == MigrationDown && (toIdx < idx || to == "all") {
			// Down migrations run in reverse order.
			runPlan = append([]migrationRun{{
				name: m.Name, typ: MigrationDown, sql: m.Down.V,
			}}, runPlan...)
		}
	}

	return runPlan, nil
}

func createMigrationSchema(ctx context.Context, q Querier) error {
	_, err := q.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _migration_history (
			name   VARCHAR(128) NOT NULL,
			type   VARCHAR(32) CHECK( type IN ('up','down') ) NOT NULL,
			time   TIMESTAMP NOT NULL
		)`)
	return err
}
