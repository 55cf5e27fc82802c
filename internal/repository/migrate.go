package repository

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"lifequest_bot/internal/repository/migrations"

	"github.com/Masterminds/squirrel"
)

const migrationTable = "schema_migrations"

func (r *Repository) migrate() error {
	root := "postgres"
	if r.driver == DriverSQLite {
		root = "sqlite"
	}
	return applyMigrations(context.Background(), r, migrations.FS, root)
}

// applyMigrations runs each embedded .sql file under root at most once,
// recording applied files in schema_migrations.
func applyMigrations(ctx context.Context, r *Repository, migrationFS fs.FS, root string) error {
	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`, migrationTable)
	if _, err := r.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		name := path.Join(root, file)

		applied, err := r.isMigrationApplied(ctx, name)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied {
			continue
		}

		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		err = r.Transaction(ctx, func(ctx context.Context) error {
			for _, stmt := range splitStatements(extractUp(string(content))) {
				if _, err := r.conn(ctx).ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("exec migration %s: %w", name, err)
				}
			}

			query, args, err := r.sql().
				Insert(migrationTable).
				Columns("name", "applied_at").
				Values(name, r.nowMillis()).
				Suffix("ON CONFLICT (name) DO NOTHING").
				ToSql()
			if err != nil {
				return err
			}
			_, err = r.conn(ctx).ExecContext(ctx, query, args...)
			return err
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Repository) isMigrationApplied(ctx context.Context, name string) (bool, error) {
	query, args, err := r.sql().
		Select("COUNT(*)").
		From(migrationTable).
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return false, err
	}
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return false, err
	}
	return n > 0, nil
}

// extractUp returns the SQL in the "-- +migrate Up" section, or all of it
// when the file has no markers.
func extractUp(content string) string {
	const up, down = "-- +migrate Up", "-- +migrate Down"
	start := strings.Index(content, up)
	if start == -1 {
		return content
	}
	content = content[start+len(up):]
	if end := strings.Index(content, down); end != -1 {
		content = content[:end]
	}
	return content
}

func splitStatements(sql string) []string {
	var out []string
	for _, stmt := range strings.Split(sql, ";") {
		if strings.TrimSpace(stmt) != "" {
			out = append(out, strings.TrimSpace(stmt))
		}
	}
	return out
}
