package catalog

import (
	"database/sql"
	"fmt"
)

// migration is one schema step, applied once and recorded in
// schema_migrations.
type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_field_library",
		sql: `
		CREATE TABLE IF NOT EXISTS field_library (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			field_key TEXT NOT NULL UNIQUE,
			canonical_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			field_type TEXT NOT NULL,
			data_type TEXT NOT NULL DEFAULT 'string',
			category TEXT NOT NULL DEFAULT 'Other',
			subcategory TEXT NOT NULL DEFAULT '',
			aliases TEXT NOT NULL DEFAULT '[]',
			options TEXT NOT NULL DEFAULT '[]',
			placeholder TEXT NOT NULL DEFAULT '',
			help_text TEXT NOT NULL DEFAULT '',
			usage_count INTEGER NOT NULL DEFAULT 0,
			first_used_by TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	},
	{
		version: 2,
		name:    "create_field_library_indexes",
		sql: `
		CREATE INDEX IF NOT EXISTS idx_field_library_category_type
			ON field_library(category, field_type);
		CREATE INDEX IF NOT EXISTS idx_field_library_usage
			ON field_library(usage_count DESC)`,
	},
	{
		version: 3,
		name:    "create_application_types",
		sql: `
		CREATE TABLE IF NOT EXISTS application_types (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			board TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
	},
	{
		version: 4,
		name:    "create_form_field_refs",
		sql: `
		CREATE TABLE IF NOT EXISTS form_field_refs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			application_type_id INTEGER NOT NULL
				REFERENCES application_types(id) ON DELETE CASCADE,
			field_id INTEGER NOT NULL
				REFERENCES field_library(id),
			display_order INTEGER NOT NULL DEFAULT 0,
			display_name TEXT NOT NULL DEFAULT '',
			required INTEGER NOT NULL DEFAULT 0,
			help_text TEXT NOT NULL DEFAULT '',
			placeholder TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_form_field_refs_field
			ON form_field_refs(field_id)`,
	},
}

// applyMigrations runs every unapplied migration in order.
func applyMigrations(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var applied int
		err := conn.QueryRow(
			`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, m.version,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}
		if applied > 0 {
			continue
		}

		if _, err := conn.Exec(m.sql); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := conn.Exec(
			`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`,
			m.version, m.name,
		); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}

	return nil
}
