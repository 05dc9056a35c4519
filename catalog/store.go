package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DBConfig tunes the SQLite connection pool.
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store is the SQLite-backed canonical field catalog. It satisfies the
// matching pipeline's read interface and owns all catalog writes.
type Store struct {
	conn *sql.DB
}

// OpenStore opens (creating if necessary) the catalog database at path
// and applies pending migrations. In-memory databases are pinned to a
// single connection so every query sees the same schema.
func OpenStore(path string) (*Store, error) {
	config := DBConfig{}
	if isInMemory(path) {
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	}
	return OpenStoreWithConfig(path, config)
}

// OpenStoreWithConfig opens the catalog database with explicit pool
// settings.
func OpenStoreWithConfig(path string, config DBConfig) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	// Foreign keys are off by default in SQLite.
	if _, err := conn.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := applyMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &Store{conn: conn}, nil
}

func isInMemory(path string) bool {
	return path == ":memory:" ||
		(strings.HasPrefix(path, "file:") && strings.Contains(path, "mode=memory"))
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn exposes the raw connection for tests and maintenance tooling.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

const fieldColumns = `id, field_key, canonical_name, description, field_type,
	data_type, category, subcategory, aliases, options, placeholder,
	help_text, usage_count, first_used_by, created_at, updated_at`

// GetByKey returns the entry with the exact field key, or nil when the
// key is unknown.
func (s *Store) GetByKey(key string) (*CanonicalField, error) {
	row := s.conn.QueryRow(
		`SELECT `+fieldColumns+` FROM field_library WHERE field_key = ?`, key)
	return scanField(row)
}

// GetByID returns the entry with the given id, or nil.
func (s *Store) GetByID(id int64) (*CanonicalField, error) {
	row := s.conn.QueryRow(
		`SELECT `+fieldColumns+` FROM field_library WHERE id = ?`, id)
	return scanField(row)
}

// FindByCategoryAndType returns all entries in a category sharing the
// given field type, most used first.
func (s *Store) FindByCategoryAndType(category string, fieldType FieldType) ([]*CanonicalField, error) {
	rows, err := s.conn.Query(
		`SELECT `+fieldColumns+` FROM field_library
		 WHERE category = ? AND field_type = ?
		 ORDER BY usage_count DESC, field_key ASC`,
		category, string(fieldType))
	if err != nil {
		return nil, fmt.Errorf("query by category/type: %w", err)
	}
	defer rows.Close()
	return scanFields(rows)
}

// All returns the entire catalog ordered by field key.
func (s *Store) All() ([]*CanonicalField, error) {
	rows, err := s.conn.Query(
		`SELECT ` + fieldColumns + ` FROM field_library ORDER BY field_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("query all fields: %w", err)
	}
	defer rows.Close()
	return scanFields(rows)
}

// List returns catalog entries matching an optional key/name search and
// optional category filter, most used first.
func (s *Store) List(search, category string, limit, offset int) ([]*CanonicalField, error) {
	query := `SELECT ` + fieldColumns + ` FROM field_library WHERE 1=1`
	args := make([]interface{}, 0, 4)

	if search != "" {
		query += ` AND (field_key LIKE ? OR canonical_name LIKE ?)`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}

	query += ` ORDER BY usage_count DESC, field_key ASC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()
	return scanFields(rows)
}

// Count returns the catalog size.
func (s *Store) Count() (int, error) {
	var n int
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM field_library`).Scan(&n)
	return n, err
}

// Create inserts a new catalog entry. The caller validates first. A key
// collision surfaces as ErrKeyExists.
func (s *Store) Create(field *CanonicalField) error {
	now := time.Now().UTC()
	field.CreatedAt = now
	field.UpdatedAt = now

	result, err := s.conn.Exec(
		`INSERT INTO field_library
			(field_key, canonical_name, description, field_type, data_type,
			 category, subcategory, aliases, options, placeholder, help_text,
			 usage_count, first_used_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(field_key) DO NOTHING`,
		field.FieldKey, field.CanonicalName, field.Description,
		string(field.FieldType), string(field.DataType), field.Category,
		field.Subcategory, marshalJSON(field.Aliases), marshalJSON(field.Options),
		field.Placeholder, field.HelpText, field.UsageCount, field.FirstUsedBy,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert field %q: %w", field.FieldKey, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert field %q: %w", field.FieldKey, err)
	}
	if affected == 0 {
		return ErrKeyExists
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert field %q: %w", field.FieldKey, err)
	}
	field.ID = id
	return nil
}

// ErrKeyExists reports a field_key uniqueness violation on Create.
var ErrKeyExists = fmt.Errorf("field_key already exists")

// GetOrCreate inserts the field, treating a key collision as a match:
// when a concurrent import (or an earlier one) already created the key,
// the existing row is returned instead of an error. A collision with an
// entry of a different field type creates a type-suffixed variant key
// ("date" taken by a date field -> "date_checkbox") so unrelated
// concepts never share an entry. Returns the surviving row and whether
// this call created it.
func (s *Store) GetOrCreate(field *CanonicalField) (*CanonicalField, bool, error) {
	baseKey := field.FieldKey

	for attempt := 0; attempt < 2; attempt++ {
		err := s.Create(field)
		if err == nil {
			return field, true, nil
		}
		if err != ErrKeyExists {
			return nil, false, err
		}

		existing, err := s.GetByKey(field.FieldKey)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			// Row vanished between insert and read (concurrent merge);
			// retry the insert.
			continue
		}
		if existing.FieldType == field.FieldType {
			return existing, false, nil
		}

		// Same key, different widget type: distinct concept, so insert
		// under a variant key.
		field.FieldKey = fmt.Sprintf("%s_%s", baseKey, field.FieldType)
	}

	existing, err := s.GetByKey(field.FieldKey)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("get-or-create %q: could not insert or resolve", baseKey)
}

// Update persists the mutable properties of an entry. The key, type and
// id never change after creation.
func (s *Store) Update(field *CanonicalField) error {
	field.UpdatedAt = time.Now().UTC()
	result, err := s.conn.Exec(
		`UPDATE field_library
		 SET canonical_name = ?, description = ?, data_type = ?, category = ?,
		     subcategory = ?, aliases = ?, options = ?, placeholder = ?,
		     help_text = ?, updated_at = ?
		 WHERE id = ?`,
		field.CanonicalName, field.Description, string(field.DataType),
		field.Category, field.Subcategory, marshalJSON(field.Aliases),
		marshalJSON(field.Options), field.Placeholder, field.HelpText,
		field.UpdatedAt.Format(time.RFC3339), field.ID)
	if err != nil {
		return fmt.Errorf("update field %q: %w", field.FieldKey, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update field %q: %w", field.FieldKey, err)
	}
	if affected == 0 {
		return fmt.Errorf("field %q not found", field.FieldKey)
	}
	return nil
}

// IncrementUsage bumps usage_count atomically in the storage layer so
// concurrent reuses are never lost.
func (s *Store) IncrementUsage(id int64) error {
	_, err := s.conn.Exec(
		`UPDATE field_library
		 SET usage_count = usage_count + 1, updated_at = ?
		 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("increment usage for field %d: %w", id, err)
	}
	return nil
}

// AddAlias records a new known wording on an entry, ignoring wordings
// already present.
func (s *Store) AddAlias(id int64, alias string) error {
	field, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if field == nil {
		return fmt.Errorf("field %d not found", id)
	}
	if alias == "" || field.HasAlias(alias) {
		return nil
	}

	aliases := append(field.Aliases, alias)
	_, err = s.conn.Exec(
		`UPDATE field_library SET aliases = ?, updated_at = ? WHERE id = ?`,
		marshalJSON(aliases), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("add alias to field %d: %w", id, err)
	}
	return nil
}

// Merge folds duplicate into primary: aliases are unioned, usage counts
// summed, every form reference repointed, and the duplicate row deleted.
// The whole operation runs in one transaction so no reader ever sees a
// repointed reference without the deletion or vice versa.
func (s *Store) Merge(primaryID, duplicateID int64) (*CanonicalField, error) {
	if primaryID == duplicateID {
		return nil, fmt.Errorf("cannot merge a field into itself")
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback()

	primary, err := scanField(tx.QueryRow(
		`SELECT `+fieldColumns+` FROM field_library WHERE id = ?`, primaryID))
	if err != nil {
		return nil, err
	}
	duplicate, err := scanField(tx.QueryRow(
		`SELECT `+fieldColumns+` FROM field_library WHERE id = ?`, duplicateID))
	if err != nil {
		return nil, err
	}
	if primary == nil || duplicate == nil {
		return nil, fmt.Errorf("merge: field %d or %d not found", primaryID, duplicateID)
	}

	// Union aliases; the duplicate's own key becomes an alias of the
	// primary so future imports still resolve.
	aliases := primary.Aliases
	for _, alias := range append(duplicate.Aliases, duplicate.FieldKey) {
		if alias == primary.FieldKey {
			continue
		}
		found := false
		for _, existing := range aliases {
			if existing == alias {
				found = true
				break
			}
		}
		if !found {
			aliases = append(aliases, alias)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)

	if _, err := tx.Exec(
		`UPDATE form_field_refs SET field_id = ? WHERE field_id = ?`,
		primaryID, duplicateID); err != nil {
		return nil, fmt.Errorf("repoint form references: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE field_library
		 SET aliases = ?, usage_count = usage_count + ?, updated_at = ?
		 WHERE id = ?`,
		marshalJSON(aliases), duplicate.UsageCount, now, primaryID); err != nil {
		return nil, fmt.Errorf("update merge primary: %w", err)
	}

	if _, err := tx.Exec(
		`DELETE FROM field_library WHERE id = ?`, duplicateID); err != nil {
		return nil, fmt.Errorf("delete merge duplicate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit merge: %w", err)
	}

	return s.GetByID(primaryID)
}

// ApplicationType is one board's imported form definition.
type ApplicationType struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Board       string         `json:"board,omitempty"`
	Description string         `json:"description,omitempty"`
	Fields      []FormFieldRef `json:"fields,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// FormFieldRef ties one position of a board's form to a catalog entry,
// with board-local display overrides.
type FormFieldRef struct {
	ID                int64  `json:"id"`
	ApplicationTypeID int64  `json:"application_type_id"`
	FieldID           int64  `json:"field_id"`
	DisplayOrder      int    `json:"display_order"`
	DisplayName       string `json:"display_name,omitempty"`
	Required          bool   `json:"required"`
	HelpText          string `json:"help_text,omitempty"`
	Placeholder       string `json:"placeholder,omitempty"`
}

// CreateApplicationType persists a board form and its field references
// in one transaction.
func (s *Store) CreateApplicationType(appType *ApplicationType) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin create application type: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.Exec(
		`INSERT INTO application_types (name, board, description, created_at)
		 VALUES (?, ?, ?, ?)`,
		appType.Name, appType.Board, appType.Description, now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert application type: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert application type: %w", err)
	}
	appType.ID = id
	appType.CreatedAt = now

	for i := range appType.Fields {
		ref := &appType.Fields[i]
		ref.ApplicationTypeID = id
		refResult, err := tx.Exec(
			`INSERT INTO form_field_refs
				(application_type_id, field_id, display_order, display_name,
				 required, help_text, placeholder)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, ref.FieldID, ref.DisplayOrder, ref.DisplayName,
			boolToInt(ref.Required), ref.HelpText, ref.Placeholder)
		if err != nil {
			return fmt.Errorf("insert form field ref: %w", err)
		}
		if ref.ID, err = refResult.LastInsertId(); err != nil {
			return fmt.Errorf("insert form field ref: %w", err)
		}
	}

	return tx.Commit()
}

// FormReferences returns every form reference pointing at a field.
func (s *Store) FormReferences(fieldID int64) ([]FormFieldRef, error) {
	rows, err := s.conn.Query(
		`SELECT id, application_type_id, field_id, display_order,
		        display_name, required, help_text, placeholder
		 FROM form_field_refs WHERE field_id = ? ORDER BY id`, fieldID)
	if err != nil {
		return nil, fmt.Errorf("query form references: %w", err)
	}
	defer rows.Close()

	var refs []FormFieldRef
	for rows.Next() {
		var ref FormFieldRef
		var required int
		if err := rows.Scan(&ref.ID, &ref.ApplicationTypeID, &ref.FieldID,
			&ref.DisplayOrder, &ref.DisplayName, &required,
			&ref.HelpText, &ref.Placeholder); err != nil {
			return nil, fmt.Errorf("scan form reference: %w", err)
		}
		ref.Required = required != 0
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanField(row rowScanner) (*CanonicalField, error) {
	var f CanonicalField
	var fieldType, dataType, aliases, options, createdAt, updatedAt string

	err := row.Scan(&f.ID, &f.FieldKey, &f.CanonicalName, &f.Description,
		&fieldType, &dataType, &f.Category, &f.Subcategory, &aliases,
		&options, &f.Placeholder, &f.HelpText, &f.UsageCount,
		&f.FirstUsedBy, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan field: %w", err)
	}

	f.FieldType = FieldType(fieldType)
	f.DataType = DataType(dataType)
	if err := json.Unmarshal([]byte(aliases), &f.Aliases); err != nil {
		return nil, fmt.Errorf("decode aliases of %q: %w", f.FieldKey, err)
	}
	if err := json.Unmarshal([]byte(options), &f.Options); err != nil {
		return nil, fmt.Errorf("decode options of %q: %w", f.FieldKey, err)
	}
	f.CreatedAt = parseTimestamp(createdAt)
	f.UpdatedAt = parseTimestamp(updatedAt)

	return &f, nil
}

func scanFields(rows *sql.Rows) ([]*CanonicalField, error) {
	var fields []*CanonicalField
	for rows.Next() {
		field, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, rows.Err()
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "[]"
	}
	return string(data)
}
