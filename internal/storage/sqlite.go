package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

var (
	// ErrClosed is returned when an index is used after Close
	ErrClosed = errors.New("index is closed")
	// ErrUnsupportedSchema is returned when a database has neither a Dash nor a ZDash layout
	ErrUnsupportedSchema = errors.New("unsupported index schema")
)

// Schema identifies the on-disk layout of a docset index.
type Schema int

const (
	SchemaInvalid Schema = iota
	// SchemaDash has a searchIndex(name, type, path) table.
	SchemaDash
	// SchemaZDash has the Core Data ztoken tables, exposed through a searchIndex view.
	SchemaZDash
)

func (s Schema) String() string {
	switch s {
	case SchemaDash:
		return "dash"
	case SchemaZDash:
		return "zdash"
	default:
		return "invalid"
	}
}

const createViewSQL = `
CREATE VIEW IF NOT EXISTS searchIndex AS
  SELECT
    ztokenname AS name,
    ztypename AS type,
    zpath AS path,
    zanchor AS fragment
  FROM ztoken
  INNER JOIN ztokenmetainformation
    ON ztoken.zmetainformation = ztokenmetainformation.z_pk
  INNER JOIN zfilepath
    ON ztokenmetainformation.zfile = zfilepath.z_pk
  INNER JOIN ztokentype
    ON ztoken.ztokentype = ztokentype.z_pk
`

// Row is one searchIndex entry. Score is only set by Search.
type Row struct {
	Name     string
	Type     string
	Path     string
	Fragment string
	Score    int64
}

// SearchParams controls a single index search.
type SearchParams struct {
	Query string
	// Fuzzy selects zealScore ranking instead of substring matching.
	Fuzzy bool
	// Limit caps the number of rows; 0 means unlimited.
	Limit int
}

// Index is a read-mostly handle on a docset's docSet.dsidx database.
// The pool holds a single connection, so statements on one Index never
// run concurrently; mu keeps Close from racing in-flight reads.
type Index struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	schema Schema
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return db, nil
}

// OpenIndex opens the index at path and normalizes it to the searchIndex
// query surface. The file must already exist.
func OpenIndex(ctx context.Context, path string) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	db, err := openDatabase(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema, err := detectSchema(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if schema == SchemaZDash {
		if _, err := db.ExecContext(ctx, createViewSQL); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create searchIndex view: %w", err)
		}
	}

	return &Index{db: db, path: path, schema: schema}, nil
}

func detectSchema(ctx context.Context, db *sql.DB) (Schema, error) {
	hasTable := func(name string) (bool, error) {
		var n int
		err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE",
			name).Scan(&n)
		if err != nil {
			return false, fmt.Errorf("failed to inspect schema: %w", err)
		}
		return n > 0, nil
	}

	ok, err := hasTable("searchIndex")
	if err != nil {
		return SchemaInvalid, err
	}
	if ok {
		return SchemaDash, nil
	}

	ok, err = hasTable("ztoken")
	if err != nil {
		return SchemaInvalid, err
	}
	if ok {
		return SchemaZDash, nil
	}

	return SchemaInvalid, ErrUnsupportedSchema
}

// Path returns the database file path
func (ix *Index) Path() string {
	return ix.path
}

// Schema returns the detected layout
func (ix *Index) Schema() Schema {
	return ix.schema
}

// Close closes the database connection, waiting for in-flight reads.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.db == nil {
		return nil
	}
	err := ix.db.Close()
	ix.db = nil
	return err
}

// fragmentColumn is the fragment expression; Dash tables carry anchors inside path.
func (ix *Index) fragmentColumn() string {
	if ix.schema == SchemaZDash {
		return "fragment"
	}
	return "''"
}

// Search streams matching rows to fn in rank order until fn returns false.
func (ix *Index) Search(ctx context.Context, params SearchParams, fn func(Row) bool) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.db == nil {
		return ErrClosed
	}

	query, args := ix.searchQuery(params)
	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to search index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return err
		}
		if !fn(row) {
			return nil
		}
	}

	return rows.Err()
}

func (ix *Index) searchQuery(params SearchParams) (string, []any) {
	var sb strings.Builder
	var args []any

	sb.WriteString("SELECT name, type, path, ")
	sb.WriteString(ix.fragmentColumn())

	if params.Fuzzy {
		sb.WriteString(", " + ScoreFunctionName + "(?, name) AS score")
		sb.WriteString(" FROM searchIndex WHERE score > 0")
		sb.WriteString(" ORDER BY score DESC, length(name), name COLLATE NOCASE")
		args = append(args, params.Query)
	} else {
		sb.WriteString(", -length(name) AS score")
		sb.WriteString(` FROM searchIndex WHERE name LIKE ? ESCAPE '\'`)
		sb.WriteString(" ORDER BY score DESC, name COLLATE NOCASE")
		args = append(args, "%"+EscapeLike(params.Query)+"%")
	}

	if params.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, params.Limit)
	}

	return sb.String(), args
}

// Related returns the entries located on page: for Dash every row whose
// path extends page, for ZDash every anchored row of page itself.
func (ix *Index) Related(ctx context.Context, page string) ([]Row, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.db == nil {
		return nil, ErrClosed
	}

	var rows *sql.Rows
	var err error
	if ix.schema == SchemaZDash {
		rows, err = ix.db.QueryContext(ctx, `
			SELECT name, type, path, fragment, 0
			FROM searchIndex
			WHERE path = ? AND fragment IS NOT NULL
		`, page)
	} else {
		rows, err = ix.db.QueryContext(ctx, `
			SELECT name, type, path, '', 0
			FROM searchIndex
			WHERE path LIKE ? ESCAPE '\' AND path <> ?
		`, EscapeLike(page)+"%", page)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query related entries: %w", err)
	}
	defer rows.Close()

	return collectRows(rows)
}

// CountByType counts entries per raw type string.
func (ix *Index) CountByType(ctx context.Context) (map[string]int, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.db == nil {
		return nil, ErrClosed
	}

	rows, err := ix.db.QueryContext(ctx, "SELECT type, COUNT(*) FROM searchIndex GROUP BY type")
	if err != nil {
		return nil, fmt.Errorf("failed to count symbols: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var symbolType sql.NullString
		var count int
		if err := rows.Scan(&symbolType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan symbol count: %w", err)
		}
		counts[symbolType.String] += count
	}

	return counts, rows.Err()
}

// SymbolsByType lists entries with the raw type string, ordered by name.
func (ix *Index) SymbolsByType(ctx context.Context, rawType string) ([]Row, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.db == nil {
		return nil, ErrClosed
	}

	query := "SELECT name, type, path, " + ix.fragmentColumn() + ", 0 FROM searchIndex WHERE type = ? ORDER BY name"
	rows, err := ix.db.QueryContext(ctx, query, rawType)
	if err != nil {
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}
	defer rows.Close()

	return collectRows(rows)
}

func scanRow(rows *sql.Rows) (Row, error) {
	var name, symbolType, path, fragment sql.NullString
	var score sql.NullInt64
	if err := rows.Scan(&name, &symbolType, &path, &fragment, &score); err != nil {
		return Row{}, fmt.Errorf("failed to scan row: %w", err)
	}
	return Row{
		Name:     name.String,
		Type:     symbolType.String,
		Path:     path.String,
		Fragment: fragment.String,
		Score:    score.Int64,
	}, nil
}

func collectRows(rows *sql.Rows) ([]Row, error) {
	var result []Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// EscapeLike escapes LIKE wildcards for use with ESCAPE '\'.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
