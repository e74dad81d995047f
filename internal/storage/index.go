package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const (
	// NameIndexPrefix marks indexes owned by this package.
	NameIndexPrefix = "__zi_name"
	// NameIndexVersion is bumped whenever the index definition changes;
	// indexes with the prefix and another version are dropped.
	NameIndexVersion = "0001"
)

// NameIndex returns the name of the current case-insensitive name index.
func NameIndex() string {
	return NameIndexPrefix + NameIndexVersion
}

// nameIndexTarget returns the table and column holding symbol names. Indexes
// cannot be created on the ZDash view, only on its base table.
func (ix *Index) nameIndexTarget() (table, column string) {
	if ix.schema == SchemaZDash {
		return "ztoken", "ztokenname"
	}
	return "searchIndex", "name"
}

// EnsureNameIndex creates the versioned NOCASE index on the name column,
// replacing indexes left behind by older versions. It is a no-op when the
// current version already exists.
func (ix *Index) EnsureNameIndex(ctx context.Context) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.db == nil {
		return ErrClosed
	}

	table, column := ix.nameIndexTarget()

	names, err := listIndexes(ctx, ix.db, table)
	if err != nil {
		return err
	}

	var stale []string
	for _, name := range names {
		if !strings.HasPrefix(name, NameIndexPrefix) {
			continue
		}
		if name == NameIndex() {
			return nil
		}
		stale = append(stale, name)
	}

	for _, name := range stale {
		if _, err := ix.db.ExecContext(ctx, "DROP INDEX IF EXISTS "+quoteIdent(name)); err != nil {
			return fmt.Errorf("failed to drop index %s: %w", name, err)
		}
	}

	query := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s COLLATE NOCASE)",
		quoteIdent(NameIndex()), table, column)
	if _, err := ix.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create index %s: %w", NameIndex(), err)
	}

	return nil
}

// listIndexes returns the index names of table via PRAGMA index_list.
func listIndexes(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA index_list("+quoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var names []string
	for rows.Next() {
		// Column count varies across SQLite versions; the name is always second.
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan index list: %w", err)
		}
		if len(values) > 1 {
			names = append(names, sqlText(values[1]))
		}
	}

	return names, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
