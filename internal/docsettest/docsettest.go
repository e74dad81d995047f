// Package docsettest builds Dash and ZDash docset bundles on disk for tests.
package docsettest

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/dshills/dashdocs-mcp/internal/storage"
)

// Entry is one searchIndex row.
type Entry struct {
	Name     string
	Type     string
	Path     string
	Fragment string
}

// Bundle describes a docset to create.
type Bundle struct {
	// Dir is the bundle directory name without the .docset suffix.
	Dir string
	// Meta is written as meta.json when non-nil.
	Meta map[string]any
	// Plist is written as Contents/Info.plist when non-nil.
	Plist map[string]any
	// BinaryPlist writes Plist in binary format instead of XML.
	BinaryPlist bool
	ZDash       bool
	Entries     []Entry
	// Pages are created as empty files under Contents/Resources/Documents.
	Pages []string
	// NoDocuments omits the Documents directory.
	NoDocuments bool
}

// Create writes b under root and returns the bundle path.
func Create(t testing.TB, root string, b Bundle) string {
	t.Helper()

	path := filepath.Join(root, b.Dir+".docset")
	resources := filepath.Join(path, "Contents", "Resources")
	require.NoError(t, os.MkdirAll(resources, 0o755))

	if b.Meta != nil {
		data, err := json.Marshal(b.Meta)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(path, "meta.json"), data, 0o644))
	}

	if b.Plist != nil {
		format := plist.XMLFormat
		if b.BinaryPlist {
			format = plist.BinaryFormat
		}
		data, err := plist.Marshal(b.Plist, format)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(path, "Contents", "Info.plist"), data, 0o644))
	}

	if !b.NoDocuments {
		docs := filepath.Join(resources, "Documents")
		require.NoError(t, os.MkdirAll(docs, 0o755))
		for _, page := range b.Pages {
			file := filepath.Join(docs, filepath.FromSlash(page))
			require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
			require.NoError(t, os.WriteFile(file, []byte("<html></html>"), 0o644))
		}
	}

	WriteIndex(t, filepath.Join(resources, "docSet.dsidx"), b.ZDash, b.Entries)
	return path
}

// WriteIndex creates a docSet.dsidx database holding entries.
func WriteIndex(t testing.TB, path string, zdash bool, entries []Entry) {
	t.Helper()

	db, err := sql.Open(storage.DriverName, path)
	require.NoError(t, err)
	defer db.Close()

	if zdash {
		writeZDash(t, db, entries)
	} else {
		writeDash(t, db, entries)
	}
}

func writeDash(t testing.TB, db *sql.DB, entries []Entry) {
	_, err := db.Exec(`CREATE TABLE searchIndex (id INTEGER PRIMARY KEY, name TEXT, type TEXT, path TEXT)`)
	require.NoError(t, err)

	for _, e := range entries {
		path := e.Path
		if e.Fragment != "" {
			path += "#" + e.Fragment
		}
		_, err := db.Exec(`INSERT INTO searchIndex (name, type, path) VALUES (?, ?, ?)`, e.Name, e.Type, path)
		require.NoError(t, err)
	}
}

func writeZDash(t testing.TB, db *sql.DB, entries []Entry) {
	_, err := db.Exec(`
		CREATE TABLE ztokentype (z_pk INTEGER PRIMARY KEY, ztypename TEXT);
		CREATE TABLE zfilepath (z_pk INTEGER PRIMARY KEY, zpath TEXT);
		CREATE TABLE ztokenmetainformation (z_pk INTEGER PRIMARY KEY, zfile INTEGER, zanchor TEXT);
		CREATE TABLE ztoken (z_pk INTEGER PRIMARY KEY, ztokenname TEXT, ztokentype INTEGER, zmetainformation INTEGER);
	`)
	require.NoError(t, err)

	types := make(map[string]int64)
	files := make(map[string]int64)
	for i, e := range entries {
		typeID, ok := types[e.Type]
		if !ok {
			res, err := db.Exec(`INSERT INTO ztokentype (ztypename) VALUES (?)`, e.Type)
			require.NoError(t, err)
			typeID, err = res.LastInsertId()
			require.NoError(t, err)
			types[e.Type] = typeID
		}

		fileID, ok := files[e.Path]
		if !ok {
			res, err := db.Exec(`INSERT INTO zfilepath (zpath) VALUES (?)`, e.Path)
			require.NoError(t, err)
			fileID, err = res.LastInsertId()
			require.NoError(t, err)
			files[e.Path] = fileID
		}

		var anchor any
		if e.Fragment != "" {
			anchor = e.Fragment
		}
		metaID := int64(i + 1)
		_, err := db.Exec(`INSERT INTO ztokenmetainformation (z_pk, zfile, zanchor) VALUES (?, ?, ?)`, metaID, fileID, anchor)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO ztoken (ztokenname, ztokentype, zmetainformation) VALUES (?, ?, ?)`, e.Name, typeID, metaID)
		require.NoError(t, err)
	}
}
