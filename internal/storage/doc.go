// Package storage provides SQLite access to docset indexes (docSet.dsidx).
//
// Two on-disk layouts are normalized to one query surface:
//   - Dash: a searchIndex(name, type, path) table; anchors live inside path
//   - ZDash: Core Data tables (ztoken, ztokenmetainformation, zfilepath,
//     ztokentype), exposed through a searchIndex view with an extra
//     fragment column
//
// # Drivers
//
// The driver is chosen at build time. The default build uses the pure Go
// modernc.org/sqlite driver; building with the sqlite_cgo tag switches to
// github.com/mattn/go-sqlite3. Either way every connection provides the
// zealScore(needle, haystack) scalar function used by fuzzy search.
//
// # Basic Usage
//
//	ix, err := storage.OpenIndex(ctx, "Go.docset/Contents/Resources/docSet.dsidx")
//	if err != nil {
//	    return err
//	}
//	defer ix.Close()
//
//	if err := ix.EnsureNameIndex(ctx); err != nil {
//	    log.Printf("warning: %v", err)
//	}
//
//	err = ix.Search(ctx, storage.SearchParams{Query: "http", Fuzzy: true},
//	    func(row storage.Row) bool {
//	        fmt.Println(row.Name, row.Path)
//	        return true
//	    })
//
// # Concurrency
//
// Each Index keeps a single pooled connection, so statements issued on the
// same Index are serialized. Different indexes are independent and may be
// searched in parallel. Close waits for in-flight reads to finish.
//
// All user input is passed as bound parameters; LIKE patterns are escaped
// with EscapeLike.
package storage
