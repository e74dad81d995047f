package storage

import (
	"fmt"

	"github.com/dshills/dashdocs-mcp/internal/relevancy"
)

// ScoreFunctionName is the SQL scalar function used by fuzzy search.
// zealScore(needle, haystack) returns the packed relevancy of haystack,
// or 0 when it does not match.
const ScoreFunctionName = "zealScore"

func zealScore(needle, haystack any) int64 {
	return relevancy.Score(sqlText(needle), sqlText(haystack))
}

// sqlText converts a SQLite argument to text. NULL becomes the empty string.
func sqlText(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
