// Package relevancy scores how well a symbol name matches a search query
// using longest-common-subsequence metrics.
//
// A query is matched against the candidate's own name first, then against its
// parent qualifier, and finally split into name and parent parts itself:
//
//	r := relevancy.Compute("QString::arg", "arg")
//	r.MatchType // types.NameMatch
//	r.Score     // 1.0
//
// Scores are bounded to [0, 1]. Encode packs a score and its match type into
// one integer so SQLite can order rows by both with a single ORDER BY term.
package relevancy

import (
	"strings"
	"unicode/utf8"

	"github.com/dshills/dashdocs-mcp/internal/lcs"
	"github.com/dshills/dashdocs-mcp/pkg/types"
)

const (
	bothMatchBoost   = 1.1
	bothMatchCeiling = 0.95

	// scoreScale keeps an encoded score in bits 2..30 and the match type in bits 0..1.
	scoreScale = 0x10000000
)

// Relevancy is the outcome of matching one candidate against one query.
type Relevancy struct {
	MatchType types.MatchType
	Score     float64
}

// Matched reports whether the candidate matched at all.
func (r Relevancy) Matched() bool {
	return r.MatchType != types.NoMatch
}

// Compute scores candidate against query. Both are compared lower-cased.
func Compute(candidate, query string) Relevancy {
	if query == "" {
		return Relevancy{}
	}

	query = strings.ToLower(query)
	token := ParseToken(strings.ToLower(candidate))
	queryLen := utf8.RuneCountInString(query)

	var nameLCS, parentLCS *lcs.LCS
	matchType := types.NoMatch

	nameLCS = lcs.New(token.Name, query)
	if nameLCS.Length() > 0 && nameLCS.Length() == queryLen {
		matchType = types.NameMatch
	} else {
		parentLCS = lcs.New(token.ParentName, query)
		if parentLCS.Length() > 0 && parentLCS.Length() == queryLen {
			matchType = types.ParentNameMatch
		} else {
			q := ParseToken(query)
			nameLCS = lcs.New(token.Name, q.Name)
			parentLCS = lcs.New(token.ParentName, q.ParentName)
			both := nameLCS.Length() + parentLCS.Length()
			if both > 0 && both == utf8.RuneCountInString(q.Name)+utf8.RuneCountInString(q.ParentName) {
				matchType = types.BothMatch
			}
		}
	}

	var score float64
	switch matchType {
	case types.NameMatch:
		score = (nameLCS.Density(lcs.TargetA) + nameLCS.Spread(lcs.TargetA)) / 2
	case types.ParentNameMatch:
		score = (parentLCS.Density(lcs.TargetA) + parentLCS.Spread(lcs.TargetA)) / 2
	case types.BothMatch:
		score = (nameLCS.Density(lcs.TargetA) + parentLCS.Density(lcs.TargetA) +
			nameLCS.Spread(lcs.TargetA) + parentLCS.Spread(lcs.TargetA)) / 4
		// The removed separator costs density; boost, but never past a near-perfect match.
		if score != 1 {
			score = min(bothMatchCeiling, score*bothMatchBoost)
		}
	}

	return Relevancy{MatchType: matchType, Score: clamp(score)}
}

func clamp(score float64) float64 {
	return max(0, min(1, score))
}

// Encode packs r into an integer whose natural order is (Score, MatchType).
// NoMatch always encodes to 0 and every match encodes to a positive value.
func Encode(r Relevancy) int64 {
	if !r.Matched() {
		return 0
	}
	return int64(clamp(r.Score)*scoreScale)<<2 + int64(r.MatchType)
}

// Decode reverses Encode. The score is quantized to 2^-28.
func Decode(v int64) Relevancy {
	if v <= 0 {
		return Relevancy{}
	}
	return Relevancy{
		MatchType: types.MatchType(v & 0x3),
		Score:     float64(v>>2) / scoreScale,
	}
}

// Score is the zealScore SQL function: the encoded relevancy of haystack
// (a symbol name) for needle (the query).
func Score(needle, haystack string) int64 {
	return Encode(Compute(haystack, needle))
}
