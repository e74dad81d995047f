// Package lcs computes the longest common subsequence of two strings and
// metrics describing how the subsequence covers either source string.
package lcs

// Target selects which source string a metric is measured against.
type Target int

const (
	TargetA Target = iota // the first string passed to New, usually the candidate
	TargetB               // the second string, usually the query
)

// LCS holds the longest common subsequence of two strings.
type LCS struct {
	a, b        []rune
	subsequence []rune
}

// New computes the longest common subsequence of a and b with an O(n·m)
// dynamic programming table. Comparison is exact; callers fold case first.
func New(a, b string) *LCS {
	l := &LCS{a: []rune(a), b: []rune(b)}
	if len(l.a) == 0 || len(l.b) == 0 {
		return l
	}
	l.subsequence = backtrack(l.a, l.b, lengthTable(l.a, l.b))
	return l
}

// lengthTable fills the DP table; table[i][j] is the LCS length of a[:i] and b[:j].
func lengthTable(a, b []rune) [][]int {
	rows, cols := len(a)+1, len(b)+1
	cells := make([]int, rows*cols)
	table := make([][]int, rows)
	for i := range table {
		table[i] = cells[i*cols : (i+1)*cols]
	}

	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				table[i+1][j+1] = table[i][j] + 1
			} else {
				table[i+1][j+1] = max(table[i+1][j], table[i][j+1])
			}
		}
	}
	return table
}

// backtrack walks the table from the bottom-right corner. On a mismatch it
// moves left only when that keeps a strictly longer prefix, otherwise up.
func backtrack(a, b []rune, table [][]int) []rune {
	i, j := len(a), len(b)
	out := make([]rune, table[i][j])
	k := len(out)
	for i > 0 && j > 0 {
		switch {
		case a[i-1] == b[j-1]:
			k--
			out[k] = a[i-1]
			i--
			j--
		case table[i][j-1] > table[i-1][j]:
			j--
		default:
			i--
		}
	}
	return out
}

// Subsequence returns the longest common subsequence.
func (l *LCS) Subsequence() string {
	return string(l.subsequence)
}

// Length returns the subsequence length in runes.
func (l *LCS) Length() int {
	return len(l.subsequence)
}

func (l *LCS) target(t Target) []rune {
	if t == TargetB {
		return l.b
	}
	return l.a
}

// Density is the fraction of the target covered by the subsequence:
// 1 for a perfect match, 0 when nothing matched.
func (l *LCS) Density(t Target) float64 {
	if len(l.subsequence) == 0 {
		return 0
	}
	return float64(len(l.subsequence)) / float64(len(l.target(t)))
}

// Spread is the subsequence length divided by the width of the target span it
// occupies, starting at the first occurrence of its first rune and matching
// greedily from there. It equals 1 when the subsequence is a substring.
func (l *LCS) Spread(t Target) float64 {
	if len(l.subsequence) == 0 {
		return 0
	}
	target := l.target(t)

	start := indexRune(target, l.subsequence[0])
	end := start
	for i, j := start, 0; j < len(l.subsequence); i++ {
		if target[i] == l.subsequence[j] {
			end = i
			j++
		}
	}

	return float64(len(l.subsequence)) / float64(end-start+1)
}

// Positions returns the greedy left-most rune positions of the subsequence in the target.
func (l *LCS) Positions(t Target) []int {
	target := l.target(t)
	positions := make([]int, 0, len(l.subsequence))
	for i, j := 0, 0; j < len(l.subsequence); i++ {
		if target[i] == l.subsequence[j] {
			positions = append(positions, i)
			j++
		}
	}
	return positions
}

func indexRune(s []rune, r rune) int {
	for i, c := range s {
		if c == r {
			return i
		}
	}
	return -1
}
