package relevancy

import "strings"

// separators split qualified symbol names:
// "." for Python/Django (django.utils.http), "::" for C++ (std::set),
// "/" for Go (archive/tar).
var separators = []string{".", "::", "/"}

// Token is a symbol name split into its own name and its parent qualifier.
type Token struct {
	Full       string
	Name       string
	ParentName string
}

// ParseToken splits a symbol name at its right-most separator after removing
// a trailing parameter list. A trailing separator ("std::") is dropped rather
// than producing an empty name.
func ParseToken(s string) Token {
	t := Token{Full: s, Name: stripParens(s)}

	for t.Name != "" {
		sepLen, pos := 0, -1
		for _, sep := range separators {
			if p := strings.LastIndex(t.Name, sep); p > pos {
				pos, sepLen = p, len(sep)
			}
		}
		if pos == -1 {
			break
		}

		if pos == len(t.Name)-sepLen {
			t.Name = t.Name[:pos]
		} else {
			t.ParentName = t.Name[:pos]
			t.Name = t.Name[pos+sepLen:]
		}
	}

	return t
}

// stripParens removes the last balanced "(...)" group at the end of s unless
// it is preceded by a space or starts the string.
func stripParens(s string) string {
	if !strings.HasSuffix(s, ")") {
		return s
	}

	open := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ')':
			open++
		case '(':
			open--
		}
		if open == 0 {
			if i != 0 && s[i-1] != ' ' {
				return s[:i]
			}
			return s
		}
	}
	return s
}

// HasQualifier reports whether s contains a separator or parenthesis, i.e.
// whether ParseToken may split or trim it.
func HasQualifier(s string) bool {
	for _, sep := range separators {
		if strings.Contains(s, sep) {
			return true
		}
	}
	return strings.ContainsAny(s, "():")
}
