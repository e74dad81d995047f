package relevancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashdocs-mcp/pkg/types"
)

func TestParseToken(t *testing.T) {
	tests := []struct {
		in         string
		name       string
		parentName string
	}{
		{"std::string", "string", "std"},
		{"django.utils.http", "http", "django.utils"},
		{"archive/tar", "tar", "archive"},
		{"QString::arg(int) const", "arg(int) const", "QString"},
		{"operator()", "operator", ""},
		{"f(x)(y)", "f(x)", ""},
		{"foo (bar)", "foo (bar)", ""},
		{"(foo)", "(foo)", ""},
		{"std::", "std", ""},
		{"a.b.", "b", "a"},
		{"plain", "plain", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tok := ParseToken(tt.in)
			assert.Equal(t, tt.in, tok.Full)
			assert.Equal(t, tt.name, tok.Name)
			assert.Equal(t, tt.parentName, tok.ParentName)
		})
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		candidate string
		query     string
		matchType types.MatchType
		score     float64
	}{
		{"foo", "foo", types.NameMatch, 1.0},
		{"xfooy", "foo", types.NameMatch, 0.8},
		{"FooBar", "FOO", types.NameMatch, 0.75},
		{"foobar", "fb", types.NameMatch, 5.0 / 12},
		{"QString::arg", "arg", types.NameMatch, 1.0},
		{"QString::arg", "qstring", types.ParentNameMatch, 1.0},
		{"QString::arg", "qstring::arg", types.BothMatch, 1.0},
		{"std::string", "std.str", types.BothMatch, 0.95},
		{"std::string", "xyz", types.NoMatch, 0},
		{"anything", "", types.NoMatch, 0},
	}

	for _, tt := range tests {
		t.Run(tt.candidate+"/"+tt.query, func(t *testing.T) {
			r := Compute(tt.candidate, tt.query)
			assert.Equal(t, tt.matchType, r.MatchType)
			assert.InDelta(t, tt.score, r.Score, 1e-9)
		})
	}
}

func TestComputeBounds(t *testing.T) {
	candidates := []string{"a", "abc::def", "x.y.z", "QWidget::setGeometry(int, int)", "größe", "a/b/c/d"}
	queries := []string{"a", "ab", "d", "x.z", "q::g", "ö", "b/d", "zzz"}

	for _, c := range candidates {
		for _, q := range queries {
			r := Compute(c, q)
			assert.GreaterOrEqual(t, r.Score, 0.0, "%s/%s", c, q)
			assert.LessOrEqual(t, r.Score, 1.0, "%s/%s", c, q)
			if !r.Matched() {
				assert.Zero(t, r.Score)
			}
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Run("no match encodes to zero", func(t *testing.T) {
		assert.Zero(t, Encode(Relevancy{}))
		assert.Zero(t, Encode(Relevancy{MatchType: types.NoMatch, Score: 0.5}))
		assert.Equal(t, Relevancy{}, Decode(0))
	})

	t.Run("round trip", func(t *testing.T) {
		r := Relevancy{MatchType: types.BothMatch, Score: 0.95}
		got := Decode(Encode(r))
		assert.Equal(t, types.BothMatch, got.MatchType)
		assert.InDelta(t, 0.95, got.Score, 1e-8)
	})

	t.Run("perfect score", func(t *testing.T) {
		got := Decode(Encode(Relevancy{MatchType: types.NameMatch, Score: 1}))
		assert.Equal(t, types.NameMatch, got.MatchType)
		assert.Equal(t, 1.0, got.Score)
	})

	t.Run("order follows score then match type", func(t *testing.T) {
		low := Encode(Relevancy{MatchType: types.BothMatch, Score: 0.5})
		high := Encode(Relevancy{MatchType: types.ParentNameMatch, Score: 0.6})
		require.Less(t, low, high)

		parent := Encode(Relevancy{MatchType: types.ParentNameMatch, Score: 0.5})
		name := Encode(Relevancy{MatchType: types.NameMatch, Score: 0.5})
		assert.Less(t, parent, name)
		assert.Less(t, name, low)
	})
}

func TestScore(t *testing.T) {
	assert.Zero(t, Score("xyz", "foo"))
	assert.Positive(t, Score("foo", "xfooy"))
	assert.Greater(t, Score("foo", "foo"), Score("foo", "xfooy"))
}

func TestHasQualifier(t *testing.T) {
	assert.False(t, HasQualifier("foo"))
	assert.False(t, HasQualifier(""))
	for _, s := range []string{"a.b", "a::b", "a/b", "f(", "g)", "x:"} {
		assert.True(t, HasQualifier(s), s)
	}
}
