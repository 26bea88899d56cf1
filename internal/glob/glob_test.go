package glob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		pattern string
		value   string
		want    bool
	}{
		{"foo*bar", "foobazbar", true},
		{"foo*bar", "foobar", true},
		{"foo*bar", "foobar2", false},
		{"foo*bar", "xfoobar", false},
		{"foo", "foo", true},
		{"foo", "foox", false},
		{"*foo", "barfoo", true},
		{"foo*", "foo", true},
		{"f*o*o", "fxxoyyo", true},
		{"**", "", true},
		{"", "", true},
		{"", "x", false},
		{"a.b", "a.b", true},
		{"a.b", "axb", false},
		{"(x)+", "(x)+", true},
		{"[ab]*", "[ab]zzz", true},
		{"[ab]*", "azzz", false},
		{"http://x.org/*", "http://x.org/path?q=1", true},
		{"line*end", "line\nend", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.value, func(t *testing.T) {
			p, err := Compile(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(tt.value))
		})
	}
}

func TestAnyFastPath(t *testing.T) {
	p := MustCompile(Any)

	assert.True(t, p.IsAny())
	for _, v := range []string{"", "null", "anything at all", "*"} {
		assert.True(t, p.Match(v), "value %q", v)
	}

	assert.False(t, MustCompile("a*").IsAny())
}

func TestPatternString(t *testing.T) {
	assert.Equal(t, "foo*bar", MustCompile("foo*bar").String())
	assert.Equal(t, "*", MustCompile("*").String())
}

func TestMatch(t *testing.T) {
	ok, err := Match("21.T*", "21.T12995")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Match("21.T*", "20.T1")
	require.NoError(t, err)
	assert.False(t, ok)
}
