package subscribe

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
)

func TestFilter_AcceptAllByDefault(t *testing.T) {
	f := New()
	assert.True(t, f.Accepts("/anything/at/all"))
}

func TestFilter_ExactMatch(t *testing.T) {
	f := New()
	f.Subscribe("/foo/bar")
	assert.True(t, f.Accepts("/foo/bar"))
	assert.False(t, f.Accepts("/foo/baz"))
}

func TestFilter_PrefixWildcard(t *testing.T) {
	f := New()
	f.Subscribe("/foo/*")
	assert.True(t, f.Accepts("/foo/bar"))
	assert.True(t, f.Accepts("/foo/bar/baz"))
	assert.False(t, f.Accepts("/bar/foo"))
}

func TestFilter_NegativeSubstringExclusion(t *testing.T) {
	f := New()
	f.Subscribe("/foo(!?secret)")
	assert.True(t, f.Accepts("/foo/public"))
	assert.False(t, f.Accepts("/foo/secret/value"))
}

// TestFilter_NegativePatternIsOverriddenByPositiveMatch documents the
// OR-semantics decision carried over from the Open Question: a negative
// pattern cannot by itself exclude an address also matched by a distinct
// positive pattern in the same set.
func TestFilter_NegativePatternIsOverriddenByPositiveMatch(t *testing.T) {
	f := New()
	f.Subscribe("/foo(!?secret)")
	f.Subscribe("/foo/secret")
	assert.True(t, f.Accepts("/foo/secret"))
}

func TestFilter_UnsubscribeReenablesAcceptAllWhenEmpty(t *testing.T) {
	f := New()
	f.Subscribe("/foo")
	assert.False(t, f.Accepts("/bar"))

	f.Unsubscribe("/foo")
	assert.True(t, f.Accepts("/bar"))
}

func TestFilter_SubscribeAllPathsResetsToAcceptAll(t *testing.T) {
	f := New()
	f.Subscribe("/foo")
	f.Subscribe("/baz")
	f.SubscribeAllPaths()
	assert.True(t, f.Accepts("/anything"))
}

func TestFilter_FuzzPatterns(t *testing.T) {
	unicodeRanges := fuzz.UnicodeRanges{
		{First: 'a', Last: 'z'},
	}
	f := fuzz.New().NilChance(0).NumElements(1, 4).Funcs(unicodeRanges.CustomStringFuzzFunc())

	filt := New()
	for i := 0; i < 300; i++ {
		var seg string
		f.Fuzz(&seg)
		if seg == "" {
			continue
		}
		pattern := "/" + seg + "*"
		filt.Subscribe(pattern)
		assert.True(t, filt.Accepts("/"+seg+"/child"))
	}
}
