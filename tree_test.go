package oscquery

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscjson/go-oscquery/internal/oscval"
)

func TestTree_AddMethodCreatesIntermediateContainers(t *testing.T) {
	tr := NewTree("root")
	tr.AddMethod("/foo/bar", Spec{HasAccess: true, Access: ReadOnly, Arguments: []Argument{{Type: oscval.Single(oscval.Int32)}}})

	foo := tr.Lookup("/foo")
	require.NotNil(t, foo)
	assert.True(t, foo.IsContainer())

	bar := tr.Lookup("/foo/bar")
	require.NotNil(t, bar)
	assert.True(t, bar.IsMethod())
	assert.Equal(t, "/foo/bar", bar.FullPath())
}

func TestTree_InsertChildAddsEmptyNode(t *testing.T) {
	tr := NewTree("root")
	require.NoError(t, tr.InsertChild("/", "foo"))

	foo := tr.Lookup("/foo")
	require.NotNil(t, foo)
	assert.True(t, foo.IsEmpty())
}

func TestTree_InsertChildRejectsDuplicate(t *testing.T) {
	tr := NewTree("root")
	require.NoError(t, tr.InsertChild("/", "foo"))

	err := tr.InsertChild("/", "foo")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateChild)
}

func TestTree_InsertChildRejectsUnknownParent(t *testing.T) {
	tr := NewTree("root")
	err := tr.InsertChild("/never/registered", "foo")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestTree_RemoveMethodPrunesEmptyAncestors(t *testing.T) {
	tr := NewTree("root")
	tr.AddMethod("/a/b/c", Spec{Arguments: []Argument{}})
	tr.RemoveMethod("/a/b/c")

	assert.Nil(t, tr.Lookup("/a"))
	assert.Nil(t, tr.Lookup("/a/b"))
	assert.Nil(t, tr.Lookup("/a/b/c"))
}

func TestTree_RemoveMethodKeepsAncestorWithOtherChildren(t *testing.T) {
	tr := NewTree("root")
	tr.AddMethod("/a/b", Spec{Arguments: []Argument{}})
	tr.AddMethod("/a/c", Spec{Arguments: []Argument{}})
	tr.RemoveMethod("/a/b")

	assert.Nil(t, tr.Lookup("/a/b"))
	assert.NotNil(t, tr.Lookup("/a"))
	assert.NotNil(t, tr.Lookup("/a/c"))
}

func TestTree_RemoveMethodOnUnknownPathIsNoop(t *testing.T) {
	tr := NewTree("root")
	assert.NotPanics(t, func() {
		tr.RemoveMethod("/never/registered")
	})
}

func TestTree_SetValueOutOfRange(t *testing.T) {
	tr := NewTree("root")
	tr.AddMethod("/m", Spec{Arguments: []Argument{{Type: oscval.Single(oscval.Int32)}}})

	err := tr.SetValue("/m", 5, oscval.NewInt32(1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestTree_SetValueOnUnknownPathIsNoop(t *testing.T) {
	tr := NewTree("root")
	err := tr.SetValue("/missing", 0, oscval.NewInt32(1))
	assert.NoError(t, err)
}

func TestTree_SetAndGetValue(t *testing.T) {
	tr := NewTree("root")
	tr.AddMethod("/m", Spec{Arguments: []Argument{{Type: oscval.Single(oscval.Int32)}}})

	require.NoError(t, tr.SetValue("/m", 0, oscval.NewInt32(9)))
	v := tr.GetValue("/m", 0)
	i, ok := v.Int32()
	assert.True(t, ok)
	assert.EqualValues(t, 9, i)

	require.NoError(t, tr.UnsetValue("/m", 0))
	assert.False(t, tr.GetValue("/m", 0).Ok())
}

func TestTree_GetValueNeverFails(t *testing.T) {
	tr := NewTree("root")
	assert.False(t, tr.GetValue("/nope", 0).Ok())

	tr.AddMethod("/m", Spec{Arguments: []Argument{{Type: oscval.Single(oscval.Int32)}}})
	assert.False(t, tr.GetValue("/m", 9).Ok())
}

func TestTree_WalkVisitsOnlyMethods(t *testing.T) {
	tr := NewTree("root")
	tr.AddMethod("/a/b", Spec{Arguments: []Argument{}})
	tr.AddMethod("/a/c/d", Spec{Arguments: []Argument{}})

	var paths []string
	tr.Walk(func(path string, n *Node) {
		paths = append(paths, path)
	})
	assert.ElementsMatch(t, []string{"/a/b", "/a/c/d"}, paths)
}

// TestTree_FuzzPaths generates randomized, non-empty path segment sets and
// asserts the fundamental round trip invariant: any method registered at a
// path is found at the same path, and removing it leaves no trace behind.
func TestTree_FuzzPaths(t *testing.T) {
	unicodeRanges := fuzz.UnicodeRanges{
		{First: 'a', Last: 'z'},
		{First: 'A', Last: 'Z'},
		{First: '0', Last: '9'},
	}
	f := fuzz.New().NilChance(0).NumElements(1, 5).Funcs(unicodeRanges.CustomStringFuzzFunc())

	tr := NewTree("root")
	for i := 0; i < 500; i++ {
		var segs []string
		f.Fuzz(&segs)
		if len(segs) == 0 {
			continue
		}

		path := "/" + joinSegs(segs)
		tr.AddMethod(path, Spec{Arguments: []Argument{}})

		n := tr.Lookup(path)
		require.NotNil(t, n, "path %q", path)
		assert.True(t, n.IsMethod())
		assert.Equal(t, path, n.FullPath())

		tr.RemoveMethod(path)
		assert.Nil(t, tr.Lookup(path))
	}
}

func joinSegs(segs []string) string {
	out := ""
	for i, s := range segs {
		if s == "" {
			s = "x"
		}
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}

func TestSplitPath_TrimsAndCollapsesSlashes(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitPath("/a/b"))
	assert.Equal(t, []string{"a", "b"}, splitPath("//a//b//"))
	assert.Equal(t, []string{}, splitPath("/"))
}
