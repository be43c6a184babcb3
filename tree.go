package oscquery

import (
	"strings"
	"sync"

	"github.com/oscjson/go-oscquery/internal/oscval"
)

// Tree owns the root Node and serializes every mutation behind a
// reader-writer lock, per the concurrency model: mutations (AddMethod,
// RemoveMethod, SetValue, UnsetValue) take the exclusive lock; reads
// (Lookup, GetValue, Walk, and the HTTP endpoint's serialization) take the
// shared lock, so a response never mixes pre- and post-mutation state of
// the same node.
type Tree struct {
	mu   sync.RWMutex
	root *Node
}

// NewTree constructs a Tree whose root carries rootDescription and defaults
// to NO_VALUE access.
func NewTree(rootDescription string) *Tree {
	root := newNode("", nil)
	if rootDescription != "" {
		root.hasDesc = true
		root.description = rootDescription
	}
	return &Tree{root: root}
}

// splitPath splits a path on '/', dropping empty segments so that leading,
// trailing, and repeated slashes are tolerated.
func splitPath(path string) []string {
	raw := strings.Split(path, "/")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// AddMethod descends from the root, creating missing children, and assigns
// spec to the terminal node. Overwriting an existing method's metadata is
// permitted and never touches its children.
func (t *Tree) AddMethod(path string, spec Spec) {
	segs := splitPath(path)
	t.mu.Lock()
	defer t.mu.Unlock()
	cur := t.root
	for _, seg := range segs {
		cur = cur.getOrCreateChild(seg)
	}
	cur.applySpec(spec)
}

// InsertChild is the low-level counterpart to AddMethod: where AddMethod
// gets-or-creates every segment of a path, InsertChild adds exactly one
// empty child named name under the node at parentPath and fails rather than
// silently reusing an existing one. It returns ErrParentNotFound if
// parentPath does not resolve, or ErrDuplicateChild if parent already has a
// child of that name. The inserted node is a plain container or method
// candidate with no metadata and no argument slots; callers that want a
// method still need AddMethod to populate it.
func (t *Tree) InsertChild(parentPath, name string) error {
	segs := splitPath(parentPath)
	t.mu.Lock()
	defer t.mu.Unlock()

	parent := t.resolve(segs)
	if parent == nil {
		return ErrParentNotFound
	}
	return parent.addChild(newNode(name, parent))
}

// RemoveMethod locates the node at path (a no-op if absent), clears its
// metadata, then walks parent-ward removing every now-empty node until a
// non-empty node or the root is reached. The root is never removed.
func (t *Tree) RemoveMethod(path string) {
	segs := splitPath(path)
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.root
	chain := make([]*Node, 0, len(segs)+1)
	chain = append(chain, cur)
	for _, seg := range segs {
		c, ok := cur.child(seg)
		if !ok {
			return
		}
		cur = c
		chain = append(chain, cur)
	}

	cur.clearMethod()

	for i := len(chain) - 1; i > 0; i-- {
		node := chain[i]
		parent := chain[i-1]
		if !node.IsEmpty() {
			break
		}
		parent.removeChild(node.name)
	}
}

// SetValue stores v in the argIndex slot of the method at path. It is a
// no-op if path does not resolve (writes are opportunistic) and returns
// ErrIndexOutOfRange if the argument slot does not exist.
func (t *Tree) SetValue(path string, argIndex int, v oscval.Value) error {
	segs := splitPath(path)
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.resolve(segs)
	if n == nil {
		return nil
	}
	if argIndex < 0 || argIndex >= len(n.arguments) {
		return newArgumentError(path, argIndex)
	}
	n.arguments[argIndex].Value = v
	return nil
}

// UnsetValue clears the argIndex slot of the method at path, same no-op and
// error semantics as SetValue.
func (t *Tree) UnsetValue(path string, argIndex int) error {
	segs := splitPath(path)
	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.resolve(segs)
	if n == nil {
		return nil
	}
	if argIndex < 0 || argIndex >= len(n.arguments) {
		return newArgumentError(path, argIndex)
	}
	n.arguments[argIndex].Value = oscval.Value{}
	return nil
}

// GetValue returns the stored value of the argIndex slot, or an absent
// Value if path does not resolve or the slot does not exist. It never
// fails: a missing path or slot simply reports Value.Ok() == false.
func (t *Tree) GetValue(path string, argIndex int) oscval.Value {
	segs := splitPath(path)
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := t.resolve(segs)
	if n == nil || argIndex < 0 || argIndex >= len(n.arguments) {
		return oscval.Value{}
	}
	return n.arguments[argIndex].Value
}

// Lookup returns the node at path, or nil if it does not resolve. The
// returned Node must not be mutated directly by callers; use the Tree's
// methods so mutations remain lock-protected.
func (t *Tree) Lookup(path string) *Node {
	segs := splitPath(path)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resolve(segs)
}

// resolve must be called with t.mu held (read or write).
func (t *Tree) resolve(segs []string) *Node {
	cur := t.root
	for _, seg := range segs {
		c, ok := cur.child(seg)
		if !ok {
			return nil
		}
		cur = c
	}
	return cur
}

// Walk calls fn once for every method node currently registered (nodes with
// IsMethod() true), in pre-order, passing its full path. Used by the
// lifecycle orchestrator to log a summary when the server starts, and
// available to external callers that need to enumerate the namespace
// without re-parsing the HTTP/JSON projection.
func (t *Tree) Walk(fn func(path string, n *Node)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsMethod() {
			fn(n.FullPath(), n)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
}

// withRLock runs fn with the tree's read lock held, handing it the root.
// Used by the HTTP query endpoint so a full-tree projection is taken as a single
// consistent snapshot rather than racing a concurrent mutation.
func (t *Tree) withRLock(fn func(root *Node)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn(t.root)
}
