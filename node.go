package oscquery

import (
	"strings"

	"github.com/oscjson/go-oscquery/internal/oscval"
)

// Access is the OSC Query ACCESS enum.
type Access int

const (
	NoValue Access = iota
	ReadOnly
	WriteOnly
	ReadWrite
)

// ClipMode describes how an out-of-range argument input is coerced. It is
// opaque to the core: the value is carried and serialized, never interpreted.
type ClipMode string

const (
	ClipNone ClipMode = "none"
	ClipLow  ClipMode = "low"
	ClipHigh ClipMode = "high"
	ClipBoth ClipMode = "both"
)

// Range describes the optional bounds and discrete allowed values for one
// argument slot. A zero Range carries none of the three fields.
type Range struct {
	Min     *float64
	Max     *float64
	Vals    []oscval.Value
	hasVals bool
}

// HasAny reports whether the range carries any sub-field at all, which
// governs whether the serializer emits a non-null RANGE entry for this slot.
func (r *Range) HasAny() bool {
	return r != nil && (r.Min != nil || r.Max != nil || len(r.Vals) > 0)
}

// Argument is one ordered slot of a method node: a type, an optional current
// value, an optional range and an optional clip mode.
type Argument struct {
	Type     oscval.Type
	Value    oscval.Value // Value.Ok() == false means absent
	Range    *Range
	ClipMode *ClipMode
}

// Spec is the metadata addMethod assigns to the terminal node of a path. All
// fields are independently optional except Arguments, whose presence is what
// makes a node a method rather than a container.
type Spec struct {
	Description string
	HasDesc     bool
	Access      Access
	HasAccess   bool
	Tags        []string
	HasTags     bool
	Critical    bool
	HasCritical bool
	Arguments   []Argument
}

// Node is a single point in the address-space tree. The root's name is the
// empty string and its parent is nil; every other node's parent is
// non-owning (children are owned exclusively by their parent, per the
// tree-ownership design note) and always outlives neither more nor less
// than its parent.
type Node struct {
	name     string
	parent   *Node
	children map[string]*Node

	hasDesc     bool
	description string
	hasAccess   bool
	access      Access
	hasTags     bool
	tags        []string
	hasCritical bool
	critical    bool

	arguments []Argument
}

func newNode(name string, parent *Node) *Node {
	return &Node{name: name, parent: parent}
}

// IsContainer reports whether n has children and carries no arguments.
func (n *Node) IsContainer() bool {
	return n.arguments == nil && len(n.children) > 0
}

// IsMethod reports whether n carries arguments (possibly zero of them is
// still "has arguments": the slice is non-nil once assigned by addMethod).
func (n *Node) IsMethod() bool {
	return n.arguments != nil
}

// IsEmpty reports whether n is neither a container nor a method: a
// transient node created while descending a path, eligible for cleanup.
func (n *Node) IsEmpty() bool {
	return n.arguments == nil && len(n.children) == 0
}

// FullPath assembles the node's full path by walking parent pointers. The
// root's full path is "/".
func (n *Node) FullPath() string {
	if n.parent == nil {
		return "/"
	}
	segs := make([]string, 0, 8)
	for cur := n; cur.parent != nil; cur = cur.parent {
		segs = append(segs, cur.name)
	}
	// segs was built leaf-to-root; reverse in place.
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return "/" + strings.Join(segs, "/")
}

// Name returns the node's own path segment ("" for the root).
func (n *Node) Name() string {
	return n.name
}

func (n *Node) applySpec(s Spec) {
	if s.HasDesc {
		n.hasDesc = true
		n.description = s.Description
	}
	if s.HasAccess {
		n.hasAccess = true
		n.access = s.Access
	}
	if s.HasTags {
		n.hasTags = true
		n.tags = s.Tags
	}
	if s.HasCritical {
		n.hasCritical = true
		n.critical = s.Critical
	}
	if s.Arguments != nil {
		n.arguments = s.Arguments
	} else if n.arguments == nil {
		// addMethod on a node with no prior arguments and no arguments in
		// the new spec still marks it a method with zero argument slots.
		n.arguments = []Argument{}
	}
}

// clearMethod resets a node's metadata to the empty state, leaving children
// untouched. Called by Tree.RemoveMethod before the cleanup walk.
func (n *Node) clearMethod() {
	n.hasDesc = false
	n.description = ""
	n.hasAccess = false
	n.access = NoValue
	n.hasTags = false
	n.tags = nil
	n.hasCritical = false
	n.critical = false
	n.arguments = nil
}

// getOrCreateChild returns the existing child named seg, creating an empty
// one if absent.
func (n *Node) getOrCreateChild(seg string) *Node {
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	c, ok := n.children[seg]
	if !ok {
		c = newNode(seg, n)
		n.children[seg] = c
	}
	return c
}

// addChild inserts c as a new child, returning ErrDuplicateChild if a child
// with that name already exists. Exposed for low-level tree manipulation;
// addMethod never hits this path since it always gets-or-creates.
func (n *Node) addChild(c *Node) error {
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	if _, ok := n.children[c.name]; ok {
		return ErrDuplicateChild
	}
	c.parent = n
	n.children[c.name] = c
	return nil
}

func (n *Node) child(seg string) (*Node, bool) {
	if n.children == nil {
		return nil, false
	}
	c, ok := n.children[seg]
	return c, ok
}

func (n *Node) removeChild(seg string) {
	delete(n.children, seg)
}
