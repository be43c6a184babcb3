package oscquery

import "strings"

// Serialize projects n (and its subtree) to the OSC Query JSON shape
// described by the component design: FULL_PATH always, DESCRIPTION/TAGS/
// CRITICAL when set, ACCESS when set or the node is a container, CONTENTS
// when there is at least one child, TYPE whenever the node is a method, and
// RANGE/CLIPMODE/VALUE when the node is a method and the corresponding
// per-argument list carries at least one non-absent entry (VALUE only when
// the access is READONLY or READWRITE).
//
// The caller is responsible for holding the tree's read lock for the
// duration of a full-subtree projection so the result never mixes pre- and
// post-mutation state of the same node.
func Serialize(n *Node) map[string]interface{} {
	out := map[string]interface{}{
		"FULL_PATH": n.FullPath(),
	}

	if n.hasDesc {
		out["DESCRIPTION"] = n.description
	}

	switch {
	case n.hasAccess:
		out["ACCESS"] = int(n.access)
	case n.IsContainer():
		out["ACCESS"] = int(NoValue)
	}

	if n.hasTags {
		out["TAGS"] = n.tags
	}

	if n.hasCritical {
		out["CRITICAL"] = n.critical
	}

	if len(n.children) > 0 {
		contents := make(map[string]interface{}, len(n.children))
		for name, c := range n.children {
			contents[name] = Serialize(c)
		}
		out["CONTENTS"] = contents
	}

	if n.IsMethod() {
		serializeArguments(out, n)
	}

	return out
}

func serializeArguments(out map[string]interface{}, n *Node) {
	var typeStr strings.Builder
	for _, a := range n.arguments {
		typeStr.WriteString(a.Type.String())
	}
	out["TYPE"] = typeStr.String()

	ranges := make([]interface{}, len(n.arguments))
	anyRange := false
	for i, a := range n.arguments {
		if !a.Range.HasAny() {
			continue
		}
		anyRange = true
		r := make(map[string]interface{}, 3)
		if a.Range.Min != nil {
			r["MIN"] = *a.Range.Min
		}
		if a.Range.Max != nil {
			r["MAX"] = *a.Range.Max
		}
		if len(a.Range.Vals) > 0 {
			vals := make([]interface{}, len(a.Range.Vals))
			for j, v := range a.Range.Vals {
				vals[j] = v.Raw()
			}
			r["VALS"] = vals
		}
		ranges[i] = r
	}
	if anyRange {
		out["RANGE"] = ranges
	}

	clips := make([]interface{}, len(n.arguments))
	anyClip := false
	for i, a := range n.arguments {
		if a.ClipMode == nil {
			continue
		}
		anyClip = true
		clips[i] = string(*a.ClipMode)
	}
	if anyClip {
		out["CLIPMODE"] = clips
	}

	access := NoValue
	if n.hasAccess {
		access = n.access
	}
	if access == ReadOnly || access == ReadWrite {
		values := make([]interface{}, len(n.arguments))
		anyValue := false
		for i, a := range n.arguments {
			if !a.Value.Ok() {
				continue
			}
			anyValue = true
			values[i] = a.Value.Raw()
		}
		if anyValue {
			out["VALUE"] = values
		}
	}
}
