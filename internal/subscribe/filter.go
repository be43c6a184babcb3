// Package subscribe implements the Subscription Filter (C6): deciding
// whether an inbound OSC address is delivered to the external sink.
package subscribe

import "strings"

const negativeToken = "(!?"

// Filter holds the subscription state. The zero Filter accepts everything,
// matching the documented default of "accept-all on construction and
// whenever the subscription set becomes empty".
type Filter struct {
	acceptAll bool
	patterns  map[string]struct{}
}

// New returns a Filter in accept-all mode.
func New() *Filter {
	return &Filter{acceptAll: true}
}

// Subscribe disables accept-all and adds p to the subscribed set.
func (f *Filter) Subscribe(p string) {
	if f.patterns == nil {
		f.patterns = make(map[string]struct{})
	}
	f.acceptAll = false
	f.patterns[p] = struct{}{}
}

// Unsubscribe removes p from the subscribed set. If the set becomes empty,
// accept-all is re-enabled.
func (f *Filter) Unsubscribe(p string) {
	delete(f.patterns, p)
	if len(f.patterns) == 0 {
		f.acceptAll = true
	}
}

// SubscribeAllPaths clears the subscribed set and re-enables accept-all.
// Named to avoid the source's field/method name collision noted in the
// design notes (a subscribeToAll() method cannot coexist with a
// subscribeToAll field of the same name).
func (f *Filter) SubscribeAllPaths() {
	f.patterns = nil
	f.acceptAll = true
}

// Accepts reports whether address should be delivered to the sink: true
// whenever accept-all is in effect, or when OR-ed across every subscribed
// pattern at least one matches. A negative pattern cannot, by itself,
// exclude an address also matched by a positive pattern (see the Open
// Question this preserves from the source: OR-semantics mean exclusion is
// not authoritative).
func (f *Filter) Accepts(address string) bool {
	if f.acceptAll || len(f.patterns) == 0 {
		return true
	}
	for p := range f.patterns {
		if matchPattern(p, address) {
			return true
		}
	}
	return false
}

// matchPattern implements the three-form pattern grammar: exact, prefix
// wildcard ("*"), and negative substring ("base(!?exclude)").
func matchPattern(pattern, address string) bool {
	if idx := strings.Index(pattern, negativeToken); idx != -1 {
		base := pattern[:idx]
		rest := pattern[idx+len(negativeToken):]
		exclude := rest
		if end := strings.IndexByte(rest, ')'); end != -1 {
			exclude = rest[:end]
		}
		return strings.HasPrefix(address, base) && !strings.Contains(address, exclude)
	}
	if strings.HasSuffix(pattern, "*") {
		prefix := pattern[:len(pattern)-1]
		return strings.HasPrefix(address, prefix)
	}
	return pattern == address
}
