package oscquery

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/oscjson/go-oscquery/internal/oscjson"
)

// selectorKeys is the fixed attribute-selector set the HTTP endpoint
// recognizes; anything else is a 400.
var selectorKeys = map[string]bool{
	"FULL_PATH":   true,
	"CONTENTS":    true,
	"TYPE":        true,
	"ACCESS":      true,
	"RANGE":       true,
	"DESCRIPTION": true,
	"TAGS":        true,
	"CRITICAL":    true,
	"CLIPMODE":    true,
	"VALUE":       true,
	"HOST_INFO":   true,
}

// queryHandler is the C4 HTTP Query Endpoint: it resolves a request URL to
// a Node, applies the attribute selector, and encodes the response. Method
// policy, selector validation, and status semantics follow the component
// design exactly; logging and panic recovery are adapted from the teacher's
// Logger/Recovery middlewares but collapsed into a single handler since this
// endpoint has no route tree of its own to apply them across.
type queryHandler struct {
	tree     *Tree
	hostInfo func() HostInfo
	logger   *slog.Logger
}

func newQueryHandler(tree *Tree, hostInfo func() HostInfo, logger *slog.Logger) *queryHandler {
	return &queryHandler{tree: tree, hostInfo: hostInfo, logger: logger}
}

func (h *queryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	start := time.Now()
	defer h.logRequest(rec, r, start)
	defer h.recoverPanic(rec)

	if r.Method != http.MethodGet {
		rec.WriteHeader(http.StatusBadRequest)
		return
	}

	selector := r.URL.RawQuery
	if selector != "" && !selectorKeys[selector] {
		rec.WriteHeader(http.StatusBadRequest)
		return
	}

	if selector == "HOST_INFO" {
		h.writeJSON(rec, http.StatusOK, h.hostInfo().serialize())
		return
	}

	segs := splitPath(r.URL.Path)

	var (
		status = http.StatusOK
		body   map[string]interface{}
	)

	h.tree.withRLock(func(root *Node) {
		n := root
		for _, seg := range segs {
			c, ok := n.child(seg)
			if !ok {
				status = http.StatusNotFound
				return
			}
			n = c
		}

		full := Serialize(n)
		if selector == "" {
			body = full
			return
		}
		if selector == "VALUE" {
			access := NoValue
			if n.hasAccess {
				access = n.access
			}
			if access == NoValue || access == WriteOnly {
				status = http.StatusNoContent
				return
			}
		}
		body = map[string]interface{}{selector: full[selector]}
	})

	switch status {
	case http.StatusNotFound, http.StatusNoContent:
		rec.WriteHeader(status)
	default:
		h.writeJSON(rec, http.StatusOK, body)
	}
}

func (h *queryHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := oscjson.Marshal(v)
	if err != nil {
		h.logger.Error("failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func (h *queryHandler) recoverPanic(w *statusRecorder) {
	if err := recover(); err != nil {
		if e, ok := err.(error); ok && errors.Is(e, http.ErrAbortHandler) {
			panic(e)
		}
		h.logger.Error("panic recovered", "panic", err, "stack", string(debug.Stack()))
		if !w.wrote {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}

func statusLevel(status int) slog.Level {
	switch {
	case status == http.StatusNotFound:
		return slog.LevelDebug
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func (h *queryHandler) logRequest(rec *statusRecorder, r *http.Request, start time.Time) {
	msg := "request"
	if rec.status == http.StatusNotFound {
		msg = "unresolved path"
	}
	h.logger.LogAttrs(r.Context(), statusLevel(rec.status), msg,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("selector", r.URL.RawQuery),
		slog.Int("status", rec.status),
		slog.Duration("latency", time.Since(start)),
	)
}

// statusRecorder wraps http.ResponseWriter to capture the status code for
// the request logger, a minimal stand-in for the teacher's h1Writer/
// h2Writer multiplexing (which also handles HTTP/2 push and response
// batching that this single-handler endpoint never needs).
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.wrote {
		return
	}
	w.wrote = true
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
