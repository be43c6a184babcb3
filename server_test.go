package oscquery

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscjson/go-oscquery/internal/oscval"
)

func newTestHandler(t *testing.T) (*Tree, *queryHandler) {
	t.Helper()
	tr := NewTree("root node")
	hi := HostInfo{Name: "Test", Extensions: allExtensions(), OSCIP: "127.0.0.1", OSCPort: 9000, OSCTransport: "UDP"}
	h := newQueryHandler(tr, func() HostInfo { return hi }, slog.Default())
	return tr, h
}

func TestQueryHandler_RejectsNonGet(t *testing.T) {
	_, h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryHandler_RejectsUnknownSelector(t *testing.T) {
	_, h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/?NOT_A_SELECTOR", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryHandler_UnknownPathIs404(t *testing.T) {
	_, h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQueryHandler_HostInfoBypassesPathResolution(t *testing.T) {
	_, h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/does/not/exist?HOST_INFO", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Test", body["NAME"])
}

func TestQueryHandler_RootReturnsFullTree(t *testing.T) {
	tr, h := newTestHandler(t)
	tr.AddMethod("/synth/freq", Spec{HasAccess: true, Access: ReadOnly, Arguments: []Argument{{Type: oscval.Single(oscval.Float32)}}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "/", body["FULL_PATH"])
	assert.Contains(t, body, "CONTENTS")
}

func TestQueryHandler_SelectorReturnsSingleAttribute(t *testing.T) {
	tr, h := newTestHandler(t)
	tr.AddMethod("/synth/freq", Spec{HasAccess: true, Access: ReadOnly, Arguments: []Argument{{Type: oscval.Single(oscval.Float32)}}})

	req := httptest.NewRequest(http.MethodGet, "/synth/freq?TYPE", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "f", body["TYPE"])
	assert.Len(t, body, 1)
}

func TestQueryHandler_ValueSelectorOnNoAccessReturns204(t *testing.T) {
	tr, h := newTestHandler(t)
	tr.AddMethod("/synth/trigger", Spec{HasAccess: true, Access: WriteOnly, Arguments: []Argument{{Type: oscval.Single(oscval.Int32)}}})
	require.NoError(t, tr.SetValue("/synth/trigger", 0, oscval.NewInt32(1)))

	req := httptest.NewRequest(http.MethodGet, "/synth/trigger?VALUE", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestQueryHandler_ValueSelectorOnReadableMethod(t *testing.T) {
	tr, h := newTestHandler(t)
	tr.AddMethod("/synth/freq", Spec{HasAccess: true, Access: ReadOnly, Arguments: []Argument{{Type: oscval.Single(oscval.Float32)}}})
	require.NoError(t, tr.SetValue("/synth/freq", 0, oscval.NewFloat32(220)))

	req := httptest.NewRequest(http.MethodGet, "/synth/freq?VALUE", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	values, ok := body["VALUE"].([]interface{})
	require.True(t, ok)
	assert.InDelta(t, 220, values[0].(float64), 0.001)
}

func TestQueryHandler_RecoversFromPanic(t *testing.T) {
	tr := NewTree("root")
	h := newQueryHandler(tr, func() HostInfo { panic("boom") }, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/?HOST_INFO", nil)
	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(w, req)
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
