package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/averycross/waygate"
	"github.com/averycross/waygate/pkg/adapters/memory"
	"github.com/averycross/waygate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine scripts ports.TransitionEngine responses.
type stubEngine struct {
	accepted   bool
	beginErr   error
	inProgress bool
	finished   chan domain.TransitionResult
}

func newStubEngine() *stubEngine {
	return &stubEngine{finished: make(chan domain.TransitionResult, 1)}
}

func (s *stubEngine) Begin(ctx context.Context, req domain.TransitionRequest) (bool, error) {
	return s.accepted, s.beginErr
}

func (s *stubEngine) InProgress() bool { return s.inProgress }

func (s *stubEngine) Finished() <-chan domain.TransitionResult { return s.finished }

func postTransition(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/transitions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBeginTransition_Accepted(t *testing.T) {
	eng := newStubEngine()
	eng.accepted = true
	h := NewHandler(eng)

	rec := postTransition(t, h, `{"destination_id": "harbor", "anchor_hint": "Dock"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	var resp beginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Accepted)
	assert.Empty(t, resp.Reason)
}

func TestBeginTransition_Busy(t *testing.T) {
	eng := newStubEngine()
	eng.beginErr = domain.ErrTransitionBusy
	h := NewHandler(eng)

	rec := postTransition(t, h, `{"destination_id": "harbor"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp beginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Accepted)
	assert.NotEmpty(t, resp.Reason)
}

func TestBeginTransition_Rejected(t *testing.T) {
	eng := newStubEngine()
	eng.beginErr = domain.ErrRequestRejected
	h := NewHandler(eng)

	rec := postTransition(t, h, `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBeginTransition_InternalError(t *testing.T) {
	eng := newStubEngine()
	eng.beginErr = errors.New("host on fire")
	h := NewHandler(eng)

	rec := postTransition(t, h, `{"destination_id": "harbor"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBeginTransition_MalformedBody(t *testing.T) {
	h := NewHandler(newStubEngine())

	rec := postTransition(t, h, `{"destination_id": `)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

const liveScenario = `
geometry:
  - name: plaza
    min: {x: -20, y: -1, z: -20}
    max: {x: 20, y: 0, z: 20}
    walkable: true
subject:
  tag: Player
  position: {x: 0, y: 1, z: 0}
  has_controller: true
contexts:
  - id: harbor
    load_duration: 200ms
    anchors:
      Dock: {x: 4, y: 1, z: -2}
`

func TestBeginTransition_PipelineOutlivesRequest(t *testing.T) {
	world, loader, _, err := memory.ParseScenario([]byte(liveScenario))
	require.NoError(t, err)
	eng, err := waygate.New(world, loader)
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(eng))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/transitions", "application/json",
		strings.NewReader(`{"destination_id": "harbor", "anchor_hint": "Dock"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	// By now the handler has returned and net/http has canceled its
	// request context. The accepted pipeline must keep running anyway;
	// the status endpoint reports its completion.
	require.Eventually(t, func() bool {
		resp, err := http.Get(srv.URL + "/transitions/current")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var st statusResponse
		if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
			return false
		}
		return st.LastResult != nil
	}, 5*time.Second, 20*time.Millisecond, "transition did not finish")

	resp, err = http.Get(srv.URL + "/transitions/current")
	require.NoError(t, err)
	defer resp.Body.Close()
	var st statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	require.True(t, st.LastResult.Success,
		"pipeline aborted after handler return: %s", st.LastResult.Reason)
	assert.Equal(t, "harbor", st.LastResult.Request.DestinationID)
}

func TestStatus_ReflectsLastResult(t *testing.T) {
	eng := newStubEngine()
	eng.inProgress = true
	h := NewHandler(eng)

	// Before any completion.
	req := httptest.NewRequest(http.MethodGet, "/transitions/current", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var st statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.InProgress)
	assert.Nil(t, st.LastResult)

	// Publish a completion; the handler's subscriber picks it up async.
	eng.finished <- domain.TransitionResult{
		Request: domain.TransitionRequest{DestinationID: "harbor"},
		Success: true,
		Variant: "Harbor_Destroyed",
	}
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transitions/current", nil))
		var st statusResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
			return false
		}
		return st.LastResult != nil && st.LastResult.Success
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListVisited(t *testing.T) {
	recOnly := memory.NewRecorder()
	require.NoError(t, recOnly.MarkVisited(context.Background(), "harbor", "Harbor_Night"))
	h := NewHandler(newStubEngine(), WithVisitRecorder(recOnly))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contexts/visited", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var visits []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &visits))
	require.Len(t, visits, 1)
	assert.Equal(t, "harbor", visits[0]["context_id"])
}

func TestListVisited_NoRecorder(t *testing.T) {
	h := NewHandler(newStubEngine())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/contexts/visited", nil))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestHealthz(t *testing.T) {
	h := NewHandler(newStubEngine())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestOpenAPISpecServed(t *testing.T) {
	h := NewHandler(newStubEngine())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "openapi:")
}
