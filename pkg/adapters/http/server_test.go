package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/rapport"
	"github.com/aretw0/rapport/pkg/catalog"
	"github.com/aretw0/rapport/pkg/domain"
	"github.com/aretw0/rapport/pkg/inbound"
	"github.com/aretw0/rapport/pkg/persistence/middleware"
	"github.com/aretw0/rapport/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *rapport.Engine {
	t.Helper()
	cat, err := catalog.Load("../../../examples/dating/catalog.yaml")
	require.NoError(t, err)
	commands := registry.NewRegistry()
	commands.Register("publish_profile", registry.Noop)

	eng, err := rapport.New("../../../examples/dating/graph.yaml",
		rapport.WithCatalog(cat),
		rapport.WithCommands(commands),
	)
	require.NoError(t, err)
	return eng
}

func postEvent(t *testing.T, h http.Handler, userID string, ev domain.Event) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/users/"+userID+"/events", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestGetHealth(t *testing.T) {
	handler := NewHandler(nil)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rr)["status"])
}

func TestGetInfo(t *testing.T) {
	handler := NewHandler(nil)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/info", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decode[map[string]string](t, rr)
	assert.Equal(t, "rapport-http", resp["app"])
	assert.Equal(t, rapport.Version, resp["version"])
}

func TestRenderAndDispatch(t *testing.T) {
	handler := NewHandler(newEngine(t))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/u1/render", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	instr := decode[domain.Instruction](t, rr)
	assert.Equal(t, "start", instr.NodeID)
	assert.Equal(t, domain.KindFreeText, instr.NodeKind)

	rr = postEvent(t, handler, "u1", domain.FreeText("friend told me"))
	require.Equal(t, http.StatusOK, rr.Code)
	instr = decode[domain.Instruction](t, rr)
	assert.Equal(t, "join", instr.NodeID)
	assert.Equal(t, domain.InstructionPrompt, instr.Kind)
}

func TestPostEvent_Rejections(t *testing.T) {
	handler := NewHandler(newEngine(t), WithSanitizer(inbound.NewSanitizer(8)))

	req := httptest.NewRequest(http.MethodPost, "/users/u1/events", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postEvent(t, handler, "u1", domain.FreeText("way too long for the limit"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSession_RedactedAndDeleted(t *testing.T) {
	redactor, err := middleware.NewRedactor([]string{"^source$"})
	require.NoError(t, err)
	handler := NewHandler(newEngine(t), WithRedactor(redactor))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/u1/session", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	require.Equal(t, http.StatusOK, postEvent(t, handler, "u1", domain.FreeText("friend told me")).Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/u1/session", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	sess := decode[domain.Session](t, rr)
	assert.Equal(t, middleware.Mask, sess.Profile.Get("source").Text)
	assert.Equal(t, "join", sess.CurrentNodeID)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/users/u1/session", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/u1/session", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("rapport_up 1\n"))
	})

	rr := httptest.NewRecorder()
	NewHandler(nil, WithMetricsHandler(metrics)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "rapport_up")

	rr = httptest.NewRecorder()
	NewHandler(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubscribeEvents(t *testing.T) {
	handler := NewHandler(newEngine(t))
	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/users/u1/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	body, err := json.Marshal(domain.FreeText("friend told me"))
	require.NoError(t, err)
	post, err := srv.Client().Post(srv.URL+"/users/u1/events", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	post.Body.Close()
	require.Equal(t, http.StatusOK, post.StatusCode)

	for lines.Scan() {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: {") {
			continue
		}
		var instr domain.Instruction
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &instr))
		assert.Equal(t, "join", instr.NodeID)
		return
	}
	t.Fatal("stream ended without an instruction")
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("u1")
	assert.Equal(t, 1, sm.Subscribers("u1"))

	sm.Broadcast("u1", "hello")
	sm.Broadcast("u2", "ignored")
	assert.Equal(t, "hello", <-ch)

	cancel()
	assert.Equal(t, 0, sm.Subscribers("u1"))
	_, open := <-ch
	assert.False(t, open)
}

func TestStreamManager_UnsubscribeTwice(t *testing.T) {
	sm := NewStreamManager()
	_, first := sm.Subscribe("u1")
	other, second := sm.Subscribe("u1")
	require.Equal(t, 2, sm.Subscribers("u1"))

	first()
	assert.NotPanics(t, first)
	assert.Equal(t, 1, sm.Subscribers("u1"))

	sm.Broadcast("u1", "still here")
	assert.Equal(t, "still here", <-other)

	second()
	assert.NotPanics(t, second)
	assert.Equal(t, 0, sm.Subscribers("u1"))
}
