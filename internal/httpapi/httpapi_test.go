package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/raidtrack/internal/protocol"
)

func withURLParam(req *http.Request, name, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

type fakeController struct {
	paused         bool
	resetCalled    bool
	saveCalled     bool
	bossOnlyDamage bool
}

func (f *fakeController) Pause()                   { f.paused = true }
func (f *fakeController) Resume()                  { f.paused = false }
func (f *fakeController) Paused() bool             { return f.paused }
func (f *fakeController) Reset()                   { f.resetCalled = true }
func (f *fakeController) ManualSave()              { f.saveCalled = true }
func (f *fakeController) SetBossOnlyDamage(v bool) { f.bossOnlyDamage = v }
func (f *fakeController) BossOnlyDamage() bool     { return f.bossOnlyDamage }

type fakePinger struct{ err error }

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeEncounters struct {
	row protocol.PreviewRow
	err error
}

func (f *fakeEncounters) GetEncounter(ctx context.Context, id int64) (protocol.PreviewRow, error) {
	return f.row, f.err
}

func newTestHandler(ctrl *fakeController, pinger *fakePinger, reader *fakeEncounters) *Handler {
	return &Handler{controller: ctrl, storage: pinger, encounters: reader}
}

func TestHandler_Health(t *testing.T) {
	h := newTestHandler(&fakeController{}, &fakePinger{}, &fakeEncounters{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandler_Ready(t *testing.T) {
	h := newTestHandler(&fakeController{}, &fakePinger{}, &fakeEncounters{})
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	unhealthy := newTestHandler(&fakeController{}, &fakePinger{err: context.DeadlineExceeded}, &fakeEncounters{})
	rec2 := httptest.NewRecorder()
	unhealthy.Ready(rec2, req)
	require.Equal(t, http.StatusServiceUnavailable, rec2.Code)
}

func TestHandler_PauseResume(t *testing.T) {
	ctrl := &fakeController{}
	h := newTestHandler(ctrl, &fakePinger{}, &fakeEncounters{})

	rec := httptest.NewRecorder()
	h.Pause(rec, httptest.NewRequest(http.MethodPost, "/control/pause", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ctrl.paused)

	rec2 := httptest.NewRecorder()
	h.Resume(rec2, httptest.NewRequest(http.MethodPost, "/control/resume", nil))
	require.Equal(t, http.StatusOK, rec2.Code)
	require.False(t, ctrl.paused)
}

func TestHandler_ResetAndSave(t *testing.T) {
	ctrl := &fakeController{}
	h := newTestHandler(ctrl, &fakePinger{}, &fakeEncounters{})

	h.Reset(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/control/reset", nil))
	require.True(t, ctrl.resetCalled)

	h.Save(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/control/save", nil))
	require.True(t, ctrl.saveCalled)
}

func TestHandler_SetBossOnlyDamage(t *testing.T) {
	ctrl := &fakeController{}
	h := newTestHandler(ctrl, &fakePinger{}, &fakeEncounters{})

	body := strings.NewReader(`{"enabled":true}`)
	req := httptest.NewRequest(http.MethodPost, "/control/boss-only-damage", body)
	rec := httptest.NewRecorder()
	h.SetBossOnlyDamage(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ctrl.bossOnlyDamage)

	badReq := httptest.NewRequest(http.MethodPost, "/control/boss-only-damage", strings.NewReader(`not json`))
	badRec := httptest.NewRecorder()
	h.SetBossOnlyDamage(badRec, badReq)
	require.Equal(t, http.StatusBadRequest, badRec.Code)
}

func TestHandler_GetEncounter(t *testing.T) {
	reader := &fakeEncounters{row: protocol.PreviewRow{ID: 42, CurrentBoss: "Valakas"}}
	h := newTestHandler(&fakeController{}, &fakePinger{}, reader)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/encounters/42", nil), "id", "42")
	rec := httptest.NewRecorder()
	h.GetEncounter(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Valakas")
}

func TestHandler_GetEncounter_NotFound(t *testing.T) {
	reader := &fakeEncounters{err: context.DeadlineExceeded}
	h := newTestHandler(&fakeController{}, &fakePinger{}, reader)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/encounters/1", nil), "id", "1")
	rec := httptest.NewRecorder()
	h.GetEncounter(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
