package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/oddiville/sheets/internal/fetch"
	"github.com/oddiville/sheets/internal/pipeline"
	"github.com/oddiville/sheets/internal/render"
	"github.com/oddiville/sheets/internal/schema"
	"github.com/oddiville/sheets/internal/sheet"
	"github.com/oddiville/sheets/internal/state"
)

var registry = schema.MustNew()

const upcomingOrder = `{
	"sections": [
		{"type": "header", "data": {"label": "Order #4420", "value": "Tomorrow"}},
		{"type": "table", "data": {"columns": [{"label": "Product", "key": "product"}], "rows": [{"product": "Peas"}]}}
	],
	"buttons": [
		{"text": "Ship", "variant": "fill", "color": "green", "alignment": "full"},
		{"text": "Edit", "variant": "outline", "color": "blue", "alignment": "half"},
		{"text": "Cancel", "variant": "ghost", "color": "red", "alignment": "half", "disabled": true}
	]
}`

type testEnv struct {
	srv  *httptest.Server
	slot *state.Slot
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	bus := state.NewBus(64)
	bus.Start(ctx)
	t.Cleanup(func() {
		cancel()
		bus.Stop()
	})

	slot := state.NewSlot(bus)
	fetcher := fetch.FetcherFunc(func(_ context.Context, id string, kind sheet.Kind) ([]byte, error) {
		if kind == sheet.KindUpcomingOrder {
			return []byte(upcomingOrder), nil
		}
		return nil, fmt.Errorf("%w: 503", fetch.ErrStatus)
	})
	p := pipeline.New(registry, fetcher, slot)

	api, err := NewAPI(Config{
		Registry: registry,
		Pipeline: p,
		Slot:     slot,
		Bus:      bus,
		Locale:   language.MustParse("en-IN"),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(api.Routes())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, slot: slot}
}

func (e *testEnv) do(t *testing.T, method, path, body string, header http.Header) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, r)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestListKinds(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/v1/sheet-kinds", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[struct {
		Kinds []kindInfo `json:"kinds"`
	}](t, resp)
	require.Len(t, body.Kinds, len(sheet.AllKinds))

	byKind := make(map[sheet.Kind]kindInfo)
	for _, k := range body.Kinds {
		byKind[k.Kind] = k
	}
	assert.Equal(t, []sheet.ActionKey{sheet.ActionShipOrder, sheet.ActionEditOrder, sheet.ActionCancelOrder}, byKind[sheet.KindUpcomingOrder].ActionKeys)
	assert.False(t, byKind[sheet.KindUpcomingOrder].Static)
	assert.True(t, byKind[sheet.KindRating].Static)
	assert.False(t, byKind[sheet.KindRating].Buttons)
	assert.Equal(t, []sheet.SectionType{sheet.SectionManageAction}, byKind[sheet.KindRating].Sections)
}

func TestOpenSheet_Static(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodPost, "/v1/sheets/open", `{"id":"r-1","kind":"rating"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-Sheet-Version"))

	cfg := decodeBody[sheet.Config](t, resp)
	require.Len(t, cfg.Sections, 1)
	assert.Equal(t, sheet.SectionManageAction, cfg.Sections[0].Type)
	assert.Equal(t, "r-1", cfg.Meta.ID)

	current, _ := e.slot.Current()
	require.NotNil(t, current)
	assert.Equal(t, sheet.KindRating, current.Meta.Kind)
}

func TestOpenSheet_AssignsID(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodPost, "/v1/sheets/open", `{"kind":"rating"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cfg := decodeBody[sheet.Config](t, resp)
	assert.Len(t, cfg.Meta.ID, 36)
}

func TestOpenSheet_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
		fields bool
	}{
		{"malformed json", `{"kind":`, http.StatusBadRequest, "INVALID_REQUEST", false},
		{"missing kind", `{"id":"x"}`, http.StatusBadRequest, "INVALID_REQUEST", true},
		{"unknown property", `{"kind":"rating","colour":"red"}`, http.StatusBadRequest, "INVALID_REQUEST", true},
		{"unknown kind", `{"id":"x","kind":"invoice"}`, http.StatusNotFound, "UNKNOWN_KIND", false},
		{
			"invalid override",
			`{"id":"x","kind":"no-data","payload":{"sections":[{"type":"empty-state","data":{"title":""}}]}}`,
			http.StatusUnprocessableEntity, "VALIDATION_ERROR", true,
		},
		{"fetch failure", `{"id":"x","kind":"order-ready"}`, http.StatusBadGateway, "FETCH_FAILED", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			resp := e.do(t, http.MethodPost, "/v1/sheets/open", tc.body, nil)
			assert.Equal(t, tc.status, resp.StatusCode)

			body := decodeBody[errorBody](t, resp)
			assert.Equal(t, tc.code, body.Code)
			assert.NotEmpty(t, body.Error)
			if tc.fields {
				assert.NotEmpty(t, body.Fields)
			}

			current, version := e.slot.Current()
			assert.Nil(t, current)
			assert.Zero(t, version)
		})
	}
}

func TestOpenSheet_MissingKindField(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodPost, "/v1/sheets/open", `{"id":"x","mode":7}`, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[errorBody](t, resp)

	var paths []string
	for _, f := range body.Fields {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, "mode")
	assert.Contains(t, paths, "")
}

func TestCurrentSheet(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodGet, "/v1/sheets/current", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = e.do(t, http.MethodGet, "/v1/sheets/current/view", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/v1/sheets/open", `{"id":"c-1","kind":"country","mainSelection":"AE"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/v1/sheets/current", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tag := resp.Header.Get("ETag")
	require.NotEmpty(t, tag)
	cfg := decodeBody[sheet.Config](t, resp)
	assert.Equal(t, "AE", cfg.Meta.MainSelection)

	resp = e.do(t, http.MethodGet, "/v1/sheets/current", "", http.Header{"If-None-Match": {tag}})
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/v1/sheets/current/view", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "BottomSheet", view["component"])
	assert.Equal(t, "c-1", view["key"])
}

func TestViewSheet_AccentAndClose(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodPost, "/v1/sheets/open", `{"id":"c-2","kind":"country","color":"blue"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodGet, "/v1/sheets/current/view", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeBody[render.Node](t, resp)
	assert.Equal(t, "blue", view.Props["color"])
	assert.Equal(t, "close-sheet", view.Props["onClose"])
	require.NotEmpty(t, view.Children)
	assert.Equal(t, "TitleWithDetailsCross", view.Children[0].Component)
	assert.Equal(t, "close-sheet", view.Children[0].Props["onClose"])

	resp = e.do(t, http.MethodPost, "/v1/sheets/open", `{"id":"c-3","kind":"country","color":"purple"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCloseSheet(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodPost, "/v1/sheets/open", `{"id":"r-1","kind":"rating"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodDelete, "/v1/sheets/current", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	current, _ := e.slot.Current()
	assert.Nil(t, current)

	resp = e.do(t, http.MethodDelete, "/v1/sheets/current", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestPressAction(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(t, http.MethodPost, "/v1/sheets/current/actions", `{"actionKey":"ship-order"}`, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NO_SHEET", decodeBody[errorBody](t, resp).Code)

	resp = e.do(t, http.MethodPost, "/v1/sheets/open", `{"id":"ord-1","kind":"upcoming-order"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/v1/sheets/current/actions", `{"actionKey":"ship-order"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b := decodeBody[sheet.Button](t, resp)
	assert.Equal(t, "Ship", b.Text)
	assert.Equal(t, sheet.ActionShipOrder, b.ActionKey)

	resp = e.do(t, http.MethodPost, "/v1/sheets/current/actions", `{"actionKey":"track-order"}`, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NO_SUCH_ACTION", decodeBody[errorBody](t, resp).Code)

	resp = e.do(t, http.MethodPost, "/v1/sheets/current/actions", `{"actionKey":"cancel-order"}`, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/v1/sheets/current/actions", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, http.MethodPost, "/v1/sheets/current/actions", `{"actionKey":"close-sheet"}`, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	current, _ := e.slot.Current()
	assert.Nil(t, current)
}

func TestETag_IgnoresKeyOrder(t *testing.T) {
	a, err := etag([]byte(`{"b":1,"a":{"y":2,"x":[1,2]}}`))
	require.NoError(t, err)
	b, err := etag([]byte(`{"a":{"x":[1,2],"y":2},"b":1}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := etag([]byte(`{"a":{"x":[2,1],"y":2},"b":1}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&requestError{msg: "x"}, http.StatusBadRequest},
		{fmt.Errorf("open: %w", pipeline.ErrUnknownKind), http.StatusNotFound},
		{&schema.ValidationError{Kind: sheet.KindRating}, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: boom", pipeline.ErrFetch), http.StatusBadGateway},
		{pipeline.ErrSuperseded, http.StatusConflict},
		{state.ErrNoSheet, http.StatusConflict},
		{fmt.Errorf("%w: x", state.ErrNoSuchAction), http.StatusNotFound},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.status, httpStatus(tc.err), tc.err.Error())
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestLogging_KeepsRequestID(t *testing.T) {
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-Id"))
}

// --- stream ---

type wireMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId"`
	Data      json.RawMessage `json:"data"`
}

func dialStream(t *testing.T, e *testEnv) (*websocket.Conn, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/v1/sheets/stream"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn, ctx
}

func readN(t *testing.T, ctx context.Context, conn *websocket.Conn, n int) map[string]wireMessage {
	t.Helper()
	out := make(map[string]wireMessage, n)
	for range n {
		var m wireMessage
		require.NoError(t, wsjson.Read(ctx, conn, &m))
		out[m.Type] = m
	}
	return out
}

func TestStream_SendsCurrentSheetOnConnect(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodPost, "/v1/sheets/open", `{"id":"r-1","kind":"rating"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn, ctx := dialStream(t, e)
	var m wireMessage
	require.NoError(t, wsjson.Read(ctx, conn, &m))
	assert.Equal(t, "sheet", m.Type)

	var evt state.Event
	require.NoError(t, json.Unmarshal(m.Data, &evt))
	assert.Equal(t, uint64(1), evt.Version)
	require.NotNil(t, evt.Config)
	assert.Equal(t, sheet.KindRating, evt.Config.Meta.Kind)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "ping", ID: "p1"}))
	require.NoError(t, wsjson.Read(ctx, conn, &m))
	assert.Equal(t, "pong", m.Type)
	assert.Equal(t, "p1", m.RequestID)
}

func TestStream_OpenActionClose(t *testing.T) {
	e := newTestEnv(t)
	conn, ctx := dialStream(t, e)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{
		Type: "open", ID: "1", Data: json.RawMessage(`{"id":"ord-1","kind":"upcoming-order"}`),
	}))
	msgs := readN(t, ctx, conn, 2)
	require.Contains(t, msgs, "ack")
	require.Contains(t, msgs, "sheet")
	assert.Equal(t, "1", msgs["ack"].RequestID)

	var evt state.Event
	require.NoError(t, json.Unmarshal(msgs["sheet"].Data, &evt))
	require.NotNil(t, evt.Config)
	require.Len(t, evt.Config.Buttons, 3)
	assert.Equal(t, sheet.ActionShipOrder, evt.Config.Buttons[0].ActionKey)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{
		Type: "action", ID: "2", Data: json.RawMessage(`{"actionKey":"edit-order"}`),
	}))
	msgs = readN(t, ctx, conn, 2)
	require.Contains(t, msgs, "action")
	require.NoError(t, json.Unmarshal(msgs["action"].Data, &evt))
	assert.Equal(t, sheet.ActionEditOrder, evt.Action)

	require.NoError(t, wsjson.Write(ctx, conn, ClientMessage{Type: "close", ID: "3"}))
	msgs = readN(t, ctx, conn, 2)
	require.Contains(t, msgs, "closed")
	assert.Equal(t, "3", msgs["ack"].RequestID)

	current, _ := e.slot.Current()
	assert.Nil(t, current)
}

func TestStream_Errors(t *testing.T) {
	e := newTestEnv(t)
	conn, ctx := dialStream(t, e)

	cases := []struct {
		msg  ClientMessage
		code string
	}{
		{ClientMessage{Type: "open", ID: "1", Data: json.RawMessage(`{"id":"x","kind":"invoice"}`)}, "UNKNOWN_KIND"},
		{ClientMessage{Type: "open", ID: "2", Data: json.RawMessage(`{"id":"x"}`)}, "INVALID_REQUEST"},
		{ClientMessage{Type: "action", ID: "3", Data: json.RawMessage(`{"actionKey":"ship-order"}`)}, "NO_SHEET"},
		{ClientMessage{Type: "dance", ID: "4"}, "UNKNOWN_TYPE"},
	}
	for _, tc := range cases {
		require.NoError(t, wsjson.Write(ctx, conn, tc.msg))
		var m wireMessage
		require.NoError(t, wsjson.Read(ctx, conn, &m))
		assert.Equal(t, "error", m.Type)
		assert.Equal(t, tc.msg.ID, m.RequestID)

		var data ErrorData
		require.NoError(t, json.Unmarshal(m.Data, &data))
		assert.Equal(t, tc.code, data.Code, tc.msg.ID)
	}
}
