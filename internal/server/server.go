// Package server exposes the sheet pipeline and state slot over HTTP and a
// websocket stream.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gowebpki/jcs"
	"golang.org/x/text/language"

	"github.com/oddiville/sheets/internal/actions"
	"github.com/oddiville/sheets/internal/payload"
	"github.com/oddiville/sheets/internal/pipeline"
	"github.com/oddiville/sheets/internal/render"
	"github.com/oddiville/sheets/internal/schema"
	"github.com/oddiville/sheets/internal/sheet"
	"github.com/oddiville/sheets/internal/state"
)

// Config holds server configuration.
type Config struct {
	Port     int
	Registry *schema.Registry
	Pipeline *pipeline.Pipeline
	Slot     *state.Slot
	Bus      *state.Bus
	Locale   language.Tag
}

// API serves the sheet endpoints.
type API struct {
	registry *schema.Registry
	pipeline *pipeline.Pipeline
	slot     *state.Slot
	bus      *state.Bus
	locale   language.Tag
	requests *openRequestValidator
}

// NewAPI wires the handlers. Registry, Pipeline and Slot are required; Bus
// is required for the stream endpoint.
func NewAPI(cfg Config) (*API, error) {
	if cfg.Registry == nil || cfg.Pipeline == nil || cfg.Slot == nil {
		return nil, errors.New("server: registry, pipeline and slot are required")
	}
	v, err := newOpenRequestValidator()
	if err != nil {
		return nil, err
	}
	return &API{
		registry: cfg.Registry,
		pipeline: cfg.Pipeline,
		slot:     cfg.Slot,
		bus:      cfg.Bus,
		locale:   cfg.Locale,
		requests: v,
	}, nil
}

// Routes returns the router with middleware applied.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/sheet-kinds", a.listKinds)
		r.Route("/sheets", func(r chi.Router) {
			r.Post("/open", a.openSheet)
			r.Get("/current", a.currentSheet)
			r.Delete("/current", a.closeSheet)
			r.Get("/current/view", a.viewSheet)
			r.Post("/current/actions", a.pressAction)
			if a.bus != nil {
				r.Get("/stream", newStreamHandler(a).ServeHTTP)
			}
		})
	})

	return Recovery(Logging(r))
}

// Run starts the HTTP server and shuts it down when ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	api, err := NewAPI(cfg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("server: listening on %s (%d sheet kinds)", addr, len(cfg.Registry.Kinds()))

	server := &http.Server{
		Addr:              addr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type kindInfo struct {
	Kind       sheet.Kind          `json:"kind"`
	Sections   []sheet.SectionType `json:"sections"`
	Buttons    bool                `json:"buttons"`
	ActionKeys []sheet.ActionKey   `json:"actionKeys,omitempty"`
	Static     bool                `json:"static"`
}

func (a *API) listKinds(w http.ResponseWriter, r *http.Request) {
	static := make(map[sheet.Kind]bool)
	for _, k := range payload.StaticKinds() {
		static[k] = true
	}
	kinds := a.registry.Kinds()
	out := make([]kindInfo, 0, len(kinds))
	for _, k := range kinds {
		def, err := a.registry.Lookup(k)
		if err != nil {
			writeAppError(w, err)
			return
		}
		out = append(out, kindInfo{
			Kind:       k,
			Sections:   def.Sections,
			Buttons:    def.Buttons,
			ActionKeys: actions.For(k),
			Static:     static[k],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"kinds": out})
}

func (a *API) openSheet(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	r.Body.Close()
	if err != nil {
		writeAppError(w, &requestError{msg: "reading body: " + err.Error()})
		return
	}
	req, err := a.requests.decode(raw)
	if err != nil {
		writeAppError(w, err)
		return
	}
	cfg, err := a.pipeline.Open(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	_, version := a.slot.Current()
	w.Header().Set("X-Sheet-Version", strconv.FormatUint(version, 10))
	writeJSON(w, http.StatusOK, cfg)
}

func (a *API) currentSheet(w http.ResponseWriter, r *http.Request) {
	cfg, version := a.slot.Current()
	w.Header().Set("X-Sheet-Version", strconv.FormatUint(version, 10))
	if cfg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	body, err := json.Marshal(cfg)
	if err != nil {
		writeAppError(w, err)
		return
	}
	tag, err := etag(body)
	if err != nil {
		writeAppError(w, err)
		return
	}
	w.Header().Set("ETag", tag)
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Printf("server: writing current sheet: %v", err)
	}
}

func (a *API) viewSheet(w http.ResponseWriter, r *http.Request) {
	lang := a.locale
	if q := r.URL.Query().Get("lang"); q != "" {
		t, err := language.Parse(q)
		if err != nil {
			writeAppError(w, &requestError{msg: fmt.Sprintf("invalid lang %q", q)})
			return
		}
		lang = t
	}
	cfg, _ := a.slot.Current()
	if cfg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, render.Sheet(cfg, render.NewEnv(cfg.Meta, lang)))
}

func (a *API) closeSheet(w http.ResponseWriter, r *http.Request) {
	a.pipeline.Close()
	w.WriteHeader(http.StatusNoContent)
}

type actionRequest struct {
	ActionKey sheet.ActionKey `json:"actionKey"`
}

func (a *API) pressAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeAppError(w, &requestError{msg: err.Error()})
		return
	}
	if req.ActionKey == "" {
		writeAppError(w, &requestError{
			msg:    "actionKey is required",
			fields: []schema.FieldError{{Path: "actionKey", Message: "required"}},
		})
		return
	}
	if req.ActionKey == sheet.ActionCloseSheet {
		a.pipeline.Close()
		w.WriteHeader(http.StatusNoContent)
		return
	}
	b, err := a.slot.Press(req.ActionKey)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// etag hashes the canonical (RFC 8785) form of body, so equal configs get
// equal tags regardless of key order.
func etag(body []byte) (string, error) {
	canonical, err := jcs.Transform(body)
	if err != nil {
		return "", fmt.Errorf("canonicalizing sheet: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return `"` + hex.EncodeToString(sum[:]) + `"`, nil
}
