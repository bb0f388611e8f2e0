package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskview/internal/logging"
	"taskview/internal/result"
	"taskview/internal/store"
	"taskview/internal/task"
	"taskview/pkg/cache"
	"taskview/pkg/mq"
)

const (
	maxMessageBytes = 1 << 20
	shutdownTimeout = 10 * time.Second
)

type Options struct {
	Logger *logging.Logger
	// ExportTTL caches export payloads per format; zero disables caching.
	ExportTTL time.Duration
}

type Server struct {
	repo   task.Repository
	comp   *task.Component
	export *result.Exporter
	cache  *cache.MemoryCache[[]byte]
	log    *logging.Logger
	tmpl   *template.Template
	newID  func() string
}

func New(repo task.Repository, comp *task.Component, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logging.NopLogger()
	}
	return &Server{
		repo:   repo,
		comp:   comp,
		export: result.NewExporter(repo),
		cache:  cache.NewMemory[[]byte](opts.ExportTTL),
		log:    log,
		tmpl:   template.Must(template.New("page").Parse(pageHTML)),
		newID:  uuid.NewString,
	}
}

// Watch drops cached exports whenever a task event is published.
func (s *Server) Watch(sub mq.Subscriber) error {
	for _, topic := range mq.TaskTopics {
		if err := sub.Subscribe(topic, func(payload []byte) error {
			s.cache.Purge()
			ev, err := mq.DecodeEvent(payload)
			if err != nil {
				return err
			}
			s.log.Debug("export cache purged", "topic", ev.Topic, "task_id", ev.TaskID)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /component/{name}/message", s.handleMessage)
	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("GET /static/component.js", staticHandler("text/javascript; charset=utf-8", componentJS))
	mux.HandleFunc("GET /static/app.css", staticHandler("text/css; charset=utf-8", appCSS))
	return s.logRequests(withSecurityHeaders(mux))
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then waits up to
// shutdownTimeout for in-flight requests before returning.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	stopped := make(chan struct{})
	shutdownErr := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- server.Shutdown(sctx)
	}()

	s.log.Info("http server listening", "addr", ln.Addr().String())
	err := server.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		close(stopped)
		return err
	}
	// Serve returns as soon as Shutdown starts; Shutdown returns once the
	// handlers are done.
	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := &task.State{}
	if err := s.comp.Hydrate(r.Context(), st); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, newView(s.newID(), st)); err != nil {
		s.log.Error("render page failed", "error", err.Error())
	}
}

type messageRequest struct {
	ID      string        `json:"id"`
	Data    messageData   `json:"data"`
	Actions []task.Action `json:"actions"`
}

type messageData struct {
	Title string `json:"title"`
}

type messageResponse struct {
	ID      string       `json:"id"`
	Data    responseData `json:"data"`
	Notices []string     `json:"notices,omitempty"`
	DOM     string       `json:"dom"`
}

type responseData struct {
	Title string       `json:"title"`
	Tasks []store.Task `json:"tasks"`
}

// handleMessage runs one interaction cycle for the named component.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if name := r.PathValue("name"); name != task.Name {
		s.fail(w, http.StatusNotFound, errors.New("unknown component: "+name))
		return
	}
	var req messageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	if req.ID == "" {
		req.ID = s.newID()
	}
	log := s.log.WithComponent(task.Name, req.ID)

	st := &task.State{Title: req.Data.Title}
	actions := req.Actions
	if len(actions) == 0 {
		actions = []task.Action{{Name: task.ActionRefresh}}
	}
	for _, a := range actions {
		if err := task.Validate(a); err != nil {
			s.fail(w, http.StatusBadRequest, err)
			return
		}
	}
	for _, a := range actions {
		if err := s.comp.Call(r.Context(), st, a); err != nil {
			log.Error("interaction cycle failed", "action", a.Name, "error", err.Error())
			s.fail(w, http.StatusInternalServerError, err)
			return
		}
		log.Debug("action handled", "action", a.Name, "tasks", len(st.Tasks))
	}

	var dom strings.Builder
	if err := s.tmpl.ExecuteTemplate(&dom, "component", newView(req.ID, st)); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, messageResponse{
		ID:      req.ID,
		Data:    responseData{Title: st.Title, Tasks: st.Tasks},
		Notices: st.Notices,
		DOM:     dom.String(),
	})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	all, err := s.repo.AllTasks(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, all)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	if !slices.Contains(result.Formats, format) {
		s.fail(w, http.StatusBadRequest, errors.New("unknown format "+format))
		return
	}
	b, ok := s.cache.Get(format)
	if !ok {
		// a task event during the export leaves the payload uncached
		gen := s.cache.Generation()
		var err error
		if b, err = s.export.Export(r.Context(), format); err != nil {
			s.fail(w, http.StatusInternalServerError, err)
			return
		}
		s.cache.SetIfGeneration(format, b, gen)
	}
	w.Header().Set("Content-Type", result.ContentType(format))
	_, _ = w.Write(b)
}

func (s *Server) fail(w http.ResponseWriter, code int, err error) {
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed", "status", code, "error", err.Error())
	}
	writeErr(w, code, err)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
