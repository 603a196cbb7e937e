// Package fakeapi is an in-memory stand-in for the Toman REST backend. It
// serves the same routes and the same inconsistent response envelopes, and
// can be told to fail specific requests. Tests drive it through httptest;
// `toman devserver` serves it on a real port.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Request is one request the backend received
type Request struct {
	Method    string
	Path      string
	Token     string
	RequestID string
	Body      []byte
}

type failure struct {
	status     int
	disconnect bool
}

// Backend is the fake server. It is safe for concurrent use.
type Backend struct {
	mu         sync.Mutex
	tasks      map[string]*Task
	projects   map[string]*Project
	workspaces map[string]*Workspace
	wsOrder    []string
	users      map[string]*User
	invites    map[string]*Invite
	sent       []SentInvite
	requests   []Request
	failures   map[string]failure
	latency    time.Duration

	router chi.Router
	log    logrus.FieldLogger
	now    func() time.Time
}

// New creates an empty backend
func New(log logrus.FieldLogger) *Backend {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	b := &Backend{
		tasks:      make(map[string]*Task),
		projects:   make(map[string]*Project),
		workspaces: make(map[string]*Workspace),
		users:      make(map[string]*User),
		invites:    make(map[string]*Invite),
		failures:   make(map[string]failure),
		log:        log,
		now:        time.Now,
	}
	b.router = b.routes()
	return b
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

func (b *Backend) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(b.record)
	r.Use(b.inject)

	r.Route("/workspace", func(r chi.Router) {
		r.Get("/", b.listWorkspaces)
		r.Post("/", b.createWorkspace)
		r.Get("/{id}", b.getWorkspace)
		r.Put("/{id}", b.updateWorkspace)
		r.Delete("/{id}", b.deleteWorkspace)
	})
	r.Route("/project", func(r chi.Router) {
		r.Post("/", b.createProject)
		r.Get("/{id}", b.getProject)
		r.Put("/{id}", b.updateProject)
		r.Delete("/{id}", b.deleteProject)
	})
	r.Route("/task", func(r chi.Router) {
		r.Get("/", b.listTasks)
		r.Post("/", b.createTask)
		r.Get("/{id}", b.getTask)
		r.Put("/{id}", b.updateTask)
		r.Patch("/{id}", b.updateTask)
		r.Delete("/{id}", b.deleteTask)
	})
	r.Get("/user/{id}", b.getUser)
	r.Route("/invite", func(r chi.Router) {
		r.Get("/", b.listInvites)
		r.Post("/", b.createInvite)
		r.Get("/{code}", b.getInvite)
		r.Delete("/{code}", b.deleteInvite)
	})
	r.Post("/send-invite", b.sendInvite)
	return r
}

// record logs every request and keeps it for inspection
func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := readBody(r)
		req := Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Token:     strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
			RequestID: r.Header.Get("X-Request-ID"),
			Body:      body,
		}
		b.mu.Lock()
		b.requests = append(b.requests, req)
		latency := b.latency
		b.mu.Unlock()

		if latency > 0 {
			time.Sleep(latency)
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		b.log.WithFields(logrus.Fields{
			"operation":  "fakeapi.request",
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"request_id": req.RequestID,
			"elapsed":    time.Since(start).String(),
		}).Info("handled request")
	})
}

// inject applies configured failures
func (b *Backend) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		f, ok := b.failures[r.Method+" "+r.URL.Path]
		b.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if f.disconnect {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
					return
				}
			}
			panic(http.ErrAbortHandler)
		}
		writeError(w, f.status, "injected failure")
	})
}

// Fail makes every request matching method and path answer with status
func (b *Backend) Fail(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status}
}

// Disconnect makes every request matching method and path drop the connection
func (b *Backend) Disconnect(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{disconnect: true}
}

// Heal removes an injected failure
func (b *Backend) Heal(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, method+" "+path)
}

// SetLatency delays every response
func (b *Backend) SetLatency(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latency = d
}

// Requests returns a copy of the request log
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Count returns how many requests matched method and path prefix.
// An empty method matches any method.
func (b *Backend) Count(method, pathPrefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if (method == "" || r.Method == method) && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

// ResetRequests clears the request log
func (b *Backend) ResetRequests() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
}

// Sent returns the invitations emailed through /send-invite
func (b *Backend) Sent() []SentInvite {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SentInvite(nil), b.sent...)
}

func (b *Backend) newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func (b *Backend) stamp() string {
	return b.now().UTC().Format("2006-01-02T15:04:05.000Z")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
