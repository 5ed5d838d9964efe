// Package testutil provides an in-memory SimplyRESTful API for tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fivetwenty-io/simplyrestful-client/pkg/simplyrestful"
)

// Defaults of the fake API.
const (
	WidgetMediaType = "application/x.widget-v1+json"
	BasePath        = "/api/"
	CollectionPath  = "/api/widgets/"
)

// Server is a fake SimplyRESTful API serving one resource type, widgets, at
// /api/widgets/{id}. Widgets are stored as plain JSON objects.
type Server struct {
	*httptest.Server

	MediaType string

	mu       sync.Mutex
	order    []string
	widgets  map[string]map[string]interface{}
	requests []string
	queries  []string
}

// NewServer starts a fake API that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	server := &Server{
		MediaType: WidgetMediaType,
		widgets:   make(map[string]map[string]interface{}),
	}

	server.Server = httptest.NewServer(server.router())
	t.Cleanup(server.Close)

	return server
}

// BaseURL returns the absolute URL of the service document.
func (s *Server) BaseURL() string {
	return s.URL + BasePath
}

// WidgetURL returns the absolute URL of the widget with the given id.
func (s *Server) WidgetURL(id string) string {
	return s.URL + CollectionPath + id
}

// Requests returns the "METHOD path" of every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.requests...)
}

// Queries returns the raw query of every collection request served so far.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.queries...)
}

// Seed stores widgets directly and returns their ids in order.
func (s *Server) Seed(widgets ...map[string]interface{}) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(widgets))
	for _, widget := range widgets {
		ids = append(ids, s.store(widget))
	}

	return ids
}

// Widget returns the stored widget with the given id.
func (s *Server) Widget(id string) (map[string]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	widget, ok := s.widgets[id]

	return widget, ok
}

// store must be called with mu held.
func (s *Server) store(widget map[string]interface{}) string {
	id := uuid.NewString()

	stored := make(map[string]interface{}, len(widget)+1)
	for key, value := range widget {
		stored[key] = value
	}

	stored["self"] = map[string]interface{}{"href": s.WidgetURL(id), "type": s.MediaType}
	s.widgets[id] = stored
	s.order = append(s.order, id)

	return id
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()

	r.Use(s.recordRequests)

	r.Get(BasePath, s.handleServiceDocument)
	r.Get(BasePath+"openapi.json", s.handleDescription)
	r.Get(CollectionPath, s.handleList)
	r.Post(CollectionPath, s.handleCreate)
	r.Get(CollectionPath+"{id}", s.handleRead)
	r.Put(CollectionPath+"{id}", s.handleUpdate)
	r.Delete(CollectionPath+"{id}", s.handleDelete)

	return r
}

func (s *Server) recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleServiceDocument(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, "application/json", map[string]interface{}{
		"describedBy": map[string]string{"href": "openapi.json"},
	})
}

func (s *Server) handleDescription(w http.ResponseWriter, _ *http.Request) {
	content := func(mediaType string) map[string]interface{} {
		return map[string]interface{}{
			"responses": map[string]interface{}{
				"200": map[string]interface{}{
					"content": map[string]interface{}{mediaType: map[string]interface{}{}},
				},
			},
		}
	}

	writeJSON(w, http.StatusOK, "application/json", map[string]interface{}{
		"openapi": "3.0.1",
		"paths": map[string]interface{}{
			"/widgets":      map[string]interface{}{"get": content(simplyrestful.MediaTypeCollectionV1JSON)},
			"/widgets/{id}": map[string]interface{}{"get": content(s.MediaType)},
		},
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	s.mu.Lock()
	s.queries = append(s.queries, r.URL.RawQuery)

	items := make([]map[string]interface{}, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.widgets[id])
	}
	s.mu.Unlock()

	total := len(items)

	start, _ := strconv.Atoi(query.Get("pageStart"))
	if start > len(items) {
		start = len(items)
	}

	items = items[start:]

	size, _ := strconv.Atoi(query.Get("pageSize"))
	if size > 0 && size < len(items) {
		items = items[:size]
	}

	writeJSON(w, http.StatusOK, simplyrestful.MediaTypeCollectionV1JSON, map[string]interface{}{
		"total": total,
		"item":  items,
		"first": map[string]string{"href": s.URL + CollectionPath},
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") != s.MediaType {
		w.WriteHeader(http.StatusUnsupportedMediaType)

		return
	}

	widget, ok := decodeWidget(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	id := s.store(widget)
	s.mu.Unlock()

	w.Header().Set("Location", s.WidgetURL(id))
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	widget, ok := s.Widget(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "widget not found", http.StatusNotFound)

		return
	}

	writeJSON(w, http.StatusOK, s.MediaType, widget)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	widget, ok := decodeWidget(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, found := s.widgets[id]
	if !found {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	widget["self"] = existing["self"]
	s.widgets[id] = widget

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.widgets[id]; !found {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	delete(s.widgets, id)

	for i, candidate := range s.order {
		if candidate == id {
			s.order = append(s.order[:i], s.order[i+1:]...)

			break
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeWidget(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return nil, false
	}

	var widget map[string]interface{}

	err = json.Unmarshal(body, &widget)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return nil, false
	}

	return widget, true
}

func writeJSON(w http.ResponseWriter, status int, contentType string, body interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
