// Package foundrytest provides an in-memory agent service for tests. It
// speaks the same wire protocol as the real service, so both the HTTP
// client and end-to-end CLI tests run against it.
package foundrytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Server is a fake agent service backed by an in-memory store.
type Server struct {
	mu       sync.Mutex
	agents   []map[string]any // creation order, ids unique
	failNext int              // number of upcoming requests to fail with 503
	srv      *httptest.Server
}

// NewServer starts a fake service. Call Close when done.
func NewServer() *Server {
	s := &Server{}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the service base URL.
func (s *Server) URL() string { return s.srv.URL }

// Close shuts the server down.
func (s *Server) Close() { s.srv.Close() }

// FailNext makes the next n requests fail with a 503 before normal
// handling resumes. Used to exercise retry behavior.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// Agents returns a snapshot of the stored agents in creation order.
func (s *Server) Agents() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, len(s.agents))
	copy(out, s.agents)
	return out
}

// AgentNames returns the stored agent names in creation order.
func (s *Server) AgentNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.agents))
	for i, a := range s.agents {
		names[i], _ = a["name"].(string)
	}
	return names
}

// Seed inserts an agent directly into the store and returns its id.
func (s *Server) Seed(fields map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.newAgent(fields)
	s.agents = append(s.agents, stored)
	id, _ := stored["id"].(string)
	return id
}

func (s *Server) newAgent(fields map[string]any) map[string]any {
	stored := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		stored[k] = v
	}
	stored["id"] = "agent_" + uuid.NewString()
	stored["object"] = "agent"
	stored["created_at"] = time.Now().Unix()
	return stored
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext > 0 {
		s.failNext--
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case path == "agents" && r.Method == http.MethodGet:
		s.list(w, r)
	case path == "agents" && r.Method == http.MethodPost:
		s.create(w, r)
	case strings.HasPrefix(path, "agents/"):
		s.byID(w, r, strings.TrimPrefix(path, "agents/"))
	default:
		writeError(w, http.StatusNotFound, "unknown route "+r.URL.Path)
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	start := 0
	if after := r.URL.Query().Get("after"); after != "" {
		for i, a := range s.agents {
			if a["id"] == after {
				start = i + 1
				break
			}
		}
	}

	end := start + limit
	if end > len(s.agents) {
		end = len(s.agents)
	}
	page := s.agents[start:end]

	resp := map[string]any{
		"object":   "list",
		"data":     page,
		"has_more": end < len(s.agents),
	}
	if len(page) > 0 {
		resp["last_id"] = page[len(page)-1]["id"]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if name, _ := fields["name"].(string); name == "" {
		writeError(w, http.StatusBadRequest, "agent name is required")
		return
	}
	stored := s.newAgent(fields)
	s.agents = append(s.agents, stored)
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) byID(w http.ResponseWriter, r *http.Request, id string) {
	idx := -1
	for i, a := range s.agents {
		if a["id"] == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeError(w, http.StatusNotFound, "no agent with id "+id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.agents[idx])
	case http.MethodPost:
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		updated := make(map[string]any, len(fields)+3)
		for k, v := range fields {
			updated[k] = v
		}
		updated["id"] = s.agents[idx]["id"]
		updated["object"] = "agent"
		updated["created_at"] = s.agents[idx]["created_at"]
		s.agents[idx] = updated
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		s.agents = append(s.agents[:idx], s.agents[idx+1:]...)
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": msg},
	})
}
