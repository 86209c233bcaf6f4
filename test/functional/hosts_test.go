package functional

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// archiveHost serves empty bodies with a per-path Content-Type.
type archiveHost struct {
	mu    sync.Mutex
	types map[string]string
}

func newArchiveHost() *archiveHost {
	return &archiveHost{types: make(map[string]string)}
}

func (h *archiveHost) set(path, contentType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.types["/"+strings.TrimPrefix(path, "/")] = contentType
}

func (h *archiveHost) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	ct, ok := h.types[r.URL.Path]
	h.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
}

// githubHost implements the handful of Actions endpoints the bot calls.
type githubHost struct {
	mux *http.ServeMux

	mu         sync.Mutex
	latest     int64
	runs       map[int64]bool
	dispatches []map[string]any
	cancels    []int64
}

func newGitHubHost(repo, workflow string) *githubHost {
	h := &githubHost{mux: http.NewServeMux(), runs: make(map[int64]bool)}
	base := "/repos/" + repo + "/actions"

	h.mux.HandleFunc("POST "+base+"/workflows/"+workflow+"/dispatches", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.mu.Lock()
		h.dispatches = append(h.dispatches, body)
		h.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	h.mux.HandleFunc("GET "+base+"/runs", func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		latest := h.latest
		h.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if latest == 0 {
			_, _ = w.Write([]byte(`{"total_count":0,"workflow_runs":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"total_count":1,"workflow_runs":[{"id":` + strconv.FormatInt(latest, 10) + `,"status":"queued"}]}`))
	})

	h.mux.HandleFunc("GET "+base+"/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if !h.exists(id) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":` + strconv.FormatInt(id, 10) + `,"status":"in_progress"}`))
	})

	h.mux.HandleFunc("POST "+base+"/runs/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		h.mu.Lock()
		h.cancels = append(h.cancels, id)
		h.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{}`))
	})

	return h
}

func (h *githubHost) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *githubHost) setLatest(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = id
	h.runs[id] = true
}

func (h *githubHost) addRun(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs[id] = true
}

func (h *githubHost) exists(id int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runs[id]
}

func (h *githubHost) dispatchCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.dispatches)
}

func (h *githubHost) cancelCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cancels)
}

func (h *githubHost) lastDispatch() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.dispatches) == 0 {
		return nil
	}
	return h.dispatches[len(h.dispatches)-1]
}
