package report

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/gorilla/mux"
	"github.com/syifan/goseth"

	"github.com/sarchlab/fermicache/classifier"
	"github.com/sarchlab/fermicache/engine"
)

// KernelResult bundles one kernel's histogram and miss-rate breakdown for
// live inspection by Server.
type KernelResult struct {
	Histogram engine.Histogram
	Breakdown classifier.Breakdown
}

// Server exposes a suite run's completed kernel results over HTTP, for
// inspecting a long "serve" run while it is still in progress. Grounded
// in akita's monitoring.Monitor, trimmed to this model's read-only
// reporting needs (no pause/continue/tick controls, since the engine has
// no live-steppable simulation loop to attach to).
type Server struct {
	mu      sync.Mutex
	results map[string]KernelResult
}

// NewServer returns a Server with no kernels registered yet.
func NewServer() *Server {
	return &Server{results: make(map[string]KernelResult)}
}

// RegisterResult makes a kernel's result visible to GET /api/kernel/{name}.
func (s *Server) RegisterResult(kernel string, r KernelResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[kernel] = r
}

// Start binds a listener on port (0 for an OS-assigned port) and serves
// in the background. It returns the bound listener so callers can read
// back the assigned port and close it on shutdown.
func (s *Server) Start(port int) (net.Listener, error) {
	r := mux.NewRouter()
	r.HandleFunc("/api/kernels", s.listKernels)
	r.HandleFunc("/api/kernel/{name}", s.kernelDetail)
	r.HandleFunc("/api/resource", s.resourceUsage)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("start report server: %w", err)
	}

	go func() {
		fmt.Fprintf(os.Stderr, "reporting kernel results at http://localhost:%d\n",
			listener.Addr().(*net.TCPAddr).Port)
		_ = http.Serve(listener, r)
	}()

	return listener, nil
}

func (s *Server) listKernels(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	names := make([]string, 0, len(s.results))
	for name := range s.results {
		names = append(names, name)
	}
	s.mu.Unlock()

	sort.Strings(names)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(names); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) kernelDetail(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s.mu.Lock()
	result, ok := s.results[name]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&result)
	if err := serializer.Serialize(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) resourceUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := HostUsage()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(usage); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
