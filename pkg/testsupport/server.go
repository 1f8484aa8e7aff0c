package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-knackobject/pkg/knack"
)

// Test credentials accepted by the fake API.
const (
	AppID  = "app-test"
	APIKey = "key-test"
)

// Server is an in-memory stand-in for the REST API. It serves the two
// endpoints the fetcher uses, checks credentials and counts requests per
// path.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	fixture  Fixture
	requests map[string]int
	failures map[string]int
}

// NewServer starts a fake API serving fixture and closes it with the test.
func NewServer(t *testing.T, fixture Fixture) *Server {
	t.Helper()

	s := &Server{
		fixture:  fixture,
		requests: map[string]int{},
		failures: map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// ClientOptions returns options pointing a client at the server.
func (s *Server) ClientOptions(extra ...knack.ClientOption) []knack.ClientOption {
	return append([]knack.ClientOption{
		knack.WithBaseURL(s.URL),
		knack.WithCredentials(AppID, APIKey),
		knack.WithHTTPClient(s.Client()),
	}, extra...)
}

// FailWith makes every request to path answer with status.
func (s *Server) FailWith(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Requests reports how many times path was requested.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// TotalRequests reports the number of requests served.
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.requests {
		total += n
	}
	return total
}

// FieldsPath and RecordPath build the request paths the client uses.
func FieldsPath(objectID string) string {
	return "/v1/objects/" + objectID + "/fields"
}

func RecordPath(objectID, recordID string) string {
	return "/v1/objects/" + objectID + "/records/" + recordID
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[r.URL.Path]++
	failure := s.failures[r.URL.Path]
	s.mu.Unlock()

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get(knack.HeaderApplicationID) != AppID || r.Header.Get(knack.HeaderAPIKey) != APIKey {
		http.Error(w, `{"errors":["invalid credentials"]}`, http.StatusUnauthorized)
		return
	}
	if failure != 0 {
		http.Error(w, http.StatusText(failure), failure)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 4 && parts[0] == "v1" && parts[1] == "objects" && parts[3] == "fields":
		fields, ok := s.fixture.Fields[parts[2]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"fields": fields})
	case len(parts) == 5 && parts[0] == "v1" && parts[1] == "objects" && parts[3] == "records":
		record, ok := s.fixture.Records[parts[2]][parts[4]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, record)
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}
