package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-knackobject/pkg/knack"
	"github.com/goliatone/go-knackobject/pkg/testsupport"
)

func fixture() testsupport.Fixture {
	return testsupport.Fixture{
		Fields: map[string][]json.RawMessage{
			"object_1": {
				json.RawMessage(`{"key":"field_1","label":"Name","type":"short_text"}`),
				json.RawMessage(`{"key":"field_2","label":"Internal","type":"short_text"}`),
				json.RawMessage(`{"key":"field_3","label":"Company","type":"connection","relationship":{"object":"object_2"}}`),
			},
		},
		Records: map[string]map[string]json.RawMessage{
			"object_1": {
				"r1": json.RawMessage(`{"id":"r1","field_1":"<b>Jo</b>","field_1_raw":"Jo","field_2":"x","field_3":"Acme","field_3_raw":[{"id":"c1","identifier":"Acme"}]}`),
			},
		},
	}
}

func newClient(t *testing.T, server *testsupport.Server, extra ...knack.ClientOption) *Client {
	t.Helper()
	c, err := New(knack.NewClientOptions(server.ClientOptions(extra...)...))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClient_FetchFieldsAppliesSkipList(t *testing.T) {
	server := testsupport.NewServer(t, fixture())
	c := newClient(t, server, knack.WithSkipLabels("Internal"))

	fields, err := c.FetchFields(context.Background(), "object_1")
	if err != nil {
		t.Fatalf("fetch fields: %v", err)
	}

	var keys []string
	for _, field := range fields {
		keys = append(keys, field.Key)
	}
	if diff := cmp.Diff([]string{"field_1", "field_3"}, keys); diff != "" {
		t.Fatalf("field keys mismatch (-want +got):\n%s", diff)
	}
	if !fields[1].IsConnection() || fields[1].RelatedObject() != "object_2" {
		t.Fatalf("expected connection field, got %+v", fields[1])
	}
	if got := server.Requests(testsupport.FieldsPath("object_1")); got != 1 {
		t.Fatalf("expected one request, got %d", got)
	}
}

func TestClient_FetchRecord(t *testing.T) {
	server := testsupport.NewServer(t, fixture())
	c := newClient(t, server)

	record, err := c.FetchRecord(context.Background(), "object_1", "r1")
	if err != nil {
		t.Fatalf("fetch record: %v", err)
	}
	if record.ID() != "r1" {
		t.Fatalf("unexpected id %q", record.ID())
	}
	if html, _ := record.Display("field_1"); html != "<b>Jo</b>" {
		t.Fatalf("unexpected display value %q", html)
	}
	stubs, present, err := record.Stubs("field_3")
	if err != nil || !present || len(stubs) != 1 || stubs[0].ID != "c1" {
		t.Fatalf("unexpected stubs %+v present=%v err=%v", stubs, present, err)
	}
}

func TestClient_SendsCredentialHeaders(t *testing.T) {
	server := testsupport.NewServer(t, fixture())

	c, err := New(knack.NewClientOptions(
		knack.WithBaseURL(server.URL),
		knack.WithCredentials("wrong", "creds"),
	))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = c.FetchRecord(context.Background(), "object_1", "r1")
	var fetchErr *knack.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Kind != knack.FetchStatus || fetchErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %+v", fetchErr)
	}
}

func TestClient_NotFound(t *testing.T) {
	server := testsupport.NewServer(t, fixture())
	c := newClient(t, server)

	_, err := c.FetchRecord(context.Background(), "object_1", "missing")
	if !knack.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = c.FetchFields(context.Background(), "object_9")
	if !errors.Is(err, knack.ErrNotFound) {
		t.Fatalf("expected not found for unknown object, got %v", err)
	}
}

func TestClient_ServerErrorIsStatusError(t *testing.T) {
	server := testsupport.NewServer(t, fixture())
	server.FailWith(testsupport.FieldsPath("object_1"), http.StatusInternalServerError)
	c := newClient(t, server)

	_, err := c.FetchFields(context.Background(), "object_1")
	var fetchErr *knack.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Kind != knack.FetchStatus || fetchErr.Status != 500 {
		t.Fatalf("expected status error, got %v", err)
	}
	if errors.Is(err, knack.ErrNotFound) || errors.Is(err, knack.ErrTransport) {
		t.Fatalf("status error must not match not-found or transport sentinels")
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := New(knack.NewClientOptions(
		knack.WithBaseURL(url),
		knack.WithCredentials("app", "key"),
		knack.WithRequestTimeout(time.Second),
	))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = c.FetchRecord(context.Background(), "object_1", "r1")
	if !errors.Is(err, knack.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestClient_EmptyIDsAreInvalidRequests(t *testing.T) {
	server := testsupport.NewServer(t, fixture())
	c, err := New(knack.NewClientOptions(server.ClientOptions()...))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = c.FetchFields(context.Background(), " ")
	if !errors.Is(err, knack.ErrInvalidRequest) || errors.Is(err, knack.ErrTransport) {
		t.Fatalf("expected invalid request error for empty object id, got %v", err)
	}
	_, err = c.FetchRecord(context.Background(), "object_1", "")
	if !errors.Is(err, knack.ErrInvalidRequest) || errors.Is(err, knack.ErrTransport) {
		t.Fatalf("expected invalid request error for empty record id, got %v", err)
	}
	if got := server.TotalRequests(); got != 0 {
		t.Fatalf("expected no requests for invalid ids, got %d", got)
	}
}

func TestClient_RequestTimeoutLeavesInjectedClientAlone(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	injected := &http.Client{}
	c, err := New(knack.NewClientOptions(
		knack.WithBaseURL(server.URL),
		knack.WithCredentials("app", "key"),
		knack.WithHTTPClient(injected),
		knack.WithRequestTimeout(50*time.Millisecond),
	))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if injected.Timeout != 0 || c.http.Timeout != 0 {
		t.Fatalf("client timeout must stay unset, got %v/%v", injected.Timeout, c.http.Timeout)
	}

	_, err = c.FetchRecord(context.Background(), "object_1", "r1")
	if !errors.Is(err, knack.ErrTransport) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline from the request timeout, got %v", err)
	}
}

func TestClient_DecodeErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/objects/object_1/fields":
			_, _ = w.Write([]byte(`{"records":[]}`))
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	t.Cleanup(server.Close)

	c, err := New(knack.NewClientOptions(
		knack.WithBaseURL(server.URL),
		knack.WithCredentials("app", "key"),
	))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var fetchErr *knack.FetchError
	_, err = c.FetchFields(context.Background(), "object_1")
	if !errors.As(err, &fetchErr) || fetchErr.Kind != knack.FetchDecode {
		t.Fatalf("expected decode error for missing fields array, got %v", err)
	}
	_, err = c.FetchRecord(context.Background(), "object_1", "r1")
	if !errors.As(err, &fetchErr) || fetchErr.Kind != knack.FetchDecode {
		t.Fatalf("expected decode error for invalid json, got %v", err)
	}
}

func TestClient_ContractValidation(t *testing.T) {
	server := testsupport.NewServer(t, testsupport.Fixture{
		Fields: map[string][]json.RawMessage{
			"object_1": {json.RawMessage(`{"key":"field_1","type":"short_text"}`)},
		},
		Records: map[string]map[string]json.RawMessage{
			"object_1": {
				"r1": json.RawMessage(`{"id":"r1","field_1":"Jo"}`),
				"r2": json.RawMessage(`{"field_1":"Jo"}`),
			},
		},
	})
	c := newClient(t, server, knack.WithContractValidation(true))

	var fetchErr *knack.FetchError
	_, err := c.FetchFields(context.Background(), "object_1")
	if !errors.As(err, &fetchErr) || fetchErr.Kind != knack.FetchContract {
		t.Fatalf("expected contract error for field without label, got %v", err)
	}

	if _, err := c.FetchRecord(context.Background(), "object_1", "r1"); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
	_, err = c.FetchRecord(context.Background(), "object_1", "r2")
	if !errors.As(err, &fetchErr) || fetchErr.Kind != knack.FetchContract {
		t.Fatalf("expected contract error for record without id, got %v", err)
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	if _, err := New(knack.NewClientOptions()); err == nil {
		t.Fatalf("expected error without credentials")
	}
	if _, err := New(knack.NewClientOptions(knack.WithCredentials("app", "key"), knack.WithBaseURL("::bad"))); err == nil {
		t.Fatalf("expected error for invalid base url")
	}
}
