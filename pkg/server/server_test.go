package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nuulab/flowengine/internal/registry"
	"github.com/nuulab/flowengine/pkg/server"
)

// newMux builds a Server and its handler mux without calling Start,
// so tests can drive it through httptest without binding a real port.
func newMux(t *testing.T) (*server.Server, http.Handler) {
	t.Helper()
	s := server.New(server.Config{Addr: ":0"})
	return s, s.Handler()
}

func TestServer_CreateSystemAddWorkerDestroy(t *testing.T) {
	_, mux := newMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/systems", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body)
	}
	var created struct {
		Success  bool   `json:"success"`
		SystemID uint64 `json:"system_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if !created.Success || created.SystemID == 0 {
		t.Fatalf("unexpected create response: %+v", created)
	}

	rec = httptest.NewRecorder()
	path := "/api/systems/" + itoa(created.SystemID) + "/workers"
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("add worker: status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/systems/"+itoa(created.SystemID), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("destroy: status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/systems/"+itoa(created.SystemID), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("double destroy: status = %d, want 404", rec.Code)
	}
}

func TestServer_SendJobAndFetchResult(t *testing.T) {
	registry.Register("server_test_echo", func(in json.RawMessage) json.RawMessage {
		return in
	})

	_, mux := newMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/systems", nil))
	var created struct {
		SystemID uint64 `json:"system_id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/systems/"+itoa(created.SystemID)+"/workers", nil))

	body, _ := json.Marshal(map[string]any{
		"system_id": created.SystemID,
		"type":      "server_test_echo",
		"input":     map[string]string{"hello": "world"},
	})
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("send job: status = %d, body = %s", rec.Code, rec.Body)
	}
	var sent struct {
		HandleID uint64 `json:"handle_id"`
	}
	json.Unmarshal(rec.Body.Bytes(), &sent)
	if sent.HandleID == 0 {
		t.Fatalf("expected non-zero handle id")
	}

	var result struct {
		Success bool            `json:"success"`
		Result  json.RawMessage `json:"result"`
	}
	deadline := 0
	for {
		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+itoa(sent.HandleID)+"/status", nil))
		var status struct {
			Status string `json:"status"`
		}
		json.Unmarshal(rec.Body.Bytes(), &status)
		if status.Status == "completed" {
			break
		}
		deadline++
		if deadline > 500 {
			t.Fatal("job never completed")
		}
		time.Sleep(time.Millisecond)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+itoa(sent.HandleID), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get job: status = %d, body = %s", rec.Code, rec.Body)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+itoa(sent.HandleID), nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second get: status = %d, want 404 (handle consumed)", rec.Code)
	}
}

func TestServer_JobTypesListsRegisteredNames(t *testing.T) {
	registry.Register("server_test_marker", func(in json.RawMessage) json.RawMessage { return in })

	_, mux := newMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/job-types", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Entries []string `json:"entries"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)

	found := false
	for _, e := range body.Entries {
		if e == "server_test_marker" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected server_test_marker in %v", body.Entries)
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	_, mux := newMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func itoa(v uint64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
