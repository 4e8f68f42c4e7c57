package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"modelfan/internal/config"
	"modelfan/internal/kvstore"
	"modelfan/internal/models"
	"modelfan/internal/orchestrator"
)

type stubGenerator struct {
	results []models.CompletionResult
	err     error
	gotReq  models.GenerationRequest
	calls   int
}

func (s *stubGenerator) Generate(ctx context.Context, req models.GenerationRequest) ([]models.CompletionResult, error) {
	s.calls++
	s.gotReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func newTestServer(t *testing.T, gen Generator) *Server {
	t.Helper()
	store, err := kvstore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	srv, err := New(config.Config{Server: config.ServerConfig{Port: 8080}}, gen, store)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return srv
}

func doJSON(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.app.ServeHTTP(rec, req)
	return rec
}

func TestGenerateSuccess(t *testing.T) {
	gen := &stubGenerator{
		results: []models.CompletionResult{
			{Model: "gpt-4", Content: "Paris", CompletionIndex: 1, TotalCompletions: 1},
		},
	}
	srv := newTestServer(t, gen)

	rec := doJSON(srv, http.MethodPost, "/api/generate",
		`{"binId":"b1","messages":[{"role":"user","content":"hi"}],"models":["gpt-4"]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Responses []models.CompletionResult `json:"responses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Responses) != 1 || body.Responses[0].Content != "Paris" {
		t.Errorf("responses = %+v", body.Responses)
	}

	if gen.gotReq.Temperature != models.DefaultTemperature {
		t.Errorf("defaults not applied before orchestration: %+v", gen.gotReq)
	}
}

func TestGenerateInvalidRequest(t *testing.T) {
	gen := &stubGenerator{err: orchestrator.ErrInvalidRequest}
	srv := newTestServer(t, gen)

	rec := doJSON(srv, http.MethodPost, "/api/generate",
		`{"binId":"b1","messages":[{"role":"user","content":"hi"}]}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"error":"Invalid request"}` {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestGenerateMalformedJSON(t *testing.T) {
	gen := &stubGenerator{}
	srv := newTestServer(t, gen)

	rec := doJSON(srv, http.MethodPost, "/api/generate", `{not json`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times for malformed body, want 0", gen.calls)
	}
}

func TestGenerateOrchestrationFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("generation exceeded 95s budget")}
	srv := newTestServer(t, gen)

	rec := doJSON(srv, http.MethodPost, "/api/generate",
		`{"binId":"b1","messages":[{"role":"user","content":"hi"}],"models":["gpt-4","o3"]}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body struct {
		Error   string `json:"error"`
		Details struct {
			Timestamp    string   `json:"timestamp"`
			RequestID    string   `json:"requestId"`
			Models       []string `json:"models"`
			MessageCount int      `json:"messageCount"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Error == "" || body.Details.RequestID == "" || body.Details.Timestamp == "" {
		t.Errorf("incomplete failure body: %s", rec.Body.String())
	}
	if len(body.Details.Models) != 2 || body.Details.MessageCount != 1 {
		t.Errorf("details = %+v", body.Details)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	rec := doJSON(srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestBinLifecycle(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{})

	rec := doJSON(srv, http.MethodPut, "/api/bins/alpha",
		`{"name":"demo","systemPrompt":"be terse","messages":[{"role":"user","content":"q"},{"role":"assistant","content":"a"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var saved models.Bin
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode put response: %v", err)
	}
	if saved.ID != "alpha" || saved.CreatedAt == 0 || saved.UpdatedAt == 0 {
		t.Errorf("saved bin = %+v", saved)
	}

	rec = doJSON(srv, http.MethodGet, "/api/bins/alpha", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(srv, http.MethodGet, "/api/bins", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listBody struct {
		Bins []models.Bin `json:"bins"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listBody); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listBody.Bins) != 1 || listBody.Bins[0].ID != "alpha" {
		t.Errorf("bins = %+v", listBody.Bins)
	}

	rec = doJSON(srv, http.MethodGet, "/api/bins/alpha/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"role":"system"`) {
		t.Errorf("export missing system message: %s", rec.Body.String())
	}

	rec = doJSON(srv, http.MethodDelete, "/api/bins/alpha", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = doJSON(srv, http.MethodGet, "/api/bins/alpha", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}
