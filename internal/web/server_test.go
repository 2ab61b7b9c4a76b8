package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func doRequest(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := NewServer("127.0.0.1", 8080, t.TempDir())

	rec := doRequest(s, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestReportBeforeRun(t *testing.T) {
	s := NewServer("127.0.0.1", 8080, t.TempDir())

	rec := doRequest(s, "/api/report")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 before any run", rec.Code)
	}
}

func TestReportAfterRun(t *testing.T) {
	dir := t.TempDir()
	report := `{"datasets_succeeded": 73}`
	if err := os.WriteFile(filepath.Join(dir, "run_report.json"), []byte(report), 0644); err != nil {
		t.Fatal(err)
	}
	s := NewServer("127.0.0.1", 8080, dir)

	rec := doRequest(s, "/api/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != report {
		t.Errorf("body = %q, want the report verbatim", got)
	}
}

func TestDatasets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"fedscope_employment_June_2013.csv",
		"fedscope_employment_March_2013.csv",
		"run_report.json",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	s := NewServer("127.0.0.1", 8080, dir)

	rec := doRequest(s, "/api/datasets")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var entries []struct {
		File      string `json:"file"`
		SizeBytes int64  `json:"size_bytes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want only the artifacts", len(entries))
	}
	if entries[0].File != "fedscope_employment_June_2013.csv" {
		t.Errorf("entries not sorted: %v", entries)
	}
}
