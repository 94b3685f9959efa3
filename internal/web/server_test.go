package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvrules/internal/config"
	_ "github.com/JonMunkholm/csvrules/internal/parsers"
	"github.com/JonMunkholm/csvrules/internal/service"
)

func newTestServer(t *testing.T, env map[string]string) *Server {
	t.Helper()
	cfg, err := config.LoadWith(config.MapLookup(env))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return NewServer(service.NewFromConfig(cfg), cfg)
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type parseResponse struct {
	RunID     string           `json:"run_id"`
	Parser    string           `json:"parser"`
	Header    []string         `json:"header"`
	Rows      []map[string]any `json:"rows"`
	Truncated bool             `json:"truncated"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestListParsers(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/parsers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	names := map[string]bool{}
	for _, p := range decode[[]service.ParserInfo](t, rec) {
		names[p.Name] = true
	}
	if !names["contacts"] || !names["passthrough"] {
		t.Errorf("names = %v, want contacts and passthrough", names)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/parsers?group=CRM", nil))
	for _, p := range decode[[]service.ParserInfo](t, rec) {
		if p.Group != "CRM" {
			t.Errorf("group filter returned %s in %s", p.Name, p.Group)
		}
	}
}

func TestGetParser(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/parsers/contacts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	info := decode[service.ParserInfo](t, rec)
	if len(info.Rules) == 0 || len(info.Rules) != info.RuleCount {
		t.Errorf("rules = %d, rule_count = %d", len(info.Rules), info.RuleCount)
	}

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/parsers/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec).Code; got != "RULE001" {
		t.Errorf("code = %q, want RULE001", got)
	}
}

func TestParse_RawBody(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/parse/passthrough", strings.NewReader("a, b\n1 , 2\n3,4\n"))
	req.Header.Set("Content-Type", "text/csv")
	rec := do(t, s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	res := decode[parseResponse](t, rec)
	if res.RunID == "" || res.Parser != "passthrough" {
		t.Errorf("run_id %q, parser %q", res.RunID, res.Parser)
	}
	if len(res.Rows) != 2 || res.Rows[0]["a"] != "1" || res.Rows[0]["b"] != "2" {
		t.Errorf("rows = %v", res.Rows)
	}
}

func TestParse_Multipart(t *testing.T) {
	s := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "leads.csv")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("Name,State\nAda Lovelace,texas\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/parse/contacts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := do(t, s, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	res := decode[parseResponse](t, rec)
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %v", res.Rows)
	}
	row := res.Rows[0]
	if row["first_name"] != "Ada" || row["last_name"] != "Lovelace" || row["state"] != "TX" {
		t.Errorf("row = %v", row)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"no body", nil, "/api/parse/passthrough", "", http.StatusBadRequest, "FILE004"},
		{"no header", nil, "/api/parse/passthrough", "\n", http.StatusUnprocessableEntity, "FILE001"},
		{"unknown parser", nil, "/api/parse/nope", "a\n1\n", http.StatusNotFound, "RULE001"},
		{"bad limit", nil, "/api/parse/passthrough?limit=abc", "a\n1\n", http.StatusBadRequest, "REQ004"},
		{"row limit", nil, "/api/parse/passthrough?limit=1", "a\n1\n2\n", http.StatusUnprocessableEntity, "PARSE001"},
		{"configured row limit", map[string]string{"PARSE_MAX_ROWS": "1"}, "/api/parse/passthrough", "a\n1\n2\n", http.StatusUnprocessableEntity, "PARSE001"},
		{"limit above configured row limit", map[string]string{"PARSE_MAX_ROWS": "1"}, "/api/parse/passthrough?limit=10", "a\n1\n2\n", http.StatusUnprocessableEntity, "PARSE001"},
		{"too large", map[string]string{"PARSE_MAX_FILE_SIZE": "8"}, "/api/parse/passthrough", "a\n1\n2\n3\n4\n5\n", http.StatusRequestEntityTooLarge, "FILE002"},
		{"malformed", nil, "/api/parse/passthrough", "a\n\"open\n", http.StatusUnprocessableEntity, "FILE003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.env)
			rec := do(t, s, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decode[ErrorResponse](t, rec).Code; got != tt.wantCode {
				t.Errorf("code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestParse_RowErrorLocation(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/parse/passthrough", strings.NewReader("a\n1\n\"x\"y\n")))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec).Line; got != 3 {
		t.Errorf("line = %d, want 3", got)
	}
}

func TestParse_Truncate(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/parse/passthrough?limit=1&truncate=true", strings.NewReader("a\n1\n2\n")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	res := decode[parseResponse](t, rec)
	if len(res.Rows) != 1 || !res.Truncated {
		t.Errorf("rows = %d, truncated = %v", len(res.Rows), res.Truncated)
	}
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, map[string]string{"PARSE_PREVIEW_ROWS": "2"})

	body := "name,tags\n<b>Ada</b>,x\nGrace,y\nMargaret,z\n"
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/preview/passthrough", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	html := rec.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", "<table>", "<th>name</th>", "&lt;b&gt;Ada&lt;/b&gt;", "Grace", "(truncated)"} {
		if !strings.Contains(html, want) {
			t.Errorf("preview missing %q", want)
		}
	}
	if strings.Contains(html, "Margaret") {
		t.Error("preview rendered rows past the preview limit")
	}

	req := httptest.NewRequest(http.MethodPost, "/preview/passthrough", strings.NewReader(body))
	req.Header.Set("HX-Request", "true")
	rec = do(t, s, req)
	if strings.Contains(rec.Body.String(), "<!DOCTYPE html>") {
		t.Error("HTMX preview should be a fragment")
	}
}

func TestPreview_Error(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/preview/nope", strings.NewReader("a\n1\n")))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Code: RULE001") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	for _, want := range []string{"<h2>CRM</h2>", "<code>contacts</code>", "<code>passthrough</code>"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("index missing %q", want)
		}
	}
}
