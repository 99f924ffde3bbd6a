package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/timokae/ma-node/internal/appstate"
	"github.com/timokae/ma-node/internal/config"
	"github.com/timokae/ma-node/internal/httpclient"
	"github.com/timokae/ma-node/internal/metrics"
	"github.com/timokae/ma-node/internal/store/filestore"
	"github.com/timokae/ma-node/internal/store/statstore"
	"github.com/timokae/ma-node/internal/wire"
)

func newTestHandlers(t *testing.T) *handlers {
	t.Helper()
	dir := t.TempDir()

	backend, err := filestore.NewLocalBackend(dir)
	if err != nil {
		t.Fatalf("NewLocalBackend failed: %v", err)
	}
	files, err := filestore.New(dir, backend, 1<<20)
	if err != nil {
		t.Fatalf("filestore.New failed: %v", err)
	}
	stats, err := statstore.New(dir, statstore.Stats{Region: "europe"}, statstore.DefaultWeights())
	if err != nil {
		t.Fatalf("statstore.New failed: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.Fingerprint = "node-1"
	cfg.ManagerAddr = "http://manager.example"
	cfgStore, err := config.NewStore(*cfg)
	if err != nil {
		t.Fatalf("config.NewStore failed: %v", err)
	}

	state := appstate.New(files, stats, cfgStore, metrics.New())
	return &handlers{state: state, client: httpclient.New()}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestPing_ReturnsPong(t *testing.T) {
	h := newTestHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()

	h.ping(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "pong" {
		t.Errorf("expected body %q, got %q", "pong", w.Body.String())
	}
}

func TestDownload_NotFoundForUnknownHash(t *testing.T) {
	h := newTestHandlers(t)
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/download/missing", nil), "hash", "missing")
	w := httptest.NewRecorder()

	h.download(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestDownload_ServesHeldFile(t *testing.T) {
	h := newTestHandlers(t)
	h.state.Files.Save(context.Background(), "hash1", []byte("payload"), "text/plain", "file.txt")

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/download/hash1", nil), "hash", "hash1")
	w := httptest.NewRecorder()

	h.download(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "payload" {
		t.Errorf("expected body %q, got %q", "payload", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("expected content-type text/plain, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != ":attachment; filename=file.txt" {
		t.Errorf("expected content-disposition %q, got %q", ":attachment; filename=file.txt", cd)
	}
}

func TestLookup_ServesLocalPayloadWhenHeld(t *testing.T) {
	h := newTestHandlers(t)
	h.state.Files.Save(context.Background(), "hash1", []byte("payload"), "text/plain", "file.txt")

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/lookup/hash1", nil), "hash", "hash1")
	w := httptest.NewRecorder()

	h.lookup(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var payload wire.DownloadPayload
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if string(payload.Content) != "payload" {
		t.Errorf("expected content %q, got %q", "payload", payload.Content)
	}
}

func TestLookup_NotFoundWhenForwardAlsoFails(t *testing.T) {
	h := newTestHandlers(t)
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/lookup/missing", nil), "hash", "missing")
	w := httptest.NewRecorder()

	h.lookup(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 when no own monitor is reachable, got %d", w.Code)
	}
}

func multipartUploadRequest(t *testing.T, fieldName, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	part.Write([]byte(content))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUpload_StoresFileAndRedirectsWithHash(t *testing.T) {
	h := newTestHandlers(t)
	req := multipartUploadRequest(t, "upload[data]", "file.txt", "payload")
	w := httptest.NewRecorder()

	h.upload(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect 302, got %d", w.Code)
	}
	location := w.Header().Get("Location")
	if location == "" {
		t.Fatal("expected a Location header")
	}
	if got := len(h.state.Files.Hashes()); got != 1 {
		t.Errorf("expected 1 file stored, got %d", got)
	}
}

func TestUpload_RedirectsWithErrorWhenNoFilePart(t *testing.T) {
	h := newTestHandlers(t)
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()

	h.upload(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("expected redirect 302, got %d", w.Code)
	}
	location := w.Header().Get("Location")
	if !bytes.Contains([]byte(location), []byte("status=error")) {
		t.Errorf("expected error status in redirect location, got %q", location)
	}
}
