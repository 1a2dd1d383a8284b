package docs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/echo-labs/echo-service/internal/testutil"
)

func setupDocsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":      "<html><body>Echo Service Docs</body></html>",
		"guide.html":      "<html><body>Guide</body></html>",
		"assets/site.css": "body { margin: 0; }",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

func newDocsServer(t *testing.T, watch bool) *Server {
	t.Helper()
	s, err := NewServer(Config{
		Dir:    setupDocsDir(t),
		Host:   "127.0.0.1",
		Port:   0,
		Watch:  watch,
		Logger: testutil.NewTestLogger(t),
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s
}

func get(t *testing.T, url string) (int, string, http.Header) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, string(body), resp.Header
}

func TestNewServer_MissingDir(t *testing.T) {
	_, err := NewServer(Config{Dir: "/no/such/dir", Logger: testutil.NewTestLogger(t)})
	if err == nil {
		t.Error("expected error for missing docs directory")
	}
}

func TestServer_ServesFiles(t *testing.T) {
	srv := httptest.NewServer(newDocsServer(t, false).Handler())
	defer srv.Close()

	code, body, _ := get(t, srv.URL+"/")
	if code != http.StatusOK {
		t.Errorf("expected 200 for index, got %d", code)
	}
	if !strings.Contains(body, "Echo Service Docs") {
		t.Errorf("unexpected index body: %q", body)
	}
	if strings.Contains(body, "__reload") {
		t.Error("reload script should not be injected without watch mode")
	}

	code, body, _ = get(t, srv.URL+"/assets/site.css")
	if code != http.StatusOK || !strings.Contains(body, "margin") {
		t.Errorf("expected css file, got code=%d body=%q", code, body)
	}

	code, _, _ = get(t, srv.URL+"/missing.html")
	if code != http.StatusNotFound {
		t.Errorf("expected 404 for missing file, got %d", code)
	}
}

func TestServer_InjectsReloadScriptInWatchMode(t *testing.T) {
	srv := httptest.NewServer(newDocsServer(t, true).Handler())
	defer srv.Close()

	code, body, headers := get(t, srv.URL+"/guide.html")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(body, "__reload") {
		t.Error("expected reload script in watch mode")
	}
	if headers.Get("Cache-Control") == "" {
		t.Error("watch mode should disable caching")
	}

	// Non-HTML assets are served untouched.
	_, body, _ = get(t, srv.URL+"/assets/site.css")
	if strings.Contains(body, "__reload") {
		t.Error("reload script must not leak into non-HTML files")
	}
}

// Edits inside directories created after the watcher starts must still
// trigger reloads.
func TestServer_WatchesNewSubdirectories(t *testing.T) {
	s := newDocsServer(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.watchFiles(ctx) }()

	ch := make(chan struct{}, 1)
	s.clientsMu.Lock()
	s.clients[ch] = struct{}{}
	s.clientsMu.Unlock()

	// Give the watcher time to register the docs tree.
	time.Sleep(200 * time.Millisecond)

	sub := filepath.Join(s.dir, "guides")
	if err := os.Mkdir(sub, 0o750); err != nil {
		t.Fatalf("failed to create subdirectory: %v", err)
	}

	// The mkdir itself notifies; by then the new directory is watched.
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after directory creation")
	}

	if err := os.WriteFile(filepath.Join(sub, "new.html"), []byte("<html></html>"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("change inside a new subdirectory did not trigger a reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watchFiles returned error: %v", err)
	}
}

func TestServer_RejectsPathTraversal(t *testing.T) {
	srv := httptest.NewServer(newDocsServer(t, false).Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.URL.Path = "/../../etc/passwd"
	req.URL.RawPath = req.URL.Path

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Error("path traversal should not succeed")
	}
}
