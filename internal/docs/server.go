// Package docs serves a prebuilt static documentation site.
// In watch mode it reloads connected browsers when files in the docs
// directory change.
package docs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// Server serves a static docs directory with optional live reload.
type Server struct {
	dir    string
	host   string
	port   int
	watch  bool
	logger *slog.Logger

	clients   map[chan struct{}]struct{}
	clientsMu sync.Mutex
}

// Config holds configuration for the docs server.
type Config struct {
	Dir    string
	Host   string
	Port   int
	Watch  bool
	Logger *slog.Logger
}

// NewServer creates a new docs server.
func NewServer(cfg Config) (*Server, error) {
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("docs directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs path is not a directory: %s", cfg.Dir)
	}

	return &Server{
		dir:     cfg.Dir,
		host:    cfg.Host,
		port:    cfg.Port,
		watch:   cfg.Watch,
		logger:  cfg.Logger,
		clients: make(map[chan struct{}]struct{}),
	}, nil
}

// Handler builds the HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleFile)
	if s.watch {
		mux.HandleFunc("/__reload", s.handleSSE)
	}
	return mux
}

// Serve starts the docs server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.logger.Info("starting docs server", "addr", addr, "dir", s.dir, "watch", s.watch)

	eg, egctx := errgroup.WithContext(ctx)

	if s.watch {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("docs server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// handleFile serves files from the docs directory. HTML pages get the live
// reload script appended when watch mode is on.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := filepath.Clean(r.URL.Path)
	if name == "/" || name == "." {
		name = "/index.html"
	}
	path := filepath.Join(s.dir, name)

	// Keep requests inside the docs directory.
	if !strings.HasPrefix(path, filepath.Clean(s.dir)+string(os.PathSeparator)) {
		http.NotFound(w, r)
		return
	}

	if s.watch && strings.HasSuffix(path, ".html") {
		content, err := os.ReadFile(path) //nolint:gosec // G304: path is confined to the docs dir
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		_, _ = w.Write(content)
		_, _ = w.Write([]byte(liveReloadScript))
		return
	}

	http.ServeFile(w, r, path)
}

// handleSSE handles Server-Sent Events for live reload.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	ch := make(chan struct{}, 1)
	s.clientsMu.Lock()
	s.clients[ch] = struct{}{}
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, ch)
		s.clientsMu.Unlock()
		close(ch)
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch:
			_, _ = fmt.Fprintf(w, "data: reload\n\n")
			flusher.Flush()
		}
	}
}

// watchFiles watches the docs directory and notifies clients on changes.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, s.dir); err != nil {
		return fmt.Errorf("failed to watch docs dir: %w", err)
	}

	// Debounce timer
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Directories created while watching must be added too, or
			// edits inside them never reach the watcher.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchDirRecursive(watcher, event.Name); err != nil {
						s.logger.Error("failed to watch new directory", "dir", event.Name, "error", err)
					}
				}
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("docs changed, reloading clients", "file", filepath.Base(event.Name))
				s.notifyClients()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// notifyClients sends reload signal to all connected clients.
func (s *Server) notifyClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for ch := range s.clients {
		select {
		case ch <- struct{}{}:
		default:
			// Channel full, skip
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if len(d.Name()) > 1 && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// liveReloadScript is appended to HTML pages in watch mode.
const liveReloadScript = `
<script>
;(function() {
  var es = new EventSource('/__reload');
  es.onmessage = function(e) {
    if (e.data === 'reload') {
      window.location.reload();
    }
  };
  es.onerror = function() {
    setTimeout(function() { window.location.reload(); }, 1000);
  };
})();
</script>
`
