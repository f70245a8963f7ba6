// Package web provides the HTTP status and settings server for the
// seat-heater daemon.
package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/sweeney/seat-heater/internal/logic"
	"github.com/sweeney/seat-heater/internal/settings"
	"github.com/sweeney/seat-heater/internal/status"
)

// Server serves the status page and the settings API.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	store      *settings.Store
}

// New creates a Server that reads state from the tracker and mutates
// user preferences through the store.
func New(addr string, tracker *status.Tracker, store *settings.Store) *Server {
	s := &Server{tracker: tracker, store: store}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/settings.json", s.handleSettingsGet)
	mux.HandleFunc("/settings", s.handleSettingsPost)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatSettingsJSON(s.store.Snapshot()))
}

// handleSettingsPost applies form-encoded settings mutations. Only the
// keys present in the request are touched; the first invalid value
// aborts with 400 (earlier keys in the fixed order may already have
// been applied, each one its own decision epoch).
func (s *Server) handleSettingsPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form data", http.StatusBadRequest)
		return
	}

	if err := s.applySettings(r.PostForm); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Plain form posts go back to the status page.
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatSettingsJSON(s.store.Snapshot()))
}

func (s *Server) applySettings(form map[string][]string) error {
	get := func(key string) (string, bool) {
		vs, ok := form[key]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	}

	if v, ok := get("mode"); ok {
		if err := s.store.SetMode(logic.Mode(v)); err != nil {
			return err
		}
	}
	if v, ok := get("adaptive"); ok {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("settings: invalid adaptive %q", v)
		}
		s.store.SetAdaptive(on)
	}
	if v, ok := get("level"); ok {
		level, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("settings: invalid level %q", v)
		}
		if err := s.store.SetFixedLevel(level); err != nil {
			return err
		}
	}
	if v, ok := get("check_once"); ok {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("settings: invalid check_once %q", v)
		}
		s.store.SetCheckOnce(on)
	}
	if v, ok := get("auto_off_minutes"); ok {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("settings: invalid auto_off_minutes %q", v)
		}
		if err := s.store.SetAutoOffMinutes(minutes); err != nil {
			return err
		}
	}
	if v, ok := get("source"); ok {
		if err := s.store.SetSource(logic.TemperatureSource(v)); err != nil {
			return err
		}
	}
	if v, ok := get("threshold"); ok {
		c, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("settings: invalid threshold %q", v)
		}
		if err := s.store.SetThreshold(c); err != nil {
			return err
		}
	}
	return nil
}
