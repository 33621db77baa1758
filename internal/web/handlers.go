package web

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/cjeanneret/GoRover/internal/debug"
	"github.com/cjeanneret/GoRover/internal/logic/command"
	"github.com/cjeanneret/GoRover/internal/logic/drive"
	"github.com/go-chi/render"
	"github.com/samber/lo"
)

// Executor runs one drive command to completion.
type Executor interface {
	Execute(cmd command.Command) (drive.Result, error)
}

// Settings are the actuation parameters shown by GET /config.
type Settings struct {
	Speed      float64
	Window     time.Duration
	Kinematics string
}

// ConfigView is the JSON body of GET /config.
type ConfigView struct {
	Commands   []string `json:"commands"`
	Speed      float64  `json:"speed"`
	WindowMs   int64    `json:"window_ms"`
	Kinematics string   `json:"kinematics"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Drive       Executor
	Broadcaster *StatusBroadcaster
	Settings    Settings
	staticFS    fs.FS
}

func NewHandlers(drv Executor, broadcaster *StatusBroadcaster, settings Settings, staticFS fs.FS) *Handlers {
	return &Handlers{
		Drive:       drv,
		Broadcaster: broadcaster,
		Settings:    settings,
		staticFS:    staticFS,
	}
}

// commandName returns the first path segment: "/forward/x?y" -> "forward".
func commandName(path string) string {
	name, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	return name
}

// HandleCommand actuates GET /<command> and always answers with the control
// page. Unknown names and other methods only get the page.
func (h *Handlers) HandleCommand(w http.ResponseWriter, r *http.Request) {
	name := commandName(r.URL.Path)

	if cmd, ok := command.Parse(name); ok && r.Method == http.MethodGet {
		res, err := h.Drive.Execute(cmd)
		if err != nil {
			debug.Error(err)
			h.Broadcaster.Broadcast("error", "Drive "+name+" failed: "+err.Error())
		} else {
			debug.Live("HTTP %s -> %v held %v", name, res.Pair, res.Held)
		}
	} else if name != "" {
		debug.Verbose("HTTP %s /%s: no command", r.Method, name)
	}

	h.ServeIndex(w, r)
}

// HandleConfig returns the command vocabulary and actuation settings as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, ConfigView{
		Commands: lo.Map(command.All(), func(c command.Command, _ int) string {
			return c.String()
		}),
		Speed:      h.Settings.Speed,
		WindowMs:   h.Settings.Window.Milliseconds(),
		Kinematics: h.Settings.Kinematics,
	})
}

// ServeIndex serves the control page with status 200.
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "control page missing", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			_, _ = w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
