package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/cjeanneret/GoRover/internal/logic/command"
	"github.com/cjeanneret/GoRover/internal/logic/drive"
	"github.com/cjeanneret/GoRover/internal/logic/motion"
	"github.com/google/go-cmp/cmp"
)

const testPage = "<html>rover page</html>"

// recordingExecutor records every command it is asked to execute.
type recordingExecutor struct {
	mu   sync.Mutex
	cmds []command.Command
	err  error
}

func (e *recordingExecutor) Execute(cmd command.Command) (drive.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cmds = append(e.cmds, cmd)
	return drive.Result{Command: cmd, Actuated: true}, e.err
}

func (e *recordingExecutor) Commands() []command.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]command.Command(nil), e.cmds...)
}

func newTestHandlers(exec Executor) *Handlers {
	staticFS := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte(testPage)},
		"style.css":  &fstest.MapFile{Data: []byte("body{}")},
	}
	return NewHandlers(exec, NewStatusBroadcaster(), Settings{
		Speed:      50,
		Window:     500 * time.Millisecond,
		Kinematics: "skid",
	}, staticFS)
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func assertPage(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Body.String() != testPage {
		t.Errorf("body = %q, want control page", w.Body.String())
	}
}

func TestCommandRoutes(t *testing.T) {
	cases := []struct {
		target string
		want   []command.Command
	}{
		{"/forward", []command.Command{command.Forward}},
		{"/right", []command.Command{command.Right}},
		{"/stop", []command.Command{command.Stop}},
		{"/forwardleft", []command.Command{command.ForwardLeft}},
		{"/backwardright", []command.Command{command.BackwardRight}},
		{"/left?from=page", []command.Command{command.Left}},
		{"/backward/extra", []command.Command{command.Backward}},
		{"/dance", nil},
		{"/Forward", nil},
		{"/forwards", nil},
		{"/", nil},
		{"/favicon.ico", nil},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			exec := &recordingExecutor{}
			router := newRouter(newTestHandlers(exec))

			w := do(t, router, http.MethodGet, tc.target)

			assertPage(t, w)
			if diff := cmp.Diff(tc.want, exec.Commands()); diff != "" {
				t.Errorf("executed mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommand_OnlyGetActuates(t *testing.T) {
	exec := &recordingExecutor{}
	router := newRouter(newTestHandlers(exec))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		assertPage(t, do(t, router, method, "/forward"))
	}
	if n := len(exec.Commands()); n != 0 {
		t.Errorf("executed %d commands, want 0", n)
	}
}

func TestCommand_DriveErrorStillServesPage(t *testing.T) {
	exec := &recordingExecutor{err: errors.New("pwm fault")}
	h := newTestHandlers(exec)
	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	assertPage(t, do(t, newRouter(h), http.MethodGet, "/forward"))

	if evt := receive(t, ch); evt.Level != "error" {
		t.Errorf("event = %+v, want error", evt)
	}
}

func TestCommandName(t *testing.T) {
	cases := map[string]string{
		"/":              "",
		"/stop":          "stop",
		"/stop/":         "stop",
		"/forward/a/b":   "forward",
		"forwardright":   "forwardright",
		"//backwardleft": "",
	}
	for in, want := range cases {
		if got := commandName(in); got != want {
			t.Errorf("commandName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHandleConfig(t *testing.T) {
	router := newRouter(newTestHandlers(&recordingExecutor{}))
	w := do(t, router, http.MethodGet, "/config")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	var got ConfigView
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := ConfigView{
		Commands: []string{
			"forward", "backward", "left", "right",
			"forwardleft", "forwardright", "backwardleft", "backwardright", "stop",
		},
		Speed:      50,
		WindowMs:   500,
		Kinematics: "skid",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestStaticFiles(t *testing.T) {
	router := newRouter(newTestHandlers(&recordingExecutor{}))
	w := do(t, router, http.MethodGet, "/static/style.css")

	if w.Code != http.StatusOK || w.Body.String() != "body{}" {
		t.Errorf("static = %d %q", w.Code, w.Body.String())
	}
}

func TestStatusStream(t *testing.T) {
	h := newTestHandlers(&recordingExecutor{})
	srv := httptest.NewServer(newRouter(h))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/status/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	if !lines.Scan() || lines.Text() != ": connected" {
		t.Fatalf("first line = %q", lines.Text())
	}

	h.Broadcaster.OnDrive(drive.Event{
		Command: command.Stop,
		Phase:   drive.PhaseStopped,
		Pair:    motion.Pair{},
	})

	for lines.Scan() {
		line := lines.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt StatusEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if evt.Drive == nil || evt.Drive.Command != "stop" {
			t.Errorf("event = %+v", evt)
		}
		return
	}
	t.Fatal("stream ended without data")
}
