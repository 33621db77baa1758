package web

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/cjeanneret/GoRover/internal/logic/drive"
	"github.com/cjeanneret/GoRover/internal/logic/motion"
)

// StatusEvent is a single status message pushed to SSE clients.
type StatusEvent struct {
	Time  string       `json:"t"`
	Level string       `json:"l,omitempty"`
	Msg   string       `json:"msg"`
	Drive *DriveStatus `json:"drive,omitempty"`
}

// DriveStatus is attached to events emitted by the drive controller.
type DriveStatus struct {
	Command string      `json:"command"`
	Phase   string      `json:"phase"`
	Pair    motion.Pair `json:"pair"`
}

// StatusBroadcaster fans status messages out to every SSE client.
type StatusBroadcaster struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

func NewStatusBroadcaster() *StatusBroadcaster {
	return &StatusBroadcaster{
		clients: make(map[chan string]struct{}),
	}
}

// Subscribe returns a channel of JSON payloads and the function that releases it.
// The caller must call the returned cleanup when the client goes away.
func (b *StatusBroadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

// Clients returns the number of subscribers.
func (b *StatusBroadcaster) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Broadcast sends a message to all subscribers. Slow clients miss messages.
func (b *StatusBroadcaster) Broadcast(level, msg string) {
	b.publish(StatusEvent{Level: level, Msg: msg})
}

// BroadcastMsg is a convenience for level "info".
func (b *StatusBroadcaster) BroadcastMsg(msg string) {
	b.Broadcast("info", msg)
}

// OnDrive implements drive.Observer.
func (b *StatusBroadcaster) OnDrive(e drive.Event) {
	b.publish(StatusEvent{
		Level: "drive",
		Msg:   e.Command.String() + " " + string(e.Phase) + " " + e.Pair.String(),
		Drive: &DriveStatus{
			Command: e.Command.String(),
			Phase:   string(e.Phase),
			Pair:    e.Pair,
		},
	})
}

func (b *StatusBroadcaster) publish(evt StatusEvent) {
	evt.Time = time.Now().Format(time.RFC3339)
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	payload := string(data)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
			// channel full, skip
		}
	}
}

// BroadcastWriter adapts the broadcaster to io.Writer so log output reaches
// the control page.
func BroadcastWriter(b *StatusBroadcaster) *broadcastWriter {
	return &broadcastWriter{b: b}
}

type broadcastWriter struct {
	b *StatusBroadcaster
}

func (w *broadcastWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(string(p), "\n") {
		if msg := strings.TrimSpace(line); msg != "" {
			w.b.BroadcastMsg(msg)
		}
	}
	return len(p), nil
}
