package link

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cjeanneret/GoRover/internal/logic/command"
	"github.com/cjeanneret/GoRover/internal/logic/encoder"
	"github.com/google/go-cmp/cmp"
)

var _ encoder.Sender = (*Client)(nil)

func TestClient_SendPath(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>rover</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	for _, cmd := range []command.Command{command.Right, command.ForwardLeft, command.Stop} {
		if err := c.Send(context.Background(), cmd); err != nil {
			t.Fatalf("Send(%v): %v", cmd, err)
		}
	}

	want := []string{"GET /right", "GET /forwardleft", "GET /stop"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

// Any response is a delivery, including error statuses.
func TestClient_AnyStatusIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, time.Second).Send(context.Background(), command.Forward); err != nil {
		t.Errorf("Send: %v", err)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()

	if err := NewClient(addr, time.Second).Send(context.Background(), command.Forward); err == nil {
		t.Error("expected error for closed rover")
	}
}

func TestClient_RejectsNone(t *testing.T) {
	c := NewClient("127.0.0.1:1", 0)
	if err := c.Send(context.Background(), command.None); err == nil {
		t.Error("None must not be transmitted")
	}
}

func TestClient_URL(t *testing.T) {
	cases := []struct {
		addr string
		want string
	}{
		{"192.168.178.186:8080", "http://192.168.178.186:8080/backwardright"},
		{"http://rover.local/", "http://rover.local/backwardright"},
	}
	for _, tc := range cases {
		if got := NewClient(tc.addr, 0).URL(command.BackwardRight); got != tc.want {
			t.Errorf("URL(%q) = %q, want %q", tc.addr, got, tc.want)
		}
	}
}

func TestWaitAssociated_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	p := ProbeFunc(func() (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("no carrier")
		}
		return true, nil
	})
	var attempts []int
	err := WaitAssociated(context.Background(), p, Options{
		Attempts:  15,
		Interval:  time.Millisecond,
		OnAttempt: func(n int) { attempts = append(attempts, n) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, attempts); diff != "" {
		t.Errorf("attempts mismatch (-want +got):\n%s", diff)
	}
}

func TestWaitAssociated_Exhausted(t *testing.T) {
	calls := 0
	p := ProbeFunc(func() (bool, error) {
		calls++
		return false, nil
	})
	err := WaitAssociated(context.Background(), p, Options{Attempts: 4, Interval: time.Millisecond})
	if !errors.Is(err, ErrNotAssociated) {
		t.Fatalf("err = %v, want ErrNotAssociated", err)
	}
	if calls != 4 {
		t.Errorf("probe called %d times, want 4", calls)
	}
}

func TestWaitAssociated_UnboundedStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	p := ProbeFunc(func() (bool, error) { return false, nil })
	err := WaitAssociated(ctx, p, Options{Interval: time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestInterfaceProbe_Unknown(t *testing.T) {
	ok, err := InterfaceProbe{Name: "no-such-wlan9"}.Associated()
	if err == nil || ok {
		t.Errorf("Associated = %v, %v; want error", ok, err)
	}
}
