package switchmon

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

// fakeFetcher serves canned overviews and fails selected ports.
type fakeFetcher struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls int
}

func (f *fakeFetcher) PortOverview(_ context.Context, port string) (*PortOverview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[port] {
		return nil, fmt.Errorf("connection refused")
	}
	return &PortOverview{AdminState: "up", LinkState: "up", Duplex: "full", LinkSpeedBps: 1000000000}, nil
}

func TestRefreshCoversAllPorts(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := NewPoller(fetcher, PollerConfig{PortCount: 4}, nil, nil)

	p.Refresh(context.Background())

	snap := p.Snapshot()
	if len(snap) != 4 {
		t.Fatalf("snapshot has %d ports, want 4", len(snap))
	}
	for _, port := range []string{"1/1/1", "1/1/2", "1/1/3", "1/1/4"} {
		if _, ok := snap[port]; !ok {
			t.Errorf("snapshot missing port %s", port)
		}
	}
}

func TestRefreshPlaceholderOnFailure(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[string]bool{"1/1/2": true}}
	p := NewPoller(fetcher, PollerConfig{PortCount: 3}, nil, nil)

	p.Refresh(context.Background())

	snap := p.Snapshot()
	got := snap["1/1/2"]
	want := PortOverview{AdminState: "error", LinkState: "error", Duplex: "unknown"}
	if got != want {
		t.Errorf("failed port = %+v, want placeholder %+v", got, want)
	}
	if snap["1/1/1"].LinkState != "up" {
		t.Error("healthy port affected by neighbor failure")
	}
	if snap["1/1/3"].LinkState != "up" {
		t.Error("refresh aborted after failed port")
	}
}

func TestRefreshInvokesCallback(t *testing.T) {
	var (
		mu       sync.Mutex
		received map[string]PortOverview
	)
	fetcher := &fakeFetcher{}
	p := NewPoller(fetcher, PollerConfig{PortCount: 2}, nil, func(snap map[string]PortOverview) {
		mu.Lock()
		received = snap
		mu.Unlock()
	})

	p.Refresh(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 2 {
		t.Fatalf("callback snapshot has %d ports, want 2", len(received))
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := NewPoller(fetcher, PollerConfig{PortCount: 1}, nil, nil)
	p.Refresh(context.Background())

	snap := p.Snapshot()
	snap["1/1/1"] = PortOverview{AdminState: "tampered"}

	if p.Snapshot()["1/1/1"].AdminState != "up" {
		t.Error("mutating a snapshot leaked into the poller")
	}
}

func TestDefaultPorts(t *testing.T) {
	p := NewPoller(&fakeFetcher{}, DefaultPollerConfig(), nil, nil)
	ports := p.Ports()
	if len(ports) != 28 {
		t.Fatalf("got %d ports, want 28", len(ports))
	}
	if ports[0] != "1/1/1" || ports[27] != "1/1/28" {
		t.Errorf("port range = %s..%s", ports[0], ports[27])
	}
}
