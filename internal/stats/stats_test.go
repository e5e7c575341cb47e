package stats

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestAddIncrSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Incr("nodes.created")
	r.Incr("nodes.created")
	r.Add("nodes.cse", 5)

	snap := r.Snapshot()
	if snap["nodes.created"] != 2 {
		t.Errorf("nodes.created = %d, want 2", snap["nodes.created"])
	}
	if snap["nodes.cse"] != 5 {
		t.Errorf("nodes.cse = %d, want 5", snap["nodes.cse"])
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	r.Incr("x")
	snap := r.Snapshot()
	snap["x"] = 999
	if got := r.Snapshot()["x"]; got != 1 {
		t.Errorf("mutating a Snapshot copy leaked back into the registry: x = %d, want 1", got)
	}
}

func TestReportIncludesEveryCounterSorted(t *testing.T) {
	r := NewRegistry()
	r.Add("zeta", 1)
	r.Add("alpha", 2000)

	report := r.Report()
	alphaIdx := strings.Index(report, "alpha")
	zetaIdx := strings.Index(report, "zeta")
	if alphaIdx < 0 || zetaIdx < 0 {
		t.Fatalf("Report missing a counter: %q", report)
	}
	if alphaIdx > zetaIdx {
		t.Error("Report should list counters sorted ascending by name")
	}
	if !strings.Contains(report, "2,000") {
		t.Errorf("Report should humanize large counts with thousands separators: %q", report)
	}
}

func TestStreamerBroadcastsSnapshotToClient(t *testing.T) {
	r := NewRegistry()
	r.Incr("nodes.created")

	streamer := NewStreamer(r, 20*time.Millisecond)
	server := httptest.NewServer(streamer)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go streamer.Run(stop)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var snap map[string]uint64
	if err := json.Unmarshal(payload, &snap); err != nil {
		t.Fatalf("unmarshal broadcast payload: %v", err)
	}
	if snap["nodes.created"] != 1 {
		t.Errorf("broadcast snapshot nodes.created = %d, want 1", snap["nodes.created"])
	}
}
