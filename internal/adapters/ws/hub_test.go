package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/io-m1/MLJResultsCompiler-sub002/internal/adapters/ws"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/types"
)

const testInterval = 20 * time.Millisecond

// --- helpers ----------------------------------------------------------------

// fakeSource is a Snapshotter backed by a plain slice.
type fakeSource struct {
	mu   sync.Mutex
	jobs []types.JobView
}

func newSource(jobs ...types.JobView) *fakeSource {
	return &fakeSource{jobs: jobs}
}

func (f *fakeSource) ListJobs(_ context.Context) []types.JobView {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.JobView, len(f.jobs))
	copy(out, f.jobs)
	return out
}

func (f *fakeSource) put(j types.JobView) {
	f.mu.Lock()
	f.jobs = append(f.jobs, j)
	f.mu.Unlock()
}

func job(id, status string) types.JobView {
	return types.JobView{
		ID:         id,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
		InputCount: 5,
	}
}

// startHub starts a test HTTP server with the hub as its handler.
// The hub's Run loop is started with a cancellable context.
// Returns the ws:// URL, the hub, and a cleanup function.
func startHub(t *testing.T, src *fakeSource) (wsURL string, hub *ws.Hub, cancel func()) {
	t.Helper()

	hub = ws.New(src, testInterval)
	ctx, cancelFn := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancelFn()
		srv.Close()
	})

	wsURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	return wsURL, hub, cancelFn
}

// dial connects a WebSocket client to wsURL and returns the connection.
func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMessage reads one text message from conn with a short deadline.
func readMessage(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return msg
}

// --- tests ------------------------------------------------------------------

func TestHub_Connect_ReceivesImmediateJobs(t *testing.T) {
	src := newSource(job("job-1", "complete"))
	wsURL, _, _ := startHub(t, src)

	conn := dial(t, wsURL)
	msg := readMessage(t, conn)

	var m map[string]interface{}
	if err := json.Unmarshal(msg, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["event"] != "jobs" {
		t.Errorf("event: got %v, want jobs", m["event"])
	}
	jobs, ok := m["data"].([]interface{})
	if !ok {
		t.Fatal("data: missing or wrong type")
	}
	if len(jobs) != 1 {
		t.Errorf("jobs: got %d, want 1", len(jobs))
	}
}

func TestHub_MessageContainsJobs(t *testing.T) {
	src := newSource(job("job-1", "complete"), job("job-2", "processing"))
	wsURL, _, _ := startHub(t, src)

	conn := dial(t, wsURL)
	msg := readMessage(t, conn)

	var m map[string]interface{}
	json.Unmarshal(msg, &m) //nolint:errcheck
	jobs, ok := m["data"].([]interface{})
	if !ok {
		t.Fatal("data: missing or wrong type")
	}
	if len(jobs) != 2 {
		t.Errorf("jobs: got %d, want 2", len(jobs))
	}
	first := jobs[0].(map[string]interface{})
	if first["id"] != "job-1" {
		t.Errorf("id: got %v, want job-1", first["id"])
	}
	if first["status"] != "complete" {
		t.Errorf("status: got %v, want complete", first["status"])
	}
}

func TestHub_EmptySource_EmptyList(t *testing.T) {
	wsURL, _, _ := startHub(t, newSource())
	conn := dial(t, wsURL)
	msg := readMessage(t, conn)

	var m map[string]interface{}
	json.Unmarshal(msg, &m) //nolint:errcheck
	jobs, ok := m["data"].([]interface{})
	if !ok {
		t.Fatal("data: should be an empty array, not null")
	}
	if len(jobs) != 0 {
		t.Errorf("jobs: got %d, want 0", len(jobs))
	}
}

func TestHub_CountClients_SingleClient(t *testing.T) {
	wsURL, hub, _ := startHub(t, newSource())

	conn := dial(t, wsURL)
	readMessage(t, conn) // consume initial message

	// Give the hub a moment to register the client.
	time.Sleep(10 * time.Millisecond)
	if n := hub.Count(); n != 1 {
		t.Errorf("Count: got %d, want 1", n)
	}
}

func TestHub_CountClients_MultipleClients(t *testing.T) {
	wsURL, hub, _ := startHub(t, newSource())

	for i := 0; i < 3; i++ {
		conn := dial(t, wsURL)
		readMessage(t, conn) // consume initial message
	}

	time.Sleep(10 * time.Millisecond)
	if n := hub.Count(); n != 3 {
		t.Errorf("Count: got %d, want 3", n)
	}
}

func TestHub_CountClients_DecreasesOnDisconnect(t *testing.T) {
	wsURL, hub, _ := startHub(t, newSource())

	conn := dial(t, wsURL)
	readMessage(t, conn)
	time.Sleep(10 * time.Millisecond)

	if n := hub.Count(); n != 1 {
		t.Errorf("Count before disconnect: got %d, want 1", n)
	}

	conn.Close()
	time.Sleep(50 * time.Millisecond) // let readPump detect the close

	if n := hub.Count(); n != 0 {
		t.Errorf("Count after disconnect: got %d, want 0", n)
	}
}

func TestHub_ReceivesBroadcastOnTick(t *testing.T) {
	src := newSource()
	wsURL, _, _ := startHub(t, src)

	conn := dial(t, wsURL)
	readMessage(t, conn) // consume immediate message (empty source)

	// Add a job after connect.
	src.put(job("late-job", "processing"))

	// A following tick should broadcast a message that includes it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for tick broadcast: %v", err)
		}
		var m map[string]interface{}
		json.Unmarshal(msg, &m) //nolint:errcheck
		jobs, _ := m["data"].([]interface{})
		if len(jobs) == 1 {
			j := jobs[0].(map[string]interface{})
			if j["id"] != "late-job" {
				t.Errorf("id: got %v, want late-job", j["id"])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("tick broadcast never included the new job")
		}
	}
}

func TestHub_AllClientsReceiveBroadcast(t *testing.T) {
	wsURL, _, _ := startHub(t, newSource(job("shared", "complete")))

	conns := make([]*websocket.Conn, 3)
	for i := 0; i < 3; i++ {
		conns[i] = dial(t, wsURL)
	}

	// All three should receive the initial job list.
	for i, conn := range conns {
		msg := readMessage(t, conn)
		var m map[string]interface{}
		if err := json.Unmarshal(msg, &m); err != nil {
			t.Errorf("client %d: unmarshal: %v", i, err)
			continue
		}
		if m["event"] != "jobs" {
			t.Errorf("client %d: event: got %v, want jobs", i, m["event"])
		}
	}
}

func TestHub_CancelContextClosesConnections(t *testing.T) {
	wsURL, hub, cancel := startHub(t, newSource())

	conn := dial(t, wsURL)
	readMessage(t, conn)
	time.Sleep(10 * time.Millisecond)

	cancel() // signal shutdown

	// After cancel, hub should close all clients.
	time.Sleep(50 * time.Millisecond)
	if n := hub.Count(); n != 0 {
		t.Errorf("Count after cancel: got %d, want 0", n)
	}
}

func TestHub_NonWebSocketRequest_Returns400(t *testing.T) {
	hub := ws.New(newSource(), testInterval)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer srv.Close()

	// Plain HTTP GET without WebSocket upgrade headers is rejected.
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", resp.StatusCode)
	}
}
