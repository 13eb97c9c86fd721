package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"strobe/internal/booth"
	"strobe/internal/pairstore"
	"strobe/internal/testsupport"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := pairstore.New(cfg.Paths.LibraryDir, nil)
	b := booth.New(cfg, store, nil, nil, nil, nil)
	server := NewServer(b, nil)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return server, ts, cfg.Paths.LibraryDir
}

func seedPair(t *testing.T, dir string) string {
	t.Helper()
	return testsupport.WritePair(t, dir, time.Now())
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStatusEndpoint(t *testing.T) {
	_, ts, dir := newTestServer(t)
	seedPair(t, dir)

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code: %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Capture.State != "idle" {
		t.Errorf("capture state: %+v", body.Capture)
	}
	if body.Statistics.PairCount != 1 {
		t.Errorf("pair count: %d", body.Statistics.PairCount)
	}
}

func TestPairsEndpoint(t *testing.T) {
	_, ts, dir := newTestServer(t)
	want := seedPair(t, dir)

	resp, err := http.Get(ts.URL + "/api/pairs")
	if err != nil {
		t.Fatalf("GET pairs: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Pairs []struct {
			Timestamp string `json:"timestamp"`
			Bytes     int64  `json:"bytes"`
		} `json:"pairs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Pairs) != 1 || body.Pairs[0].Timestamp != want {
		t.Fatalf("pairs: %+v", body.Pairs)
	}
	if wantBytes := int64(2 * len(testsupport.PixelData(t))); body.Pairs[0].Bytes != wantBytes {
		t.Errorf("bytes: got %d, want %d", body.Pairs[0].Bytes, wantBytes)
	}
}

func TestCaptureEndpointRejectsConcurrentSession(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/capture", `{"theme":"noir"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("first capture: %d", resp.StatusCode)
	}
	var accepted map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if accepted["session_id"] == "" {
		t.Error("expected a session id")
	}

	resp = postJSON(t, ts.URL+"/api/capture", `{"theme":"pop"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second capture: got %d, want 409", resp.StatusCode)
	}
}

func TestSlideshowStartWithEmptyLibraryConflicts(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/slideshow/start", `{}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("empty library start: got %d, want 409", resp.StatusCode)
	}
}

func TestSlideshowLifecycleEndpoints(t *testing.T) {
	_, ts, dir := newTestServer(t)
	seedPair(t, dir)

	resp := postJSON(t, ts.URL+"/api/slideshow/start", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/slideshow/duration", `{"seconds":42}`)
	var duration map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&duration); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if duration["seconds"] != 10 {
		t.Errorf("duration should clamp to 10, got %d", duration["seconds"])
	}

	resp = postJSON(t, ts.URL+"/api/slideshow/stop", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop: %d", resp.StatusCode)
	}
}

func TestCleanupEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/cleanup", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cleanup: %d", resp.StatusCode)
	}
	var report struct {
		FilesRemoved int `json:"files_removed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.FilesRemoved != 0 {
		t.Errorf("empty library cleanup removed %d files", report.FilesRemoved)
	}
}

func TestWebsocketStreamsCaptureState(t *testing.T) {
	server, ts, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.streamStates(ctx)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Wait for registration before triggering the transition.
	deadline := time.Now().Add(2 * time.Second)
	for server.hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	postJSON(t, ts.URL+"/api/capture", `{"theme":"noir"}`)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg stateMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type == "capture" && msg.Capture != nil && msg.Capture.State == "counting_down" {
			return
		}
	}
}
