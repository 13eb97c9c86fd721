package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"strobe/internal/booth"
	"strobe/internal/capture"
	"strobe/internal/logging"
	"strobe/internal/pairstore"
	"strobe/internal/retention"
	"strobe/internal/slideshow"
)

// Server exposes booth state and controls to presentation surfaces over
// HTTP and pushes state changes over a websocket hub.
type Server struct {
	booth    *booth.Booth
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer wires the API over a booth.
func NewServer(b *booth.Booth, logger *slog.Logger) *Server {
	return &Server{
		booth:  b,
		hub:    NewHub(logger),
		logger: logging.NewComponentLogger(logger, "api"),
		upgrader: websocket.Upgrader{
			// Surfaces are local kiosk processes; origin checks add nothing.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/pairs", s.handlePairs)
	mux.HandleFunc("POST /api/capture", s.handleCapture)
	mux.HandleFunc("POST /api/theme", s.handleTheme)
	mux.HandleFunc("POST /api/slideshow/start", s.handleSlideshowStart)
	mux.HandleFunc("POST /api/slideshow/stop", s.handleSlideshowStop)
	mux.HandleFunc("POST /api/slideshow/duration", s.handleSlideshowDuration)
	mux.HandleFunc("POST /api/cleanup", s.handleCleanup)
	mux.HandleFunc("POST /api/events/capture-completed/{timestamp}", s.handleCaptureCompleted)
	mux.HandleFunc("POST /api/events/stylization-completed/{timestamp}", s.handleStylizationCompleted)
	mux.HandleFunc("POST /api/events/stylization-failed", s.handleStylizationFailed)
	mux.HandleFunc("POST /api/notify/test", s.handleNotifyTest)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	return mux
}

// Run serves the API on bind and streams state changes to the hub until
// ctx is cancelled.
func (s *Server) Run(ctx context.Context, bind string) error {
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	go s.streamStates(ctx)

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	s.logger.Info("api listening", logging.String("bind", listener.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.CloseAll(shutdownCtx)
		_ = server.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type stateMessage struct {
	Type      string              `json:"type"`
	Capture   *capture.Snapshot   `json:"capture,omitempty"`
	Slideshow *slideshow.Snapshot `json:"slideshow,omitempty"`
}

// streamStates forwards capture and slideshow snapshots to the hub.
func (s *Server) streamStates(ctx context.Context) {
	captureCh, cancelCapture := s.booth.Capture().Subscribe()
	defer cancelCapture()
	slideshowCh, cancelSlideshow := s.booth.Slideshow().Subscribe()
	defer cancelSlideshow()

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-captureCh:
			if !ok {
				return
			}
			s.broadcast(stateMessage{Type: "capture", Capture: &snap})
		case snap, ok := <-slideshowCh:
			if !ok {
				return
			}
			s.broadcast(stateMessage{Type: "slideshow", Slideshow: &snap})
		}
	}
}

func (s *Server) broadcast(msg stateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	s.hub.Broadcast(data)
}

type statusResponse struct {
	Capture    capture.Snapshot     `json:"capture"`
	Slideshow  slideshow.Snapshot   `json:"slideshow"`
	Statistics pairstore.Statistics `json:"statistics"`
	Clients    int                  `json:"display_clients"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.booth.Statistics()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, statusResponse{
		Capture:    s.booth.Capture().Snapshot(),
		Slideshow:  s.booth.Slideshow().Snapshot(),
		Statistics: stats,
		Clients:    s.hub.ClientCount(),
	})
}

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.booth.Store().Scan()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	type pairView struct {
		Timestamp string    `json:"timestamp"`
		Original  string    `json:"original"`
		Themed    string    `json:"themed"`
		Bytes     int64     `json:"bytes"`
		CreatedAt time.Time `json:"created_at"`
	}
	views := make([]pairView, 0, len(pairs))
	for _, pair := range pairs {
		views = append(views, pairView{
			Timestamp: pair.Timestamp,
			Original:  pair.OriginalPath,
			Themed:    pair.ThemedPath,
			Bytes:     pair.OriginalBytes + pair.ThemedBytes,
			CreatedAt: pair.CreatedAt,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"pairs": views})
}

type captureRequest struct {
	Theme string `json:"theme"`
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	sessionID, err := s.booth.RequestCapture(req.Theme)
	if err != nil {
		if errors.Is(err, capture.ErrSessionActive) {
			s.respondError(w, http.StatusConflict, err)
			return
		}
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusAccepted, map[string]string{"session_id": sessionID})
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	s.booth.SelectTheme(req.Theme)
	s.respondJSON(w, http.StatusOK, map[string]string{"theme": req.Theme})
}

func (s *Server) handleSlideshowStart(w http.ResponseWriter, r *http.Request) {
	if err := s.booth.Slideshow().Start(); err != nil {
		if errors.Is(err, slideshow.ErrNoPairs) {
			s.respondError(w, http.StatusConflict, err)
			return
		}
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, s.booth.Slideshow().Snapshot())
}

func (s *Server) handleSlideshowStop(w http.ResponseWriter, r *http.Request) {
	s.booth.Slideshow().Stop()
	s.respondJSON(w, http.StatusOK, s.booth.Slideshow().Snapshot())
}

type durationRequest struct {
	Seconds int `json:"seconds"`
}

func (s *Server) handleSlideshowDuration(w http.ResponseWriter, r *http.Request) {
	var req durationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	applied := s.booth.Slideshow().UpdateDisplayDuration(req.Seconds)
	s.respondJSON(w, http.StatusOK, map[string]int{"seconds": applied})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	report, err := s.booth.RunCleanup(r.Context())
	if err != nil {
		if errors.Is(err, retention.ErrCleanupBusy) {
			s.respondError(w, http.StatusConflict, err)
			return
		}
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleNotifyTest(w http.ResponseWriter, r *http.Request) {
	if err := s.booth.TestNotification(r.Context()); err != nil {
		s.respondError(w, http.StatusBadGateway, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"sent": true})
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.Register(conn)
	go func() {
		defer s.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response encode failed", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}
