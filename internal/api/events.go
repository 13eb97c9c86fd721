package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"strobe/internal/capture"
	"strobe/internal/pairstore"
)

// maxImageBytes caps collaborator image uploads.
const maxImageBytes = 32 << 20

// handleCaptureCompleted receives the original image from the camera
// collaborator. The body is the raw image; the timestamp comes from the
// path.
func (s *Server) handleCaptureCompleted(w http.ResponseWriter, r *http.Request) {
	timestamp, data, ok := s.readImagePayload(w, r)
	if !ok {
		return
	}
	if err := s.booth.CaptureCompleted(timestamp, data); err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"timestamp": timestamp})
}

// handleStylizationCompleted receives the themed image from the stylization
// collaborator, completing the pair.
func (s *Server) handleStylizationCompleted(w http.ResponseWriter, r *http.Request) {
	timestamp, data, ok := s.readImagePayload(w, r)
	if !ok {
		return
	}
	if err := s.booth.StylizationCompleted(timestamp, data); err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"timestamp": timestamp})
}

type stylizationFailureRequest struct {
	Category string `json:"category"`
	Detail   string `json:"detail"`
}

// handleStylizationFailed moves the live session into the error state on
// behalf of a collaborator that could not deliver a result.
func (s *Server) handleStylizationFailed(w http.ResponseWriter, r *http.Request) {
	var req stylizationFailureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	category := capture.CategoryFromString(req.Category)
	s.booth.StylizationFailed(category, req.Detail)
	s.respondJSON(w, http.StatusOK, map[string]string{"category": string(category)})
}

// readImagePayload validates the path timestamp and drains the raw image
// body. Malformed requests are rejected here and never touch the capture
// machine.
func (s *Server) readImagePayload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	timestamp := r.PathValue("timestamp")
	if _, _, err := pairstore.ParseTimestamp(timestamp); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("invalid timestamp %q", timestamp))
		return "", nil, false
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return "", nil, false
	}
	if len(data) == 0 {
		s.respondError(w, http.StatusBadRequest, errors.New("empty image payload"))
		return "", nil, false
	}
	return timestamp, data, true
}
