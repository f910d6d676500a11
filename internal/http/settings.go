package httpapi

import (
	"net/http"

	"lessonpath-backend-go/internal/services"
)

type ThresholdRequest struct {
	Value interface{} `json:"value"`
}

type ThresholdResponse struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

func (s *Server) GetUnlockThreshold(w http.ResponseWriter, r *http.Request) {
	value, err := s.Settings.Threshold(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ThresholdResponse{Key: services.UnlockThresholdKey, Value: value})
}

func (s *Server) SetUnlockThreshold(w http.ResponseWriter, r *http.Request) {
	var req ThresholdRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	value, err := services.ParseThreshold(req.Value)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.Settings.SetThreshold(r.Context(), CurrentActor(r), value); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ThresholdResponse{Key: services.UnlockThresholdKey, Value: value})
}
