package httpapi

import "net/http"

type RecordTimeRequest struct {
	LessonID string  `json:"lessonId"`
	Duration float64 `json:"duration"`
}

type RecordTimeResponse struct {
	Message  string  `json:"message"`
	Msg      string  `json:"msg"`
	Duration float64 `json:"duration"`
}

func (s *Server) GetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.Ledger.Progress(r.Context(), CurrentUserID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, progress)
}

func (s *Server) RecordTime(w http.ResponseWriter, r *http.Request) {
	var req RecordTimeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	total, err := s.Ledger.RecordVisit(r.Context(), CurrentActor(r), req.LessonID, req.Duration)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, RecordTimeResponse{
		Message:  "Lesson time recorded successfully",
		Msg:      "Lesson time recorded successfully",
		Duration: total,
	})
}

func (s *Server) LessonStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Ledger.Stats(r.Context(), CurrentActor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
