package httpapi

import (
	"net/http"

	"lessonpath-backend-go/internal/models"
	"lessonpath-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type ReorderRequest struct {
	Items []models.LessonOrder `json:"items"`
}

type CreateLessonResponse struct {
	ID     string                `json:"id"`
	Lesson services.LessonDetail `json:"lesson"`
}

func (s *Server) ListLessons(w http.ResponseWriter, r *http.Request) {
	items, err := s.Catalog.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) GetLesson(w http.ResponseWriter, r *http.Request) {
	lesson, err := s.Catalog.Get(r.Context(), chi.URLParam(r, "lessonId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, lesson)
}

func (s *Server) CreateLesson(w http.ResponseWriter, r *http.Request) {
	var req services.LessonInput
	if !decodeJSON(w, r, &req) {
		return
	}
	lesson, err := s.Catalog.Create(r.Context(), CurrentActor(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, CreateLessonResponse{ID: lesson.ID, Lesson: lesson})
}

func (s *Server) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	var req services.LessonInput
	if !decodeJSON(w, r, &req) {
		return
	}
	lesson, err := s.Catalog.Update(r.Context(), CurrentActor(r), chi.URLParam(r, "lessonId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, lesson)
}

func (s *Server) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	if err := s.Catalog.Delete(r.Context(), CurrentActor(r), chi.URLParam(r, "lessonId")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteMessage(w, "Lesson removed")
}

func (s *Server) ReorderLessons(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.Catalog.Reorder(r.Context(), CurrentActor(r), req.Items); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteMessage(w, "Lessons reordered")
}

func (s *Server) LessonsAccess(w http.ResponseWriter, r *http.Request) {
	report, err := s.Ledger.Access(r.Context(), CurrentActor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (s *Server) LessonAccess(w http.ResponseWriter, r *http.Request) {
	access, err := s.Ledger.LessonAccess(r.Context(), CurrentActor(r), chi.URLParam(r, "lessonId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, access)
}
