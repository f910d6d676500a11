package httpapi

import (
	"net/http"

	"lessonpath-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) UploadLessonImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageBytes+(1<<20))
	if err := r.ParseMultipartForm(services.MaxImageBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "The file is empty or too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "The file is empty")
		return
	}
	defer file.Close()
	asset, err := s.Media.SaveLessonImage(CurrentActor(r), header.Header.Get("Content-Type"), file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, asset)
}

func (s *Server) MediaContent(w http.ResponseWriter, r *http.Request) {
	path, err := s.Media.LocateAsset(chi.URLParam(r, "assetId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

func (s *Server) DeleteMediaAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.Media.DeleteAsset(CurrentActor(r), chi.URLParam(r, "assetId")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteMessage(w, "Asset removed")
}
