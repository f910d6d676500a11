package httpapi

import (
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

const maxAllowlistUpload = 5 << 20

type AllowlistUploadRequest struct {
	Text string `json:"text"`
}

type AllowlistUploadResponse struct {
	Message string `json:"message"`
	Msg     string `json:"msg"`
	Count   int    `json:"count"`
}

type AllowlistEntryDTO struct {
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Year       string    `json:"year"`
	Semester   string    `json:"semester"`
	CourseCode string    `json:"courseCode"`
	DateAdded  time.Time `json:"dateAdded"`
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Identity.ListUsers(r.Context(), CurrentActor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.Identity.GetUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.Identity.DeleteUser(r.Context(), CurrentActor(r), chi.URLParam(r, "userId")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteMessage(w, "User removed")
}

// UploadAllowlist accepts either a multipart "file" field or a JSON body with
// the CSV pasted into "text".
func (s *Server) UploadAllowlist(w http.ResponseWriter, r *http.Request) {
	text, ok := readAllowlistText(w, r)
	if !ok {
		return
	}
	count, err := s.Allowlist.BulkUpsert(r.Context(), CurrentActor(r), text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, AllowlistUploadResponse{
		Message: "Allowlist uploaded",
		Msg:     "Allowlist uploaded",
		Count:   count,
	})
}

func readAllowlistText(w http.ResponseWriter, r *http.Request) (string, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req AllowlistUploadRequest
		if !decodeJSON(w, r, &req) {
			return "", false
		}
		return req.Text, true
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxAllowlistUpload)
	if err := r.ParseMultipartForm(maxAllowlistUpload); err != nil {
		WriteError(w, http.StatusBadRequest, "No data provided")
		return "", false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		if text := strings.TrimSpace(r.FormValue("text")); text != "" {
			return text, true
		}
		WriteError(w, http.StatusBadRequest, "No data provided")
		return "", false
	}
	defer file.Close()
	body, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Could not read the uploaded file")
		return "", false
	}
	return string(body), true
}

func (s *Server) ListAllowlist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Allowlist.List(r.Context(), CurrentActor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items := make([]AllowlistEntryDTO, 0, len(entries))
	for _, e := range entries {
		items = append(items, AllowlistEntryDTO{
			Email:      e.Email,
			Name:       e.Name,
			Year:       e.Year,
			Semester:   e.Semester,
			CourseCode: e.CourseCode,
			DateAdded:  e.DateAdded,
		})
	}
	WriteJSON(w, http.StatusOK, items)
}
