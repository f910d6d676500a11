package httpapi

import (
	"net/http"
	"strconv"

	"lessonpath-backend-go/internal/services"

	"github.com/gorilla/websocket"
)

type MetricsHistoryResponse struct {
	Items []services.MetricSample `json:"items"`
}

func (s *Server) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 60
	}
	WriteJSON(w, http.StatusOK, MetricsHistoryResponse{Items: s.MetricsHub.Recent(limit)})
}

// MetricsSocket streams samples to an admin. Browsers cannot set headers on a
// websocket handshake, so the access token comes in the query string.
func (s *Server) MetricsSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("token")
	if query == "" {
		WriteError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}
	actor, err := s.Tokens.VerifyAccess(query)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Token is not valid")
		return
	}
	if !actor.IsAdmin {
		WriteError(w, http.StatusForbidden, "Not authorized to access this resource")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.MetricsHub.Add(conn)
	defer func() {
		s.MetricsHub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
