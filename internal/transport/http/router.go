package http

import (
	"encoding/json"
	"net/http"

	"character-quiz-bot/internal/app"
	"github.com/gorilla/mux"
)

// NewRouter wires the health, content status and websocket endpoints.
func NewRouter(service *app.QuizService) http.Handler {
	r := mux.NewRouter()
	wsHandler := NewWSHandler(service)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")
	r.HandleFunc("/content", contentStatus(service)).Methods("GET")
	r.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	return r
}

type contentResponse struct {
	Available bool     `json:"available"`
	Questions int      `json:"questions"`
	Outcomes  []string `json:"outcomes"`
	Error     string   `json:"error,omitempty"`
}

// contentStatus reports what content the bot is serving. Degraded mode answers
// 503 so health checks can flag it.
func contentStatus(service *app.QuizService) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		content := service.Engine().Content()
		resp := contentResponse{
			Available: content.Available(),
			Questions: content.QuestionCount(),
			Outcomes:  content.Catalog().Names(),
		}
		if resp.Outcomes == nil {
			resp.Outcomes = []string{}
		}
		status := http.StatusOK
		if !resp.Available {
			status = http.StatusServiceUnavailable
			if err := content.Err(); err != nil {
				resp.Error = err.Error()
			}
		}
		writeJSON(w, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
