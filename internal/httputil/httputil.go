package httputil

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bankcore/card-transactions/internal/models"
)

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes the shared error body: timestamp, numeric status, status
// phrase, message and the originating request path.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message string) {
	response := models.ErrorResponse{
		Timestamp: time.Now(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
	}
	WriteJSON(w, status, response)
}
