package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func RespondWithError(w http.ResponseWriter, status int, message string) {
	RespondWithJSON(w, status, map[string]string{"error": message})
}

// RespondWithAppError writes the error with its machine-readable code so
// clients can branch on the kind rather than the message text.
func RespondWithAppError(w http.ResponseWriter, appErr *AppError) {
	if appErr.Code == ErrDatabase && appErr.Origin != nil {
		log.Printf("Database error: %v", appErr.Origin)
	}
	RespondWithJSON(w, AppErrorToHTTPStatus(appErr.Code), map[string]string{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}
