package queue

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind ErrorKind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"kind":  string(kind),
		"error": msg,
	})
}

// writeServiceError maps a service error to its HTTP shape. Unknown
// errors are logged and surface as 500, never as silent success.
func writeServiceError(w http.ResponseWriter, err error) {
	var se *Error
	if errors.As(err, &se) {
		writeError(w, httpStatus(se.Kind), se.Kind, se.Msg)
		return
	}
	log.Printf("stream-queue-service: internal error: %v", err)
	writeError(w, http.StatusInternalServerError, ErrInternal, "internal error")
}
