package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// payload is the body of an "ok" envelope, merged with status:"ok".
type payload map[string]any

func writeOK(w http.ResponseWriter, body payload) {
	writeOKStatus(w, http.StatusOK, body)
}

func writeOKStatus(w http.ResponseWriter, code int, body payload) {
	out := make(map[string]any, len(body)+1)
	for k, v := range body {
		out[k] = v
	}
	out["status"] = "ok"
	writeJSON(w, code, out)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{
		"status":  "error",
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("http.encode_response_failed", "error", err)
	}
}
