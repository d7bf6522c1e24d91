package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody is the JSON error envelope the API returns for failures
// produced inside the middleware chain. It matches the envelope the
// export handlers use.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeError writes a JSON error response with the given status.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{Kind: kind, Message: message},
	})
}
