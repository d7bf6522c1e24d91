package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"mercator-hq/europa/pkg/export"
)

// maxRequestBody bounds export submission payloads.
const maxRequestBody = 1 << 20 // 1MB

// errorBody is the JSON error envelope returned by the API.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// listResponse wraps the run list so the payload stays extensible.
type listResponse struct {
	Runs []*export.Run `json:"runs"`
}

// submitPayload is the POST /v1/exports body: either an inline export
// request or a preset name resolved against the preset library.
type submitPayload struct {
	Preset string `json:"preset,omitempty"`
	export.Request
}

// handleSubmit accepts an export request, records a pending run, and
// starts it in the background. The run executes past the lifetime of
// this request; clients poll GET /v1/exports/{id} for progress.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("malformed request body: %v", err))
		return
	}

	req := &payload.Request
	if payload.Preset != "" {
		if payload.Request.Query != nil {
			writeError(w, http.StatusBadRequest, "invalid_request",
				"request cannot name a preset and an inline query")
			return
		}
		if s.presets == nil {
			writeError(w, http.StatusBadRequest, "invalid_request",
				"preset library is not enabled")
			return
		}
		preset, err := s.presets.Get(payload.Preset)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		req = preset.Request
	}

	run, err := s.manager.Submit(r.Context(), req)
	if err != nil {
		writeRunError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, run)
}

// handlePresets lists the loaded preset library.
func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"presets": s.presets.List(),
	})
}

// handleList returns stored runs, newest first. Supports ?state= and
// ?limit= filters.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var opts export.ListOptions

	if state := r.URL.Query().Get("state"); state != "" {
		if !export.ValidState(export.State(state)) {
			writeError(w, http.StatusBadRequest, "invalid_request",
				fmt.Sprintf("unknown state %q", state))
			return
		}
		opts.State = export.State(state)
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request",
				fmt.Sprintf("invalid limit %q", limit))
			return
		}
		opts.Limit = n
	}

	runs, err := s.manager.List(r.Context(), opts)
	if err != nil {
		writeRunError(w, err)
		return
	}
	if runs == nil {
		runs = []*export.Run{}
	}

	writeJSON(w, http.StatusOK, listResponse{Runs: runs})
}

// handleGet returns the stored record for one run.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	run, err := s.manager.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRunError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// handleCancel requests cancellation of a run. Queued runs cancel
// immediately; executing runs stop at the next batch boundary. The
// response is 202 because the run settles asynchronously.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.manager.Cancel(r.Context(), id); err != nil {
		writeRunError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     id,
		"status": "cancellation requested",
	})
}

// writeRunError maps manager errors onto HTTP statuses and the JSON
// error envelope.
func writeRunError(w http.ResponseWriter, err error) {
	var (
		notFound *export.RunNotFoundError
		finished *export.RunFinishedError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &finished):
		writeError(w, http.StatusConflict, "run_finished", err.Error())
	default:
		if kind := export.ClassifyError(err); kind != export.ErrorKindInternal {
			writeError(w, http.StatusBadRequest, string(kind), err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response with the given status.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorBody{
		Error: errorDetail{Kind: kind, Message: message},
	})
}
