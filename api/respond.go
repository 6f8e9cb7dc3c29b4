// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/guild/governance"
	"github.com/go-chi/chi/v5"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
}

var errorStatus = map[string]int{
	"NotAuthorized":     http.StatusForbidden,
	"NotFound":          http.StatusNotFound,
	"NoReturns":         http.StatusNotFound,
	"AlreadyVoted":      http.StatusConflict,
	"AlreadyClaimed":    http.StatusConflict,
	"ProposalNotActive": http.StatusConflict,
	"ProposalExpired":   http.StatusConflict,
	"QuorumNotReached":  http.StatusConflict,
	"TimelockActive":    http.StatusConflict,
	"NotEmergency":      http.StatusConflict,
	"EmergencyActive":   http.StatusServiceUnavailable,
	"InsufficientFunds": http.StatusUnprocessableEntity,
	"InvalidAmount":     http.StatusBadRequest,
	"InvalidParameter":  http.StatusBadRequest,
	"InvalidDelegate":   http.StatusBadRequest,
	"NoDelegate":        http.StatusBadRequest,
	"TransferFailed":    http.StatusBadGateway,
}

// StatusForError returns the HTTP status and error kind for an engine error
func StatusForError(err error) (int, string) {
	kind := governance.ErrorKind(err)
	if status, ok := errorStatus[kind]; ok {
		return status, kind
	}
	return http.StatusInternalServerError, kind
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind string, message string) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Kind:       kind,
		Message:    message,
	})
}

// writeEngineError maps an engine error to a response. Internal errors are
// logged and not exposed.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := StatusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", w.Header().Get(RequestIDHeader),
			"error", err,
		)
		message = "internal error"
	}
	writeError(w, status, kind, message)
}

var errBadRequest = errors.New("bad request")

func writeBadRequest(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", errBadRequest, err)
	}
	return nil
}

func uintParam(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	ret, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, raw)
	}
	return ret, nil
}

// op builds the operation context for a request
func (s *Server) op(r *http.Request) governance.Op {
	return governance.Op{
		Caller: r.Header.Get(CallerHeader),
		Height: s.heights.CurrentHeight(),
	}
}

// heightParam returns the height query parameter or the current height
func (s *Server) heightParam(r *http.Request) (uint64, error) {
	raw := r.URL.Query().Get("height")
	if raw == "" {
		return s.heights.CurrentHeight(), nil
	}
	ret, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid height %q", errBadRequest, raw)
	}
	return ret, nil
}
