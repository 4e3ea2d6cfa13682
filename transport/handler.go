// Package transport serves inspection snapshots over HTTP/2 and provides the
// matching client.
package transport

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/st-keller/inspection/errors"
	"github.com/st-keller/inspection/snapshot"
)

// Source provides named inspection targets.
type Source interface {
	// Names returns the published target names in a stable order.
	Names() []string
	// Snapshot resolves the named target now.
	Snapshot(name string) (snapshot.Snapshot, bool)
	// Edit coerces value and writes it to the attribute at index of group.
	Edit(name, group string, index int, value string) error
}

// EditRequest is the body of POST /targets/{name}/edit.
type EditRequest struct {
	Group string `json:"group"`
	Index int    `json:"index"`
	Value string `json:"value"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type handler struct {
	src Source
	log zerolog.Logger
}

// NewHandler routes the snapshot API to src.
func NewHandler(src Source, logger zerolog.Logger) http.Handler {
	h := &handler{src: src, log: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /targets", h.list)
	mux.HandleFunc("GET /targets/{name}", h.get)
	mux.HandleFunc("POST /targets/{name}/edit", h.edit)
	return mux
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"targets": h.src.Names()})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	snap, ok := h.src.Snapshot(name)
	if !ok {
		h.fail(w, errors.Newf(errors.ErrNotFound, "unknown target %q", name))
		return
	}

	etag := `"` + snap.Checksum + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) edit(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req EditRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		h.fail(w, errors.Wrap(err, errors.ErrInvalidInput, "decoding edit request"))
		return
	}
	if err := h.src.Edit(name, req.Group, req.Index, req.Value); err != nil {
		h.fail(w, err)
		return
	}

	h.log.Info().
		Str("target", name).
		Str("group", req.Group).
		Int("index", req.Index).
		Msg("Attribute edited")

	snap, ok := h.src.Snapshot(name)
	if !ok {
		h.fail(w, errors.Newf(errors.ErrNotFound, "unknown target %q", name))
		return
	}
	w.Header().Set("ETag", `"`+snap.Checksum+`"`)
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	code := errors.GetErrorCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	} else {
		h.log.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	writeJSON(w, status, ErrorResponse{Code: string(code), Message: err.Error()})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrInvalidInput, errors.ErrCoercion:
		return http.StatusBadRequest
	case errors.ErrNotWritable:
		return http.StatusConflict
	case errors.ErrWrite:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
