package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stackreqs/pkg/component"
	"github.com/matzehuels/stackreqs/pkg/config"
	stackerrors "github.com/matzehuels/stackreqs/pkg/errors"
	"github.com/matzehuels/stackreqs/pkg/loadorder"
)

// ResolveRequest is the body of POST /v1/resolve. Exactly one of the fields
// must be set. ConfigKeys are raw configuration keys ("sensor kitchen"); the
// core key is ignored.
type ResolveRequest struct {
	Components []string `json:"components,omitempty"`
	ConfigKeys []string `json:"config_keys,omitempty"`
}

// ResolveResponse is the body of a successful POST /v1/resolve.
type ResolveResponse struct {
	Requested    []string     `json:"requested"`
	Order        []string     `json:"order"`
	Requirements []string     `json:"requirements"`
	Stats        ResolveStats `json:"stats"`
}

// ResolveStats summarizes a resolution run.
type ResolveStats struct {
	Components int     `json:"components"`
	Edges      int     `json:"edges"`
	DurationMS float64 `json:"duration_ms"`
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	RequestID string   `json:"request_id,omitempty"`
	Component string   `json:"component,omitempty"`
	Referrer  string   `json:"referrer,omitempty"`
	Cycle     []string `json:"cycle,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListComponents(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.registry.(component.Lister)
	if !ok {
		writeError(w, r, http.StatusNotImplemented, string(stackerrors.ErrCodeUnsupported), "registry cannot list components", nil)
		return
	}
	ids, err := lister.List(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"components": ids})
}

func (s *Server) handleGetComponent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := stackerrors.ValidateComponentID(id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	d, err := s.registry.Lookup(r.Context(), id)
	if errors.Is(err, component.ErrNotFound) {
		s.writeErr(w, r, &loadorder.MissingComponentError{ID: id, Err: err})
		return
	}
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req ResolveRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, string(stackerrors.ErrCodeInvalidInput), "invalid request body: "+err.Error(), nil)
		return
	}

	var requested []string
	switch {
	case req.Components != nil && req.ConfigKeys != nil:
		writeError(w, r, http.StatusBadRequest, string(stackerrors.ErrCodeInvalidInput), "set either components or config_keys, not both", nil)
		return
	case req.ConfigKeys != nil:
		requested = component.RequestedFromKeys(req.ConfigKeys, config.CoreKey)
	case req.Components != nil:
		requested = req.Components
	default:
		writeError(w, r, http.StatusBadRequest, string(stackerrors.ErrCodeInvalidInput), "components or config_keys is required", nil)
		return
	}
	for _, id := range requested {
		if err := stackerrors.ValidateComponentID(id); err != nil {
			s.writeErr(w, r, err)
			return
		}
	}

	ctx := r.Context()
	if s.opts.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ResolveTimeout)
		defer cancel()
	}

	res, err := s.runner.Run(ctx, requested)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	resp := ResolveResponse{
		Requested:    nonNil(res.Requested),
		Order:        nonNil(res.Order),
		Requirements: nonNil(res.Requirements),
		Stats: ResolveStats{
			Components: res.Stats.Components,
			Edges:      res.Stats.Edges,
			DurationMS: float64((res.Stats.BuildTime + res.Stats.ResolveTime + res.Stats.AggregateTime).Microseconds()) / 1000,
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// statusFor maps an error code to an HTTP status.
func statusFor(code stackerrors.Code) int {
	switch code {
	case stackerrors.ErrCodeMissingComponent, stackerrors.ErrCodeNotFound:
		return http.StatusNotFound
	case stackerrors.ErrCodeCyclicDependency:
		return http.StatusUnprocessableEntity
	case stackerrors.ErrCodeInvalidInput, stackerrors.ErrCodeInvalidComponent:
		return http.StatusBadRequest
	case stackerrors.ErrCodeNetwork:
		return http.StatusBadGateway
	case stackerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeErr renders err using its code, adding structured detail for
// missing components and cycles. An expired deadline anywhere in the chain
// is a timeout, whatever code a backend wrapped it with.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var code stackerrors.Code
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = stackerrors.ErrCodeTimeout
	case stackerrors.GetCode(err) != "":
		code = stackerrors.GetCode(err)
	default:
		code = stackerrors.ErrCodeInternal
	}
	status := statusFor(code)

	msg := stackerrors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.opts.Logger.Error("request failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
		msg = "internal error"
	}

	writeError(w, r, status, string(code), msg, func(d *ErrorDetail) {
		var missing *loadorder.MissingComponentError
		if errors.As(err, &missing) {
			d.Component = missing.ID
			d.Referrer = missing.Referrer
		}
		var cyc *loadorder.CyclicDependencyError
		if errors.As(err, &cyc) {
			d.Cycle = cyc.Cycle
		}
	})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string, decorate func(*ErrorDetail)) {
	body := ErrorBody{Error: ErrorDetail{
		Code:      code,
		Message:   msg,
		RequestID: RequestIDFromContext(r.Context()),
	}}
	if decorate != nil {
		decorate(&body.Error)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
