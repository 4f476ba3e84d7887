package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dhamidi/crabrl/format"
	"github.com/dhamidi/crabrl/parser"
	"github.com/dhamidi/crabrl/validator"
	"github.com/dhamidi/crabrl/xbrl"
)

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	enc := format.NewJSONEncoder(w)
	if detail, _ := strconv.ParseBool(r.URL.Query().Get("detail")); !detail {
		enc.SummaryOnly()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := enc.Encode(doc); err != nil {
		s.log.Errorf("encode parse result: %s", err)
	}
}

type validateResponse struct {
	*format.ValidationReport
	Summary format.Summary `json:"summary"`
	Profile string         `json:"profile"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	opts, profile, err := s.validatorOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	res := validator.Validate(doc, opts...)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(validateResponse{
		ValidationReport: format.ValidationJSON(res),
		Summary:          format.Summarize(doc),
		Profile:          profile.String(),
	}); err != nil {
		s.log.Errorf("encode validation: %s", err)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	opts, _, err := s.validatorOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	enc := format.NewHTMLEncoder(w)
	enc.Report().WithValidation(validator.Validate(doc, opts...))
	if title := r.URL.Query().Get("title"); title != "" {
		enc.Report().WithTitle(title)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := enc.Encode(doc); err != nil {
		s.log.Errorf("encode report: %s", err)
	}
}

// validatorOptions applies the profile and strict query parameters on top
// of the configured defaults.
func (s *Server) validatorOptions(r *http.Request) ([]validator.Option, validator.Profile, error) {
	q := r.URL.Query()
	name := s.cfg.Profile
	if v := q.Get("profile"); v != "" {
		name = v
	}
	profile, err := validator.ParseProfile(name)
	if err != nil {
		return nil, profile, err
	}
	strict := s.cfg.Strict
	if v := q.Get("strict"); v != "" {
		if strict, err = strconv.ParseBool(v); err != nil {
			return nil, profile, fmt.Errorf("invalid strict value %q", v)
		}
	}
	return []validator.Option{
		validator.WithProfile(profile),
		validator.WithStrict(strict),
		validator.WithTolerance(s.cfg.Tolerance),
	}, profile, nil
}

// parseBody parses the request body as an instance document. It writes the
// error response and returns false when that fails.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) (*xbrl.Document, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("document exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	if len(data) == 0 {
		jsonError(w, "empty document", http.StatusBadRequest)
		return nil, false
	}

	doc, err := parser.New(s.cfg.ParserOptions()...).Parse(data)
	if err != nil {
		if errors.Is(err, xbrl.ErrParse) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return nil, false
		}
		s.log.Errorf("parse: %s", err)
		jsonError(w, "parse failed", http.StatusInternalServerError)
		return nil, false
	}
	return doc, true
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
