package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/hydrokit/negflo/pkg/buildinfo"
	"github.com/hydrokit/negflo/pkg/errors"
	"github.com/hydrokit/negflo/pkg/negflo"
	"github.com/hydrokit/negflo/pkg/pipeline"
	"github.com/hydrokit/negflo/pkg/timeseries"
)

// SmoothRequest is the body of POST /v1/smooth. Null values are missing
// observations.
type SmoothRequest struct {
	Name      string   `json:"name,omitempty"`
	FlowLimit float64  `json:"flow_limit"`
	Modes     []string `json:"modes,omitempty"`
	Dates     []string `json:"dates"`
	Columns   []Column `json:"columns"`
	Refresh   bool     `json:"refresh,omitempty"`
}

// Column is one named series.
type Column struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// SmoothResponse is the body returned by POST /v1/smooth.
type SmoothResponse struct {
	RunID     string       `json:"run_id"`
	InputHash string       `json:"input_hash"`
	Results   []ModeResult `json:"results"`
}

// ModeResult is the outcome of one mode.
type ModeResult struct {
	Mode     negflo.Mode     `json:"mode"`
	CacheHit bool            `json:"cache_hit"`
	Columns  []Column        `json:"columns"`
	Overflow negflo.Overflow `json:"overflow"`
	Report   *negflo.Report  `json:"report"`
}

type errorBody struct {
	Error struct {
		Code      errors.Code `json:"code"`
		Message   string      `json:"message"`
		RequestID string      `json:"request_id,omitempty"`
	} `json:"error"`
}

type modeBody struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	Extension   string `json:"extension"`
	Description string `json:"description"`
	NeedsLimit  bool   `json:"requires_non_negative_limit"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	modes := negflo.AllModes()
	out := make([]modeBody, 0, len(modes))
	for _, m := range modes {
		out = append(out, modeBody{
			Number:      int(m),
			Name:        m.String(),
			Extension:   m.Extension(),
			Description: m.Description(),
			NeedsLimit:  m.RequiresNonNegativeLimit(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSmooth(w http.ResponseWriter, r *http.Request) {
	var req SmoothRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request"))
		return
	}

	tbl, err := req.table()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	modes, err := req.modes()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := pipeline.Options{
		Name:      req.Name,
		FlowLimit: req.FlowLimit,
		Modes:     modes,
		Workers:   s.cfg.Workers,
		Refresh:   req.Refresh,
		Logger:    s.logger.With("request_id", middleware.GetReqID(r.Context())),
	}
	result, err := s.runner.Process(r.Context(), tbl, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := SmoothResponse{RunID: result.RunID, InputHash: result.InputHash}
	for _, out := range result.Outputs {
		cols, err := decodeColumns(out.Data)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Results = append(resp.Results, ModeResult{
			Mode:     out.Mode,
			CacheHit: out.CacheHit,
			Columns:  cols,
			Overflow: out.Overflow,
			Report:   out.Report,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// table builds the residual table from the request.
func (req *SmoothRequest) table() (*timeseries.Table, error) {
	if len(req.Columns) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no columns")
	}
	dates := make([]time.Time, len(req.Dates))
	for i, d := range req.Dates {
		t, err := time.Parse(timeseries.DateFormat, d)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "date %d", i)
		}
		dates[i] = t
	}

	names := make([]string, len(req.Columns))
	values := make([][]float64, len(req.Columns))
	for c, col := range req.Columns {
		names[c] = col.Name
		values[c] = make([]float64, len(col.Values))
		for i, v := range col.Values {
			if v == nil {
				values[c][i] = timeseries.Missing
			} else {
				values[c][i] = *v
			}
		}
	}

	tbl, err := timeseries.NewTable(dates, names, values)
	if err != nil {
		return nil, err
	}
	tbl.Name = req.Name
	return tbl, nil
}

func (req *SmoothRequest) modes() ([]negflo.Mode, error) {
	modes := make([]negflo.Mode, 0, len(req.Modes))
	for _, name := range req.Modes {
		m, err := negflo.ParseMode(name)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	return modes, nil
}

func decodeColumns(data []byte) ([]Column, error) {
	tbl, err := timeseries.ReadCSVFrom(bytes.NewReader(data), nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode artifact")
	}
	cols := make([]Column, tbl.Width())
	for c, name := range tbl.Columns {
		values := make([]*float64, tbl.Len())
		for i, v := range tbl.Values[c] {
			if !timeseries.IsMissing(v) {
				values[i] = &v
			}
		}
		cols[c] = Column{Name: name, Values: values}
	}
	return cols, nil
}

// statusFor maps error codes to HTTP status codes.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeConfiguration,
		errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidMode,
		errors.ErrCodeColumnMismatch:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidState:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotImplemented:
		return http.StatusNotImplemented
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if code == "" {
		code = errors.ErrCodeInternal
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = errors.UserMessage(err)
	body.Error.RequestID = middleware.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err, "request_id", body.Error.RequestID)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"error":{"code":%q}}`, errors.ErrCodeInternal)
	}
}
