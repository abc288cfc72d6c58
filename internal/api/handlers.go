package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/modelir/pkg/buildinfo"
	"github.com/matzehuels/modelir/pkg/errors"
	modelio "github.com/matzehuels/modelir/pkg/io"
	"github.com/matzehuels/modelir/pkg/ir"
	"github.com/matzehuels/modelir/pkg/ir/rewrite"
	"github.com/matzehuels/modelir/pkg/pipeline"
)

// headerRunID carries the pipeline run ID of an optimize response.
const headerRunID = "X-Run-ID"

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

type passInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

type optimizeResponse struct {
	RunID    string              `json:"run_id"`
	CacheHit bool                `json:"cache_hit"`
	Stats    pipeline.Stats      `json:"stats"`
	Passes   []pipeline.PassStat `json:"passes"`
	Model    json.RawMessage     `json:"model"`
}

type inspectResponse struct {
	Name         string         `json:"name"`
	IRVersion    int64          `json:"ir_version"`
	Producer     string         `json:"producer,omitempty"`
	Nodes        int            `json:"nodes"`
	Initializers int            `json:"initializers"`
	Inputs       []string       `json:"inputs"`
	Outputs      []string       `json:"outputs"`
	Ops          map[string]int `json:"ops"`
	Sorted       bool           `json:"sorted"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	defaults := rewrite.DefaultPassNames()
	var out []passInfo
	for _, p := range rewrite.Passes() {
		out = append(out, passInfo{
			Name:        p.Name,
			Description: p.Description,
			Default:     slices.Contains(defaults, p.Name),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	opts := pipeline.Options{
		Passes:   splitList(q.Get("passes")),
		Refresh:  parseBool(q.Get("refresh")),
		Logger:   s.logger,
		CacheTTL: s.opts.CacheTTL,
	}
	if len(opts.Passes) == 0 {
		opts.Passes = s.opts.Passes
	}

	res, err := s.runner.Execute(r.Context(), body, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set(headerRunID, res.RunID.String())
	passes := res.Passes
	if passes == nil {
		passes = []pipeline.PassStat{}
	}
	writeJSON(w, http.StatusOK, optimizeResponse{
		RunID:    res.RunID.String(),
		CacheHit: res.CacheHit,
		Stats:    res.Stats,
		Passes:   passes,
		Model:    res.Encoded,
	})
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	m, ok := s.readModel(w, r)
	if !ok {
		return
	}

	g := m.Graph
	resp := inspectResponse{
		Name:         g.Name,
		IRVersion:    m.IRVersion,
		Producer:     strings.TrimSpace(m.ProducerName + " " + m.ProducerVersion),
		Nodes:        g.NodeCount(),
		Initializers: len(g.Initializers()),
		Inputs:       []string{},
		Outputs:      []string{},
		Ops:          make(map[string]int),
		Sorted:       ir.IsTopologicallySorted(g),
	}
	nonInit := g.NonInitializerInputs()
	for _, in := range g.Inputs() {
		if _, ok := nonInit[in.Name]; ok {
			resp.Inputs = append(resp.Inputs, in.Name)
		}
	}
	for _, out := range g.Outputs() {
		resp.Outputs = append(resp.Outputs, out.Name)
	}
	for _, n := range g.Nodes() {
		resp.Ops[n.OpType]++
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	m, ok := s.readModel(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	opts := pipeline.RenderOptions{
		Format:       q.Get("format"),
		RankDir:      q.Get("rankdir"),
		Initializers: parseBool(q.Get("initializers")),
		Detailed:     parseBool(q.Get("detailed")),
	}
	data, err := s.runner.Render(r.Context(), m, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType(opts.Format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// readBody reads the request body up to the configured limit. On failure it
// writes the error response and returns false.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Code:    errors.ErrCodeInvalidInput,
				Message: "request body exceeds " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes",
			})
			return nil, false
		}
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body"))
		return nil, false
	}
	if len(data) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "request body is empty"))
		return nil, false
	}
	return data, true
}

func (s *Server) readModel(w http.ResponseWriter, r *http.Request) (*ir.Model, bool) {
	data, ok := s.readBody(w, r)
	if !ok {
		return nil, false
	}
	m, err := modelio.Decode(data)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return m, true
}

// writeError maps err to a status code and writes it as JSON. Server-side
// failures are logged; client errors are not.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "error", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

// statusFor returns the HTTP status for an error code.
func statusFor(err error) int {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPass,
		errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeCycle, errors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz"
	}
	return "image/svg+xml"
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
