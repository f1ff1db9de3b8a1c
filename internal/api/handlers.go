package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/mindscope/internal/ai"
	"github.com/KaramelBytes/mindscope/internal/dataset"
	"github.com/KaramelBytes/mindscope/internal/logger"
	"github.com/KaramelBytes/mindscope/internal/metrics"
	"github.com/KaramelBytes/mindscope/internal/persona"
	"github.com/KaramelBytes/mindscope/internal/summarizer"
)

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("OK"))
}

// CreateSummary profiles an uploaded dataset. The multipart field "file"
// carries the data; samples, enrich, name and description are optional form
// values.
func (h *Handler) CreateSummary(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New(`multipart field "file" is required`))
		return
	}
	defer file.Close()

	opt := summarizer.Options{Samples: h.opts.SampleCount}
	if v := r.FormValue("samples"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid samples %q", v))
			return
		}
		opt.Samples = n
	}
	if v := r.FormValue("enrich"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid enrich %q", v))
			return
		}
		opt.Enrich = b
	}

	// Loaders dispatch on the extension, so the upload keeps it.
	name := filepath.Base(header.Filename)
	tmp, err := os.CreateTemp("", "mindscope-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.Remove(tmp.Name())
	_, err = io.Copy(tmp, file)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("save upload: %w", err))
		return
	}

	data, err := dataset.LoadFile(tmp.Name(), h.opts.Load)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	sopts := []summarizer.Option{
		summarizer.WithConfig(h.opts.Summarizer),
		summarizer.WithFilename(name),
		summarizer.WithName(r.FormValue("name")),
		summarizer.WithDescription(r.FormValue("description")),
	}
	if h.opts.Runtime != nil {
		sopts = append(sopts, summarizer.WithRuntime(h.opts.Runtime, h.opts.Generation))
	}
	s, err := summarizer.New(data, sopts...)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	sum, err := s.Summarize(r.Context(), opt)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

type personaEntry struct {
	*persona.Persona
	Source string `json:"source"`
}

// ListPersonas returns the built-in personas followed by those in the
// personas directory.
func (h *Handler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	out := make([]personaEntry, 0)
	for _, name := range persona.BuiltinNames() {
		p, _ := persona.Builtin(name)
		out = append(out, personaEntry{Persona: p, Source: "builtin"})
	}
	if h.opts.PersonasDir != "" {
		ps, err := persona.LoadDir(h.opts.PersonasDir)
		switch {
		case err == nil:
			for _, p := range ps {
				out = append(out, personaEntry{Persona: p, Source: "file"})
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			writeError(w, statusFor(err), err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"personas": out})
}

func (h *Handler) GetPersona(w http.ResponseWriter, r *http.Request) {
	p, err := h.lookupPersona(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

var errPersonaNotFound = errors.New("persona not found")

func (h *Handler) lookupPersona(name string) (*persona.Persona, error) {
	if p, ok := persona.Builtin(name); ok {
		return p, nil
	}
	if h.opts.PersonasDir != "" {
		ps, err := persona.LoadDir(h.opts.PersonasDir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		for _, p := range ps {
			if strings.EqualFold(p.Name, name) {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", errPersonaNotFound, name)
}

type metricsRequest struct {
	Summary     *summarizer.Summary `json:"summary"`
	Persona     *persona.Persona    `json:"persona"`
	PersonaName string              `json:"persona_name"`
	Count       int                 `json:"count"`
}

// GenerateMetrics proposes metrics for a summary and a persona, given inline
// or by name.
func (h *Handler) GenerateMetrics(w http.ResponseWriter, r *http.Request) {
	var req metricsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p := req.Persona
	if p == nil && req.PersonaName != "" {
		var err error
		if p, err = h.lookupPersona(req.PersonaName); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
	}
	list, err := metrics.NewGenerator(h.opts.Runtime, h.metricsGeneration(), req.Count).Generate(r.Context(), req.Summary, p)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"metrics": list})
}

type refineRequest struct {
	Metric      metrics.Metric      `json:"metric"`
	Instruction string              `json:"instruction"`
	Summary     *summarizer.Summary `json:"summary"`
}

func (h *Handler) RefineMetric(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m, err := metrics.NewGenerator(h.opts.Runtime, h.metricsGeneration(), 1).Refine(r.Context(), req.Metric, req.Instruction, req.Summary)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) metricsGeneration() ai.GenerationConfig {
	cfg := metrics.DefaultGenerationConfig()
	if h.opts.Generation.Model != "" {
		cfg.Model = h.opts.Generation.Model
	}
	return cfg
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxUploadSize))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		dae *dataset.DataAccessError
		ufe *persona.UnsupportedFormatError
		mfe *persona.MissingFieldError
		see *summarizer.SummaryEnrichmentError
		mpe *metrics.MetricParsingError
	)
	switch {
	case errors.Is(err, dataset.ErrUnsupportedFormat), errors.As(err, &ufe):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errPersonaNotFound):
		return http.StatusNotFound
	case errors.As(err, &mfe), errors.Is(err, metrics.ErrNoSummary), errors.Is(err, metrics.ErrInstruction):
		return http.StatusBadRequest
	case errors.As(err, &dae):
		return http.StatusUnprocessableEntity
	case errors.Is(err, summarizer.ErrNoRuntime), errors.Is(err, metrics.ErrNoRuntime):
		return http.StatusServiceUnavailable
	case errors.As(err, &see), errors.As(err, &mpe):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warnf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
