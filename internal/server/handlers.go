package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/leaptoken/pkg/lexsub"
	"github.com/leapstack-labs/leaptoken/pkg/profile"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 8 << 20

type errorResponse struct {
	Error     string   `json:"error"`
	Supported []string `json:"supported,omitempty"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Generation uint64 `json:"generation"`
	Profiles   int    `json:"profiles"`
}

type profileSummary struct {
	Name        string `json:"name"`
	Extension   string `json:"extension"`
	Comment     string `json:"comment"`
	Entries     int    `json:"entries"`
	Fingerprint string `json:"fingerprint"`
}

type entryJSON struct {
	Pattern string `json:"pattern"`
	Code    string `json:"code"`
}

type profileDetail struct {
	Name           string      `json:"name"`
	Extension      string      `json:"extension"`
	Comment        string      `json:"comment"`
	Fingerprint    string      `json:"fingerprint"`
	Entries        []entryJSON `json:"entries"`
	DuplicateCodes []string    `json:"duplicate_codes"`
	Shadowed       []string    `json:"shadowed_patterns"`
}

type tokenizeRequest struct {
	Language string         `json:"language"`
	Source   string         `json:"source"`
	Policy   *lexsub.Policy `json:"policy,omitempty"`
}

type tokenizeResponse struct {
	Language string   `json:"language"`
	Tokens   []string `json:"tokens"`
}

type detokenizeRequest struct {
	Language string   `json:"language"`
	Tokens   []string `json:"tokens"`
}

type detokenizeResponse struct {
	Language   string              `json:"language"`
	Text       string              `json:"text"`
	Unresolved []lexsub.Unresolved `json:"unresolved"`
}

type renderRequest struct {
	Records []lexsub.Record `json:"records"`
}

type renderResponse struct {
	Languages   []string             `json:"languages"`
	Outputs     map[string]string    `json:"outputs"`
	Unresolved  []lexsub.RecordIssue `json:"unresolved"`
	Unsupported []lexsub.RecordIssue `json:"unsupported"`
}

type reloadResponse struct {
	Generation uint64 `json:"generation"`
	Profiles   int    `json:"profiles"`
}

func (s *Server) routes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/profiles", s.handleListProfiles)
		r.Get("/profiles/{name}", s.handleGetProfile)
		r.Post("/tokenize", s.handleTokenize)
		r.Post("/detokenize", s.handleDetokenize)
		r.Post("/render", s.handleRender)
		r.Post("/reload", s.handleReload)
		r.Get("/events", s.handleEvents)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Generation: s.Generation(),
		Profiles:   s.Engine().Registry().Len(),
	})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, _ *http.Request) {
	profiles := s.Engine().Registry().Profiles()
	out := make([]profileSummary, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profileSummary{
			Name:        p.Name(),
			Extension:   p.Extension(),
			Comment:     p.CommentPrefix(),
			Entries:     p.Len(),
			Fingerprint: p.Fingerprint(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.Engine().Registry().Resolve(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}

	entries := p.Entries()
	detail := profileDetail{
		Name:           p.Name(),
		Extension:      p.Extension(),
		Comment:        p.CommentPrefix(),
		Fingerprint:    p.Fingerprint(),
		Entries:        make([]entryJSON, len(entries)),
		DuplicateCodes: nonNil(p.DuplicateCodes()),
		Shadowed:       nonNil(p.ShadowedPatterns()),
	}
	for i, e := range entries {
		detail.Entries[i] = entryJSON{Pattern: e.Pattern, Code: e.Code}
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	eng := s.Engine()
	if req.Policy != nil {
		eng = eng.WithOptions(lexsub.WithPolicy(*req.Policy))
	}
	lang := s.language(req.Language)

	tokens, err := eng.Tokenize(req.Source, lang)
	if err != nil {
		writeError(w, err)
		return
	}

	s.metrics.tokensTotal.WithLabelValues("tokenize", lang).Add(float64(len(tokens)))
	writeJSON(w, http.StatusOK, tokenizeResponse{Language: lang, Tokens: tokens})
}

func (s *Server) handleDetokenize(w http.ResponseWriter, r *http.Request) {
	var req detokenizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	lang := s.language(req.Language)
	rec, err := s.Engine().Reconstruct(req.Tokens, lang)
	if err != nil {
		writeError(w, err)
		return
	}

	s.metrics.tokensTotal.WithLabelValues("detokenize", lang).Add(float64(len(req.Tokens)))
	s.metrics.unresolvedTotal.WithLabelValues(lang).Add(float64(len(rec.Unresolved)))
	writeJSON(w, http.StatusOK, detokenizeResponse{
		Language:   lang,
		Text:       rec.Text(),
		Unresolved: nonNil(rec.Unresolved),
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	out := s.Engine().RenderRecords(req.Records)
	for _, lang := range out.Languages {
		s.metrics.tokensTotal.WithLabelValues("render", lang).Add(float64(len(out.Lines[lang])))
	}
	for _, issue := range out.Unresolved {
		s.metrics.unresolvedTotal.WithLabelValues(s.language(issue.Record.Language)).Inc()
	}

	writeJSON(w, http.StatusOK, renderResponse{
		Languages:   nonNil(out.Languages),
		Outputs:     out.Texts(),
		Unresolved:  nonNil(out.Unresolved),
		Unsupported: nonNil(out.Unsupported),
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrNoLoader) {
			status = http.StatusNotImplemented
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{
		Generation: s.Generation(),
		Profiles:   s.Engine().Registry().Len(),
	})
}

// handleEvents streams registry reloads as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	ch := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	_, _ = fmt.Fprintf(w, "event: ready\ndata: {\"generation\":%d}\n\n", s.Generation())
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case gen, ok := <-ch:
			if !ok {
				return
			}
			_, _ = fmt.Fprintf(w, "event: reload\ndata: {\"generation\":%d}\n\n", gen)
			flusher.Flush()
		}
	}
}

func (s *Server) language(lang string) string {
	if lang == "" {
		return s.defaultLanguage
	}
	return lang
}

// errBadRequest marks request decoding failures.
var errBadRequest = errors.New("invalid request body")

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeError maps engine errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var unsupported *profile.UnsupportedLanguageError
	switch {
	case errors.As(err, &unsupported):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Supported: unsupported.Supported})
	case errors.Is(err, errBadRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
