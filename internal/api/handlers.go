package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vagahub/engine/internal/jobs"
	"github.com/vagahub/engine/internal/search"
	"github.com/vagahub/engine/internal/store"
)

type countersDTO struct {
	Fetched    int `json:"fetched"`
	Parsed     int `json:"parsed"`
	Normalized int `json:"normalized"`
	Indexed    int `json:"indexed"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

type runDTO struct {
	ID          string      `json:"id"`
	SourceID    string      `json:"sourceId"`
	StartedAt   time.Time   `json:"startedAt"`
	FinishedAt  *time.Time  `json:"finishedAt,omitempty"`
	Status      string      `json:"status"`
	Counters    countersDTO `json:"counters"`
	ErrorSample string      `json:"errorSample,omitempty"`
}

type sourceDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Vendor  string `json:"vendor"`
	BaseURL string `json:"baseUrl"`
	Enabled bool   `json:"enabled"`
}

type salaryDTO struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Period   string   `json:"period,omitempty"`
}

type postingSourceDTO struct {
	Name        string `json:"name"`
	Vendor      string `json:"vendor"`
	URL         string `json:"url"`
	SourceJobID string `json:"sourceJobId"`
}

type postingDTO struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	CompanyName     string           `json:"companyName"`
	LocationText    string           `json:"locationText"`
	WorkMode        string           `json:"workMode"`
	Seniority       string           `json:"seniority"`
	EmploymentType  string           `json:"employmentType"`
	Salary          *salaryDTO       `json:"salary,omitempty"`
	DescriptionText string           `json:"descriptionText,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	Languages       []string         `json:"languages,omitempty"`
	PostedAt        *time.Time       `json:"postedAt,omitempty"`
	CapturedAt      time.Time        `json:"capturedAt"`
	LastSeenAt      time.Time        `json:"lastSeenAt"`
	Status          string           `json:"status"`
	Fingerprint     string           `json:"fingerprint"`
	Source          postingSourceDTO `json:"source"`
}

func toRunDTO(run jobs.RunRecord) runDTO {
	return runDTO{
		ID:         run.ID.String(),
		SourceID:   run.SourceID.String(),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Status:     string(run.Status),
		Counters: countersDTO{
			Fetched:    run.Counters.Fetched,
			Parsed:     run.Counters.Parsed,
			Normalized: run.Counters.Normalized,
			Indexed:    run.Counters.Indexed,
			Duplicates: run.Counters.Duplicates,
			Errors:     run.Counters.Errors,
		},
		ErrorSample: run.ErrorSample,
	}
}

func toSourceDTO(d jobs.SourceDescriptor) sourceDTO {
	return sourceDTO{
		ID:      d.ID.String(),
		Name:    d.Name,
		Vendor:  string(d.Vendor),
		BaseURL: d.BaseURL,
		Enabled: d.Enabled,
	}
}

func toPostingDTO(p *jobs.Posting) postingDTO {
	dto := postingDTO{
		ID:              p.ID.String(),
		Title:           p.Title,
		CompanyName:     p.Company.Name,
		LocationText:    p.LocationText,
		WorkMode:        p.WorkMode.String(),
		Seniority:       p.Seniority.String(),
		EmploymentType:  p.Employment.String(),
		DescriptionText: p.DescriptionText,
		Tags:            p.Tags,
		Languages:       p.Languages,
		PostedAt:        p.PostedAt,
		CapturedAt:      p.CapturedAt,
		LastSeenAt:      p.LastSeenAt,
		Status:          p.Status.String(),
		Fingerprint:     p.Dedupe.Fingerprint,
		Source: postingSourceDTO{
			Name:        p.Source.Name,
			Vendor:      string(p.Source.Vendor),
			URL:         p.Source.URL,
			SourceJobID: p.Source.SourceJobID,
		},
	}
	if p.Salary != nil {
		dto.Salary = &salaryDTO{
			Min:      p.Salary.Min,
			Max:      p.Salary.Max,
			Currency: p.Salary.Currency,
			Period:   p.Salary.Period,
		}
	}
	return dto
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r, 20, 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	runs, err := s.runs.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	out := make([]runDTO, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunDTO(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "run_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	run, err := s.runs.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get run failed")
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

func (s *Server) listSources(w http.ResponseWriter, r *http.Request) {
	descriptors, err := s.sources.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list sources failed")
		return
	}
	out := make([]sourceDTO, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, toSourceDTO(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": out})
}

func (s *Server) triggerIngest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")
	if s.sweeper == nil {
		writeError(w, http.StatusServiceUnavailable, "ingestion worker not running")
		return
	}
	descriptors, err := s.sources.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list sources failed")
		return
	}
	known := false
	for _, d := range descriptors {
		if d.Name == name {
			known = true
			break
		}
	}
	if !known {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no source named %q", name))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.SweepTimeout)
		defer cancel()
		if err := s.sweeper.Sweep(ctx, name); err != nil {
			s.logger.Warn("triggered sweep failed",
				zap.String("source", name), zap.Error(err))
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "source": name})
}

func (s *Server) getPosting(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "posting_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid posting id")
		return
	}
	posting, err := s.postings.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "posting not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get posting failed")
		return
	}
	writeJSON(w, http.StatusOK, toPostingDTO(posting))
}

func (s *Server) searchPostings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}
	limit, _, err := parseLimitOffset(r, 20, 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	docs, err := s.index.Search(r.Context(), query, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if docs == nil {
		docs = []search.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": docs})
}

func parseLimitOffset(r *http.Request, def, maxLimit int) (int, int, error) {
	limit := def
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", raw)
		}
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", raw)
		}
		offset = v
	}
	return limit, offset, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
