package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/pitch-intel/internal/company"
	"github.com/sells-group/pitch-intel/internal/jobs"
	"github.com/sells-group/pitch-intel/internal/model"
	"github.com/sells-group/pitch-intel/internal/prompt"
)

const defaultCompanyName = "Unknown Company"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type startScrapeRequest struct {
	URL         string `json:"url"`
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
}

func (s *Server) handleStartScrape(w http.ResponseWriter, r *http.Request) {
	var req startScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if !validScrapeURL(req.URL) {
		writeError(w, http.StatusBadRequest, "invalid url: must start with http:// or https://")
		return
	}
	if req.CompanyName == "" {
		req.CompanyName = defaultCompanyName
	}

	job := s.jobs.Create(req.URL, req.CompanyName, req.Industry)

	err := s.queue.Submit(func(ctx context.Context) {
		s.runner.Run(ctx, job)
	})
	if err != nil {
		// The record stays around so the caller can see why it never ran.
		if failErr := s.jobs.Fail(job.ID, "job queue full"); failErr != nil {
			zap.L().Error("could not fail unscheduled job", zap.String("job_id", job.ID), zap.Error(failErr))
		}
		writeError(w, http.StatusServiceUnavailable, "server busy, try again later")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id":       job.ID,
		"status":       string(model.JobStatusPending),
		"company_name": job.CompanyName,
	})
}

func validScrapeURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *Server) handleScrapeStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleScrapeResult(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(chi.URLParam(r, "jobID"))
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job.Status != model.JobStatusCompleted {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "job not completed",
			"status": string(job.Status),
		})
		return
	}
	writeJSON(w, http.StatusOK, job.Result)
}

func (s *Server) handleListCompanies(w http.ResponseWriter, _ *http.Request) {
	records, err := s.companies.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []company.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	rec, err := s.companies.Get(chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, company.ErrNotFound) {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type ingestPitchRequest struct {
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
	Content     string `json:"content"`
}

func (s *Server) handleIngestPitch(w http.ResponseWriter, r *http.Request) {
	var req ingestPitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if req.CompanyName == "" {
		req.CompanyName = defaultCompanyName
	}

	now := time.Now().UTC()
	pitch := &company.Pitch{
		ID:          uuid.New().String(),
		Type:        "manual",
		CompanyName: req.CompanyName,
		Industry:    req.Industry,
		Content:     req.Content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.companies.UpsertPitch(pitch); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":      "pitch ingested",
		"pitch_id":     pitch.ID,
		"company_name": pitch.CompanyName,
	})
}

func (s *Server) handleListPrompts(w http.ResponseWriter, _ *http.Request) {
	prompts, err := s.prompts.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if prompts == nil {
		prompts = []prompt.Info{}
	}
	writeJSON(w, http.StatusOK, prompts)
}

func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	content, err := s.prompts.Load(name)
	if err != nil {
		if errors.Is(err, prompt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "prompt not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    name,
		"content": content,
	})
}

type savePromptRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleSavePrompt(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req savePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	if err := s.prompts.Save(name, req.Content); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "prompt updated",
		"name":    name,
	})
}

func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.prompts.Delete(name); err != nil {
		if errors.Is(err, prompt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "prompt not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "prompt deleted",
		"name":    name,
	})
}

func (s *Server) handleResearchCompany(w http.ResponseWriter, r *http.Request) {
	companyName := chi.URLParam(r, "company")

	result := s.runner.Research(r.Context(), companyName)
	if !result.Success {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"status":       "error",
			"company_name": companyName,
			"error":        result.Content,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"company_name": companyName,
		"research":     result.Content,
		"model":        result.Model,
		"usage":        result.Usage,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}
