package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/turtacn/OceanScout/pkg/errors"
)

// AnalysesClient runs and fetches keyword analyses.
type AnalysesClient struct {
	client *Client
}

// Run analyses a keyword synchronously and returns the full report.
func (a *AnalysesClient) Run(ctx context.Context, req *AnalysisRequest) (*Report, error) {
	if req == nil || strings.TrimSpace(req.Keyword) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "keyword is required")
	}
	var out Report
	if err := a.client.do(ctx, http.MethodPost, "/api/v1/analyses", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Enqueue asks the worker fleet to analyse keyword in the background.
func (a *AnalysesClient) Enqueue(ctx context.Context, keyword string, useCache bool) (*Enqueued, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "keyword is required")
	}
	body := map[string]interface{}{"keyword": keyword, "use_cache": useCache}
	var out Enqueued
	if err := a.client.do(ctx, http.MethodPost, "/api/v1/analyses/async", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches a stored run by ID.
func (a *AnalysesClient) Get(ctx context.Context, runID string) (*Report, error) {
	if runID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "runID is required")
	}
	var out Report
	if err := a.client.do(ctx, http.MethodGet, "/api/v1/analyses/"+escape(runID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Latest fetches the most recent run of keyword.
func (a *AnalysesClient) Latest(ctx context.Context, keyword string) (*Report, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "keyword is required")
	}
	var out Report
	path := "/api/v1/keywords/" + escape(keyword) + "/analysis"
	if err := a.client.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Compare analyses several keywords and returns their assessments, best
// opportunity first.
func (a *AnalysesClient) Compare(ctx context.Context, keywords []string, useCache bool) ([]Assessment, error) {
	if len(keywords) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "at least one keyword is required")
	}
	body := map[string]interface{}{"keywords": keywords, "use_cache": useCache}
	var out []Assessment
	if err := a.client.do(ctx, http.MethodPost, "/api/v1/compare", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
