package client

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/turtacn/OceanScout/pkg/errors"
)

// Report export formats accepted by the server.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// ReportsClient downloads and publishes report exports.
type ReportsClient struct {
	client *Client
}

// Download renders a stored run in format.  An empty format uses the
// server default.
func (r *ReportsClient) Download(ctx context.Context, runID, format string) (*Document, error) {
	if runID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "runID is required")
	}
	return r.download(ctx, "/api/v1/analyses/"+escape(runID)+"/report", format)
}

// DownloadLatest renders the most recent run of keyword.
func (r *ReportsClient) DownloadLatest(ctx context.Context, keyword, format string) (*Document, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "keyword is required")
	}
	return r.download(ctx, "/api/v1/keywords/"+escape(keyword)+"/report", format)
}

// Publish uploads a stored run's export to object storage and returns its
// location.
func (r *ReportsClient) Publish(ctx context.Context, runID, format string) (*Published, error) {
	if runID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "runID is required")
	}
	var out Published
	path := "/api/v1/analyses/" + escape(runID) + "/report"
	if err := r.client.do(ctx, http.MethodPost, path, formatQuery(format), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ReportsClient) download(ctx context.Context, path, format string) (*Document, error) {
	req := r.client.request(ctx).
		SetHeader("Accept", "*/*").
		SetQueryParamsFromValues(formatQuery(format))
	resp, err := r.client.send(req, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		ContentType: resp.Header().Get("Content-Type"),
		Data:        resp.Body(),
	}
	if _, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); err == nil {
		doc.FileName = params["filename"]
	}
	return doc, nil
}

func formatQuery(format string) url.Values {
	if format == "" {
		return nil
	}
	return url.Values{"format": []string{format}}
}
