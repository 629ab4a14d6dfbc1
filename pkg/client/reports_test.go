package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/OceanScout/pkg/errors"
)

func TestReports_Download(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/analyses/run-1/report", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="yoga-mat-20250115.csv"`)
		_, _ = w.Write([]byte("# Summary\nkeyword,yoga mat\n"))
	})
	mux.HandleFunc("/api/v1/keywords/", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"keyword":"yoga mat"}`))
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	doc, err := c.Reports().Download(ctx, "run-1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "yoga-mat-20250115.csv", doc.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", doc.ContentType)
	assert.Contains(t, string(doc.Data), "# Summary")

	doc, err = c.Reports().DownloadLatest(ctx, "yoga mat", "")
	require.NoError(t, err)
	assert.Empty(t, doc.FileName)
	assert.JSONEq(t, `{"keyword":"yoga mat"}`, string(doc.Data))
}

func TestReports_DownloadError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusBadRequest, "REPORT_002", "unsupported report format")
	}))

	_, err := c.Reports().Download(context.Background(), "run-1", "pdf")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "REPORT_002", apiErr.Code)
}

func TestReports_Publish(t *testing.T) {
	expires := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/analyses/run-1/report", r.URL.Path)
		assert.Equal(t, "xlsx", r.URL.Query().Get("format"))
		writeEnvelope(w, http.StatusCreated, Published{
			Key:       "reports/yoga-mat/run-1.xlsx",
			URL:       "http://minio/reports/yoga-mat/run-1.xlsx?sig",
			Format:    FormatXLSX,
			Size:      2048,
			ExpiresAt: expires,
		})
	}))

	pub, err := c.Reports().Publish(context.Background(), "run-1", FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "reports/yoga-mat/run-1.xlsx", pub.Key)
	assert.Equal(t, int64(2048), pub.Size)
	assert.True(t, expires.Equal(pub.ExpiresAt))
}

func TestReports_RequireArguments(t *testing.T) {
	c, err := NewClient("http://localhost")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Reports().Download(ctx, "", FormatCSV)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	_, err = c.Reports().DownloadLatest(ctx, " ", FormatCSV)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	_, err = c.Reports().Publish(ctx, "", FormatCSV)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}
