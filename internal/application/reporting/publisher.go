package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/OceanScout/internal/application/analysis"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/OceanScout/internal/infrastructure/storage/minio"
	"github.com/turtacn/OceanScout/pkg/errors"
)

// Document is a rendered report.
type Document struct {
	Format      Format        `json:"format"`
	ContentType string        `json:"content_type"`
	FileName    string        `json:"file_name"`
	Data        []byte        `json:"-"`
	Size        int64         `json:"size"`
	Duration    time.Duration `json:"render_duration"`
}

// Published describes an uploaded report.
type Published struct {
	Key       string    `json:"key"`
	URL       string    `json:"url,omitempty"`
	Format    Format    `json:"format"`
	Size      int64     `json:"size"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Service renders reports and publishes them to object storage.
type Service interface {
	Render(ctx context.Context, r *analysis.Report, f Format) (*Document, error)
	// Publish renders r and uploads it.  The returned key is stable per run
	// and format, so publishing twice overwrites the same object.
	Publish(ctx context.Context, r *analysis.Report, f Format) (*Published, error)
}

// PublisherOptions tunes the publisher.
type PublisherOptions struct {
	TopN          int
	PresignExpiry time.Duration
}

// Publisher is the Service implementation.  A nil store disables Publish.
type Publisher struct {
	store   minio.ReportStore
	metrics *prometheus.AppMetrics
	logger  logging.Logger
	opts    PublisherOptions
}

// NewPublisher constructs a Publisher.
func NewPublisher(store minio.ReportStore, metrics *prometheus.AppMetrics, log logging.Logger, opts PublisherOptions) *Publisher {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = time.Hour
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Publisher{store: store, metrics: metrics, logger: log, opts: opts}
}

func (p *Publisher) Render(_ context.Context, r *analysis.Report, f Format) (doc *Document, err error) {
	defer func() { prometheus.RecordReport(p.metrics, string(f), err) }()

	if r == nil {
		return nil, errNilReport
	}
	exp, err := NewExporter(f, p.opts.TopN)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := exp.Export(r)
	if err != nil {
		return nil, err
	}
	return &Document{
		Format:      f,
		ContentType: f.ContentType(),
		FileName:    FileName(r, f),
		Data:        data,
		Size:        int64(len(data)),
		Duration:    time.Since(start),
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, r *analysis.Report, f Format) (pub *Published, err error) {
	if p.store == nil {
		return nil, errors.New(errors.ErrCodeServiceUnavailable, "report storage is not configured")
	}
	doc, err := p.Render(ctx, r, f)
	if err != nil {
		return nil, err
	}

	defer func() { prometheus.RecordUpload(p.metrics, err) }()
	key := minio.ReportKey(r.Keyword, r.RunID.String(), f.Extension())
	meta := map[string]string{
		"keyword":     r.Keyword,
		"run-id":      r.RunID.String(),
		"fingerprint": r.Fingerprint,
		"grade":       string(r.Assessment.Grade),
	}
	obj, err := p.store.Put(ctx, key, doc.Data, doc.ContentType, meta)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeReportUploadFailed, "failed to upload report").
			WithDetail("key=" + key)
	}
	pub = &Published{Key: obj.Key, Format: f, Size: obj.Size}

	url, perr := p.store.PresignGet(ctx, key, p.opts.PresignExpiry)
	if perr != nil {
		p.logger.Warn("Failed to presign report URL", logging.String("key", key), logging.Err(perr))
	} else {
		pub.URL = url
		pub.ExpiresAt = time.Now().UTC().Add(p.opts.PresignExpiry)
	}

	p.logger.Info("Report published",
		logging.String("key", key),
		logging.String("format", string(f)),
		logging.Int64("size", pub.Size),
	)
	return pub, nil
}

// FileName is the download name of a rendered report.
func FileName(r *analysis.Report, f Format) string {
	date := r.GeneratedAt
	if date.IsZero() {
		date = time.Now()
	}
	return fmt.Sprintf("%s-%s.%s", minio.Slug(r.Keyword), date.UTC().Format("20060102"), f.Extension())
}

var _ Service = (*Publisher)(nil)
