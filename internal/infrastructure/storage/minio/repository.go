package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeObjectNotFound, "object not found")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid storage request")
)

// reportPrefix is the key prefix under which every report is stored.
const reportPrefix = "reports"

// ReportObject describes one stored report.
type ReportObject struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ReportStore reads and writes rendered reports.
type ReportStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (*ReportObject, error)
	Get(ctx context.Context, key string) ([]byte, *ReportObject, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]ReportObject, error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type reportStore struct {
	client *Client
	logger logging.Logger
}

// NewReportStore returns a ReportStore backed by the client's bucket.
func NewReportStore(client *Client, log logging.Logger) ReportStore {
	return &reportStore{client: client, logger: log}
}

// ReportKey builds the object key of a report:
// reports/<keyword-slug>/<runID>.<format>.
func ReportKey(keyword, runID, format string) string {
	return path.Join(reportPrefix, Slug(keyword), fmt.Sprintf("%s.%s", runID, strings.ToLower(format)))
}

// Slug lowercases s and collapses every run of non alphanumeric runes into
// a single '-'.  An empty result becomes "keyword".
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "keyword"
	}
	return out
}

func (s *reportStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (*ReportObject, error) {
	if key == "" {
		return nil, ErrInvalidRequest.WithDetail("empty object key")
	}
	if s.client.isClosed() {
		return nil, ErrClientClosed
	}
	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(512, len(data))])
	}

	info, err := s.client.api.PutObject(ctx, s.client.Bucket(), key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "upload failed").WithDetail("key=" + key)
	}

	s.logger.Debug("Stored report object",
		logging.String("bucket", s.client.Bucket()),
		logging.String("key", key),
		logging.Int64("size", info.Size),
	)
	return &ReportObject{
		Key:          key,
		Size:         info.Size,
		ContentType:  contentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
		Metadata:     metadata,
	}, nil
}

func (s *reportStore) Get(ctx context.Context, key string) ([]byte, *ReportObject, error) {
	if s.client.isClosed() {
		return nil, nil, ErrClientClosed
	}
	stat, err := s.client.api.StatObject(ctx, s.client.Bucket(), key, minio.StatObjectOptions{})
	if err != nil {
		return nil, nil, s.mapError(err, key, "stat failed")
	}

	obj, err := s.client.api.GetObject(ctx, s.client.Bucket(), key)
	if err != nil {
		return nil, nil, s.mapError(err, key, "download failed")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, nil, s.mapError(err, key, "download failed")
	}
	return data, objectFromInfo(stat), nil
}

func (s *reportStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.api.StatObject(ctx, s.client.Bucket(), key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "stat failed").WithDetail("key=" + key)
	}
	return true, nil
}

func (s *reportStore) List(ctx context.Context, prefix string) ([]ReportObject, error) {
	var out []ReportObject
	for info := range s.client.api.ListObjects(ctx, s.client.Bucket(), minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, errors.Wrap(info.Err, errors.ErrCodeStorageError, "list failed").WithDetail("prefix=" + prefix)
		}
		out = append(out, *objectFromInfo(info))
	}
	return out, nil
}

func (s *reportStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.client.cfg.PresignExpiry
	}
	u, err := s.client.api.PresignedGetObject(ctx, s.client.Bucket(), key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "presign failed").WithDetail("key=" + key)
	}
	return u.String(), nil
}

func (s *reportStore) Delete(ctx context.Context, key string) error {
	if err := s.client.api.RemoveObject(ctx, s.client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil {
		return s.mapError(err, key, "delete failed")
	}
	return nil
}

func (s *reportStore) mapError(err error, key, msg string) error {
	if isNotFound(err) {
		return ErrObjectNotFound.WithDetail("key=" + key)
	}
	return errors.Wrap(err, errors.ErrCodeStorageError, msg).WithDetail("key=" + key)
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}

func objectFromInfo(info minio.ObjectInfo) *ReportObject {
	return &ReportObject{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
		Metadata:     info.UserMetadata,
	}
}
