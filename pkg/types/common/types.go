// Package common holds the wire types shared by the HTTP API and the message
// bus.
package common

import (
	"encoding/json"
	"time"
)

// Timestamp is a UTC instant rendered as RFC 3339 with nanoseconds.
type Timestamp time.Time

func Now() Timestamp {
	return Timestamp(time.Now().UTC())
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts RFC 3339 with or without fractional seconds and
// normalises to UTC.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed.UTC())
	return nil
}

// ErrorDetail is the error member of the response envelope.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// APIResponse is the envelope of every API response.  Exactly one of Data
// and Error is set.
type APIResponse[T any] struct {
	Success   bool         `json:"success"`
	Data      T            `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp Timestamp    `json:"timestamp"`
}

func NewSuccessResponse[T any](data T, requestID string) APIResponse[T] {
	return APIResponse[T]{Success: true, Data: data, RequestID: requestID, Timestamp: Now()}
}

func NewErrorResponse(detail ErrorDetail, requestID string) APIResponse[any] {
	return APIResponse[any]{Error: &detail, RequestID: requestID, Timestamp: Now()}
}

// HealthStatus is the state of one backend or of the whole service.
type HealthStatus string

const (
	HealthUp       HealthStatus = "up"
	HealthDown     HealthStatus = "down"
	HealthDegraded HealthStatus = "degraded"
	// HealthDisabled marks a backend switched off in the configuration.
	HealthDisabled HealthStatus = "disabled"
)

// ComponentHealth is the probe result of one backend.
type ComponentHealth struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	LatencyMS float64      `json:"latency_ms"`
	Message   string       `json:"message,omitempty"`
}

// OverallHealth is degraded when any component is down or degraded.
// Disabled components do not count.
func OverallHealth(components []ComponentHealth) HealthStatus {
	for _, c := range components {
		if c.Status == HealthDown || c.Status == HealthDegraded {
			return HealthDegraded
		}
	}
	return HealthUp
}

// ContextKey types request-scoped context values.
type ContextKey string

const ContextKeyRequestID ContextKey = "request_id"
