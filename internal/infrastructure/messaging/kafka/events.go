package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/OceanScout/pkg/errors"
	"github.com/turtacn/OceanScout/pkg/types/common"
)

// Topic names without the configured prefix.
const (
	TopicAnalysisRequested  = "analysis.requested"
	TopicAnalysisCompleted  = "analysis.completed"
	TopicAnalysisDeadLetter = "analysis.dead_letter"
)

const (
	EventAnalysisRequested = "analysis.requested"
	EventAnalysisCompleted = "analysis.completed"
)

// Record headers.  Dead-lettered records additionally carry the topic they
// were consumed from and the last handler error.
const (
	HeaderEventType     = "event_type"
	HeaderSource        = "source_service"
	HeaderSchema        = "schema_version"
	HeaderOriginalTopic = "original_topic"
	HeaderError         = "error_message"
)

const (
	envelopeSource  = "oceanscout"
	envelopeVersion = "v1"
)

func Topic(prefix, name string) string { return prefix + name }

// Envelope is the JSON body of every OceanScout event.
type Envelope struct {
	ID         string          `json:"event_id"`
	Type       string          `json:"event_type"`
	Source     string          `json:"source"`
	OccurredAt time.Time       `json:"timestamp"`
	Version    string          `json:"schema_version"`
	Payload    json.RawMessage `json:"payload"`
}

// AnalysisRequestedPayload asks a worker to analyse a stored keyword.
type AnalysisRequestedPayload struct {
	Keyword  string `json:"keyword"`
	UseCache bool   `json:"use_cache"`
}

// AnalysisCompletedPayload summarises a finished run.
type AnalysisCompletedPayload struct {
	RunID            string    `json:"run_id"`
	Keyword          string    `json:"keyword"`
	Fingerprint      string    `json:"fingerprint"`
	ProductCount     int       `json:"product_count"`
	BlueOceanCount   int       `json:"blue_ocean_count"`
	OpportunityScore float64   `json:"opportunity_score"`
	Grade            string    `json:"grade"`
	DurationMS       int64     `json:"duration_ms"`
	Cached           bool      `json:"cached"`
	CompletedAt      time.Time `json:"completed_at"`
}

func NewEnvelope(eventType string, payload interface{}) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeSerialization, "encode %s payload", eventType)
	}
	return &Envelope{
		ID:         uuid.NewString(),
		Type:       eventType,
		Source:     envelopeSource,
		OccurredAt: time.Now().UTC(),
		Version:    envelopeVersion,
		Payload:    raw,
	}, nil
}

// Encode builds the record for topic.  key selects the partition.
func (e *Envelope) Encode(topic, key string) (*common.ProducerMessage, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encode envelope")
	}
	return &common.ProducerMessage{
		Topic: topic,
		Key:   []byte(key),
		Value: body,
		Headers: map[string]string{
			HeaderEventType: e.Type,
			HeaderSource:    e.Source,
			HeaderSchema:    e.Version,
		},
		Timestamp: e.OccurredAt,
	}, nil
}

// Unmarshal decodes the payload into target.  A missing or null payload
// leaves target as it is.
func (e *Envelope) Unmarshal(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrapf(err, errors.ErrCodeSerialization, "decode %s payload", e.Type)
	}
	return nil
}

// DecodeEnvelope parses a consumed record.  A body without an event type
// takes it from the event_type header.
func DecodeEnvelope(msg *common.Message) (*Envelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty record").WithDetail("topic=" + msg.Topic)
	}
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode envelope").WithDetail("topic=" + msg.Topic)
	}
	if env.Type == "" {
		env.Type = msg.Headers[HeaderEventType]
	}
	return &env, nil
}
