package analysis

import (
	"context"
	"strings"

	"github.com/turtacn/OceanScout/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/OceanScout/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/OceanScout/pkg/errors"
	"github.com/turtacn/OceanScout/pkg/types/common"
)

// RequestHandler returns the consumer handler of analysis.requested events.
// Events of any other type are acknowledged and skipped.  metrics may be nil.
func RequestHandler(svc Service, metrics *prometheus.AppMetrics, log logging.Logger) common.MessageHandler {
	handle := handleRequest(svc, log)
	return func(ctx context.Context, msg *common.Message) error {
		err := handle(ctx, msg)
		prometheus.RecordConsume(metrics, msg.Topic, err)
		if err != nil {
			code := errors.GetCode(err)
			if code == errors.CodeUnknown {
				code = "unknown"
			}
			prometheus.RecordError(metrics, "worker", string(code))
		}
		return err
	}
}

func handleRequest(svc Service, log logging.Logger) common.MessageHandler {
	return func(ctx context.Context, msg *common.Message) error {
		env, err := kafka.DecodeEnvelope(msg)
		if err != nil {
			return err
		}
		if env.Type != kafka.EventAnalysisRequested {
			log.Warn("Skipping unexpected event",
				logging.String("event_type", env.Type),
				logging.String("event_id", env.ID),
			)
			return nil
		}

		var p kafka.AnalysisRequestedPayload
		if err := env.Unmarshal(&p); err != nil {
			return err
		}
		report, err := svc.Run(ctx, Request{Keyword: p.Keyword, UseCache: p.UseCache})
		if err != nil {
			return err
		}
		log.Info("Processed analysis request",
			logging.String("event_id", env.ID),
			logging.String("keyword", report.Keyword),
			logging.String("run_id", report.RunID.String()),
			logging.Bool("cached", report.Cached),
		)
		return nil
	}
}

// PublishRequest enqueues an analysis of a stored keyword and returns the
// event id.
func PublishRequest(ctx context.Context, pub EventPublisher, topicPrefix, keyword string, useCache bool) (string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", errors.New(errors.ErrCodeDatasetKeywordMissing, "keyword is required")
	}
	env, err := kafka.NewEnvelope(kafka.EventAnalysisRequested, kafka.AnalysisRequestedPayload{
		Keyword:  keyword,
		UseCache: useCache,
	})
	if err != nil {
		return "", err
	}
	msg, err := env.Encode(kafka.Topic(topicPrefix, kafka.TopicAnalysisRequested), keyword)
	if err != nil {
		return "", err
	}
	if err := pub.Publish(ctx, msg); err != nil {
		return "", err
	}
	return env.ID, nil
}
