package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

type JobSubscriber struct {
	brokers []string
	topic   string
	groupID string
	logger  *slog.Logger
}

func NewJobSubscriber(brokers []string, topic, groupID string, logger *slog.Logger) *JobSubscriber {
	return &JobSubscriber{brokers: brokers, topic: topic, groupID: groupID, logger: logger}
}

func (s *JobSubscriber) Subscribe(ctx context.Context) (<-chan domain.Job, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: s.brokers,
		Topic:   s.topic,
		GroupID: s.groupID,
	})

	out := make(chan domain.Job)
	go func() {
		defer reader.Close()
		defer close(out)
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				return
			}

			var job domain.Job
			if err := json.Unmarshal(m.Value, &job); err != nil {
				s.logger.Error("discarding malformed job payload", "error", err)
				continue
			}

			select {
			case out <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
