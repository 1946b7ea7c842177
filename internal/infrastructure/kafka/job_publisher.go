package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/segmentio/kafka-go"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

type JobPublisher struct {
	writer *kafka.Writer
	newID  func() string
}

func NewJobPublisher(brokers []string, topic string) (*JobPublisher, error) {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}

	return &JobPublisher{
		writer: &kafka.Writer{
			Addr:  kafka.TCP(brokers...),
			Topic: topic,
			// Keyed by user so jobs for one user land on one partition.
			Balancer: &kafka.Hash{},
		},
		newID: idGenerator,
	}, nil
}

func (p *JobPublisher) Enqueue(ctx context.Context, job domain.Job) error {
	if job.ID == "" {
		job.ID = p.newID()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}

	msg, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   job.PartitionKey(),
		Value: msg,
		Time:  time.Now(),
	})
}

func (p *JobPublisher) Close() error {
	return p.writer.Close()
}
