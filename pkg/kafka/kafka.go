package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

const BorrowTopic = "library.borrow"

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

type EventType string

const (
	EventBorrowed EventType = "BORROWED"
	EventReturned EventType = "RETURNED"
)

type BorrowEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	RecordID  int64     `json:"recordId"`
	BookID    int64     `json:"bookId"`
	UserID    int64     `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBorrowEvent(typ EventType, recordID, bookID, userID int64, at time.Time) BorrowEvent {
	return BorrowEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		RecordID:  recordID,
		BookID:    bookID,
		UserID:    userID,
		Timestamp: at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event BorrowEvent) error
}

// NewPublisher returns a no-op publisher when producer is nil.
func NewPublisher(producer sarama.SyncProducer, topic string) Publisher {
	if producer == nil {
		return nopPublisher{}
	}
	return &publisher{producer: producer, topic: topic}
}

type publisher struct {
	producer sarama.SyncProducer
	topic    string
}

func (p *publisher) Publish(_ context.Context, event BorrowEvent) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(event)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.BookID, 10)),
		Value: sarama.ByteEncoder(data),
	}
	_, _, err = p.producer.SendMessage(msg)
	return err
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, BorrowEvent) error { return nil }
