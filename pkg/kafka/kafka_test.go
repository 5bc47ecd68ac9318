package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/Astemirdum/library-assistant/pkg/kafka"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev kafka.BorrowEvent
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		require.Equal(t, kafka.EventBorrowed, ev.Type)
		require.Equal(t, int64(7), ev.RecordID)
		require.Equal(t, int64(3), ev.BookID)
		require.Equal(t, int64(1), ev.UserID)
		require.NotEmpty(t, ev.ID)
		return nil
	})

	p := kafka.NewPublisher(producer, kafka.BorrowTopic)
	ev := kafka.NewBorrowEvent(kafka.EventBorrowed, 7, 3, 1, time.Now())
	require.NoError(t, p.Publish(context.Background(), ev))
	require.NoError(t, producer.Close())
}

func TestPublisher_PublishError(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := kafka.NewPublisher(producer, kafka.BorrowTopic)
	err := p.Publish(context.Background(), kafka.NewBorrowEvent(kafka.EventReturned, 1, 1, 1, time.Now()))
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())
}

func TestPublisher_Nop(t *testing.T) {
	t.Parallel()
	p := kafka.NewPublisher(nil, kafka.BorrowTopic)
	require.NoError(t, p.Publish(context.Background(), kafka.BorrowEvent{}))
}
