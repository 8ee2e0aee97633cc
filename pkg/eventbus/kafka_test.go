package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev Event
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.Type != "message.sent" || ev.AggregateID != "conv-1" || ev.ActorID != "u1" {
			return fmt.Errorf("unexpected event %+v", ev)
		}
		if ev.OccurredAt.IsZero() {
			return errors.New("occurred_at not stamped")
		}
		return nil
	})

	pub := NewKafkaPublisherWithProducer(producer, "leasehub.events")
	err := pub.Publish(context.Background(), Event{
		Type:        "message.sent",
		AggregateID: "conv-1",
		ActorID:     "u1",
		Payload:     map[string]string{"message_id": "m1"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestKafkaPublisherPropagatesBrokerError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewKafkaPublisherWithProducer(producer, "leasehub.events")
	err := pub.Publish(context.Background(), Event{Type: "deal.updated", AggregateID: "d1"})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("err = %v, want ErrOutOfBrokers", err)
	}

	_ = pub.Close()
}

func TestKafkaPublisherHonorsCanceledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	pub := NewKafkaPublisherWithProducer(producer, "leasehub.events")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pub.Publish(ctx, Event{Type: "x", AggregateID: "y"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	_ = pub.Close()
}

func TestNewKafkaPublisherValidatesArguments(t *testing.T) {
	if _, err := NewKafkaPublisher(nil, "topic"); err == nil {
		t.Fatal("expected error without brokers")
	}
	if _, err := NewKafkaPublisher([]string{"localhost:9092"}, ""); err == nil {
		t.Fatal("expected error without topic")
	}
}
