package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/repoindex/internal/domain"
)

var tracer = otel.Tracer("service")

// NotificationChannel is the pub/sub channel carrying notifications for did.
// Stores in different partitions never share a channel.
func NotificationChannel(partition, did string) string {
	if partition == "" {
		return "notifications:" + did
	}
	return "notifications:" + partition + ":" + did
}

type SignalService struct {
	rdb       *redis.Client
	partition string
}

func NewSignalService(redisClient *redis.Client, partition string) *SignalService {
	return &SignalService{
		rdb:       redisClient,
		partition: partition,
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event any) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		return err

	}

	return nil
}

// PublishNotifications sends each event to its recipient's channel and
// reports the first failure after trying all of them.
func (s *SignalService) PublishNotifications(ctx context.Context, events []domain.NotificationEvent) error {
	ctx, span := tracer.Start(ctx, "Signal.Service.PublishNotifications")
	defer span.End()

	var first error
	for _, event := range events {
		if err := s.Publish(ctx, NotificationChannel(s.partition, event.UserDid), event); err != nil {
			span.RecordError(err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Subscribe forwards notifications addressed to did into output until ctx is
// done. Undecodable messages are skipped.
func (s *SignalService) Subscribe(ctx context.Context, did string, output chan<- domain.NotificationEvent) error {
	pubsub := s.rdb.Subscribe(ctx, NotificationChannel(s.partition, did))
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event domain.NotificationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed notification")
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
