package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	kafkax "github.com/dkellner/modelstore/internal/kafka"
	"github.com/dkellner/modelstore/internal/orders"
	"github.com/dkellner/modelstore/internal/redisx"
)

// Service records storefront events for the admin dashboard. Installed as a
// consumer handler for the order.completed and asset.downloaded topics.
type Service struct {
	Repo        *Repo
	Redis       *redis.Client
	ServiceName string
	Log         logrus.FieldLogger
}

// HandleEvent is idempotent per event_id: Redis dedup in front, the primary
// key on analytics_events behind it.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	switch env.EventType {
	case orders.EventOrderCompleted, orders.EventAssetDownloaded:
	default:
		return nil // ignore
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}

	if err := s.Repo.Insert(ctx, &env); err != nil {
		return err
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	log := s.Log.WithFields(logrus.Fields{
		"event_id":   env.EventID,
		"event_type": env.EventType,
		"order_id":   env.CorrelationID,
	})
	if env.EventType == orders.EventAssetDownloaded {
		if p, err := kafkax.UnwrapPayload[orders.AssetDownloadedPayload](env.Payload); err == nil {
			log = log.WithField("download_count", p.DownloadCount)
		}
	}
	log.Info("event recorded")
	return nil
}
