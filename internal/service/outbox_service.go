package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"yatube/internal/model"
	"yatube/internal/pkg"
	"yatube/internal/repository/rdb"
)

// MaxRetry bounds delivery attempts for a single outbox row.
const MaxRetry = 5

type Sender func(ctx context.Context, ob *model.PostOutbox) error

// OutboxRelayer drains post_outbox into a Sender on a fixed interval.
type OutboxRelayer struct {
	repo      *rdb.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
}

func NewOutboxRelayer(db *gorm.DB, sender Sender) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &rdb.OutboxRepository{DB: db},
		batchSize: 200,
		interval:  time.Second,
		sender:    sender,
	}
}

func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *OutboxRelayer) drainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize, MaxRetry)
	if err != nil {
		log.Error().Err(err).Msg("outbox query")
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			log.Warn().Err(err).Uint64("outbox_id", ob.ID).Int("retry", ob.Retry+1).Msg("outbox send")
			_ = r.repo.RetryUpdate(ctx, ob.ID)
			continue
		}
		_ = r.repo.SuccessUpdate(ctx, ob.ID)
		sent++
	}
	return sent
}

// KafkaSender publishes the event payload keyed by post id.
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.PostOutbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.PostID), []byte(ob.Payload))
	}
}

// LogSender is used when no brokers are configured.
func LogSender(ctx context.Context, ob *model.PostOutbox) error {
	log.Info().
		Str("event", ob.EventType).
		Uint64("post_id", ob.PostID).
		Uint64("author_id", ob.AuthorID).
		RawJSON("payload", []byte(ob.Payload)).
		Msg("outbox send")
	return nil
}
