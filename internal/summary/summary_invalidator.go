package summary

import (
	"context"
	"encoding/json"

	"github.com/boissonnick/contractoros/internal/timeentry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Invalidator drops cached summaries for a user whenever one of their entries
// changes. It listens on the same channels the entry watcher publishes to, so
// every committed mutation reaches it regardless of which process applied it.
type Invalidator struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewInvalidator(rdb *redis.Client, logger ...*zap.Logger) *Invalidator {
	l := zap.L().Named("summary.invalidator")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("summary.invalidator")
	}
	return &Invalidator{rdb: rdb, logger: l}
}

// Run blocks until ctx is done or the subscription fails to establish.
func (i *Invalidator) Run(ctx context.Context) error {
	sub := i.rdb.PSubscribe(ctx, timeentry.ChangeChannelPattern)
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	defer sub.Close()

	i.logger.Info("summary invalidator started", zap.String("pattern", timeentry.ChangeChannelPattern))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			var ch timeentry.Change
			if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
				i.logger.Warn("skipping undecodable change message", zap.Error(err))
				continue
			}
			i.purge(ctx, ch.OrgID, ch.UserID)
		}
	}
}

func (i *Invalidator) purge(ctx context.Context, orgID, userID string) {
	for _, pattern := range UserKeyPatterns(orgID, userID) {
		iter := i.rdb.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := i.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				i.logger.Warn("summary cache delete failed",
					zap.String("key", iter.Val()),
					zap.Error(err),
				)
			}
		}
		if err := iter.Err(); err != nil {
			i.logger.Warn("summary cache scan failed",
				zap.String("pattern", pattern),
				zap.Error(err),
			)
		}
	}
}
