package timeentry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Change describes a committed mutation to an entry, published so viewers
// watching a filter can refresh.
type Change struct {
	OrgID   string `json:"org_id"`
	UserID  string `json:"user_id"`
	EntryID string `json:"entry_id"`
	Action  string `json:"action"`
}

// Watcher delivers live entry-set updates. Subscribe re-queries the store on
// every matching change and hands the fresh set to onChange; the returned
// function cancels the subscription.
type Watcher interface {
	Publish(ctx context.Context, ch Change)
	Subscribe(ctx context.Context, orgID string, f Filter, onChange func([]TimeEntry)) (func(), error)
}

// ChangeChannelPattern matches every org's change channel, for consumers that
// react to changes across the whole deployment (cache invalidation).
const ChangeChannelPattern = "timeentry.changes.*"

func changeChannel(orgID string) string {
	return fmt.Sprintf("timeentry.changes.%s", orgID)
}

// matchesFilter reports whether a change is relevant to a subscription.
// Only identity filters are checked here; the re-query applies the rest.
func matchesFilter(f Filter, ch Change) bool {
	if f.UserID != nil && *f.UserID != "" && ch.UserID != *f.UserID {
		return false
	}
	return true
}

// RedisWatcher fans changes out across processes via pub/sub, one channel
// per org.
type RedisWatcher struct {
	rdb    *redis.Client
	repo   Repository
	logger *zap.Logger
}

func NewRedisWatcher(rdb *redis.Client, repo Repository, logger ...*zap.Logger) *RedisWatcher {
	l := zap.L().Named("timeentry.watcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("timeentry.watcher")
	}
	return &RedisWatcher{rdb: rdb, repo: repo, logger: l}
}

// Publish is called after commit. Delivery is best effort; a failed publish
// is logged, never surfaced to the caller whose write already succeeded.
func (w *RedisWatcher) Publish(ctx context.Context, ch Change) {
	payload, err := json.Marshal(ch)
	if err != nil {
		w.logger.Error("encode change notification failed", zap.Error(err))
		return
	}
	if err := w.rdb.Publish(ctx, changeChannel(ch.OrgID), payload).Err(); err != nil {
		w.logger.Warn("publish change notification failed",
			zap.String("org_id", ch.OrgID),
			zap.String("entry_id", ch.EntryID),
			zap.Error(err),
		)
	}
}

func (w *RedisWatcher) Subscribe(ctx context.Context, orgID string, f Filter, onChange func([]TimeEntry)) (func(), error) {
	sub := w.rdb.Subscribe(ctx, changeChannel(orgID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	go func() {
		for msg := range sub.Channel() {
			var ch Change
			if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
				w.logger.Error("decode change notification failed", zap.Error(err))
				continue
			}
			if !matchesFilter(f, ch) {
				continue
			}

			entries, _, err := w.repo.Query(ctx, orgID, f)
			if err != nil {
				w.logger.Error("requery after change failed",
					zap.String("org_id", orgID),
					zap.Error(err),
				)
				continue
			}
			onChange(entries)
		}
	}()

	return func() { _ = sub.Close() }, nil
}

// LocalWatcher is the in-process implementation, used in tests and
// single-node deployments.
type LocalWatcher struct {
	repo Repository

	mu     sync.Mutex
	nextID int
	subs   map[int]localSub
}

type localSub struct {
	orgID    string
	filter   Filter
	onChange func([]TimeEntry)
}

func NewLocalWatcher(repo Repository) *LocalWatcher {
	return &LocalWatcher{repo: repo, subs: make(map[int]localSub)}
}

func (w *LocalWatcher) Publish(ctx context.Context, ch Change) {
	w.mu.Lock()
	matched := make([]localSub, 0, len(w.subs))
	for _, s := range w.subs {
		if s.orgID == ch.OrgID && matchesFilter(s.filter, ch) {
			matched = append(matched, s)
		}
	}
	w.mu.Unlock()

	for _, s := range matched {
		entries, _, err := w.repo.Query(ctx, s.orgID, s.filter)
		if err != nil {
			continue
		}
		s.onChange(entries)
	}
}

func (w *LocalWatcher) Subscribe(_ context.Context, orgID string, f Filter, onChange func([]TimeEntry)) (func(), error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	w.subs[id] = localSub{orgID: orgID, filter: f, onChange: onChange}

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}, nil
}
