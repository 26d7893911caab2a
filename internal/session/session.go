// Package session layers Redis persistence under the in-process memory
// stores. The cognitive core itself performs no I/O; this glue saves and
// restores snapshots per session id and sweeps abandoned sessions.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anchorlab/anchorlab/internal/memory"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	snapshotPrefix     = "anchorlab:memory:"
	lastAccessedPrefix = "anchorlab:last_accessed:"

	// DefaultRetention is how long an untouched session survives sweeps.
	DefaultRetention = 90 * 24 * time.Hour
)

// Store persists memory snapshots in Redis, keyed by session id.
// Snapshots never expire on their own; SweepAbandoned enforces retention.
type Store struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewStore connects to Redis and verifies the connection.
func NewStore(redisURL string, logger *zap.Logger) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{rdb: rdb, logger: logger}, nil
}

// Close shuts down the Redis client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Save persists a snapshot for the session and refreshes its
// last-accessed timestamp. No TTL: retention is sweep-driven.
func (s *Store) Save(ctx context.Context, sessionID string, snap memory.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, snapshotPrefix+sessionID, data, 0).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return s.touch(ctx, sessionID)
}

// Load restores a session's snapshot into the given store. A missing key
// means a fresh session: the store is left empty and no error is returned.
func (s *Store) Load(ctx context.Context, sessionID string, dst *memory.Store) error {
	data, err := s.rdb.Get(ctx, snapshotPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return s.touch(ctx, sessionID)
	}
	if err != nil {
		return fmt.Errorf("load session %s: %w", sessionID, err)
	}

	var snap memory.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse session %s: %w", sessionID, err)
	}
	dst.Restore(snap)
	return s.touch(ctx, sessionID)
}

func (s *Store) touch(ctx context.Context, sessionID string) error {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	if err := s.rdb.Set(ctx, lastAccessedPrefix+sessionID, ts, 0).Err(); err != nil {
		return fmt.Errorf("touch session %s: %w", sessionID, err)
	}
	return nil
}

// SweepAbandoned deletes every session untouched for longer than the
// retention window. Returns the number of sessions removed.
func (s *Store) SweepAbandoned(ctx context.Context, retention time.Duration) (int, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	cutoff := time.Now().Add(-retention).Unix()

	var cleaned int
	iter := s.rdb.Scan(ctx, 0, lastAccessedPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		val, err := s.rdb.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(val, 10, 64)
		if err != nil || ts >= cutoff {
			continue
		}
		sid := strings.TrimPrefix(key, lastAccessedPrefix)
		if err := s.rdb.Del(ctx, snapshotPrefix+sid, key).Err(); err != nil {
			return cleaned, fmt.Errorf("delete session %s: %w", sid, err)
		}
		cleaned++
	}
	if err := iter.Err(); err != nil {
		return cleaned, fmt.Errorf("scan sessions: %w", err)
	}

	s.logger.Info("session sweep complete",
		zap.Int("cleaned", cleaned),
		zap.Duration("retention", retention))
	return cleaned, nil
}

// Count returns the number of persisted sessions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	iter := s.rdb.Scan(ctx, 0, snapshotPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}
	return count, nil
}

// RunPeriodicSweep sweeps on the given interval until the context is
// cancelled. A sweep error is logged and retried on the next interval.
func (s *Store) RunPeriodicSweep(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepAbandoned(ctx, retention); err != nil {
				s.logger.Warn("session sweep failed", zap.Error(err))
			}
		}
	}
}
