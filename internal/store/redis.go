// internal/store/redis.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/skygrid/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// controlChannel keeps the pub/sub connection in subscribe mode before any room is subscribed.
const controlChannel = "skygrid:control"

// DefaultUpdateRetries bounds how often Update retries after losing a WATCH race.
const DefaultUpdateRetries = 16

// RedisStore keeps rooms as JSON strings under room:<id> and announces every write on
// roomchan:<id>. Any number of server processes can share one Redis.
type RedisStore struct {
	Rdb     *redis.Client
	Retries int

	logger *logrus.Entry
	pubsub *redis.PubSub

	mu     sync.Mutex
	notify NotifyFunc
}

// ConnectRedis parses a redis:// URL, connects and pings the server.
func ConnectRedis(ctx context.Context, url string, logger *logrus.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	return NewRedisStore(ctx, rdb, logger), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(ctx context.Context, rdb *redis.Client, logger *logrus.Logger) *RedisStore {
	return &RedisStore{
		Rdb:     rdb,
		Retries: DefaultUpdateRetries,
		logger:  logger.WithField("store", "redis"),
		pubsub:  rdb.Subscribe(ctx, controlChannel),
	}
}

func (s *RedisStore) Get(ctx context.Context, roomID string) (*models.Room, error) {
	data, err := s.Rdb.Get(ctx, roomKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get room %s: %w", roomID, err)
	}
	return decodeRoom(roomID, data)
}

func (s *RedisStore) Set(ctx context.Context, roomID string, room *models.Room) error {
	room.ID = roomID
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}
	_, err = s.Rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, roomKey(roomID), data, 0)
		pipe.Publish(ctx, roomChan(roomID), "update")
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set room %s: %w", roomID, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, roomID string) error {
	if err := s.Rdb.Del(ctx, roomKey(roomID)).Err(); err != nil {
		return fmt.Errorf("redis delete room %s: %w", roomID, err)
	}
	return nil
}

// Update is an optimistic transaction: WATCH the key, read, mutate, then SET and
// PUBLISH inside MULTI. If another writer got there first EXEC fails and the whole
// read-modify-write runs again, so fn must not keep state between calls.
func (s *RedisStore) Update(ctx context.Context, roomID string, fn UpdateFunc) (*models.Room, error) {
	key := roomKey(roomID)
	var (
		written *models.Room
		fnErr   error
	)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		room, err := decodeRoom(roomID, data)
		if err != nil {
			return err
		}
		if err := fn(room); err != nil {
			fnErr = err
			return err
		}
		room.ID = roomID
		enc, err := encodeRoom(room)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, enc, 0)
			pipe.Publish(ctx, roomChan(roomID), "update")
			return nil
		})
		if err != nil {
			return err
		}
		written = room
		return nil
	}

	for attempt := 0; attempt < s.Retries; attempt++ {
		fnErr = nil
		err := s.Rdb.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return written, nil
		case errors.Is(err, redis.TxFailedErr):
			s.logger.WithFields(logrus.Fields{"room": roomID, "attempt": attempt + 1}).Debug("room update lost race, retrying")
			continue
		case fnErr != nil, errors.Is(err, ErrRoomNotFound):
			return nil, err
		default:
			return nil, fmt.Errorf("redis update room %s: %w", roomID, err)
		}
	}
	return nil, fmt.Errorf("room %s after %d attempts: %w", roomID, s.Retries, ErrConflict)
}

func (s *RedisStore) Subscribe(ctx context.Context, roomID string) error {
	if err := s.pubsub.Subscribe(ctx, roomChan(roomID)); err != nil {
		return fmt.Errorf("redis subscribe room %s: %w", roomID, err)
	}
	return nil
}

func (s *RedisStore) Unsubscribe(ctx context.Context, roomID string) error {
	if err := s.pubsub.Unsubscribe(ctx, roomChan(roomID)); err != nil {
		return fmt.Errorf("redis unsubscribe room %s: %w", roomID, err)
	}
	return nil
}

func (s *RedisStore) SetNotifyFunc(fn NotifyFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// Run forwards room notifications from the pub/sub connection until ctx is done.
// Writes made by this process arrive here too.
func (s *RedisStore) Run(ctx context.Context) error {
	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			roomID, isRoom := strings.CutPrefix(msg.Channel, "roomchan:")
			if !isRoom {
				continue
			}
			s.mu.Lock()
			fn := s.notify
			s.mu.Unlock()
			if fn != nil {
				fn(roomID)
			}
		}
	}
}

func (s *RedisStore) Close() error {
	if err := s.pubsub.Close(); err != nil {
		s.logger.Warnf("closing pubsub: %v", err)
	}
	return s.Rdb.Close()
}
