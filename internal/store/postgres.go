// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/skygrid/internal/models"
	"github.com/sirupsen/logrus"
)

// notifyChannel is the LISTEN/NOTIFY channel; the payload is the room id.
const notifyChannel = "skygrid_rooms"

const schema = `
	CREATE TABLE IF NOT EXISTS rooms (
		id         TEXT PRIMARY KEY,
		state      JSONB NOT NULL,
		version    BIGINT NOT NULL DEFAULT 1,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresStore keeps one row per room and signals writes with pg_notify.
type PostgresStore struct {
	DB *pgxpool.Pool

	logger *logrus.Entry

	mu         sync.Mutex
	subscribed map[string]bool
	notify     NotifyFunc
}

// ConnectPostgres opens a pool for url, pings it and makes sure the rooms table exists.
func ConnectPostgres(ctx context.Context, url string, logger *logrus.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	s := NewPostgresStore(pool, logger)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool. Call Migrate before first use.
func NewPostgresStore(pool *pgxpool.Pool, logger *logrus.Logger) *PostgresStore {
	return &PostgresStore{
		DB:         pool,
		logger:     logger.WithField("store", "postgres"),
		subscribed: make(map[string]bool),
	}
}

// Migrate creates the rooms table if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create rooms table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, roomID string) (*models.Room, error) {
	var state string
	err := s.DB.QueryRow(ctx, `SELECT state::text FROM rooms WHERE id = $1`, roomID).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select room %s: %w", roomID, err)
	}
	return decodeRoom(roomID, []byte(state))
}

func (s *PostgresStore) Set(ctx context.Context, roomID string, room *models.Room) error {
	room.ID = roomID
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}
	q := `
		INSERT INTO rooms (id, state)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (id)
		DO UPDATE SET state = EXCLUDED.state, version = rooms.version + 1, updated_at = NOW()
	`
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, q, roomID, string(data)); err != nil {
			return fmt.Errorf("upsert room %s: %w", roomID, err)
		}
		return notifyTx(ctx, tx, roomID)
	})
}

func (s *PostgresStore) Delete(ctx context.Context, roomID string) error {
	if _, err := s.DB.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID); err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	return nil
}

// Update locks the row with SELECT ... FOR UPDATE so concurrent writers queue behind
// each other instead of retrying.
func (s *PostgresStore) Update(ctx context.Context, roomID string, fn UpdateFunc) (*models.Room, error) {
	var written *models.Room
	err := pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var state string
		err := tx.QueryRow(ctx, `SELECT state::text FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&state)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRoomNotFound
		}
		if err != nil {
			return fmt.Errorf("select room %s: %w", roomID, err)
		}

		room, err := decodeRoom(roomID, []byte(state))
		if err != nil {
			return err
		}
		if err := fn(room); err != nil {
			return err
		}

		room.ID = roomID
		data, err := encodeRoom(room)
		if err != nil {
			return err
		}
		q := `UPDATE rooms SET state = $2::jsonb, version = version + 1, updated_at = NOW() WHERE id = $1`
		if _, err := tx.Exec(ctx, q, roomID, string(data)); err != nil {
			return fmt.Errorf("update room %s: %w", roomID, err)
		}
		if err := notifyTx(ctx, tx, roomID); err != nil {
			return err
		}
		written = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

// notifyTx queues a notification that Postgres delivers when tx commits.
func notifyTx(ctx context.Context, tx pgx.Tx, roomID string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, roomID); err != nil {
		return fmt.Errorf("notify room %s: %w", roomID, err)
	}
	return nil
}

// Subscribe only filters locally; the LISTEN connection receives every room.
func (s *PostgresStore) Subscribe(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed[roomID] = true
	return nil
}

func (s *PostgresStore) Unsubscribe(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribed, roomID)
	return nil
}

func (s *PostgresStore) SetNotifyFunc(fn NotifyFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// Run holds a pooled connection in LISTEN mode and forwards notifications for
// subscribed rooms. A lost connection is re-established after a short pause.
func (s *PostgresStore) Run(ctx context.Context) error {
	for {
		err := s.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Warnf("listen connection lost, reconnecting: %v", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

// listen takes a connection out of the pool for good: a session in LISTEN mode must
// never be handed to other callers.
func (s *PostgresStore) listen(ctx context.Context) error {
	pooled, err := s.DB.Acquire(ctx)
	if err != nil {
		return err
	}
	conn := pooled.Hijack()
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	s.logger.Debug("listening for room notifications")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		fn := s.notify
		sub := s.subscribed[n.Payload]
		s.mu.Unlock()
		if fn != nil && sub {
			fn(n.Payload)
		}
	}
}

func (s *PostgresStore) Close() error {
	s.DB.Close()
	return nil
}
