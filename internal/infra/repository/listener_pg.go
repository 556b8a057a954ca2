package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/feed"
)

type changeNotification struct {
	Op       string `json:"op"`
	ID       uint   `json:"id"`
	ShopID   *uint  `json:"shop_id"`
	BarberID *uint  `json:"barber_id"`
}

// ChangeListener relays postgres NOTIFY payloads from the appointments
// trigger into the hub, so writes made by other processes reach local
// subscribers too.
type ChangeListener struct {
	pool    *pgxpool.Pool
	channel string
	hub     *feed.Hub
	log     *zap.Logger
	backoff time.Duration
}

func NewChangeListener(pool *pgxpool.Pool, channel string, hub *feed.Hub, log *zap.Logger) *ChangeListener {
	return &ChangeListener{
		pool:    pool,
		channel: channel,
		hub:     hub,
		log:     log,
		backoff: 2 * time.Second,
	}
}

// OpenPool dials a small pgx pool dedicated to LISTEN.
func OpenPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 2
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Run blocks until ctx is done, reconnecting after failures.
func (l *ChangeListener) Run(ctx context.Context) {
	for {
		if err := l.listen(ctx); err != nil && ctx.Err() == nil {
			l.log.Warn("appointment listener dropped, retrying",
				zap.Error(err),
				zap.Duration("backoff", l.backoff),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.backoff):
		}
	}
}

func (l *ChangeListener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+l.channel); err != nil {
		return err
	}
	l.log.Info("listening for appointment changes", zap.String("channel", l.channel))

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var payload changeNotification
		if err := json.Unmarshal([]byte(n.Payload), &payload); err != nil {
			l.log.Warn("bad change payload", zap.String("payload", n.Payload), zap.Error(err))
			continue
		}

		l.hub.Publish(feed.Change{
			Op:            feed.Op(payload.Op),
			AppointmentID: payload.ID,
			ProviderKeys:  ProviderKeys(payload.ShopID, payload.BarberID),
		})
	}
}
