package broadcast

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/config"
)

// ChangesTopic is the pub/sub channel carrying the key of every write.
const ChangesTopic = "break.changes"

var deleteIfValue = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisClient dials redis and pings it with a short timeout. It returns nil
// when the server is unreachable so callers can fall back to memory.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

// Redis shares state across processes. Writes PUBLISH their key on
// ChangesTopic and one subscription per process fans it out to listeners.
type Redis struct {
	rdb    *redis.Client
	pubsub *redis.PubSub
	subs   *listeners
	log    *zap.Logger
	done   chan struct{}
}

func NewRedis(rdb *redis.Client, log *zap.Logger) *Redis {
	r := &Redis{
		rdb:    rdb,
		pubsub: rdb.Subscribe(context.Background(), ChangesTopic),
		subs:   newListeners(),
		log:    log.With(zap.String("component", "broadcast_redis")),
		done:   make(chan struct{}),
	}

	// wait for the subscription so writes made right after are not missed
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := r.pubsub.Receive(ctx); err != nil {
		r.log.Warn("subscribe not confirmed", zap.Error(err))
	}

	go r.relay()
	return r
}

func (r *Redis) relay() {
	defer close(r.done)
	for msg := range r.pubsub.Channel() {
		r.subs.notify(msg.Payload)
	}
}

func (r *Redis) Close() error {
	err := r.pubsub.Close()
	<-r.done
	return err
}

func (r *Redis) announce(ctx context.Context, key string) {
	if err := r.rdb.Publish(ctx, ChangesTopic, key).Err(); err != nil {
		// readers still converge through their poll
		r.log.Warn("publish failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *Redis) Write(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return err
	}
	r.announce(ctx, key)
	return nil
}

func (r *Redis) Read(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *Redis) WriteIfAbsent(ctx context.Context, key string, value []byte) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, err
	}
	if ok {
		r.announce(ctx, key)
	}
	return ok, nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	n, err := r.rdb.Del(ctx, key).Result()
	if err != nil {
		return err
	}
	if n > 0 {
		r.announce(ctx, key)
	}
	return nil
}

func (r *Redis) DeleteIfValue(ctx context.Context, key string, value []byte) (bool, error) {
	n, err := deleteIfValue.Run(ctx, r.rdb, []string{key}, string(value)).Int64()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	r.announce(ctx, key)
	return true, nil
}

func (r *Redis) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
		seen   = make(map[string]struct{})
	)
	for {
		batch, next, err := r.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *Redis) OnAnyWrite(fn func(key string)) func() {
	return r.subs.add(fn)
}

var _ Channel = (*Redis)(nil)
