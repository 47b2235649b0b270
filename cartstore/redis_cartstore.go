package cartstore

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	connectAttempts = 30
	maxBackoff      = 30 * time.Second

	// Bounded retries for the optimistic write mode. A WATCH conflict
	// means another writer got in between read and write; a handful of
	// retries is plenty for per-user cart keys.
	casRetries = 5
)

// RedisOptions carries the connection settings for the Redis-backed store.
type RedisOptions struct {
	Addr     string
	Password string
	// TLS is honored only together with a password, matching the
	// deployment layouts this service ships into (TLS fronting managed
	// Redis with auth, plaintext for in-cluster Redis without).
	TLS bool
	// Optimistic switches Update from plain get-then-set to a
	// WATCH/MULTI transaction with retries. Off by default: the
	// documented behavior of the service is last-write-wins.
	Optimistic bool
}

// RedisCartStore is the Redis implementation of CartStore.
type RedisCartStore struct {
	client     *redis.Client
	optimistic bool
	log        logrus.FieldLogger
}

// NewRedisCartStore builds the store from connection options. The
// connection is not verified here; call Initialize before serving.
func NewRedisCartStore(opts RedisOptions, log logrus.FieldLogger) *RedisCartStore {
	ro := &redis.Options{
		Addr:         opts.Addr,
		MinIdleConns: 1,
		DialTimeout:  30 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		PoolSize:     10,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  180 * time.Second,
	}
	if opts.Password != "" {
		ro.Password = opts.Password
		if opts.TLS {
			ro.TLSConfig = &tls.Config{}
		}
	}
	return &RedisCartStore{
		client:     redis.NewClient(ro),
		optimistic: opts.Optimistic,
		log:        log,
	}
}

// Initialize pings Redis until it answers, with exponential backoff. The
// caller treats failure as fatal: the service cannot run without its store.
func (r *RedisCartStore) Initialize(ctx context.Context) error {
	for i := 0; i < connectAttempts; i++ {
		if r.Ping(ctx) {
			r.log.Info("connected to redis")
			return nil
		}
		backoff := time.Duration(1<<uint(i)) * time.Second
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		r.log.WithField("backoff", backoff).Warn("redis not reachable, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return errors.Errorf("failed to connect to redis after %d attempts", connectAttempts)
}

func (r *RedisCartStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis EXISTS")
	}
	return n > 0, nil
}

func (r *RedisCartStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis GET")
	}
	return val, true, nil
}

func (r *RedisCartStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Wrap(err, "redis SET")
	}
	return nil
}

func (r *RedisCartStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "redis DEL")
	}
	return nil
}

func (r *RedisCartStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := r.client.Keys(ctx, "*").Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis KEYS")
	}
	return keys, nil
}

func (r *RedisCartStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if !r.optimistic {
		current, found, err := r.Get(ctx, key)
		if err != nil {
			return err
		}
		next, err := fn(current, found)
		if err != nil || next == nil {
			return err
		}
		return r.Set(ctx, key, next)
	}

	txn := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		found := true
		if err == redis.Nil {
			current, found = nil, false
		} else if err != nil {
			return errors.Wrap(err, "redis GET")
		}
		next, err := fn(current, found)
		if err != nil || next == nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < casRetries; i++ {
		err := r.client.Watch(ctx, txn, key)
		if err != redis.TxFailedErr {
			return err
		}
		r.log.WithField("key", key).Debug("optimistic write conflict, retrying")
	}
	return errors.Errorf("update of %q kept conflicting after %d attempts", key, casRetries)
}

func (r *RedisCartStore) FlushAll(ctx context.Context) error {
	if err := r.client.FlushAll(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis FLUSHALL")
	}
	return nil
}

func (r *RedisCartStore) Info(ctx context.Context) (string, error) {
	info, err := r.client.Info(ctx).Result()
	if err != nil {
		return "", errors.Wrap(err, "redis INFO")
	}
	return info, nil
}

func (r *RedisCartStore) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(pingCtx).Err(); err != nil {
		r.log.WithError(err).Debug("redis ping failed")
		return false
	}
	return true
}
