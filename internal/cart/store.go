package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "cart:"
	DefaultTTL   = 24 * time.Hour
	maxTxRetries = 10
)

var ErrConflict = errors.New("cart update conflict")

type Store interface {
	Get(ctx context.Context, ownerKey string) (Cart, error)
	Put(ctx context.Context, ownerKey string, c Cart) error
	Clear(ctx context.Context, ownerKey string) error
	Update(ctx context.Context, ownerKey string, fn func(*Cart) error) (Cart, error)
	List(ctx context.Context) ([]Cart, error)
}

// RedisStore keeps one JSON value per owner under cart:<ownerKey>. Every write
// refreshes the idle TTL.
type RedisStore struct {
	RDB *redis.Client
	TTL time.Duration
	Now func() time.Time
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{RDB: rdb, TTL: ttl, Now: time.Now}
}

type record struct {
	Items     []Item    `json:"items"`
	Email     string    `json:"email,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func key(ownerKey string) string {
	return keyPrefix + ownerKey
}

func decode(ownerKey string, data []byte) (Cart, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return Cart{}, fmt.Errorf("decode cart %s: %w", ownerKey, err)
	}
	if r.Items == nil {
		r.Items = []Item{}
	}
	return Cart{OwnerKey: ownerKey, Items: r.Items, Email: r.Email, UpdatedAt: r.UpdatedAt}, nil
}

func (s *RedisStore) encode(c Cart) ([]byte, error) {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(record{Items: items, Email: c.Email, UpdatedAt: s.Now().UTC()})
}

func (s *RedisStore) Get(ctx context.Context, ownerKey string) (Cart, error) {
	data, err := s.RDB.Get(ctx, key(ownerKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Cart{OwnerKey: ownerKey, Items: []Item{}}, nil
	}
	if err != nil {
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	return decode(ownerKey, data)
}

func (s *RedisStore) Put(ctx context.Context, ownerKey string, c Cart) error {
	data, err := s.encode(c)
	if err != nil {
		return err
	}
	if err := s.RDB.Set(ctx, key(ownerKey), data, s.TTL).Err(); err != nil {
		return fmt.Errorf("put cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, ownerKey string) error {
	if err := s.RDB.Del(ctx, key(ownerKey)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Update runs fn inside WATCH/MULTI on the owner's key and retries when
// another writer touched the key in between. A cart left empty is deleted.
func (s *RedisStore) Update(ctx context.Context, ownerKey string, fn func(*Cart) error) (Cart, error) {
	k := key(ownerKey)
	var out Cart

	txf := func(tx *redis.Tx) error {
		cur := Cart{OwnerKey: ownerKey, Items: []Item{}}
		data, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if cur, err = decode(ownerKey, data); err != nil {
				return err
			}
		}

		if err := fn(&cur); err != nil {
			return err
		}

		payload, err := s.encode(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if cur.IsEmpty() {
				pipe.Del(ctx, k)
			} else {
				pipe.Set(ctx, k, payload, s.TTL)
			}
			return nil
		})
		if err == nil {
			cur.UpdatedAt = s.Now().UTC()
			out = cur
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.RDB.Watch(ctx, txf, k)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return Cart{}, err
	}
	return Cart{}, ErrConflict
}

// List scans every cart key. Carts sort by last update, newest first.
func (s *RedisStore) List(ctx context.Context) ([]Cart, error) {
	var (
		carts  []Cart
		cursor uint64
	)
	for {
		keys, next, err := s.RDB.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan carts: %w", err)
		}
		for _, k := range keys {
			data, err := s.RDB.Get(ctx, k).Bytes()
			if err != nil {
				continue
			}
			c, err := decode(k[len(keyPrefix):], data)
			if err != nil {
				continue
			}
			carts = append(carts, c)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Slice(carts, func(i, j int) bool { return carts[i].UpdatedAt.After(carts[j].UpdatedAt) })
	return carts, nil
}

// Ping reports whether Redis answers.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.RDB.Ping(ctx).Err()
}
