package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharsanguruparan/Previo/internal/model"
)

// Key suffixes stored per session.
const (
	keyMeta            = "meta"
	keyCurrentHeader   = "current_header"
	keyCurrentProducts = "current_products"
	keySavedProducts   = "saved_products"
)

type redisMeta struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Step      Step      `json:"step"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type redisProducts struct {
	Products    []model.ProductRecord `json:"products"`
	ActiveIndex int                   `json:"active_index"`
}

// RedisStore keeps each session as a few JSON string keys sharing one TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "previo:session:", ttl: ttl}
}

func (r *RedisStore) key(id, suffix string) string {
	return r.prefix + id + ":" + suffix
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) write(ctx context.Context, s *Session) error {
	meta, err := json.Marshal(redisMeta{ID: s.ID, UserID: s.UserID, Step: s.Step, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt})
	if err != nil {
		return fmt.Errorf("encode session meta: %w", err)
	}
	header, err := json.Marshal(s.Header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	products, err := json.Marshal(redisProducts{Products: model.CurrentRecords(s.Products), ActiveIndex: s.ActiveIndex})
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.key(s.ID, keyMeta), meta, r.ttl)
		p.Set(ctx, r.key(s.ID, keyCurrentHeader), header, r.ttl)
		p.Set(ctx, r.key(s.ID, keyCurrentProducts), products, r.ttl)
		p.Expire(ctx, r.key(s.ID, keySavedProducts), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Create(ctx context.Context, s *Session) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return r.write(ctx, s)
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	vals, err := r.client.MGet(ctx,
		r.key(id, keyMeta), r.key(id, keyCurrentHeader), r.key(id, keyCurrentProducts)).Result()
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	raw := make([]string, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			return nil, ErrNotFound
		}
		raw[i] = s
	}
	var meta redisMeta
	if err := json.Unmarshal([]byte(raw[0]), &meta); err != nil {
		return nil, fmt.Errorf("decode session meta: %w", err)
	}
	s := &Session{ID: meta.ID, UserID: meta.UserID, Step: meta.Step, CreatedAt: meta.CreatedAt, UpdatedAt: meta.UpdatedAt}
	if err := json.Unmarshal([]byte(raw[1]), &s.Header); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	var products redisProducts
	if err := json.Unmarshal([]byte(raw[2]), &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for _, rec := range products.Products {
		s.Products = append(s.Products, rec.Canonical())
	}
	s.ActiveIndex = products.ActiveIndex
	return s, nil
}

func (r *RedisStore) exists(ctx context.Context, id string) error {
	n, err := r.client.Exists(ctx, r.key(id, keyMeta)).Result()
	if err != nil {
		return fmt.Errorf("check session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if err := r.exists(ctx, s.ID); err != nil {
		return err
	}
	s.UpdatedAt = time.Now().UTC()
	return r.write(ctx, s)
}

func (r *RedisStore) SaveForLater(ctx context.Context, id string, products []model.Product) error {
	if err := r.exists(ctx, id); err != nil {
		return err
	}
	data, err := json.Marshal(model.CurrentRecords(products))
	if err != nil {
		return fmt.Errorf("encode saved products: %w", err)
	}
	if err := r.client.Set(ctx, r.key(id, keySavedProducts), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save products for later: %w", err)
	}
	return nil
}

// Saved accepts records of either product schema.
func (r *RedisStore) Saved(ctx context.Context, id string) ([]model.Product, error) {
	if err := r.exists(ctx, id); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, r.key(id, keySavedProducts)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read saved products: %w", err)
	}
	var records []model.ProductRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode saved products: %w", err)
	}
	products := make([]model.Product, 0, len(records))
	for _, rec := range records {
		products = append(products, rec.Canonical())
	}
	return products, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	err := r.client.Del(ctx,
		r.key(id, keyMeta), r.key(id, keyCurrentHeader), r.key(id, keyCurrentProducts), r.key(id, keySavedProducts)).Err()
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
