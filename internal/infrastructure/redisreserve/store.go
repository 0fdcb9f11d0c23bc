package redisreserve

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/sixteenfood/qlsx/internal/application/inventory"
	"github.com/sixteenfood/qlsx/internal/domain/entity"
)

// Store keeps soft reservations as redis keys with a TTL; expiry is redis's
// job, so a crashed reserver never leaks a hold. Key layout:
//
//	reserve:{productID}:{warehouseID}:{reservationID} -> JSON hold
//	reserveidx:{reservationID}                        -> full key (release path)
type Store struct {
	client *redis.Client
}

var _ inventory.ReservationStore = (*Store)(nil)

// New connects a reservation store.
func New(addr, password string, db int) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: client}
}

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

type hold struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

func holdKey(productID, warehouseID, id string) string {
	return fmt.Sprintf("reserve:%s:%s:%s", productID, warehouseID, id)
}

func indexKey(id string) string {
	return "reserveidx:" + id
}

// Put stores a reservation under its TTL.
func (s *Store) Put(ctx context.Context, r entity.Reservation, ttl time.Duration) error {
	payload, err := json.Marshal(hold{
		ID:          r.ID,
		ProductID:   r.ProductID,
		WarehouseID: r.WarehouseID,
		Quantity:    r.Quantity,
		ExpiresAt:   r.ExpiresAt,
	})
	if err != nil {
		return err
	}
	key := holdKey(r.ProductID, r.WarehouseID, r.ID)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, payload, ttl)
	pipe.Set(ctx, indexKey(r.ID), key, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Release drops a reservation before its TTL. Releasing an unknown or expired
// id is a no-op.
func (s *Store) Release(ctx context.Context, id string) error {
	key, err := s.client.Get(ctx, indexKey(id)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, indexKey(id))
	_, err = pipe.Exec(ctx)
	return err
}

// ActiveQuantity sums unexpired holds for one (product, warehouse) key.
func (s *Store) ActiveQuantity(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	return s.sumByPattern(ctx, holdKey(productID, warehouseID, "*"))
}

// ActiveByProduct sums unexpired holds for a product across warehouses.
func (s *Store) ActiveByProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	return s.sumByPattern(ctx, fmt.Sprintf("reserve:%s:*", productID))
}

func (s *Store) sumByPattern(ctx context.Context, pattern string) (decimal.Decimal, error) {
	total := decimal.Zero
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		val, err := s.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return decimal.Zero, err
		}
		var h hold
		if err := json.Unmarshal([]byte(val), &h); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(h.Quantity)
	}
	if err := iter.Err(); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
