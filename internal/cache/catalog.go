package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/pkg/models"
)

const productsKey = "products:all"

// Catalog caches the full product listing. A miss or a Redis failure sends the
// caller to the database; cache errors never fail a request.
type Catalog interface {
	Products(ctx context.Context) ([]models.Product, bool)
	StoreProducts(ctx context.Context, products []models.Product)
	Invalidate(ctx context.Context)
}

type RedisCatalog struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCatalog(client *redis.Client) *RedisCatalog {
	return &RedisCatalog{Client: client, TTL: 5 * time.Minute}
}

func (c *RedisCatalog) Products(ctx context.Context) ([]models.Product, bool) {
	data, err := c.Client.Get(ctx, productsKey).Bytes()
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		return nil, false
	default:
		logging.FromContext(ctx).Warn("cache_get_failed", "key", productsKey, "error", err)
		return nil, false
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		logging.FromContext(ctx).Warn("cache_decode_failed", "key", productsKey, "error", err)
		return nil, false
	}
	return products, true
}

func (c *RedisCatalog) StoreProducts(ctx context.Context, products []models.Product) {
	data, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, productsKey, data, c.TTL).Err(); err != nil {
		logging.FromContext(ctx).Warn("cache_set_failed", "key", productsKey, "error", err)
	}
}

func (c *RedisCatalog) Invalidate(ctx context.Context) {
	if err := c.Client.Del(ctx, productsKey).Err(); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_failed", "key", productsKey, "error", err)
	}
}

// Nop never hits.
type Nop struct{}

func (Nop) Products(context.Context) ([]models.Product, bool) { return nil, false }

func (Nop) StoreProducts(context.Context, []models.Product) {}

func (Nop) Invalidate(context.Context) {}
