package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/electro_shop/pkg/models"
)

func TestNop(t *testing.T) {
	t.Parallel()

	var c Catalog = Nop{}
	c.StoreProducts(context.Background(), []models.Product{{Name: "Kettle"}})
	_, ok := c.Products(context.Background())
	assert.False(t, ok)
}

func TestRedisCatalog_UnreachableIsAMiss(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisCatalog(client)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	c.StoreProducts(ctx, []models.Product{{Name: "Kettle"}})
	c.Invalidate(ctx)
	products, ok := c.Products(ctx)
	assert.False(t, ok)
	assert.Nil(t, products)
}
