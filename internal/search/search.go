// Package search finds products by free text. Elasticsearch is used when configured,
// otherwise a substring match over the products table.
package search

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/electro_shop/internal/repo"
	"github.com/Skotchmaster/electro_shop/pkg/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Index interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, q string, from, size int) (int64, []models.Product, error)
}

// Page turns a 1-based page and size into offset and limit.
func Page(page, size int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

func Sanitize(q string) string {
	return strings.TrimSpace(q)
}

// DBIndex reads straight from the products table, so there is nothing to index.
type DBIndex struct {
	Repo *repo.GormRepo
}

func (d *DBIndex) IndexProduct(context.Context, models.Product) error { return nil }

func (d *DBIndex) DeleteProduct(context.Context, uuid.UUID) error { return nil }

func (d *DBIndex) Search(ctx context.Context, q string, from, size int) (int64, []models.Product, error) {
	return d.Repo.SearchProducts(ctx, q, from, size)
}
