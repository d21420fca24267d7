package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/electro_shop/internal/cache"
	"github.com/Skotchmaster/electro_shop/internal/events"
	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/internal/repo"
	"github.com/Skotchmaster/electro_shop/internal/search"
	"github.com/Skotchmaster/electro_shop/pkg/models"
	"github.com/Skotchmaster/electro_shop/pkg/transport"
)

const recentActivityLimit = 10

type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  cache.Catalog
	Index  search.Index
	Events events.Publisher
	Now    func() time.Time
}

func (s *CatalogService) cache() cache.Catalog {
	if s.Cache == nil {
		return cache.Nop{}
	}
	return s.Cache
}

func (s *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.list")

	if products, ok := s.cache().Products(ctx); ok {
		return products, nil
	}
	products, err := s.Repo.ListProducts(ctx)
	if err != nil {
		return nil, storeErr(l, "list_products", "products", err)
	}
	s.cache().StoreProducts(ctx, products)
	return products, nil
}

func (s *CatalogService) LowStock(ctx context.Context) ([]models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.low_stock")

	products, err := s.Repo.LowStockProducts(ctx, models.LowStockThreshold)
	if err != nil {
		return nil, storeErr(l, "low_stock", "products", err)
	}
	return products, nil
}

// RecentActivities projects the most recently touched products into activity entries.
func (s *CatalogService) RecentActivities(ctx context.Context) ([]transport.ActivityView, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.recent")

	products, err := s.Repo.RecentProducts(ctx, recentActivityLimit)
	if err != nil {
		return nil, storeErr(l, "recent_activities", "products", err)
	}
	out := make([]transport.ActivityView, 0, len(products))
	for _, p := range products {
		out = append(out, transport.ActivityView{
			ID:          p.ID,
			Description: fmt.Sprintf("Product \"%s\" updated/added", p.Name),
			Timestamp:   p.LastModified,
		})
	}
	return out, nil
}

func (s *CatalogService) Create(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create")

	if err := transport.Validate(req); err != nil {
		l.Warn("create_product_error", "status", 400, "error", err)
		return nil, err
	}

	p := &models.Product{
		Name:         req.Name,
		Description:  req.Description,
		Quantity:     *req.Quantity,
		Price:        *req.Price,
		Supplier:     req.Supplier,
		LastModified: utcNow(s.Now),
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, storeErr(l, "create_product", "product", err)
	}

	s.afterWrite(ctx, events.ProductCreated, p)
	l.Info("product_created", "product_id", p.ID)
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.update")

	if err := transport.Validate(req); err != nil {
		l.Warn("update_product_error", "status", 400, "error", err)
		return nil, err
	}

	p, err := s.Repo.PatchProduct(ctx, id, req, utcNow(s.Now))
	if err != nil {
		return nil, storeErr(l, "update_product", "Product not found", err)
	}

	s.afterWrite(ctx, events.ProductUpdated, p)
	l.Info("product_updated", "product_id", p.ID)
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete")

	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return storeErr(l, "delete_product", "Product not found", err)
	}

	s.cache().Invalidate(ctx)
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			l.Warn("search_unindex_failed", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProducts, id.String(), events.ProductDeleted,
		map[string]any{"productId": id}, utcNow(s.Now))
	l.Info("product_deleted", "product_id", id)
	return nil
}

func (s *CatalogService) Search(ctx context.Context, q string, page, size int) (int64, []models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.search")

	q = search.Sanitize(q)
	if q == "" {
		return 0, []models.Product{}, nil
	}
	from, limit := search.Page(page, size)

	idx := s.Index
	if idx == nil {
		idx = &search.DBIndex{Repo: s.Repo}
	}
	total, items, err := idx.Search(ctx, q, from, limit)
	if err != nil {
		return 0, nil, storeErr(l, "search_products", "products", err)
	}
	if items == nil {
		items = []models.Product{}
	}
	return total, items, nil
}

func (s *CatalogService) afterWrite(ctx context.Context, eventType string, p *models.Product) {
	s.cache().Invalidate(ctx)
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, *p); err != nil {
			logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProducts, p.ID.String(), eventType,
		map[string]any{"productId": p.ID, "name": p.Name, "quantity": p.Quantity, "price": p.Price}, p.LastModified)
}

// Reindex pushes every product into the search index. It stops at the first failure.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.reindex")

	if s.Index == nil {
		return 0, nil
	}
	products, err := s.Repo.ListProducts(ctx)
	if err != nil {
		return 0, storeErr(l, "list_products", "products", err)
	}
	for i, p := range products {
		if err := s.Index.IndexProduct(ctx, p); err != nil {
			l.Error("reindex_failed", "product_id", p.ID, "error", err)
			return i, fmt.Errorf("index product %s: %w", p.ID, err)
		}
	}
	l.Info("reindex_done", "count", len(products))
	return len(products), nil
}
