package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/goshop/storefront/internal/events"
	"github.com/goshop/storefront/internal/logging"
	"github.com/goshop/storefront/internal/models"
	"github.com/goshop/storefront/internal/repo"
	"github.com/goshop/storefront/internal/transport"
	"github.com/goshop/storefront/internal/util"
)

// ProductIndexer mirrors catalog mutations into the search index.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

type CatalogService struct {
	Repo     *repo.GormRepo
	Producer events.Publisher
	Indexer  ProductIndexer
}

func (s *CatalogService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.Publish(ctx, events.TopicProductEvents, key, event); err != nil {
		logging.FromContext(ctx).Warn("product_event_publish_failed", "error", err)
	}
}

func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("product_index_failed", "product_id", p.ID, "error", err)
	}
}

type ListParams struct {
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
	Page     int
	Limit    int
}

// ListProducts applies the catalog filters and returns one page plus the
// total match count and page count.
func (s *CatalogService) ListProducts(ctx context.Context, p ListParams) (*transport.ProductPage, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	offset, limit := util.Calculate(p.Page, p.Limit)

	total, items, err := s.Repo.ListProducts(ctx, repo.ProductQuery{
		Search:   p.Search,
		Category: p.Category,
		MinPrice: p.MinPrice,
		MaxPrice: p.MaxPrice,
		Sort:     p.Sort,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	if items == nil {
		items = []models.Product{}
	}
	return &transport.ProductPage{
		Products: items,
		Total:    total,
		Page:     p.Page,
		Pages:    util.Pages(total, limit),
	}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.FeaturedProducts(ctx, 8)
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.Repo.Categories(ctx)
}

func validateProduct(req transport.CreateProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if strings.TrimSpace(req.Category) == "" {
		return fmt.Errorf("%w: category required", ErrValidation)
	}
	if req.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Category:    strings.TrimSpace(req.Category),
		Image:       req.Image,
		Brand:       req.Brand,
		Stock:       req.Stock,
		Featured:    req.Featured,
	}
	if err := s.Repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, fmt.Sprint(product.ID), map[string]any{
		"type":       "product_created",
		"product_id": product.ID,
		"name":       product.Name,
	})
	s.reindex(ctx, product)
	return product, nil
}

// UpdateProduct replaces the mutable fields wholesale. Rating and review
// count stay derived from the review list.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.CreateProductRequest) (*models.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}

	product.Name = strings.TrimSpace(req.Name)
	product.Description = req.Description
	product.Price = req.Price
	product.Category = strings.TrimSpace(req.Category)
	product.Image = req.Image
	product.Brand = req.Brand
	product.Stock = req.Stock
	product.Featured = req.Featured

	if err := s.Repo.SaveProduct(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, fmt.Sprint(product.ID), map[string]any{
		"type":       "product_updated",
		"product_id": product.ID,
		"name":       product.Name,
	})
	s.reindex(ctx, product)
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return err
	}

	s.publish(ctx, fmt.Sprint(id), map[string]any{
		"type":       "product_deleted",
		"product_id": id,
	})
	if s.Indexer != nil {
		if err := s.Indexer.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("product_index_delete_failed", "product_id", id, "error", err)
		}
	}
	return nil
}

// AddReview rejects a second review from the same author and recomputes
// the product rating from the full review list.
func (s *CatalogService) AddReview(ctx context.Context, productID uint, user *models.User, req transport.ReviewRequest) (*models.Product, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if strings.TrimSpace(req.Comment) == "" {
		return nil, fmt.Errorf("%w: comment required", ErrValidation)
	}

	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	reviewed, err := s.Repo.HasReview(ctx, productID, user.ID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, fmt.Errorf("%w: product already reviewed", ErrValidation)
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    user.ID,
		Name:      user.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.Repo.AddReview(ctx, review); err != nil {
		return nil, err
	}

	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, fmt.Sprint(productID), map[string]any{
		"type":       "review_added",
		"product_id": productID,
		"user_id":    user.ID,
		"rating":     req.Rating,
	})
	s.reindex(ctx, product)
	return product, nil
}
