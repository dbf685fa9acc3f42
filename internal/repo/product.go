package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/goshop/storefront/internal/models"
)

// ProductQuery is the catalog filter. Zero values impose no constraint.
type ProductQuery struct {
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
	Offset   int
	Limit    int
}

func sortExpr(sort string) string {
	switch sort {
	case "price-asc":
		return "price ASC"
	case "price-desc":
		return "price DESC"
	case "rating-desc":
		return "rating DESC"
	default:
		return "created_at DESC"
	}
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Preload("Reviews").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, q ProductQuery) (int64, []models.Product, error) {
	filtered := func() *gorm.DB {
		db := r.DB.WithContext(ctx).Model(&models.Product{})
		if q.Search != "" {
			db = db.Where("LOWER(name) LIKE LOWER(?)", "%"+q.Search+"%")
		}
		if q.Category != "" {
			db = db.Where("category = ?", q.Category)
		}
		if q.MinPrice != nil {
			db = db.Where("price >= ?", *q.MinPrice)
		}
		if q.MaxPrice != nil {
			db = db.Where("price <= ?", *q.MaxPrice)
		}
		return db
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := filtered().
		Order(sortExpr(q.Sort)).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).
		Where("featured = ?", true).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *GormRepo) SaveProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock applies a guarded decrement. A zero rows-affected
// result means the product is gone or the stock is short; the caller
// distinguishes the two.
func (r *GormRepo) DecrementStock(ctx context.Context, productID, quantity uint) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddReview inserts the review and recomputes the product's rating and
// review count from the full stored list, never incrementally.
func (r *GormRepo) AddReview(ctx context.Context, review *models.Review) error {
	return r.Transaction(ctx, func(tx *GormRepo) error {
		if err := tx.DB.Create(review).Error; err != nil {
			return err
		}

		var reviews []models.Review
		if err := tx.DB.Where("product_id = ?", review.ProductID).Find(&reviews).Error; err != nil {
			return err
		}

		var sum int
		for _, rv := range reviews {
			sum += rv.Rating
		}
		rating := 0.0
		if len(reviews) > 0 {
			rating = float64(sum) / float64(len(reviews))
		}

		return tx.DB.Model(&models.Product{}).
			Where("id = ?", review.ProductID).
			Updates(map[string]any{
				"rating":      rating,
				"num_reviews": len(reviews),
			}).Error
	})
}

func (r *GormRepo) HasReview(ctx context.Context, productID, userID uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).
		Model(&models.Review{}).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
