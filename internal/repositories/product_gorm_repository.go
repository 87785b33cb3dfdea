package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"solarshop/internal/models"
)

// OpenGORM opens a relational product store. driver is "postgres" or "sqlite".
// The product table is migrated before returning.
func OpenGORM(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return db, nil
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Ping checks the database connection.
func (r *GORMProductRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (r *GORMProductRepository) Close(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var gormSortColumns = map[string]string{
	models.SortByName:    "name ASC",
	models.SortByPrice:   "price_amount ASC",
	models.SortByWattage: "wattage DESC NULLS LAST",
	models.SortByNewest:  "created_at DESC",
	models.SortByRating:  "rating DESC",
}

// Find retrieves a filtered, sorted page of products from the database.
func (r *GORMProductRepository) Find(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	filter = filter.Normalize()

	q := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.InStock != nil {
		q = q.Where("in_stock = ?", *filter.InStock)
	}
	if filter.MinWattage != nil {
		q = q.Where("wattage >= ?", *filter.MinWattage)
	}
	if filter.MaxWattage != nil {
		q = q.Where("wattage <= ?", *filter.MaxWattage)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, r.wrap("failed to count products", err)
	}

	var products []models.Product
	err := q.Order(gormSortColumns[filter.SortBy]).Order("id ASC").
		Offset(filter.Skip).Limit(filter.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, r.wrap("failed to get products", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, r.wrap(fmt.Sprintf("failed to get product by ID %s", id), err)
	}
	return &product, nil
}

// FindByName retrieves a product by exact name, skipping excludeID.
func (r *GORMProductRepository) FindByName(ctx context.Context, name, excludeID string) (*models.Product, error) {
	q := r.db.WithContext(ctx).Where("name = ?", name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var product models.Product
	if err := q.First(&product).Error; err != nil {
		return nil, r.wrap(fmt.Sprintf("failed to get product by name %q", name), err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return r.wrap("failed to create product", err)
	}
	return nil
}

// Update writes the supplied fields of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, id string, changes models.ProductChanges) error {
	var values models.Product
	values.Apply(changes)

	res := r.db.WithContext(ctx).Model(&models.Product{ID: id}).
		Select(changes.Fields()).
		Updates(&values)
	if res.Error != nil {
		return r.wrap("failed to update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for update: %w", id, ErrNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return 0, r.wrap("failed to delete product", res.Error)
	}
	return res.RowsAffected, nil
}

// Stats aggregates the catalog with two grouped queries.
func (r *GORMProductRepository) Stats(ctx context.Context) (*models.ProductStats, error) {
	var summary struct {
		TotalProducts int64
		AverageRating *float64
		TotalInStock  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("COUNT(*) AS total_products, AVG(rating) AS average_rating, " +
			"COALESCE(SUM(CASE WHEN in_stock THEN 1 ELSE 0 END), 0) AS total_in_stock").
		Scan(&summary).Error
	if err != nil {
		return nil, r.wrap("failed to aggregate products", err)
	}

	var rows []struct {
		Category string
		Count    int64
	}
	err = r.db.WithContext(ctx).Model(&models.Product{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, r.wrap("failed to group products by category", err)
	}

	stats := &models.ProductStats{
		TotalProducts:     summary.TotalProducts,
		TotalInStock:      summary.TotalInStock,
		CategoryBreakdown: make(map[string]int64, len(rows)),
	}
	if summary.AverageRating != nil {
		stats.AverageRating = *summary.AverageRating
	}
	for _, row := range rows {
		stats.CategoryBreakdown[row.Category] = row.Count
	}
	return stats, nil
}

// Count returns the number of stored products.
func (r *GORMProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, r.wrap("failed to count products", err)
	}
	return n, nil
}

func (r *GORMProductRepository) wrap(msg string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %w", msg, ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
