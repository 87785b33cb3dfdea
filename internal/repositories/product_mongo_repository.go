package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"solarshop/internal/models"
)

// MongoConfig holds the document store connection details.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore owns the client connection shared by every request. It is
// created once at startup and closed at shutdown.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// OpenMongo connects to the document store, verifies the connection and
// ensures the product indexes exist.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo URI is required")
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(10).
		SetServerSelectionTimeout(15 * time.Second).
		SetConnectTimeout(15 * time.Second).
		SetSocketTimeout(45 * time.Second).
		SetMaxConnIdleTime(30 * time.Second).
		SetRetryWrites(true).
		SetReadPreference(readpref.Primary())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := store.Products().EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Printf("Connected to MongoDB database %s (collection %s)", cfg.Database, cfg.Collection)
	return store, nil
}

// Products returns the repository bound to the product collection.
func (s *MongoStore) Products() *MongoProductRepository {
	return NewMongoProductRepository(s.collection)
}

// Ping checks that the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// MongoProductRepository is a MongoDB implementation of ProductRepository.
// Documents use the product ID string as _id.
type MongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a repository over collection.
func NewMongoProductRepository(collection *mongo.Collection) *MongoProductRepository {
	return &MongoProductRepository{collection: collection}
}

// EnsureIndexes creates the unique name index and the indexes used by
// listing filters.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true).SetName("name_unique")},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "wattage", Value: 1}}},
	})
	if err != nil {
		return r.wrap("failed to create product indexes", err)
	}
	return nil
}

var mongoSortKeys = map[string]bson.E{
	models.SortByName:    {Key: "name", Value: 1},
	models.SortByPrice:   {Key: "priceAmount", Value: 1},
	models.SortByWattage: {Key: "wattage", Value: -1},
	models.SortByNewest:  {Key: "createdAt", Value: -1},
	models.SortByRating:  {Key: "rating", Value: -1},
}

func mongoFilter(filter models.ProductFilter) bson.M {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.InStock != nil {
		query["inStock"] = *filter.InStock
	}
	wattage := bson.M{}
	if filter.MinWattage != nil {
		wattage["$gte"] = *filter.MinWattage
	}
	if filter.MaxWattage != nil {
		wattage["$lte"] = *filter.MaxWattage
	}
	if len(wattage) > 0 {
		query["wattage"] = wattage
	}
	return query
}

// Find retrieves a filtered, sorted page of products.
func (r *MongoProductRepository) Find(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	filter = filter.Normalize()
	query := mongoFilter(filter)

	opts := options.Find().
		SetSort(bson.D{mongoSortKeys[filter.SortBy], {Key: "_id", Value: 1}}).
		SetSkip(int64(filter.Skip)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, r.wrap("failed to fetch products", err)
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, r.wrap("failed to decode products", err)
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, r.wrap("failed to count products", err)
	}
	return products, total, nil
}

// GetByID retrieves a single product by its ID.
func (r *MongoProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, r.wrap(fmt.Sprintf("failed to get product by ID %s", id), err)
	}
	return &product, nil
}

// FindByName retrieves a product by exact name, skipping excludeID.
func (r *MongoProductRepository) FindByName(ctx context.Context, name, excludeID string) (*models.Product, error) {
	query := bson.M{"name": name}
	if excludeID != "" {
		query["_id"] = bson.M{"$ne": excludeID}
	}
	var product models.Product
	if err := r.collection.FindOne(ctx, query).Decode(&product); err != nil {
		return nil, r.wrap(fmt.Sprintf("failed to get product by name %q", name), err)
	}
	return &product, nil
}

// Create inserts product, assigning an ObjectID-derived ID when none is set.
func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return r.wrap("failed to create product", err)
	}
	return nil
}

// Update applies a $set of the supplied fields.
func (r *MongoProductRepository) Update(ctx context.Context, id string, changes models.ProductChanges) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": mongoSet(changes)})
	if err != nil {
		return r.wrap("failed to update product", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("product with ID %s not found for update: %w", id, ErrNotFound)
	}
	return nil
}

func mongoSet(c models.ProductChanges) bson.M {
	set := bson.M{"updatedAt": c.UpdatedAt}
	put := func(key string, ok bool, value func() interface{}) {
		if ok {
			set[key] = value()
		}
	}
	put("name", c.Name != nil, func() interface{} { return *c.Name })
	put("price", c.Price != nil, func() interface{} { return *c.Price })
	put("priceAmount", c.PriceAmount != nil, func() interface{} { return *c.PriceAmount })
	put("image", c.Image != nil, func() interface{} { return *c.Image })
	put("alt", c.Alt != nil, func() interface{} { return *c.Alt })
	put("category", c.Category != nil, func() interface{} { return *c.Category })
	put("wattage", c.Wattage != nil, func() interface{} { return *c.Wattage })
	put("description", c.Description != nil, func() interface{} { return *c.Description })
	put("features", c.Features != nil, func() interface{} { return *c.Features })
	put("inStock", c.InStock != nil, func() interface{} { return *c.InStock })
	put("rating", c.Rating != nil, func() interface{} { return *c.Rating })
	put("reviews", c.Reviews != nil, func() interface{} { return *c.Reviews })
	put("createdAt", c.CreatedAt != nil, func() interface{} { return *c.CreatedAt })
	return set
}

// Delete removes a product and reports how many documents were deleted.
func (r *MongoProductRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, r.wrap("failed to delete product", err)
	}
	return res.DeletedCount, nil
}

// Stats runs a single faceted aggregation over the collection.
func (r *MongoProductRepository) Stats(ctx context.Context) (*models.ProductStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$facet", Value: bson.D{
			{Key: "summary", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: nil},
					{Key: "totalProducts", Value: bson.D{{Key: "$sum", Value: 1}}},
					{Key: "averageRating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
					{Key: "totalInStock", Value: bson.D{{Key: "$sum", Value: bson.D{
						{Key: "$cond", Value: bson.A{"$inStock", 1, 0}},
					}}}},
				}}},
			}},
			{Key: "categories", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: "$category"},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				}}},
			}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, r.wrap("failed to aggregate products", err)
	}
	var results []struct {
		Summary []struct {
			TotalProducts int64   `bson:"totalProducts"`
			AverageRating float64 `bson:"averageRating"`
			TotalInStock  int64   `bson:"totalInStock"`
		} `bson:"summary"`
		Categories []struct {
			Category string `bson:"_id"`
			Count    int64  `bson:"count"`
		} `bson:"categories"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, r.wrap("failed to decode product stats", err)
	}

	stats := &models.ProductStats{CategoryBreakdown: map[string]int64{}}
	if len(results) == 0 {
		return stats, nil
	}
	if len(results[0].Summary) > 0 {
		s := results[0].Summary[0]
		stats.TotalProducts = s.TotalProducts
		stats.AverageRating = s.AverageRating
		stats.TotalInStock = s.TotalInStock
	}
	for _, c := range results[0].Categories {
		stats.CategoryBreakdown[c.Category] = c.Count
	}
	return stats, nil
}

// Count returns the number of stored products.
func (r *MongoProductRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, r.wrap("failed to count products", err)
	}
	return n, nil
}

func (r *MongoProductRepository) wrap(msg string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w: %w", msg, ErrUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
