package repo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	usersCollection     = "users"
	productsCollection  = "products"
	cartItemsCollection = "cart_items"
)

type MongoRepo struct {
	users    *mongo.Collection
	products *mongo.Collection
	cart     *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		users:    db.Collection(usersCollection),
		products: db.Collection(productsCollection),
		cart:     db.Collection(cartItemsCollection),
	}
}

// EnsureIndexes creates the unique indexes the cart merge and registration rely on.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	if _, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	if _, err := m.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create products index: %w", err)
	}

	if _, err := m.cart.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create cart_items index: %w", err)
	}
	return nil
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	return m.users.Database().Client().Ping(ctx, nil)
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	FullName     string    `bson:"full_name"`
	CreatedAt    time.Time `bson:"created_at"`
}

type productDoc struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Price       primitive.Decimal128 `bson:"price"`
	Category    string               `bson:"category"`
	ImageURL    string               `bson:"image_url"`
	Stock       int                  `bson:"stock"`
	Rating      float64              `bson:"rating"`
	CreatedAt   time.Time            `bson:"created_at"`
}

type cartItemDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	ProductID string    `bson:"product_id"`
	Quantity  int       `bson:"quantity"`
	CreatedAt time.Time `bson:"created_at"`
}

func (m *MongoRepo) CreateUser(ctx context.Context, u models.User) error {
	doc := userDoc{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		CreatedAt:    u.CreatedAt,
	}
	if _, err := m.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *MongoRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

func (m *MongoRepo) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

func (m *MongoRepo) findUser(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDoc
	if err := m.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return models.User{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		FullName:     doc.FullName,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func productFilter(f models.ProductFilter) bson.M {
	filter := bson.M{}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"description": re},
		}
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	return filter
}

func (m *MongoRepo) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.products.Find(ctx, productFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}

	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	out := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		p, err := productFromDoc(d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *MongoRepo) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var doc productDoc
	if err := m.products.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Product{}, ErrNotFound
		}
		return models.Product{}, fmt.Errorf("find product: %w", err)
	}
	return productFromDoc(doc)
}

func (m *MongoRepo) GetProductsByIDs(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := m.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for _, d := range docs {
		p, err := productFromDoc(d)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, nil
}

func (m *MongoRepo) Categories(ctx context.Context) ([]string, error) {
	raw, err := m.products.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	cats := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			cats = append(cats, s)
		}
	}
	sort.Strings(cats)
	return cats, nil
}

func (m *MongoRepo) CountProducts(ctx context.Context) (int64, error) {
	return m.products.CountDocuments(ctx, bson.M{})
}

func (m *MongoRepo) CreateProducts(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	docs := make([]any, 0, len(products))
	for _, p := range products {
		price, err := primitive.ParseDecimal128(p.Price.String())
		if err != nil {
			return fmt.Errorf("product %s price: %w", p.Name, err)
		}
		docs = append(docs, productDoc{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Category:    p.Category,
			ImageURL:    p.ImageURL,
			Stock:       p.Stock,
			Rating:      p.Rating,
			CreatedAt:   p.CreatedAt,
		})
	}
	if _, err := m.products.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert products: %w", err)
	}
	return nil
}

// AddCartItem relies on the unique (user_id, product_id) index: the upsert either creates the line or increments it.
func (m *MongoRepo) AddCartItem(ctx context.Context, userID, productID string, quantity int) (models.CartItem, error) {
	filter := bson.M{"user_id": userID, "product_id": productID}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc cartItemDoc
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		update := bson.M{
			"$inc":         bson.M{"quantity": quantity},
			"$setOnInsert": bson.M{"_id": uuid.NewString(), "created_at": time.Now().UTC()},
		}
		err = m.cart.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if err == nil || !mongo.IsDuplicateKeyError(err) {
			break
		}
	}
	if err != nil {
		return models.CartItem{}, fmt.Errorf("upsert cart item: %w", err)
	}
	return cartItemFromDoc(doc), nil
}

func (m *MongoRepo) ListCartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.cart.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find cart items: %w", err)
	}
	var docs []cartItemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}

	out := make([]models.CartItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, cartItemFromDoc(d))
	}
	return out, nil
}

func (m *MongoRepo) SetCartItemQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	res, err := m.cart.UpdateOne(ctx,
		bson.M{"_id": itemID, "user_id": userID},
		bson.M{"$set": bson.M{"quantity": quantity}},
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) DeleteCartItem(ctx context.Context, userID, itemID string) error {
	res, err := m.cart.DeleteOne(ctx, bson.M{"_id": itemID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) ClearCart(ctx context.Context, userID string) error {
	if _, err := m.cart.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func productFromDoc(d productDoc) (models.Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return models.Product{}, fmt.Errorf("product %s price: %w", d.ID, err)
	}
	return models.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
		Stock:       d.Stock,
		Rating:      d.Rating,
		CreatedAt:   d.CreatedAt,
	}, nil
}

func cartItemFromDoc(d cartItemDoc) models.CartItem {
	return models.CartItem{
		ID:        d.ID,
		UserID:    d.UserID,
		ProductID: d.ProductID,
		Quantity:  d.Quantity,
		CreatedAt: d.CreatedAt,
	}
}
