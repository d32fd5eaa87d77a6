// Package mongostore is the MongoDB backend.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"storefront/model"
	"storefront/service"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productsCollection = "products"
	usersCollection    = "users"
	cartsCollection    = "carts"
	ordersCollection   = "orders"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the connection and ensures indexes on dbName.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	s := &Store{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create mongo indexes: %w", err)
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		cartsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "reference", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{
				Keys: bson.D{{Key: "userId", Value: 1}, {Key: "idempotencyKey", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$gt": ""}}),
			},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "brand", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Products() service.ProductRepository {
	return &productRepo{coll: s.db.Collection(productsCollection)}
}

func (s *Store) Users() service.UserRepository {
	return &userRepo{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Carts() service.CartRepository {
	return &cartRepo{coll: s.db.Collection(cartsCollection)}
}

func (s *Store) Orders() service.OrderRepository {
	return &orderRepo{coll: s.db.Collection(ordersCollection), carts: s.db.Collection(cartsCollection)}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.ErrNotFound
	}
	return err
}

type productRepo struct {
	coll *mongo.Collection
}

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	if _, err := r.coll.InsertOne(ctx, toProductDoc(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *productRepo) Get(ctx context.Context, id string) (*model.Product, error) {
	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	p := doc.toModel()
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*model.Product, error) {
	out := make(map[string]*model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	docs, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for i := range docs {
		out[docs[i].ID] = &docs[i]
	}
	return out, nil
}

func (r *productRepo) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	return r.find(ctx, productQuery(filter))
}

func (r *productRepo) find(ctx context.Context, query bson.M) ([]model.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	docs := make([]productDoc, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toModel())
	}
	return out, nil
}

func productQuery(filter model.ProductFilter) bson.M {
	query := bson.M{}
	if filter.ActiveOnly {
		query["isActive"] = true
	}
	if filter.OnSale {
		query["sale.isOnSale"] = true
	}
	if filter.Category != "" {
		query["category"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(filter.Category) + "$", Options: "i"}
	}
	if filter.Brand != "" {
		query["brand"] = filter.Brand
	}
	if filter.NameContains != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.NameContains), Options: "i"}
	}
	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = toDecimal128(*filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		price["$lte"] = toDecimal128(*filter.MaxPrice)
	}
	if len(price) > 0 {
		query["price"] = price
	}
	return query
}

func (r *productRepo) Distinct(ctx context.Context, field model.ProductField, activeOnly bool) ([]string, error) {
	query := bson.M{}
	if activeOnly {
		query["isActive"] = true
	}
	values, err := r.coll.Distinct(ctx, string(field), query)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, toProductDoc(p))
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *productRepo) SetActive(ctx context.Context, id string, active bool) (*model.Product, error) {
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	p := doc.toModel()
	return &p, nil
}

func (r *productRepo) Delete(ctx context.Context, id string) (*model.Product, error) {
	var doc productDoc
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	p := doc.toModel()
	return &p, nil
}

type userRepo struct {
	coll *mongo.Collection
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	if _, err := r.coll.InsertOne(ctx, toUserDoc(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *userRepo) Get(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepo) findOne(ctx context.Context, query bson.M) (*model.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, query).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	u := doc.toModel()
	return &u, nil
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	docs := make([]userDoc, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toModel())
	}
	return out, nil
}

func (r *userRepo) SetAdmin(ctx context.Context, id string) error {
	return r.set(ctx, id, bson.M{"isAdmin": true})
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.set(ctx, id, bson.M{"password": passwordHash})
}

func (r *userRepo) set(ctx context.Context, id string, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *userRepo) AddLike(ctx context.Context, userID, productID string) (bool, error) {
	query := bson.M{"_id": userID, "likedProducts": bson.M{"$ne": productID}}
	update := bson.M{"$push": bson.M{"likedProducts": productID}}
	return r.changeLikes(ctx, userID, query, update)
}

func (r *userRepo) RemoveLike(ctx context.Context, userID, productID string) (bool, error) {
	query := bson.M{"_id": userID, "likedProducts": productID}
	update := bson.M{"$pull": bson.M{"likedProducts": productID}}
	return r.changeLikes(ctx, userID, query, update)
}

// changeLikes applies update when query matches. A miss is either an absent
// user or a no-op change, told apart by a follow-up count.
func (r *userRepo) changeLikes(ctx context.Context, userID string, query, update bson.M) (bool, error) {
	result, err := r.coll.UpdateOne(ctx, query, update)
	if err != nil {
		return false, err
	}
	if result.MatchedCount > 0 {
		return true, nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, model.ErrNotFound
	}
	return false, nil
}

type cartRepo struct {
	coll *mongo.Collection
}

func (r *cartRepo) GetByUser(ctx context.Context, userID string) (*model.Cart, error) {
	var doc cartDoc
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	c := doc.toModel()
	return &c, nil
}

func (r *cartRepo) Save(ctx context.Context, cart *model.Cart) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.coll.ReplaceOne(ctx, bson.M{"userId": cart.UserID}, toCartDoc(cart), opts)
	return err
}

type orderRepo struct {
	coll  *mongo.Collection
	carts *mongo.Collection
}

// Create inserts o. Without a replica set there is no multi-document
// transaction, so clearing the cart is a second write whose failure is logged.
func (r *orderRepo) Create(ctx context.Context, o *model.Order, clearCart bool) error {
	if _, err := r.coll.InsertOne(ctx, toOrderDoc(o)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrDuplicate
		}
		return err
	}
	if !clearCart {
		return nil
	}
	update := bson.M{"$set": bson.M{
		"cartItems":  []cartItemDoc{},
		"totalPrice": toDecimal128(decimal.Zero),
		"updatedAt":  time.Now().UTC(),
	}}
	if _, err := r.carts.UpdateOne(ctx, bson.M{"userId": o.UserID}, update); err != nil {
		logrus.WithError(err).WithField("orderId", o.ID).Error("failed to clear cart after checkout")
	}
	return nil
}

func (r *orderRepo) Get(ctx context.Context, id string) (*model.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *orderRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (*model.Order, error) {
	return r.findOne(ctx, bson.M{"userId": userID, "idempotencyKey": key})
}

func (r *orderRepo) findOne(ctx context.Context, query bson.M) (*model.Order, error) {
	var doc orderDoc
	if err := r.coll.FindOne(ctx, query).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	o := doc.toModel()
	return &o, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *orderRepo) List(ctx context.Context) ([]model.Order, error) {
	return r.find(ctx, bson.M{})
}

func (r *orderRepo) find(ctx context.Context, query bson.M) ([]model.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	docs := make([]orderDoc, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Order, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toModel())
	}
	return out, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	update := bson.M{"$set": bson.M{"status": string(status), "updatedAt": time.Now().UTC()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
