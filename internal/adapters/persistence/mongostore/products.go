package mongostore

import (
	"context"
	"time"

	"loanlink/internal/adapters/persistence/repositories"
	"loanlink/internal/core/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type productRepository struct {
	coll *mongo.Collection
}

// NewProductRepository creates a loan product repository backed by the loans collection
func NewProductRepository(db *mongo.Database) repositories.ProductRepository {
	return &productRepository{coll: db.Collection(ProductsCollection)}
}

func (r *productRepository) Create(ctx context.Context, p *domain.LoanProduct) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, productDoc{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Category:     p.Category,
		InterestRate: p.InterestRate,
		MaxAmount:    p.MaxAmount,
		ImageURL:     p.ImageURL,
		Approved:     p.Approved,
		ApprovedAt:   p.ApprovedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	})
	return translate(err)
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.LoanProduct, error) {
	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain(), nil
}

func (r *productRepository) List(ctx context.Context) ([]*domain.LoanProduct, error) {
	return r.find(ctx, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *productRepository) Latest(ctx context.Context, limit int) ([]*domain.LoanProduct, error) {
	return r.find(ctx, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit)))
}

func (r *productRepository) find(ctx context.Context, opts *options.FindOptions) ([]*domain.LoanProduct, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	products := make([]*domain.LoanProduct, len(docs))
	for i := range docs {
		products[i] = docs[i].toDomain()
	}
	return products, nil
}

func (r *productRepository) Update(ctx context.Context, id string, patch repositories.ProductPatch) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.InterestRate != nil {
		set["interestRate"] = *patch.InterestRate
	}
	if patch.MaxAmount != nil {
		set["maxAmount"] = *patch.MaxAmount
	}
	if patch.ImageURL != nil {
		set["image"] = *patch.ImageURL
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrRecordNotFound
	}
	return nil
}

// MarkApproved keeps the first approval time on repeated calls
func (r *productRepository) MarkApproved(ctx context.Context, id string, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "approved": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"approved": true, "approvedAt": at, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return repositories.ErrRecordNotFound
	}
	return nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}
