package mongostore

import (
	"context"
	"errors"
	"time"

	"loanlink/internal/adapters/persistence/repositories"
	"loanlink/internal/core/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type applicationRepository struct {
	coll *mongo.Collection
}

// NewApplicationRepository creates a loan application repository
func NewApplicationRepository(db *mongo.Database) repositories.ApplicationRepository {
	return &applicationRepository{coll: db.Collection(ApplicationsCollection)}
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.LoanApplication) error {
	_, err := r.coll.InsertOne(ctx, applicationDocFrom(app))
	return translate(err)
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.LoanApplication, error) {
	var doc applicationDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toDomain()
}

func (r *applicationRepository) Find(ctx context.Context, q repositories.ApplicationQuery) ([]*domain.LoanApplication, error) {
	filter := bson.M{}
	if q.OwnerEmail != "" {
		filter["ownerEmail"] = q.OwnerEmail
	}
	if q.Status != "" {
		filter["status"] = string(q.Status)
	}

	opts := options.Find().SetSort(bson.D{{Key: "appliedAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []applicationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	apps := make([]*domain.LoanApplication, 0, len(docs))
	for i := range docs {
		app, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// DecidePending uses FindOneAndUpdate with a status filter so only one decision wins
func (r *applicationRepository) DecidePending(ctx context.Context, id string, d repositories.Decision) (*domain.LoanApplication, error) {
	set := bson.M{
		"status":    string(d.Status),
		"decidedAt": d.DecidedAt,
		"decidedBy": d.DecidedBy,
	}
	if d.Note != "" {
		set["decisionNote"] = d.Note
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc applicationDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": string(domain.StatusPending)},
		bson.M{"$set": set},
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrConditionFailed
	}
	if err != nil {
		return nil, translate(err)
	}
	return doc.toDomain()
}

func (r *applicationRepository) DeletePendingOwned(ctx context.Context, id, ownerEmail string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{
		"_id":        id,
		"ownerEmail": ownerEmail,
		"status":     string(domain.StatusPending),
	})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return repositories.ErrConditionFailed
	}
	return nil
}

func (r *applicationRepository) PendingStats(ctx context.Context) (int64, *time.Time, error) {
	filter := bson.M{"status": string(domain.StatusPending)}
	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil || count == 0 {
		return 0, nil, err
	}

	var doc applicationDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "appliedAt", Value: 1}})
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return 0, nil, translate(err)
	}
	return count, &doc.AppliedAt, nil
}
