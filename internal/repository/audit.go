package repository

import (
	"context"
	"togglehub/internal/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const auditCollection = "audit_logs"

// AuditInterface defines the interface for the audit-trail document store.
type AuditInterface interface {
	Insert(ctx context.Context, record *model.AuditRecord) error
	List(ctx context.Context, offset, limit int64) ([]model.AuditRecord, error)
	ListByEntity(ctx context.Context, entity string, entityID uint64) ([]model.AuditRecord, error)
	Ping(ctx context.Context) error
}

// AuditRepository persists audit records in MongoDB.
type AuditRepository struct {
	coll   *mongo.Collection
	client *mongo.Client
}

func NewAuditRepository(client *mongo.Client, database string) *AuditRepository {
	return &AuditRepository{
		coll:   client.Database(database).Collection(auditCollection),
		client: client,
	}
}

func (r *AuditRepository) Insert(ctx context.Context, record *model.AuditRecord) error {
	_, err := r.coll.InsertOne(ctx, record)
	return err
}

func (r *AuditRepository) List(ctx context.Context, offset, limit int64) ([]model.AuditRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []model.AuditRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entity string, entityID uint64) ([]model.AuditRecord, error) {
	filter := bson.D{
		{Key: "entity", Value: entity},
		{Key: "entity_id", Value: entityID},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []model.AuditRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *AuditRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}
