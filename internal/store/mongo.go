package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrovision/cattle-api/internal/models"
)

// MongoUsers is the MongoDB credential store.
type MongoUsers struct {
	col *mongo.Collection
}

// NewMongoUsers returns a user store backed by the "users" collection.
func NewMongoUsers(db *mongo.Database) *MongoUsers {
	return &MongoUsers{col: db.Collection("users")}
}

// EnsureIndexes creates the unique indexes the store relies on. The unique
// index on email_or_phone is what makes concurrent first-time logins with
// the same login key resolve to a single record.
func (s *MongoUsers) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email_or_phone", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("creating user indexes: %w", err)
	}
	return nil
}

func (s *MongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.col.FindOne(ctx, filter).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoUsers) FindByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"google_id": googleID})
}

func (s *MongoUsers) FindByLoginKey(ctx context.Context, key string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email_or_phone": key})
}

func (s *MongoUsers) FindByUserID(ctx context.Context, userID string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"user_id": userID})
}

func (s *MongoUsers) Create(ctx context.Context, user *models.User) error {
	_, err := s.col.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoUsers) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoUsers) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}

// MongoReports is the MongoDB report store.
type MongoReports struct {
	col *mongo.Collection
}

// NewMongoReports returns a report store backed by the "reports" collection.
func NewMongoReports(db *mongo.Database) *MongoReports {
	return &MongoReports{col: db.Collection("reports")}
}

// EnsureIndexes creates the per-user history index.
func (s *MongoReports) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "report_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("creating report indexes: %w", err)
	}
	return nil
}

func (s *MongoReports) Insert(ctx context.Context, report *models.Report) error {
	_, err := s.col.InsertOne(ctx, report)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoReports) list(ctx context.Context, filter bson.M) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var reports []models.Report
	if err := cur.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *MongoReports) ListByUser(ctx context.Context, userID string) ([]models.Report, error) {
	return s.list(ctx, bson.M{"user_id": userID})
}

func (s *MongoReports) ListAll(ctx context.Context) ([]models.Report, error) {
	return s.list(ctx, bson.M{})
}

func (s *MongoReports) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{})
}

func (s *MongoReports) CountByStatus(ctx context.Context, status string) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"status": status})
}

func (s *MongoReports) DiseaseDistribution(ctx context.Context) ([]models.DiseaseCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.StatusDiseased}}},
		{{Key: "$group", Value: bson.M{"_id": "$disease_name", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}
	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var dist []models.DiseaseCount
	if err := cur.All(ctx, &dist); err != nil {
		return nil, err
	}
	return dist, nil
}

func (s *MongoReports) Recent(ctx context.Context, limit int64) ([]models.ReportSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetProjection(bson.M{
			"report_id": 1, "user_name": 1, "status": 1,
			"disease_name": 1, "timestamp": 1,
		})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var recent []models.ReportSummary
	if err := cur.All(ctx, &recent); err != nil {
		return nil, err
	}
	return recent, nil
}
