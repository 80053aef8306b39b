package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/floodwatch/flood-report-api/internal/core/domain"
	"github.com/floodwatch/flood-report-api/internal/core/ports"
)

const reportsCollection = "reports"

// ReportRepository implements ports.ReportRepository on MongoDB. Partial
// updates are a single UpdateOne with a $set of only the present fields, so
// concurrent updates to different fields of one report both land; that
// atomic update is the only concurrency control here.
type ReportRepository struct {
	coll *mongo.Collection
}

func NewReportRepository(db *mongo.Database) *ReportRepository {
	return &ReportRepository{coll: db.Collection(reportsCollection)}
}

type mongoOwner struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	Email string             `bson:"email"`
}

type mongoReport struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID     primitive.ObjectID `bson:"owner_id"`
	Owner       *mongoOwner        `bson:"owner,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Image       string             `bson:"image,omitempty"`
	Status      string             `bson:"status"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (mr *mongoReport) toDomain() *domain.Report {
	r := &domain.Report{
		ID:          mr.ID.Hex(),
		OwnerID:     mr.OwnerID.Hex(),
		Title:       mr.Title,
		Description: mr.Description,
		Image:       mr.Image,
		Status:      domain.ReportStatus(mr.Status),
		CreatedAt:   mr.CreatedAt,
		UpdatedAt:   mr.UpdatedAt,
	}
	if mr.Owner != nil {
		r.Owner = &domain.ReportOwner{
			ID:    mr.Owner.ID.Hex(),
			Name:  mr.Owner.Name,
			Email: mr.Owner.Email,
		}
	}
	return r
}

// ownerLookup joins the owning user's public profile onto report reads,
// the Mongo equivalent of the old populate('user', ['name','email']).
func ownerLookup() []bson.M {
	return []bson.M{
		{"$lookup": bson.M{
			"from":         usersCollection,
			"localField":   "owner_id",
			"foreignField": "_id",
			"as":           "owner",
			"pipeline": []bson.M{
				{"$project": bson.M{"name": 1, "email": 1}},
			},
		}},
		{"$unwind": bson.M{"path": "$owner", "preserveNullAndEmptyArrays": true}},
	}
}

func (r *ReportRepository) Insert(ctx context.Context, report *domain.Report) (*domain.Report, error) {
	ownerID, err := primitive.ObjectIDFromHex(report.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("insert report: bad owner id: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoReport{
		OwnerID:     ownerID,
		Title:       report.Title,
		Description: report.Description,
		Image:       report.Image,
		Status:      string(report.Status),
		CreatedAt:   report.CreatedAt,
		UpdatedAt:   report.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	created := *report
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *ReportRepository) FindByID(ctx context.Context, id string) (*domain.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrReportNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := append([]bson.M{{"$match": bson.M{"_id": oid}}}, ownerLookup()...)
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("find report: %w", err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, fmt.Errorf("find report: %w", err)
		}
		return nil, domain.ErrReportNotFound
	}

	var mr mongoReport
	if err := cur.Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return mr.toDomain(), nil
}

func (r *ReportRepository) FindAll(ctx context.Context) ([]*domain.Report, error) {
	return r.findSorted(ctx, bson.M{})
}

func (r *ReportRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Report, error) {
	oid, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findSorted(ctx, bson.M{"owner_id": oid})
}

func (r *ReportRepository) findSorted(ctx context.Context, match bson.M) ([]*domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := append([]bson.M{{"$match": match}}, ownerLookup()...)
	pipeline = append(pipeline, bson.M{"$sort": bson.M{"created_at": -1}})

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer cur.Close(ctx)

	reports := make([]*domain.Report, 0)
	for cur.Next(ctx) {
		var mr mongoReport
		if err := cur.Decode(&mr); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		reports = append(reports, mr.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// UpdateFields applies only the present patch fields in one atomic $set and
// returns the post-update document. Owner and creation time never change.
func (r *ReportRepository) UpdateFields(ctx context.Context, id string, patch ports.ReportPatch) (*domain.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrReportNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": patch.UpdatedAt}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mr mongoReport
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&mr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("update report: %w", err)
	}
	return mr.toDomain(), nil
}

func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrReportNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes the list queries rely on.
func (r *ReportRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
