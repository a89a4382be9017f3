package mongo

import (
	"context"
	"cricketacademy/coaching-app/internal/domain"
	"cricketacademy/coaching-app/internal/repository"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const programCollectionName = "coaching_programs"

// storeErr wraps unexpected driver failures in ErrUnavailable so callers can
// treat them as transient, distinct from a missing document.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
}

// mongoProgramRepository implements repository.ProgramRepository
type mongoProgramRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramRepository creates a new coaching program repository backed by MongoDB.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		collection: db.Collection(programCollectionName),
	}
}

// Create inserts a new program. The enrollment counter always starts at zero;
// whatever the caller put there is ignored.
func (r *mongoProgramRepository) Create(ctx context.Context, program *domain.CoachingProgram) (primitive.ObjectID, error) {
	if program.Title == "" || program.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("program title and coach ID are required")
	}

	program.ID = primitive.NewObjectID()
	program.CurrentEnrollments = 0
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, program)
	if err != nil {
		return primitive.NilObjectID, storeErr(err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a program by its ID.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachingProgram, error) {
	var program domain.CoachingProgram
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&program)
	if err != nil {
		return nil, storeErr(err)
	}
	return &program, nil
}

func buildListFilter(filter repository.ProgramFilter) bson.M {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Specialization != "" {
		query["specialization"] = filter.Specialization
	}
	if filter.Difficulty != "" {
		query["difficulty"] = filter.Difficulty
	}
	if filter.CoachID != primitive.NilObjectID {
		query["coach"] = filter.CoachID
	}
	return query
}

// List returns one page of matching programs plus the total match count.
// Ordering is newest first with _id as the tie breaker, so pages are stable
// across requests.
func (r *mongoProgramRepository) List(ctx context.Context, filter repository.ProgramFilter, skip, limit int64) ([]domain.CoachingProgram, int64, error) {
	query := buildListFilter(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, storeErr(err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	defer cursor.Close(ctx)

	programs := []domain.CoachingProgram{}
	if err = cursor.All(ctx, &programs); err != nil {
		return nil, 0, storeErr(err)
	}

	return programs, total, nil
}

// Update applies the supplied fields and returns the updated document.
// Lowering maxParticipants is conditional on the live enrollment count still
// fitting under the new cap, so the cap cannot drop below enrollments even
// when reservations race the update.
func (r *mongoProgramRepository) Update(ctx context.Context, id primitive.ObjectID, update repository.ProgramUpdate) (*domain.CoachingProgram, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Specialization != nil {
		set["specialization"] = *update.Specialization
	}
	if update.Difficulty != nil {
		set["difficulty"] = *update.Difficulty
	}
	if update.Duration != nil {
		set["duration"] = *update.Duration
	}
	if update.TotalSessions != nil {
		set["totalSessions"] = *update.TotalSessions
	}
	if update.Price != nil {
		set["price"] = *update.Price
	}
	if update.StartDate != nil {
		set["startDate"] = *update.StartDate
	}
	if update.EndDate != nil {
		set["endDate"] = *update.EndDate
	}
	if update.Benefits != nil {
		set["benefits"] = update.Benefits
	}
	if update.Requirements != nil {
		set["requirements"] = update.Requirements
	}

	filter := bson.M{"_id": id}
	if update.MaxParticipants != nil {
		set["maxParticipants"] = *update.MaxParticipants
		filter["currentEnrollments"] = bson.M{"$lte": *update.MaxParticipants}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated domain.CoachingProgram
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storeErr(err)
	}

	// No match: either the program is gone or the capacity condition failed.
	if update.MaxParticipants != nil {
		if _, getErr := r.GetByID(ctx, id); getErr == nil {
			return nil, repository.ErrMaxBelowCurrent
		}
	}
	return nil, repository.ErrNotFound
}

// Delete removes a program.
func (r *mongoProgramRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr(err)
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ReserveSeat is the single atomic read-check-increment for enrollment.
// The $expr filter makes the store enforce currentEnrollments < maxParticipants
// in the same operation as the increment; two racing callers on the last seat
// can never both match.
func (r *mongoProgramRepository) ReserveSeat(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{
		"_id":   id,
		"$expr": bson.M{"$lt": bson.A{"$currentEnrollments", "$maxParticipants"}},
	}
	update := bson.M{
		"$inc": bson.M{"currentEnrollments": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeErr(err)
	}
	if result.MatchedCount == 0 {
		// Distinguish "full" from "gone".
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return repository.ErrCapacityFull
	}
	return nil
}

// ReleaseSeat decrements the enrollment counter, flooring at zero. Releasing
// a seat on an already-empty program is a no-op, not an error.
func (r *mongoProgramRepository) ReleaseSeat(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{
		"_id":                id,
		"currentEnrollments": bson.M{"$gt": 0},
	}
	update := bson.M{
		"$inc": bson.M{"currentEnrollments": -1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeErr(err)
	}
	if result.MatchedCount == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		// Counter already at zero.
	}
	return nil
}

// AddMaterial appends one material to the program's sequence and returns the
// updated document. $push keeps insertion order, which is the display order.
func (r *mongoProgramRepository) AddMaterial(ctx context.Context, id primitive.ObjectID, material domain.Material) (*domain.CoachingProgram, error) {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$push": bson.M{"materials": material},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated domain.CoachingProgram
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, storeErr(err)
	}
	return &updated, nil
}

// EnsureProgramIndexes creates necessary indexes for the programs collection.
func EnsureProgramIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coach", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "specialization", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "difficulty", Value: 1}},
			Options: options.Index(),
		},
		{
			// Listing sort order
			Keys:    bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index(),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
