package mongo

import (
	"context"
	"cricketacademy/coaching-app/internal/domain"
	"cricketacademy/coaching-app/internal/repository"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const coachCollectionName = "coaches"

// mongoCoachRepository implements repository.CoachRepository
type mongoCoachRepository struct {
	collection *mongo.Collection
}

// NewMongoCoachRepository creates a new Coach repository backed by MongoDB.
func NewMongoCoachRepository(db *mongo.Database) repository.CoachRepository {
	return &mongoCoachRepository{
		collection: db.Collection(coachCollectionName),
	}
}

// Create inserts a new coach profile.
func (r *mongoCoachRepository) Create(ctx context.Context, coach *domain.Coach) (primitive.ObjectID, error) {
	if coach.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("coach user ID is required")
	}

	coach.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	coach.CreatedAt = now
	coach.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, coach)
	if err != nil {
		return primitive.NilObjectID, storeErr(err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a coach profile by its ID.
func (r *mongoCoachRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Coach, error) {
	var coach domain.Coach
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&coach)
	if err != nil {
		return nil, storeErr(err)
	}
	return &coach, nil
}

// GetByUserID retrieves the coach profile linked to a user account.
func (r *mongoCoachRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Coach, error) {
	var coach domain.Coach
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&coach)
	if err != nil {
		return nil, storeErr(err)
	}
	return &coach, nil
}

// AddProgram records a program in the coach's assignedPrograms index.
// $addToSet keeps the index a set even if the catalog retries.
func (r *mongoCoachRepository) AddProgram(ctx context.Context, coachID, programID primitive.ObjectID) error {
	filter := bson.M{"_id": coachID}
	update := bson.M{
		"$addToSet": bson.M{"assignedPrograms": programID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeErr(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RemoveProgram drops a program from the coach's assignedPrograms index.
func (r *mongoCoachRepository) RemoveProgram(ctx context.Context, coachID, programID primitive.ObjectID) error {
	filter := bson.M{"_id": coachID}
	update := bson.M{
		"$pull": bson.M{"assignedPrograms": programID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return storeErr(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ReplaceAvailability swaps the coach's declarative weekly schedule and
// returns the updated profile.
func (r *mongoCoachRepository) ReplaceAvailability(ctx context.Context, coachID primitive.ObjectID, slots []domain.AvailabilitySlot) (*domain.Coach, error) {
	filter := bson.M{"_id": coachID}
	update := bson.M{
		"$set": bson.M{
			"availability": slots,
			"updatedAt":    time.Now().UTC(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated domain.Coach
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated); err != nil {
		return nil, storeErr(err)
	}
	return &updated, nil
}

// EnsureCoachIndexes creates necessary indexes for the coaches collection.
func EnsureCoachIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One coach profile per user account
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
