package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/bookreview/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReviewStats aggregates every review of a book.
type ReviewStats struct {
	AverageRating float64 `bson:"averageRating"`
	TotalReviews  int64   `bson:"totalReviews"`
}

// InsertReview stores a new review. A second review for the same (book, user)
// fails with ErrDuplicate once the unique index exists.
func (db *DB) InsertReview(ctx context.Context, review *models.Review) (primitive.ObjectID, error) {
	res, err := db.Reviews().InsertOne(ctx, review, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, translate(err, "insert review")
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) ReviewByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	err := db.Reviews().FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err != nil {
		return nil, translate(err, "find review")
	}
	return &r, nil
}

// ReviewByBookAndUser returns ErrNotFound when userID has not reviewed bookID.
func (db *DB) ReviewByBookAndUser(ctx context.Context, bookID, userID primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	err := db.Reviews().FindOne(ctx, bson.M{"bookId": bookID, "userId": userID}).Decode(&r)
	if err != nil {
		return nil, translate(err, "find review")
	}
	return &r, nil
}

// ReviewStats returns zero stats for a book without reviews.
func (db *DB) ReviewStats(ctx context.Context, bookID primitive.ObjectID) (ReviewStats, error) {
	cur, err := db.Reviews().Aggregate(ctx, reviewStatsPipeline(bookID))
	if err != nil {
		return ReviewStats{}, translate(err, "aggregate reviews")
	}
	defer cur.Close(ctx)
	var out []ReviewStats
	if err := cur.All(ctx, &out); err != nil {
		return ReviewStats{}, translate(err, "decode review stats")
	}
	if len(out) == 0 {
		return ReviewStats{}, nil
	}
	return out[0], nil
}

// ReviewsForBook returns one page of a book's reviews, newest first.
func (db *DB) ReviewsForBook(ctx context.Context, bookID primitive.ObjectID, skip, limit int64) ([]models.ReviewSummary, error) {
	opts := pageOptions(skip, limit).SetProjection(reviewSummaryProjection)
	cur, err := db.Reviews().Find(ctx, bson.M{"bookId": bookID}, opts)
	if err != nil {
		return nil, translate(err, "find reviews")
	}
	defer cur.Close(ctx)
	reviews := []models.ReviewSummary{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, translate(err, "decode reviews")
	}
	return reviews, nil
}

// UpdateReview applies the provided fields to the review owned by userID and returns
// the result. It returns ErrNotFound if the review is gone or owned by someone else.
func (db *DB) UpdateReview(ctx context.Context, id, userID primitive.ObjectID, rating *float64, comment *string) (*models.Review, error) {
	var r models.Review
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	filter := bson.M{"_id": id, "userId": userID}
	err := db.Reviews().FindOneAndUpdate(ctx, filter, reviewUpdate(rating, comment, time.Now()), opts).Decode(&r)
	if err != nil {
		return nil, translate(err, "update review")
	}
	return &r, nil
}

func (db *DB) DeleteReview(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := db.Reviews().DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return translate(err, "delete review")
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
