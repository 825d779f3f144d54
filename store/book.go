package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/bookreview/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.Books().InsertOne(ctx, book, options.InsertOne())
	if err != nil {
		return primitive.NilObjectID, translate(err, "insert book")
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// CountBooks counts the books matching f.
func (db *DB) CountBooks(ctx context.Context, f BookFilter) (int64, error) {
	n, err := db.Books().CountDocuments(ctx, bookListFilter(f))
	if err != nil {
		return 0, translate(err, "count books")
	}
	return n, nil
}

// FindBooks returns one page of the books matching f, newest first.
func (db *DB) FindBooks(ctx context.Context, f BookFilter, skip, limit int64) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, bookListFilter(f), pageOptions(skip, limit))
	if err != nil {
		return nil, translate(err, "find books")
	}
	defer cur.Close(ctx)
	books := []models.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, translate(err, "decode books")
	}
	return books, nil
}

// SearchBooks matches q against title or author. Results are unordered.
func (db *DB) SearchBooks(ctx context.Context, q string) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, bookSearchFilter(q))
	if err != nil {
		return nil, translate(err, "search books")
	}
	defer cur.Close(ctx)
	books := []models.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, translate(err, "decode books")
	}
	return books, nil
}

func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err != nil {
		return nil, translate(err, "find book")
	}
	return &book, nil
}

// SetBookCover records a new cover key and returns the one it replaced, if any.
func (db *DB) SetBookCover(ctx context.Context, id primitive.ObjectID, key string) (string, error) {
	var prev models.Book
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"coverKey": 1})
	update := bson.M{"$set": bson.M{"coverKey": key, "updatedAt": time.Now()}}
	err := db.Books().FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&prev)
	if err != nil {
		return "", translate(err, "set book cover")
	}
	return prev.CoverKey, nil
}
