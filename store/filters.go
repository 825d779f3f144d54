package store

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookFilter narrows a book listing. Empty fields do not filter.
type BookFilter struct {
	Author string
	Genre  string
}

// containsFold matches s literally anywhere in the field, ignoring case.
func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func bookListFilter(f BookFilter) bson.M {
	query := bson.M{}
	if a := strings.TrimSpace(f.Author); a != "" {
		query["author"] = containsFold(a)
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		query["genre"] = containsFold(g)
	}
	return query
}

// bookSearchFilter matches q as given; surrounding spaces are part of the match.
func bookSearchFilter(q string) bson.M {
	re := containsFold(q)
	return bson.M{"$or": bson.A{
		bson.M{"title": re},
		bson.M{"author": re},
	}}
}

func pageOptions(skip, limit int64) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
}

// reviewStatsPipeline averages and counts every review of a book, independent of any page.
func reviewStatsPipeline(bookID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "bookId", Value: bookID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$bookId"},
			{Key: "averageRating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "totalReviews", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}

var reviewSummaryProjection = bson.M{
	"userId":    1,
	"rating":    1,
	"comment":   1,
	"createdAt": 1,
}

// reviewUpdate sets only the fields that were provided.
func reviewUpdate(rating *float64, comment *string, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if rating != nil {
		set["rating"] = *rating
	}
	if comment != nil {
		set["comment"] = *comment
	}
	return bson.M{"$set": set}
}
