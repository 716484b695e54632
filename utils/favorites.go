package utils

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureUserDocument creates the user's document if it does not exist yet.
// The upsert only touches fields via $setOnInsert, so racing with another
// first-toggle for the same user can never clobber the favorites array.
func EnsureUserDocument(ctx context.Context, users *mongo.Collection, userID primitive.ObjectID, email string) error {
	update := bson.M{
		"$setOnInsert": bson.M{
			"email":      email,
			"favorites":  []string{},
			"created_at": time.Now(),
		},
	}

	opts := options.Update().SetUpsert(true)
	_, err := users.UpdateOne(ctx, bson.M{"_id": userID}, update, opts)
	return err
}

// ToggleFavorite flips membership of eventID in the user's favorites set and
// returns the new state. Both directions use set-level operators ($addToSet,
// $pull), so adding a present id or removing an absent one still succeeds and
// leaves the set unchanged. Callers must treat the returned bool as
// authoritative and reconcile any local flag to it.
func ToggleFavorite(ctx context.Context, users *mongo.Collection, userID primitive.ObjectID, email, eventID string, currentlyFavorite bool) (bool, error) {
	if err := EnsureUserDocument(ctx, users, userID, email); err != nil {
		return currentlyFavorite, err
	}

	var update bson.M
	if currentlyFavorite {
		update = bson.M{"$pull": bson.M{"favorites": eventID}}
	} else {
		update = bson.M{"$addToSet": bson.M{"favorites": eventID}}
	}

	if _, err := users.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return currentlyFavorite, err
	}

	return !currentlyFavorite, nil
}

// GetUserFavorites returns the user's favorite event ids. A missing user
// document means the user never favorited anything, not an error.
func GetUserFavorites(ctx context.Context, users *mongo.Collection, userID primitive.ObjectID) ([]string, error) {
	var user struct {
		Favorites []string `bson:"favorites"`
	}

	err := users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user.Favorites, nil
}
