package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestToggleFavorite(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("adding returns true", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(), // ensure user document
			mtest.CreateSuccessResponse(), // $addToSet
		)

		state, err := ToggleFavorite(context.Background(), mt.Coll, primitive.NewObjectID(), "alex@example.com", "event-1", false)
		require.NoError(mt, err)
		assert.True(mt, state)
	})

	mt.Run("removing returns false", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(), // ensure user document
			mtest.CreateSuccessResponse(), // $pull
		)

		state, err := ToggleFavorite(context.Background(), mt.Coll, primitive.NewObjectID(), "alex@example.com", "event-1", true)
		require.NoError(mt, err)
		assert.False(mt, state)
	})

	mt.Run("failed write leaves state unchanged", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11600,
			Message: "interrupted",
			Name:    "InterruptedAtShutdown",
		}))

		state, err := ToggleFavorite(context.Background(), mt.Coll, primitive.NewObjectID(), "alex@example.com", "event-1", true)
		require.Error(mt, err)
		assert.True(mt, state)
	})
}

func TestGetUserFavorites(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns set in stored order", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "eventhub.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: userID},
			{Key: "favorites", Value: bson.A{"event-1", "event-2"}},
		}))

		favorites, err := GetUserFavorites(context.Background(), mt.Coll, userID)
		require.NoError(mt, err)
		assert.Equal(mt, []string{"event-1", "event-2"}, favorites)
	})

	mt.Run("missing user document means empty set", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "eventhub.users", mtest.FirstBatch))

		favorites, err := GetUserFavorites(context.Background(), mt.Coll, primitive.NewObjectID())
		require.NoError(mt, err)
		assert.Empty(mt, favorites)
	})
}

func TestEnsureUserDocument(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert succeeds", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := EnsureUserDocument(context.Background(), mt.Coll, primitive.NewObjectID(), "alex@example.com")
		assert.NoError(mt, err)
	})
}
