package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	config "github.com/karanja/eventhub-go/config"
	models "github.com/karanja/eventhub-go/models"
)

func TestResolveFavorites(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("dangling ids are omitted, order preserved", func(mt *mtest.T) {
		first := primitive.NewObjectID()
		deleted := primitive.NewObjectID()
		second := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "eventhub.events", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: first},
				{Key: "title", Value: "Go Meetup"},
			}),
			mtest.CreateCursorResponse(0, "eventhub.events", mtest.FirstBatch), // deleted event
			mtest.CreateCursorResponse(0, "eventhub.events", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: second},
				{Key: "title", Value: "Jazz Night"},
			}),
		)

		ids := []string{first.Hex(), deleted.Hex(), second.Hex(), "not-an-id"}
		resolved, err := resolveFavorites(context.Background(), mt.Coll, ids)
		require.NoError(mt, err)

		require.Len(mt, resolved, 2)
		assert.Equal(mt, "Go Meetup", resolved[0].Title)
		assert.Equal(mt, "Jazz Night", resolved[1].Title)
		assert.True(mt, resolved[0].IsFavorite)
	})

	mt.Run("empty set resolves to empty list", func(mt *mtest.T) {
		resolved, err := resolveFavorites(context.Background(), mt.Coll, nil)
		require.NoError(mt, err)
		assert.Equal(mt, []models.Event{}, resolved)
	})
}

func TestListFavorites(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("resolves the user's set", func(mt *mtest.T) {
		cfg := &config.Config{MongoClient: mt.Client, DBName: "eventhub_test", JWTSecret: "test-secret"}

		userID := primitive.NewObjectID()
		eventID := primitive.NewObjectID()

		r := newAuthedRouter(userID, "alex@example.com", "user")
		r.GET("/favorites", ListFavorites(cfg))

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "eventhub_test.users", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: userID},
				{Key: "favorites", Value: bson.A{eventID.Hex()}},
			}),
			mtest.CreateCursorResponse(0, "eventhub_test.events", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: eventID},
				{Key: "title", Value: "Go Meetup"},
			}),
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/favorites", nil)
		r.ServeHTTP(w, req)

		require.Equal(mt, http.StatusOK, w.Code)

		var favorites []models.Event
		require.NoError(mt, json.Unmarshal(w.Body.Bytes(), &favorites))
		require.Len(mt, favorites, 1)
		assert.Equal(mt, "Go Meetup", favorites[0].Title)
	})

	mt.Run("user without a document gets an empty list", func(mt *mtest.T) {
		cfg := &config.Config{MongoClient: mt.Client, DBName: "eventhub_test", JWTSecret: "test-secret"}

		r := newAuthedRouter(primitive.NewObjectID(), "alex@example.com", "user")
		r.GET("/favorites", ListFavorites(cfg))

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "eventhub_test.users", mtest.FirstBatch))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/favorites", nil)
		r.ServeHTTP(w, req)

		require.Equal(mt, http.StatusOK, w.Code)
		assert.JSONEq(mt, "[]", w.Body.String())
	})
}

func TestRemoveFavorite_Idempotent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("removing an absent id still succeeds", func(mt *mtest.T) {
		cfg := &config.Config{MongoClient: mt.Client, DBName: "eventhub_test", JWTSecret: "test-secret"}

		r := newAuthedRouter(primitive.NewObjectID(), "alex@example.com", "user")
		r.DELETE("/favorites/:eventId", RemoveFavorite(cfg))

		// $pull matches nothing; the call is still a success.
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/favorites/"+primitive.NewObjectID().Hex(), nil)
		r.ServeHTTP(w, req)

		assert.Equal(mt, http.StatusOK, w.Code)
	})
}

func TestClearFavorites(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("clears the whole set", func(mt *mtest.T) {
		cfg := &config.Config{MongoClient: mt.Client, DBName: "eventhub_test", JWTSecret: "test-secret"}

		r := newAuthedRouter(primitive.NewObjectID(), "alex@example.com", "user")
		r.DELETE("/favorites", ClearFavorites(cfg))

		mt.AddMockResponses(mtest.CreateSuccessResponse())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/favorites", nil)
		r.ServeHTTP(w, req)

		assert.Equal(mt, http.StatusOK, w.Code)
		assert.Contains(mt, w.Body.String(), "all favorites cleared")
	})
}

func TestToggleFavoriteHandler(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("first toggle adds and reports true", func(mt *mtest.T) {
		cfg := &config.Config{MongoClient: mt.Client, DBName: "eventhub_test", JWTSecret: "test-secret"}

		userID := primitive.NewObjectID()
		eventID := primitive.NewObjectID()

		r := newAuthedRouter(userID, "alex@example.com", "user")
		r.PUT("/events/:id/favorite", ToggleFavorite(cfg))

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "eventhub_test.users", mtest.FirstBatch), // no user document yet
			mtest.CreateSuccessResponse(), // ensure user document
			mtest.CreateSuccessResponse(), // $addToSet
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/events/"+eventID.Hex()+"/favorite", nil)
		r.ServeHTTP(w, req)

		require.Equal(mt, http.StatusOK, w.Code)
		assert.JSONEq(mt, `{"favorite": true}`, w.Body.String())
	})

	mt.Run("toggle on an existing favorite removes it", func(mt *mtest.T) {
		cfg := &config.Config{MongoClient: mt.Client, DBName: "eventhub_test", JWTSecret: "test-secret"}

		userID := primitive.NewObjectID()
		eventID := primitive.NewObjectID()

		r := newAuthedRouter(userID, "alex@example.com", "user")
		r.PUT("/events/:id/favorite", ToggleFavorite(cfg))

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "eventhub_test.users", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: userID},
				{Key: "favorites", Value: bson.A{eventID.Hex()}},
			}),
			mtest.CreateSuccessResponse(), // ensure user document
			mtest.CreateSuccessResponse(), // $pull
		)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/events/"+eventID.Hex()+"/favorite", nil)
		r.ServeHTTP(w, req)

		require.Equal(mt, http.StatusOK, w.Code)
		assert.JSONEq(mt, `{"favorite": false}`, w.Body.String())
	})

	mt.Run("invalid event id rejected", func(mt *mtest.T) {
		cfg := &config.Config{MongoClient: mt.Client, DBName: "eventhub_test", JWTSecret: "test-secret"}

		r := newAuthedRouter(primitive.NewObjectID(), "alex@example.com", "user")
		r.PUT("/events/:id/favorite", ToggleFavorite(cfg))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/events/not-an-id/favorite", nil)
		r.ServeHTTP(w, req)

		assert.Equal(mt, http.StatusBadRequest, w.Code)
	})
}
