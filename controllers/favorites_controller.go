package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	config "github.com/karanja/eventhub-go/config"
	models "github.com/karanja/eventhub-go/models"
	utils "github.com/karanja/eventhub-go/utils"
)

// resolveFavorites turns a list of favorite ids into full events, one lookup
// per id, preserving input order. Ids that no longer resolve (deleted events,
// malformed ids) are silently omitted rather than failing the whole list.
func resolveFavorites(ctx context.Context, events *mongo.Collection, ids []string) ([]models.Event, error) {
	resolved := []models.Event{}
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}

		var event models.Event
		err = events.FindOne(ctx, bson.M{"_id": oid}).Decode(&event)
		if err == mongo.ErrNoDocuments {
			continue
		}
		if err != nil {
			return nil, err
		}

		event.IsFavorite = true
		resolved = append(resolved, event)
	}
	return resolved, nil
}

// ---------------- LIST ----------------
func ListFavorites(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		db := cfg.MongoClient.Database(cfg.DBName)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ids, err := utils.GetUserFavorites(ctx, db.Collection("users"), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch favorites", "details": err.Error()})
			return
		}

		favorites, err := resolveFavorites(ctx, db.Collection("events"), ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch favorites", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, favorites)
	}
}

// ---------------- TOGGLE ----------------
func ToggleFavorite(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		eventID := c.Param("id")
		if _, err := primitive.ObjectIDFromHex(eventID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}

		users := cfg.MongoClient.Database(cfg.DBName).Collection("users")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// The persisted set, not any client-side flag, decides the direction
		// of the toggle.
		ids, err := utils.GetUserFavorites(ctx, users, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update favorites", "details": err.Error()})
			return
		}

		currentlyFavorite := false
		for _, id := range ids {
			if id == eventID {
				currentlyFavorite = true
				break
			}
		}

		newState, err := utils.ToggleFavorite(ctx, users, userID, c.GetString("email"), eventID, currentlyFavorite)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update favorites", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"favorite": newState})
	}
}

// ---------------- REMOVE ONE ----------------
func RemoveFavorite(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		eventID := c.Param("eventId")

		users := cfg.MongoClient.Database(cfg.DBName).Collection("users")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// $pull of an absent id is a no-op, so removal is idempotent.
		_, err = users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"favorites": eventID}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove favorite", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "favorite removed", "id": eventID})
	}
}

// ---------------- CLEAR ----------------
func ClearFavorites(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		users := cfg.MongoClient.Database(cfg.DBName).Collection("users")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err = users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"favorites": []string{}}})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clear favorites", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "all favorites cleared"})
	}
}

// ---------------- WATCH ----------------
// WatchFavorites streams the caller's resolved favorites over SSE. The change
// stream watches only this user's document; every notification re-resolves
// the full list, so a toggle made from another session shows up here without
// any client action. Frames are full replacements and safe to re-render.
func WatchFavorites(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		db := cfg.MongoClient.Database(cfg.DBName)
		ctx := c.Request.Context()

		pipeline := mongo.Pipeline{
			bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: userID}}}},
		}

		stream, err := db.Collection("users").Watch(ctx, pipeline)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not subscribe to favorites", "details": err.Error()})
			return
		}
		defer stream.Close(context.Background())

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		emit := func() bool {
			fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			ids, err := utils.GetUserFavorites(fetchCtx, db.Collection("users"), userID)
			if err != nil {
				c.SSEvent("error", gin.H{"error": "could not fetch favorites", "details": err.Error()})
				c.Writer.Flush()
				return false
			}

			favorites, err := resolveFavorites(fetchCtx, db.Collection("events"), ids)
			if err != nil {
				c.SSEvent("error", gin.H{"error": "could not fetch favorites", "details": err.Error()})
				c.Writer.Flush()
				return false
			}

			c.SSEvent("favorites", favorites)
			c.Writer.Flush()
			return true
		}

		if !emit() {
			return
		}

		for stream.Next(ctx) {
			if !emit() {
				return
			}
		}

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			c.SSEvent("error", gin.H{"error": "favorites subscription failed", "details": err.Error()})
			c.Writer.Flush()
		}
	}
}
