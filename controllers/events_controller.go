package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/karanja/eventhub-go/config"
	models "github.com/karanja/eventhub-go/models"
	utils "github.com/karanja/eventhub-go/utils"
)

type eventInput struct {
	Title       string `form:"title" json:"title"`
	Description string `form:"description" json:"description"`
	Location    string `form:"location" json:"location"`
	Date        string `form:"date" json:"date"`
	Time        string `form:"time" json:"time"`
	Category    string `form:"category" json:"category"`
	Price       string `form:"price" json:"price"`
	Capacity    string `form:"capacity" json:"capacity"`
}

// validateEventInput enforces the presence checks the form applies before
// submit: title, description, location and time must survive trimming.
func validateEventInput(in eventInput) string {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return "title is required"
	case strings.TrimSpace(in.Description) == "":
		return "description is required"
	case strings.TrimSpace(in.Location) == "":
		return "location is required"
	case strings.TrimSpace(in.Time) == "":
		return "time is required"
	}
	return ""
}

// parseEventDate accepts RFC3339 plus a few date-only fallbacks. An absent or
// unparseable value falls back to the current date, matching the form's
// default picker value.
func parseEventDate(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	layouts := []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}

// ---------------- CREATE ----------------
func CreateEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// --- Authenticated user ---
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		var input eventInput
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if msg := validateEventInput(input); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}

		// --- Handle file uploads ---
		form, err := c.MultipartForm()
		if err != nil && err != http.ErrNotMultipart {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
			return
		}

		var imageURLs []string
		if form != nil {
			files := form.File["images"] // key must be "images"
			for _, fileHeader := range files {
				file, err := fileHeader.Open()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
					return
				}

				url, err := utils.UploadEventImage(file)
				file.Close()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{
						"error":   "image upload failed",
						"details": err.Error(),
						"file":    fileHeader.Filename,
					})
					return
				}

				imageURLs = append(imageURLs, url)
			}
		}

		// --- Save event ---
		now := time.Now()
		event := models.Event{
			ID:             primitive.NewObjectID(),
			Title:          input.Title,
			Description:    input.Description,
			Location:       input.Location,
			Date:           parseEventDate(input.Date),
			Time:           input.Time,
			Category:       input.Category,
			Price:          input.Price,
			Capacity:       input.Capacity,
			OrganizerID:    userID,
			OrganizerEmail: c.GetString("email"),
			Images:         imageURLs,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := col.InsertOne(ctx, event); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create event", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, event)
	}
}

// fetchEventsSorted returns every event, newest first.
func fetchEventsSorted(ctx context.Context, col *mongo.Collection) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var events []models.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ---------------- LIST ----------------
func ListEvents(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		events, err := fetchEventsSorted(ctx, col)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch events", "details": err.Error()})
			return
		}

		if len(events) == 0 {
			c.JSON(http.StatusOK, []models.Event{})
			return
		}

		// --- Pick the most recently updated event ---
		latest := events[0]
		for _, ev := range events {
			if ev.UpdatedAt.After(latest.UpdatedAt) {
				latest = ev
			}
		}

		// --- Generate ETag from latest event ---
		etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		// --- Add Last-Modified from latest event ---
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, events)
	}
}

// ---------------- WATCH ----------------
// WatchEvents streams the full, freshly ordered event list over SSE whenever
// anything in the collection changes. Each frame fully replaces the previous
// one; duplicate frames for the same state are harmless. The change stream is
// closed when the client disconnects.
func WatchEvents(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
		ctx := c.Request.Context()

		stream, err := col.Watch(ctx, mongo.Pipeline{})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not subscribe to events", "details": err.Error()})
			return
		}
		defer stream.Close(context.Background())

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		emit := func() bool {
			fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			events, err := fetchEventsSorted(fetchCtx, col)
			if err != nil {
				c.SSEvent("error", gin.H{"error": "could not fetch events", "details": err.Error()})
				c.Writer.Flush()
				return false
			}
			if events == nil {
				events = []models.Event{}
			}
			c.SSEvent("events", events)
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

		// A stream error after client disconnect is expected teardown, not a
		// failure to report.
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			c.SSEvent("error", gin.H{"error": "event subscription failed", "details": err.Error()})
			c.Writer.Flush()
		}
	}
}

// ---------------- GET ----------------
func GetEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("user_id")
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		eventID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}

		db := cfg.MongoClient.Database(cfg.DBName)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var event models.Event
		err = db.Collection("events").
			FindOne(ctx, bson.M{"_id": eventID}).
			Decode(&event)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		event.IsOwner = event.OrganizerID == userID

		// A missing user document means "not a favorite" (GetUserFavorites
		// returns an empty set for it); a failed lookup is a real error.
		favorites, err := utils.GetUserFavorites(ctx, db.Collection("users"), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch favorites", "details": err.Error()})
			return
		}
		for _, fav := range favorites {
			if fav == event.ID.Hex() {
				event.IsFavorite = true
				break
			}
		}

		etag := utils.GenerateETag(event.ID, event.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, event)
	}
}

// ---------------- UPDATE ----------------
func UpdateEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")
		if requesterID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		objID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Event
		if err := col.FindOne(ctx, bson.M{"_id": objID}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		// Only the organizer may edit; the ownership check runs before any
		// field is touched.
		if role != "admin" && existing.OrganizerID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "you can only edit your own events"})
			return
		}

		var input eventInput
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if msg := validateEventInput(input); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}

		// Editable fields are overwritten as a whole. organizer_id,
		// organizer_email and created_at are never part of the update.
		update := bson.M{
			"title":       input.Title,
			"description": input.Description,
			"location":    input.Location,
			"date":        parseEventDate(input.Date),
			"time":        input.Time,
			"category":    input.Category,
			"price":       input.Price,
			"capacity":    input.Capacity,
			"updated_at":  time.Now(),
		}

		// Handle new image uploads (multipart form)
		newImageURLs := []string{}
		form, _ := c.MultipartForm()
		if form != nil {
			files := form.File["new_images"] // key = "new_images"
			for _, fileHeader := range files {
				file, err := fileHeader.Open()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open image"})
					return
				}
				url, err := utils.UploadEventImage(file)
				file.Close()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "image upload failed", "details": err.Error()})
					return
				}
				newImageURLs = append(newImageURLs, url)
			}
		}

		if len(newImageURLs) > 0 {
			update["images"] = append(existing.Images, newImageURLs...)
		}

		if _, err := col.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": update}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update event", "details": err.Error()})
			return
		}

		var updated models.Event
		if err := col.FindOne(ctx, bson.M{"_id": objID}).Decode(&updated); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve updated event"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "event updated successfully",
			"event":   updated,
		})
	}
}

// ---------------- DELETE ----------------
func DeleteEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		requesterID := c.GetString("user_id")
		if requesterID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection("events")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Event
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		if role != "admin" && existing.OrganizerID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "you can only delete your own events"})
			return
		}

		res, err := col.DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete event", "details": err.Error()})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}

		// Best-effort image cleanup. Favorites referencing this event stay
		// behind as dangling ids; resolution tolerates them.
		for _, img := range existing.Images {
			utils.DeleteEventImage(img)
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "event deleted successfully",
			"id":      oid.Hex(),
		})
	}
}
