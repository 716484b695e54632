package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Event struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	Location       string             `bson:"location" json:"location"`
	Date           time.Time          `bson:"date" json:"date"`
	Time           string             `bson:"time" json:"time"` // free text, e.g. "18:00 - 21:00"
	Category       string             `bson:"category,omitempty" json:"category,omitempty"`
	Price          string             `bson:"price,omitempty" json:"price,omitempty"`
	Capacity       string             `bson:"capacity,omitempty" json:"capacity,omitempty"`
	OrganizerID    primitive.ObjectID `bson:"organizer_id" json:"organizer_id"` // Immutable after create
	OrganizerEmail string             `bson:"organizer_email" json:"organizer_email"`
	Images         []string           `bson:"images" json:"images"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`

	// Enriched fields
	IsOwner    bool `json:"is_owner,omitempty" bson:"-"`
	IsFavorite bool `json:"is_favorite,omitempty" bson:"-"`
}
