package utils

import (
	"fmt"
	"hash/fnv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateETag builds a weak validator from a document id and its last update time.
func GenerateETag(id primitive.ObjectID, updatedAt time.Time) string {
	h := fnv.New64a()
	h.Write([]byte(id.Hex()))
	h.Write([]byte(fmt.Sprintf("%d", updatedAt.UnixNano())))
	return fmt.Sprintf("\"%x\"", h.Sum64())
}
