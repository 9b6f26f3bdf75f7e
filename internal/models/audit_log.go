package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog records who did what to which model. Commits, manual adds and
// resets all append one entry; resets include the pre-deletion snapshot so a
// reset can be reconstructed.
type AuditLog struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	OrgID     primitive.ObjectID     `bson:"orgId,omitempty" json:"orgId,omitempty"`
	ActorID   string                 `bson:"actorId,omitempty" json:"actorId,omitempty"`
	Action    string                 `bson:"action" json:"action"` // create, update, delete
	Model     string                 `bson:"model" json:"model"`
	ObjectID  primitive.ObjectID     `bson:"objectId,omitempty" json:"objectId,omitempty"`
	Changes   map[string]interface{} `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp time.Time              `bson:"timestamp" json:"timestamp"`
}
