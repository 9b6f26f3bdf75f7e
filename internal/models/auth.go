package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operator roles. Selection and commit endpoints require RoleRaffleOperator
// or RoleAdmin; public display endpoints require no account at all.
const (
	RoleAdmin          = "admin"
	RoleRaffleOperator = "raffle_operator"
	RoleStaff          = "staff"
)

// LoginRequest defines the structure for login requests
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Operator is a backend account that can run draws. Stored in the
// "operators" collection with a bcrypt password hash.
type Operator struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrgID     primitive.ObjectID `bson:"orgId" json:"orgId"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
