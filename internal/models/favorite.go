package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Favorite struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserEmail string             `json:"user_email" bson:"user_email"`
	CarID     primitive.ObjectID `json:"car_id" bson:"car_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
