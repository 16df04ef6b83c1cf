package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Car struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerEmail  string             `json:"owner_email" bson:"owner_email"`
	Name        string             `json:"name" bson:"name"`
	PricePerDay Money              `json:"price_per_day" bson:"price_per_day"`
	Location    string             `json:"location" bson:"location"`
	CarType     string             `json:"car_type" bson:"car_type"`
	Description string             `json:"description" bson:"description"`
	ImageURL    string             `json:"image_url" bson:"image_url"`
	ImageKey    string             `json:"-" bson:"image_key,omitempty"`
	// LockVersion is bumped by every booking write on this car so that
	// concurrent booking transactions conflict on the car document.
	LockVersion int64     `json:"-" bson:"lock_version"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

func (c *Car) IsOwnedBy(identity string) bool {
	return identity != "" && c.OwnerEmail == identity
}

type CarSearchFilter struct {
	Location string
	CarType  string
	MaxPrice *Money
}
