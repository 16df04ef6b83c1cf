package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a direct message between two identities. Messages are never
// edited once stored.
type Message struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SenderEmail   string             `json:"sender_email" bson:"sender_email"`
	ReceiverEmail string             `json:"receiver_email" bson:"receiver_email"`
	Text          string             `json:"text" bson:"text"`
	Timestamp     time.Time          `json:"timestamp" bson:"timestamp"`
}
