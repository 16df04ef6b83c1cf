package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User is identified across the system by Email.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email        string             `json:"email" bson:"email"`
	Username     string             `json:"username" bson:"username"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	Role         UserRole           `json:"role" bson:"role"`
	Bio          string             `json:"bio" bson:"bio"`
	ProfileImage string             `json:"profile_image" bson:"profile_image"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// Profile is the public view of a user.
type Profile struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profile_image"`
}

func (u *User) Profile() *Profile {
	return &Profile{
		Username:     u.Username,
		Email:        u.Email,
		Bio:          u.Bio,
		ProfileImage: u.ProfileImage,
	}
}

type UserSummary struct {
	Username string `json:"username" bson:"username"`
	Email    string `json:"email" bson:"email"`
}
