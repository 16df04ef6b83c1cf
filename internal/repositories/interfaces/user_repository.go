package interfaces

import (
	"context"

	"carrental/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	// Create returns ErrDuplicate when the email or username is taken.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Search matches username or email case-insensitively.
	Search(ctx context.Context, query string, limit int) ([]*models.User, error)
}
