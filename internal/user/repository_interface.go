package user

import "context"

// Repository persists accounts for every role (student, parent,
// teacher, admin). Role is stored as plain text and validated at
// registration time.
type Repository interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
