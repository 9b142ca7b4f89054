package api

import (
	"context"

	"kanban-api/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	CreateUser(ctx context.Context, user *domain.User) error
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByID(ctx context.Context, id string) (domain.User, error)
	CountUsers(ctx context.Context) (int64, error)

	ListSections(ctx context.Context) ([]domain.Section, error)
	CreateSection(ctx context.Context, name, insertAfterID string) (domain.Section, error)
	RenameSection(ctx context.Context, id, name string) (domain.Section, error)
	DeleteSection(ctx context.Context, id string) error

	TasksBySection(ctx context.Context, sectionID string) ([]domain.Task, error)
	CreateTask(ctx context.Context, task *domain.Task) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
	MoveTask(ctx context.Context, taskID, sourceID, destinationID string) (domain.Task, error)
}

// NotFoundError is reported by storage when a referenced entity does not
// resolve; handlers surface it as a 404 naming the missing entity.
type NotFoundError interface {
	error
	NotFound()
}

// ConflictError is reported by storage when a request disagrees with stored
// state; handlers surface it as a 409 so the caller refreshes before retrying.
type ConflictError interface {
	error
	Conflict()
}

// Authenticator is implemented by types able to mint tokens and extract user
// IDs from Authorization headers.
type Authenticator interface {
	GenerateToken(userID, email string) (string, error)
	UserIDFromAuthHeader(header string) (string, error)
}
