package services

import (
	"context"
	"fmt"

	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/policy"
	"github.com/growup/backend/internal/store"
)

// Collection is the interface that wraps the typed store operations used by the services.
// It is satisfied by *store.Collection.
type Collection[T any] interface {
	// Method Create stores a new entity on behalf of actorID.
	//
	// If the id or a unique key is taken, models.ErrDuplicateKey is returned and nothing is stored.
	Create(ctx context.Context, actorID string, entity *T) (*T, error)
	// Method CreateAs is Create with an explicit audit action.
	CreateAs(ctx context.Context, actorID string, action models.AuditAction, entity *T) (*T, error)
	// Method Update applies patch to the entity with id atomically.
	//
	// If the entity does not exist, models.ErrNotFound is returned and nothing is audited.
	Update(ctx context.Context, actorID, id string, patch store.Patch[T]) (*T, error)
	// Method Delete removes the entity with id. Deleting a missing id is not an error.
	Delete(ctx context.Context, actorID, id string) error
	// Method GetAll returns every entity in insertion order.
	GetAll(ctx context.Context) ([]T, error)
	// Method GetByID returns the entity with id or models.ErrNotFound.
	GetByID(ctx context.Context, id string) (*T, error)
	// Method FindByKey returns the entity with the unique key or models.ErrNotFound.
	FindByKey(ctx context.Context, key string) (*T, error)
}

// requireManage fails closed unless actor is an unblocked identity allowed to mutate collection
func requireManage(actor *models.User, collection models.Collection) error {
	if actor == nil || actor.IsBlocked || !policy.CanManage(actor.Role, collection) {
		return fmt.Errorf("%w: cannot manage %s", models.ErrUnauthorized, collection)
	}
	return nil
}

// requireRead fails closed unless actor is an unblocked identity allowed to enumerate collection
func requireRead(actor *models.User, collection models.Collection) error {
	if actor == nil || actor.IsBlocked || !policy.CanRead(actor.Role, collection) {
		return fmt.Errorf("%w: cannot read %s", models.ErrUnauthorized, collection)
	}
	return nil
}
