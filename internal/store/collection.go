package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/growup/backend/internal/models"
	"go.uber.org/zap"
)

// Document is the raw persisted form of an entity
type Document struct {
	ID   string
	Key  string // unique key, empty when the collection has none
	Body []byte
}

// Backend persists documents of named collections.
// Every method must be atomic: no partial write may be observable.
type Backend interface {
	// Insert adds doc at the end of the collection.
	// It fails with models.ErrDuplicateKey when the id or the unique key is taken.
	Insert(ctx context.Context, collection models.Collection, doc Document) error
	// Update replaces the document with id by the result of mutate, under the same lock.
	// It fails with models.ErrNotFound when id is absent and with models.ErrDuplicateKey when
	// the new unique key is taken by another document.
	Update(ctx context.Context, collection models.Collection, id string, mutate func(Document) (Document, error)) (Document, error)
	// Delete removes the document with id and reports whether it existed.
	Delete(ctx context.Context, collection models.Collection, id string) (bool, error)
	// List returns every document in insertion order.
	List(ctx context.Context, collection models.Collection) ([]Document, error)
	// Get returns the document with id or models.ErrNotFound.
	Get(ctx context.Context, collection models.Collection, id string) (Document, error)
	// GetByKey returns the document with the unique key or models.ErrNotFound.
	GetByKey(ctx context.Context, collection models.Collection, key string) (Document, error)
}

// Auditor records privileged mutations
type Auditor interface {
	Record(ctx context.Context, actorID string, action models.AuditAction, details string) error
}

// Patch is a partial update applied to an entity inside the store's write lock.
// A patch may also implement AuditAction() models.AuditAction and AuditDetails() string;
// an empty AuditAction suppresses the audit entry.
type Patch[T any] interface {
	Apply(*T) error
}

// PatchFunc adapts a function to Patch
type PatchFunc[T any] func(*T) error

// Apply calls f(v)
func (f PatchFunc[T]) Apply(v *T) error {
	return f(v)
}

type auditActioner interface {
	AuditAction() models.AuditAction
}

type auditDescriber interface {
	AuditDetails() string
}

// Actions are the audit tags emitted by a collection. Empty tags are not audited.
type Actions struct {
	Create models.AuditAction
	Update models.AuditAction
	Delete models.AuditAction
}

// Schema describes how a collection identifies and describes its entities
type Schema[T any] struct {
	Name models.Collection
	// ID returns the entity id
	ID func(*T) string
	// Key returns the unique key, or nil when the collection has no uniqueness constraint
	Key func(*T) string
	// Describe summarizes the entity for audit details
	Describe func(*T) string
	Actions  Actions
}

// Collection is a typed, audited view over one backend collection
type Collection[T any] struct {
	schema  Schema[T]
	backend Backend
	auditor Auditor
	logger  *zap.Logger
}

// NewCollection creates a new typed collection.
// auditor may be nil, in which case nothing is audited.
func NewCollection[T any](backend Backend, auditor Auditor, logger *zap.Logger, schema Schema[T]) *Collection[T] {
	return &Collection[T]{
		schema:  schema,
		backend: backend,
		auditor: auditor,
		logger:  logger,
	}
}

// Name returns the collection name
func (c *Collection[T]) Name() models.Collection {
	return c.schema.Name
}

// Create stores entity and returns the stored value
func (c *Collection[T]) Create(ctx context.Context, actorID string, entity *T) (*T, error) {
	return c.CreateAs(ctx, actorID, c.schema.Actions.Create, entity)
}

// CreateAs stores entity and audits it under action instead of the collection's create action
func (c *Collection[T]) CreateAs(ctx context.Context, actorID string, action models.AuditAction, entity *T) (*T, error) {
	doc, err := c.encode(entity)
	if err != nil {
		return nil, err
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("%w: %s entity has no id", models.ErrValidation, c.schema.Name)
	}

	if err := c.backend.Insert(ctx, c.schema.Name, doc); err != nil {
		return nil, fmt.Errorf("failed to create %s entity: %w", c.schema.Name, err)
	}

	stored, err := c.decode(doc)
	if err != nil {
		return nil, err
	}
	c.audit(ctx, actorID, action, c.describe(stored))
	return stored, nil
}

// Update applies patch to the entity with id and returns the new value
func (c *Collection[T]) Update(ctx context.Context, actorID, id string, patch Patch[T]) (*T, error) {
	doc, err := c.backend.Update(ctx, c.schema.Name, id, func(current Document) (Document, error) {
		entity, err := c.decode(current)
		if err != nil {
			return Document{}, err
		}
		if err := patch.Apply(entity); err != nil {
			return Document{}, err
		}
		next, err := c.encode(entity)
		if err != nil {
			return Document{}, err
		}
		if next.ID != current.ID {
			return Document{}, fmt.Errorf("%w: %s entity id is immutable", models.ErrValidation, c.schema.Name)
		}
		return next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update %s entity %s: %w", c.schema.Name, id, err)
	}

	updated, err := c.decode(doc)
	if err != nil {
		return nil, err
	}

	action := c.schema.Actions.Update
	if a, ok := patch.(auditActioner); ok {
		action = a.AuditAction()
	}
	details := c.describe(updated)
	if d, ok := patch.(auditDescriber); ok {
		if changed := d.AuditDetails(); changed != "" {
			details += ": " + changed
		}
	}
	c.audit(ctx, actorID, action, details)
	return updated, nil
}

// Delete removes the entity with id. Deleting a missing id is not an error.
func (c *Collection[T]) Delete(ctx context.Context, actorID, id string) error {
	existed, err := c.backend.Delete(ctx, c.schema.Name, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s entity %s: %w", c.schema.Name, id, err)
	}
	if existed {
		c.audit(ctx, actorID, c.schema.Actions.Delete, fmt.Sprintf("%s %s", c.schema.Name, id))
	}
	return nil
}

// GetAll returns every live entity in insertion order
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	docs, err := c.backend.List(ctx, c.schema.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.schema.Name, err)
	}

	entities := make([]T, 0, len(docs))
	for _, doc := range docs {
		entity, err := c.decode(doc)
		if err != nil {
			return nil, err
		}
		entities = append(entities, *entity)
	}
	return entities, nil
}

// GetByID returns the entity with id or models.ErrNotFound
func (c *Collection[T]) GetByID(ctx context.Context, id string) (*T, error) {
	doc, err := c.backend.Get(ctx, c.schema.Name, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s entity %s: %w", c.schema.Name, id, err)
	}
	return c.decode(doc)
}

// FindByKey returns the entity with the unique key or models.ErrNotFound
func (c *Collection[T]) FindByKey(ctx context.Context, key string) (*T, error) {
	if c.schema.Key == nil {
		return nil, fmt.Errorf("%s has no unique key", c.schema.Name)
	}
	doc, err := c.backend.GetByKey(ctx, c.schema.Name, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s entity: %w", c.schema.Name, err)
	}
	return c.decode(doc)
}

func (c *Collection[T]) encode(entity *T) (Document, error) {
	body, err := json.Marshal(entity)
	if err != nil {
		return Document{}, fmt.Errorf("failed to encode %s entity: %w", c.schema.Name, err)
	}
	doc := Document{ID: c.schema.ID(entity), Body: body}
	if c.schema.Key != nil {
		doc.Key = c.schema.Key(entity)
	}
	return doc, nil
}

func (c *Collection[T]) decode(doc Document) (*T, error) {
	entity := new(T)
	if err := json.Unmarshal(doc.Body, entity); err != nil {
		return nil, fmt.Errorf("failed to decode %s entity %s: %w", c.schema.Name, doc.ID, err)
	}
	return entity, nil
}

func (c *Collection[T]) describe(entity *T) string {
	if c.schema.Describe != nil {
		return c.schema.Describe(entity)
	}
	return fmt.Sprintf("%s %s", c.schema.Name, c.schema.ID(entity))
}

// audit records the mutation after it has been applied.
// Failures are logged and never returned: the data change stands.
func (c *Collection[T]) audit(ctx context.Context, actorID string, action models.AuditAction, details string) {
	if c.auditor == nil || action == "" {
		return
	}
	if actorID == "" {
		actorID = models.SystemActor
	}
	if err := c.auditor.Record(ctx, actorID, action, details); err != nil {
		c.logger.Error("failed to record audit entry",
			zap.String("collection", string(c.schema.Name)),
			zap.String("actor", actorID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

// IsNotFound reports whether err means the entity is absent
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
