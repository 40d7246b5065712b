package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/store"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is the server error number for a unique constraint violation
const mysqlDuplicateEntry = 1062

// documentRepository implements store.Backend on the documents table
type documentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) *documentRepository {
	return &documentRepository{
		db:     db,
		logger: logger,
	}
}

// Insert adds a document at the end of the collection
func (r *documentRepository) Insert(ctx context.Context, collection models.Collection, doc store.Document) error {
	query := `
		INSERT INTO documents (collection, id, unique_key, body)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, string(collection), doc.ID, nullableKey(doc.Key), doc.Body)
	if err != nil {
		if isDuplicateEntry(err) {
			return fmt.Errorf("%s %s: %w", collection, doc.ID, models.ErrDuplicateKey)
		}
		r.logger.Error("failed to insert document", zap.Error(err), zap.String("collection", string(collection)))
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

// Update locks the row, applies mutate and writes the result back in one transaction
func (r *documentRepository) Update(ctx context.Context, collection models.Collection, id string, mutate func(store.Document) (store.Document, error)) (store.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Document{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, unique_key, body
		FROM documents
		WHERE collection = ? AND id = ?
		FOR UPDATE
	`

	current, err := scanDocument(tx.QueryRowContext(ctx, query, string(collection), id))
	if errors.Is(err, sql.ErrNoRows) {
		return store.Document{}, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to lock document", zap.Error(err), zap.String("collection", string(collection)), zap.String("id", id))
		return store.Document{}, fmt.Errorf("failed to lock document: %w", err)
	}

	next, err := mutate(current)
	if err != nil {
		return store.Document{}, err
	}

	query = `
		UPDATE documents
		SET unique_key = ?, body = ?
		WHERE collection = ? AND id = ?
	`

	if _, err := tx.ExecContext(ctx, query, nullableKey(next.Key), next.Body, string(collection), id); err != nil {
		if isDuplicateEntry(err) {
			return store.Document{}, fmt.Errorf("%s %s: %w", collection, id, models.ErrDuplicateKey)
		}
		r.logger.Error("failed to update document", zap.Error(err), zap.String("collection", string(collection)), zap.String("id", id))
		return store.Document{}, fmt.Errorf("failed to update document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return store.Document{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return next, nil
}

// Delete removes a document and reports whether it existed
func (r *documentRepository) Delete(ctx context.Context, collection models.Collection, id string) (bool, error) {
	query := `DELETE FROM documents WHERE collection = ? AND id = ?`

	result, err := r.db.ExecContext(ctx, query, string(collection), id)
	if err != nil {
		r.logger.Error("failed to delete document", zap.Error(err), zap.String("collection", string(collection)), zap.String("id", id))
		return false, fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// List returns every document of the collection in insertion order
func (r *documentRepository) List(ctx context.Context, collection models.Collection) ([]store.Document, error) {
	query := `
		SELECT id, unique_key, body
		FROM documents
		WHERE collection = ?
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query, string(collection))
	if err != nil {
		r.logger.Error("failed to query documents", zap.Error(err), zap.String("collection", string(collection)))
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []store.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			r.logger.Error("failed to scan document", zap.Error(err))
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return docs, nil
}

// Get returns the document with id
func (r *documentRepository) Get(ctx context.Context, collection models.Collection, id string) (store.Document, error) {
	query := `
		SELECT id, unique_key, body
		FROM documents
		WHERE collection = ? AND id = ?
	`

	return r.getOne(ctx, query, collection, id)
}

// GetByKey returns the document with the unique key
func (r *documentRepository) GetByKey(ctx context.Context, collection models.Collection, key string) (store.Document, error) {
	query := `
		SELECT id, unique_key, body
		FROM documents
		WHERE collection = ? AND unique_key = ?
	`

	return r.getOne(ctx, query, collection, key)
}

func (r *documentRepository) getOne(ctx context.Context, query string, collection models.Collection, arg string) (store.Document, error) {
	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, string(collection), arg))
	if errors.Is(err, sql.ErrNoRows) {
		return store.Document{}, models.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get document", zap.Error(err), zap.String("collection", string(collection)))
		return store.Document{}, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (store.Document, error) {
	var (
		doc store.Document
		key sql.NullString
	)
	if err := row.Scan(&doc.ID, &key, &doc.Body); err != nil {
		return store.Document{}, err
	}
	doc.Key = key.String
	return doc, nil
}

// nullableKey stores an empty key as NULL so it does not collide in the unique index
func nullableKey(key string) sql.NullString {
	return sql.NullString{String: key, Valid: key != ""}
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
