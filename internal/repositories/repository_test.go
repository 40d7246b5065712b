package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/growup/backend/internal/models"
	"github.com/growup/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestDocumentRepository creates a document repository with a mock database
func setupTestDocumentRepository(t *testing.T) (*documentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	repo := NewDocumentRepository(db, logger)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

// setupTestAuditLogRepository creates an audit log repository with a mock database
func setupTestAuditLogRepository(t *testing.T) (*auditLogRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	repo := NewAuditLogRepository(db, logger)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

var duplicateEntryErr = &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x.com' for key 'uq_documents_collection_key'"}

func TestNewDocumentRepository(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db := &sql.DB{}

	repo := NewDocumentRepository(db, logger)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
	assert.Equal(t, logger, repo.logger)
}

func TestDocumentRepository_Insert(t *testing.T) {
	tests := []struct {
		name          string
		doc           store.Document
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		expectError   bool
	}{
		{
			name: "success with key",
			doc:  store.Document{ID: "u1", Key: "a@x.com", Body: []byte(`{"id":"u1"}`)},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO documents`).
					WithArgs("growup_users", "u1", "a@x.com", sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "success without key stores NULL",
			doc:  store.Document{ID: "u1", Body: []byte(`{"id":"u1"}`)},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO documents`).
					WithArgs("growup_users", "u1", nil, sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
		},
		{
			name: "duplicate entry",
			doc:  store.Document{ID: "u2", Key: "a@x.com", Body: []byte(`{"id":"u2"}`)},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO documents`).
					WillReturnError(duplicateEntryErr)
			},
			expectedError: models.ErrDuplicateKey,
			expectError:   true,
		},
		{
			name: "database error",
			doc:  store.Document{ID: "u1", Body: []byte(`{}`)},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO documents`).
					WillReturnError(errors.New("database error"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTestDocumentRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Insert(context.Background(), models.CollectionUsers, tt.doc)

			if tt.expectError {
				assert.Error(t, err)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDocumentRepository_Update(t *testing.T) {
	selectQuery := `(?s)SELECT id, unique_key, body.*FROM documents.*FOR UPDATE`
	setBody := func(d store.Document) (store.Document, error) {
		d.Body = []byte(`{"id":"c1","title":"new"}`)
		return d, nil
	}

	tests := []struct {
		name          string
		mutate        func(store.Document) (store.Document, error)
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		expectError   bool
	}{
		{
			name:   "success",
			mutate: setBody,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(selectQuery).
					WithArgs("growup_content", "c1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "unique_key", "body"}).
						AddRow("c1", nil, []byte(`{"id":"c1","title":"old"}`)))
				mock.ExpectExec(`(?s)UPDATE documents.*SET unique_key = \?, body = \?`).
					WithArgs(nil, sqlmock.AnyArg(), "growup_content", "c1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name:   "not found",
			mutate: setBody,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(selectQuery).
					WithArgs("growup_content", "c1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "unique_key", "body"}))
				mock.ExpectRollback()
			},
			expectedError: models.ErrNotFound,
			expectError:   true,
		},
		{
			name: "mutate error rolls back",
			mutate: func(d store.Document) (store.Document, error) {
				return store.Document{}, models.ErrValidation
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(selectQuery).
					WillReturnRows(sqlmock.NewRows([]string{"id", "unique_key", "body"}).
						AddRow("c1", nil, []byte(`{}`)))
				mock.ExpectRollback()
			},
			expectedError: models.ErrValidation,
			expectError:   true,
		},
		{
			name:   "duplicate key on update",
			mutate: setBody,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(selectQuery).
					WillReturnRows(sqlmock.NewRows([]string{"id", "unique_key", "body"}).
						AddRow("c1", nil, []byte(`{}`)))
				mock.ExpectExec(`(?s)UPDATE documents`).
					WillReturnError(duplicateEntryErr)
				mock.ExpectRollback()
			},
			expectedError: models.ErrDuplicateKey,
			expectError:   true,
		},
		{
			name:   "begin error",
			mutate: setBody,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("begin error"))
			},
			expectError: true,
		},
		{
			name:   "commit error",
			mutate: setBody,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(selectQuery).
					WillReturnRows(sqlmock.NewRows([]string{"id", "unique_key", "body"}).
						AddRow("c1", nil, []byte(`{}`)))
				mock.ExpectExec(`(?s)UPDATE documents`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit().WillReturnError(errors.New("commit error"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTestDocumentRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			doc, err := repo.Update(context.Background(), models.CollectionContent, "c1", tt.mutate)

			if tt.expectError {
				assert.Error(t, err)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
			} else {
				require.NoError(t, err)
				assert.JSONEq(t, `{"id":"c1","title":"new"}`, string(doc.Body))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDocumentRepository_Delete(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedFound bool
		expectError   bool
	}{
		{
			name: "existing document",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM documents WHERE collection = \? AND id = \?`).
					WithArgs("growup_ads", "a1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedFound: true,
		},
		{
			name: "missing document",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM documents`).
					WithArgs("growup_ads", "a1").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedFound: false,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM documents`).
					WillReturnError(errors.New("database error"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTestDocumentRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			found, err := repo.Delete(context.Background(), models.CollectionAds, "a1")

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedFound, found)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDocumentRepository_List(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedIDs   []string
		expectedError bool
	}{
		{
			name: "success ordered by seq",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "unique_key", "body"}).
					AddRow("p2", nil, []byte(`{"id":"p2"}`)).
					AddRow("p1", nil, []byte(`{"id":"p1"}`))
				mock.ExpectQuery(`(?s)SELECT id, unique_key, body.*FROM documents.*ORDER BY seq`).
					WithArgs("growup_plans").
					WillReturnRows(rows)
			},
			expectedIDs: []string{"p2", "p1"},
		},
		{
			name: "empty collection",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`(?s)SELECT id, unique_key, body.*ORDER BY seq`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "unique_key", "body"}))
			},
			expectedIDs: []string{},
		},
		{
			name: "database query error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`(?s)SELECT id, unique_key, body`).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
		{
			name: "row error",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "unique_key", "body"}).
					AddRow("p1", nil, []byte(`{}`)).
					RowError(0, errors.New("row error"))
				mock.ExpectQuery(`(?s)SELECT id, unique_key, body`).
					WillReturnRows(rows)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTestDocumentRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			docs, err := repo.List(context.Background(), models.CollectionPlans)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, docs)
			} else {
				require.NoError(t, err)
				ids := make([]string, 0, len(docs))
				for _, d := range docs {
					ids = append(ids, d.ID)
				}
				assert.Equal(t, tt.expectedIDs, ids)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDocumentRepository_GetByKey(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
		expectError   bool
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`(?s)SELECT id, unique_key, body.*WHERE collection = \? AND unique_key = \?`).
					WithArgs("growup_users", "a@x.com").
					WillReturnRows(sqlmock.NewRows([]string{"id", "unique_key", "body"}).
						AddRow("u1", "a@x.com", []byte(`{"id":"u1"}`)))
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`(?s)SELECT id, unique_key, body`).
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: models.ErrNotFound,
			expectError:   true,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`(?s)SELECT id, unique_key, body`).
					WillReturnError(errors.New("database error"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTestDocumentRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			doc, err := repo.GetByKey(context.Background(), models.CollectionUsers, "a@x.com")

			if tt.expectError {
				assert.Error(t, err)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, "u1", doc.ID)
				assert.Equal(t, "a@x.com", doc.Key)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAuditLogRepository_Append(t *testing.T) {
	insertQuery := `(?s)INSERT INTO audit_log \(id, actor_id, action, details, created_at\)`
	trimQuery := `(?s)DELETE FROM audit_log.*WHERE seq <.*LIMIT 1 OFFSET \?`
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		capacity    int
		setupMock   func(sqlmock.Sqlmock)
		expectedSeq int64
		expectError bool
	}{
		{
			name:     "success trims to capacity",
			capacity: 1000,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertQuery).
					WithArgs("e1", "admin", "USER_UPDATE", "user u1", now).
					WillReturnResult(sqlmock.NewResult(42, 1))
				mock.ExpectExec(trimQuery).
					WithArgs(999).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			expectedSeq: 42,
		},
		{
			name:     "zero capacity skips trim",
			capacity: 0,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertQuery).
					WillReturnResult(sqlmock.NewResult(7, 1))
				mock.ExpectCommit()
			},
			expectedSeq: 7,
		},
		{
			name:     "insert error",
			capacity: 1000,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertQuery).
					WillReturnError(errors.New("insert error"))
				mock.ExpectRollback()
			},
			expectError: true,
		},
		{
			name:     "trim error rolls back",
			capacity: 1000,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(insertQuery).
					WillReturnResult(sqlmock.NewResult(42, 1))
				mock.ExpectExec(trimQuery).
					WillReturnError(errors.New("trim error"))
				mock.ExpectRollback()
			},
			expectError: true,
		},
		{
			name:     "begin error",
			capacity: 1000,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("begin error"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTestAuditLogRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			entry := &models.AuditLogEntry{
				ID:        "e1",
				ActorID:   "admin",
				Action:    models.ActionUserUpdate,
				Details:   "user u1",
				Timestamp: now,
			}
			err := repo.Append(context.Background(), entry, tt.capacity)

			if tt.expectError {
				assert.Error(t, err)
				assert.Zero(t, entry.Seq)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedSeq, entry.Seq)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAuditLogRepository_List(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name          string
		limit         int
		setupMock     func(sqlmock.Sqlmock)
		expectedCount int
		expectedError bool
	}{
		{
			name:  "success most recent first",
			limit: 2,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"seq", "id", "actor_id", "action", "details", "created_at"}).
					AddRow(2, "e2", "admin", "USER_BLOCK", "user u1", now).
					AddRow(1, "e1", "admin", "USER_CREATE", "user u1", now)
				mock.ExpectQuery(`(?s)SELECT seq, id, actor_id, action, details, created_at.*ORDER BY seq DESC.*LIMIT \?`).
					WithArgs(2).
					WillReturnRows(rows)
			},
			expectedCount: 2,
		},
		{
			name:  "non-positive limit uses capacity",
			limit: 0,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`(?s)SELECT seq, id`).
					WithArgs(models.AuditLogCapacity).
					WillReturnRows(sqlmock.NewRows([]string{"seq", "id", "actor_id", "action", "details", "created_at"}))
			},
			expectedCount: 0,
		},
		{
			name:  "database error",
			limit: 10,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`(?s)SELECT seq, id`).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
		{
			name:  "scan error",
			limit: 10,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"seq", "id", "actor_id", "action", "details", "created_at"}).
					AddRow("invalid", "e1", "admin", "USER_CREATE", "", now)
				mock.ExpectQuery(`(?s)SELECT seq, id`).
					WillReturnRows(rows)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTestAuditLogRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			entries, err := repo.List(context.Background(), tt.limit)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, entries)
			} else {
				require.NoError(t, err)
				assert.Len(t, entries, tt.expectedCount)
				if tt.expectedCount > 0 {
					assert.Equal(t, int64(2), entries[0].Seq)
					assert.Equal(t, models.ActionUserBlock, entries[0].Action)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAuditLogRepository_Count(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedCount int
		expectedError bool
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_log`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1000))
			},
			expectedCount: 1000,
		},
		{
			name: "empty log",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_log`).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
			},
			expectedCount: 0,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_log`).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupTestAuditLogRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			count, err := repo.Count(context.Background())

			if tt.expectedError {
				assert.Error(t, err)
				assert.Zero(t, count)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedCount, count)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
