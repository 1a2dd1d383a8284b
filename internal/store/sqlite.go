package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// SQLiteStore implements endpoint persistence on a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		// WAL and a busy timeout keep concurrent handler writes from failing
		// with SQLITE_BUSY on the shared file.
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying connection for migrations and CLI tooling.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// CreateEndpoint stores a new endpoint definition.
func (s *SQLiteStore) CreateEndpoint(ctx context.Context, attrs Attributes) (*Endpoint, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	if _, err := s.GetEndpointByRoute(ctx, attrs.Verb, attrs.Path); err == nil {
		return nil, fmt.Errorf("%s %s: %w", attrs.Verb, attrs.Path, ErrDuplicateRoute)
	}

	headers, err := marshalHeaders(attrs.Headers)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ep := &Endpoint{
		ID:        generateID(),
		Verb:      attrs.Verb,
		Path:      attrs.Path,
		Code:      attrs.Code,
		Headers:   attrs.Headers,
		Body:      attrs.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO endpoints (id, verb, path, code, headers, body, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ep.ID, ep.Verb, ep.Path, ep.Code, headers, nullString(ep.Body), ep.CreatedAt, ep.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s %s: %w", attrs.Verb, attrs.Path, ErrDuplicateRoute)
		}
		return nil, fmt.Errorf("failed to create endpoint: %w", err)
	}

	return ep, nil
}

// GetEndpoint retrieves an endpoint by ID.
func (s *SQLiteStore) GetEndpoint(ctx context.Context, id string) (*Endpoint, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, verb, path, code, headers, body, created_at, updated_at
		 FROM endpoints WHERE id = ?`, id)

	ep, err := scanEndpoint(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint: %w", err)
	}
	return ep, nil
}

// GetEndpointByRoute retrieves an endpoint by its (verb, path) pair.
func (s *SQLiteStore) GetEndpointByRoute(ctx context.Context, verb, path string) (*Endpoint, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, verb, path, code, headers, body, created_at, updated_at
		 FROM endpoints WHERE verb = ? AND path = ?`, verb, path)

	ep, err := scanEndpoint(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s %s: %w", verb, path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get endpoint by route: %w", err)
	}
	return ep, nil
}

// ListEndpoints returns all endpoints ordered by creation time.
func (s *SQLiteStore) ListEndpoints(ctx context.Context) ([]*Endpoint, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, verb, path, code, headers, body, created_at, updated_at
		 FROM endpoints ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list endpoints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var endpoints []*Endpoint
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan endpoint: %w", err)
		}
		endpoints = append(endpoints, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list endpoints: %w", err)
	}

	return endpoints, nil
}

// UpdateEndpoint replaces the attributes of an existing endpoint.
func (s *SQLiteStore) UpdateEndpoint(ctx context.Context, id string, attrs Attributes) (*Endpoint, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	current, err := s.GetEndpoint(ctx, id)
	if err != nil {
		return nil, err
	}

	// Reject the update if the new route belongs to a different endpoint.
	if attrs.Verb != current.Verb || attrs.Path != current.Path {
		if other, err := s.GetEndpointByRoute(ctx, attrs.Verb, attrs.Path); err == nil && other.ID != id {
			return nil, fmt.Errorf("%s %s: %w", attrs.Verb, attrs.Path, ErrDuplicateRoute)
		}
	}

	headers, err := marshalHeaders(attrs.Headers)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE endpoints SET verb = ?, path = ?, code = ?, headers = ?, body = ?, updated_at = ?
		 WHERE id = ?`,
		attrs.Verb, attrs.Path, attrs.Code, headers, nullString(attrs.Body), now, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s %s: %w", attrs.Verb, attrs.Path, ErrDuplicateRoute)
		}
		return nil, fmt.Errorf("failed to update endpoint: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	return &Endpoint{
		ID:        id,
		Verb:      attrs.Verb,
		Path:      attrs.Path,
		Code:      attrs.Code,
		Headers:   attrs.Headers,
		Body:      attrs.Body,
		CreatedAt: current.CreatedAt,
		UpdatedAt: now,
	}, nil
}

// DeleteEndpoint removes an endpoint by ID.
func (s *SQLiteStore) DeleteEndpoint(ctx context.Context, id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM endpoints WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete endpoint: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// CountEndpoints returns the number of stored endpoints.
func (s *SQLiteStore) CountEndpoints(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM endpoints`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count endpoints: %w", err)
	}
	return count, nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEndpoint(row scanner) (*Endpoint, error) {
	ep := &Endpoint{}
	var headers string
	var body sql.NullString

	err := row.Scan(&ep.ID, &ep.Verb, &ep.Path, &ep.Code, &headers, &body, &ep.CreatedAt, &ep.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if body.Valid {
		ep.Body = body.String
	}
	if headers != "" {
		if err := json.Unmarshal([]byte(headers), &ep.Headers); err != nil {
			return nil, fmt.Errorf("failed to decode headers: %w", err)
		}
	}
	return ep, nil
}

func marshalHeaders(headers map[string]string) (string, error) {
	if len(headers) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(headers)
	if err != nil {
		return "", fmt.Errorf("failed to encode headers: %w", err)
	}
	return string(data), nil
}

// nullString returns a sql.NullString for optional string fields.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
