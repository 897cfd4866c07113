package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ontoreg/internal/namespace/models"
	id "ontoreg/pkg/domain"
	"ontoreg/pkg/platform/sentinel"
)

// uniqueViolation is the postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// Postgres persists namespaces in PostgreSQL. Uniqueness of (name, type) and
// prefix is enforced by the database's case-insensitive unique indexes, so
// concurrent registrations race safely.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed namespace store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const namespaceColumns = "id, name, type, path, prefix, status, owners, description, created_at, updated_at"

// CreateIfIdentityAvailable inserts the namespace, translating unique index
// violations into sentinel.ErrAlreadyUsed.
func (s *Postgres) CreateIfIdentityAvailable(ctx context.Context, ns *models.Namespace) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO namespaces (`+namespaceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ns.ID.String(), ns.Name, string(ns.Type), ns.Path, ns.Prefix, string(ns.Status),
		pq.Array(ns.Owners), ns.Description, ns.CreatedAt, ns.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert namespace: %w", err)
	}
	return nil
}

// FindByID retrieves a namespace by ID.
func (s *Postgres) FindByID(ctx context.Context, nsID id.NamespaceID) (*models.Namespace, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+namespaceColumns+` FROM namespaces WHERE id = $1`, nsID.String())
	return scanNamespace(row)
}

// FindByNameType retrieves a namespace by its (name, type) identity.
func (s *Postgres) FindByNameType(ctx context.Context, name string, nsType models.Type) (*models.Namespace, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+namespaceColumns+` FROM namespaces
		WHERE LOWER(name) = LOWER($1) AND LOWER(type) = LOWER($2)`, name, string(nsType))
	return scanNamespace(row)
}

// FindByPrefix retrieves a namespace by its globally unique prefix.
func (s *Postgres) FindByPrefix(ctx context.Context, prefix string) (*models.Namespace, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+namespaceColumns+` FROM namespaces WHERE LOWER(prefix) = LOWER($1)`, prefix)
	return scanNamespace(row)
}

// List returns all namespaces ordered by (type, name).
func (s *Postgres) List(ctx context.Context) ([]*models.Namespace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+namespaceColumns+` FROM namespaces ORDER BY type, name`)
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}
	defer rows.Close()

	var out []*models.Namespace
	for rows.Next() {
		ns, err := scanNamespace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, rows.Err()
}

// Execute runs validate-then-mutate atomically using SELECT ... FOR UPDATE.
func (s *Postgres) Execute(ctx context.Context, nsID id.NamespaceID, validate func(*models.Namespace) error, mutate func(*models.Namespace)) (*models.Namespace, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin namespace tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx, `
		SELECT `+namespaceColumns+` FROM namespaces WHERE id = $1 FOR UPDATE`, nsID.String())
	ns, err := scanNamespace(row)
	if err != nil {
		return nil, err
	}

	if err := validate(ns); err != nil {
		return nil, err
	}
	mutate(ns)

	_, err = tx.ExecContext(ctx, `
		UPDATE namespaces
		SET status = $2, owners = $3, description = $4, updated_at = $5
		WHERE id = $1`,
		nsID.String(), string(ns.Status), pq.Array(ns.Owners), ns.Description, ns.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update namespace: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit namespace tx: %w", err)
	}
	return ns, nil
}

// Delete removes the namespace row. Owned versions, classes, and incident
// edges cascade via foreign keys.
func (s *Postgres) Delete(ctx context.Context, nsID id.NamespaceID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM namespaces WHERE id = $1`, nsID.String())
	if err != nil {
		return fmt.Errorf("delete namespace: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete namespace: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNamespace(row rowScanner) (*models.Namespace, error) {
	var (
		ns     models.Namespace
		rawID  string
		nsType string
		status string
		owners pq.StringArray
	)
	err := row.Scan(&rawID, &ns.Name, &nsType, &ns.Path, &ns.Prefix, &status, &owners, &ns.Description, &ns.CreatedAt, &ns.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan namespace: %w", err)
	}
	parsed, err := id.ParseNamespaceID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan namespace id: %w", err)
	}
	ns.ID = parsed
	ns.Type = models.Type(nsType)
	ns.Status = models.Status(status)
	ns.Owners = owners
	return &ns, nil
}
