package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ontoreg/internal/version/models"
	id "ontoreg/pkg/domain"
	"ontoreg/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists versions and class definitions in PostgreSQL. Label and
// local-name uniqueness is enforced by unique indexes; ownership cascades
// run on foreign keys (namespace -> version -> class).
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed version store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const versionColumns = "id, namespace_id, label, iri, status, released_at, created_at, updated_at"
const classColumns = "id, version_id, local_name, label, iri, comment, refs, created_at, updated_at"

// Create inserts a version, translating label collisions into
// sentinel.ErrAlreadyUsed.
func (s *Postgres) Create(ctx context.Context, v *models.Version) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO versions (`+versionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		v.ID.String(), v.NamespaceID.String(), v.Label, v.IRI, string(v.Status),
		v.ReleasedAt, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

// FindByID retrieves a version by ID.
func (s *Postgres) FindByID(ctx context.Context, versionID id.VersionID) (*models.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+` FROM versions WHERE id = $1`, versionID.String())
	return scanVersion(row)
}

// FindByLabel retrieves a version by its label within a namespace.
func (s *Postgres) FindByLabel(ctx context.Context, nsID id.NamespaceID, label string) (*models.Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+versionColumns+` FROM versions
		WHERE namespace_id = $1 AND LOWER(label) = LOWER($2)`, nsID.String(), label)
	return scanVersion(row)
}

// ListByNamespace returns a namespace's versions ordered by creation time.
func (s *Postgres) ListByNamespace(ctx context.Context, nsID id.NamespaceID) ([]*models.Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+versionColumns+` FROM versions
		WHERE namespace_id = $1 ORDER BY created_at, label`, nsID.String())
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []*models.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CountByNamespace returns the number of versions a namespace owns.
func (s *Postgres) CountByNamespace(ctx context.Context, nsID id.NamespaceID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM versions WHERE namespace_id = $1`, nsID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count versions: %w", err)
	}
	return count, nil
}

// Execute runs validate-then-mutate atomically using SELECT ... FOR UPDATE.
func (s *Postgres) Execute(ctx context.Context, versionID id.VersionID, validate func(*models.Version) error, mutate func(*models.Version)) (*models.Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin version tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx, `
		SELECT `+versionColumns+` FROM versions WHERE id = $1 FOR UPDATE`, versionID.String())
	v, err := scanVersion(row)
	if err != nil {
		return nil, err
	}

	if err := validate(v); err != nil {
		return nil, err
	}
	mutate(v)

	_, err = tx.ExecContext(ctx, `
		UPDATE versions SET status = $2, released_at = $3, updated_at = $4 WHERE id = $1`,
		versionID.String(), string(v.Status), v.ReleasedAt, v.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit version tx: %w", err)
	}
	return v, nil
}

// DeleteByNamespace removes all versions of a namespace; classes cascade.
func (s *Postgres) DeleteByNamespace(ctx context.Context, nsID id.NamespaceID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM versions WHERE namespace_id = $1`, nsID.String())
	if err != nil {
		return fmt.Errorf("delete versions: %w", err)
	}
	return nil
}

// AddClass inserts a class definition, translating local-name collisions
// into sentinel.ErrAlreadyUsed.
func (s *Postgres) AddClass(ctx context.Context, c *models.ClassDefinition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO class_definitions (`+classColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID.String(), c.VersionID.String(), c.LocalName, c.Label, c.IRI,
		c.Comment, pq.Array(c.References), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch string(pqErr.Code) {
			case uniqueViolation:
				return sentinel.ErrAlreadyUsed
			case "23503": // foreign key: version does not exist
				return sentinel.ErrNotFound
			}
		}
		return fmt.Errorf("insert class: %w", err)
	}
	return nil
}

// UpdateClass replaces the editable fields of a class definition.
func (s *Postgres) UpdateClass(ctx context.Context, c *models.ClassDefinition) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE class_definitions
		SET label = $2, comment = $3, refs = $4, updated_at = $5
		WHERE id = $1`,
		c.ID.String(), c.Label, c.Comment, pq.Array(c.References), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return requireAffected(res)
}

// RemoveClass deletes a class definition.
func (s *Postgres) RemoveClass(ctx context.Context, classID id.ClassID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM class_definitions WHERE id = $1`, classID.String())
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return requireAffected(res)
}

// FindClass retrieves a class definition by ID.
func (s *Postgres) FindClass(ctx context.Context, classID id.ClassID) (*models.ClassDefinition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+classColumns+` FROM class_definitions WHERE id = $1`, classID.String())
	return scanClass(row)
}

// ListClasses returns a version's class definitions ordered by local name.
func (s *Postgres) ListClasses(ctx context.Context, versionID id.VersionID) ([]*models.ClassDefinition, error) {
	// Distinguish "no classes" from "no such version".
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM versions WHERE id = $1)`, versionID.String()).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check version: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+classColumns+` FROM class_definitions
		WHERE version_id = $1 ORDER BY local_name`, versionID.String())
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()
	return collectClasses(rows)
}

// ListClassesByNamespace returns every class defined by any version of the
// namespace.
func (s *Postgres) ListClassesByNamespace(ctx context.Context, nsID id.NamespaceID) ([]*models.ClassDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.version_id, c.local_name, c.label, c.iri, c.comment, c.refs, c.created_at, c.updated_at
		FROM class_definitions c
		JOIN versions v ON v.id = c.version_id
		WHERE v.namespace_id = $1
		ORDER BY c.version_id, c.local_name`, nsID.String())
	if err != nil {
		return nil, fmt.Errorf("list namespace classes: %w", err)
	}
	defer rows.Close()
	return collectClasses(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*models.Version, error) {
	var (
		v     models.Version
		rawID string
		rawNS string
		state string
	)
	err := row.Scan(&rawID, &rawNS, &v.Label, &v.IRI, &state, &v.ReleasedAt, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan version: %w", err)
	}
	versionID, err := id.ParseVersionID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan version id: %w", err)
	}
	nsID, err := id.ParseNamespaceID(rawNS)
	if err != nil {
		return nil, fmt.Errorf("scan version namespace id: %w", err)
	}
	v.ID = versionID
	v.NamespaceID = nsID
	v.Status = models.Status(state)
	return &v, nil
}

func scanClass(row rowScanner) (*models.ClassDefinition, error) {
	var (
		c      models.ClassDefinition
		rawID  string
		rawVer string
		refs   pq.StringArray
	)
	err := row.Scan(&rawID, &rawVer, &c.LocalName, &c.Label, &c.IRI, &c.Comment, &refs, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan class: %w", err)
	}
	classID, err := id.ParseClassID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan class id: %w", err)
	}
	versionID, err := id.ParseVersionID(rawVer)
	if err != nil {
		return nil, fmt.Errorf("scan class version id: %w", err)
	}
	c.ID = classID
	c.VersionID = versionID
	c.References = refs
	return &c, nil
}

func collectClasses(rows *sql.Rows) ([]*models.ClassDefinition, error) {
	var out []*models.ClassDefinition
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
