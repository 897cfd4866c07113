package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ontoreg/internal/importgraph/models"
	id "ontoreg/pkg/domain"
	"ontoreg/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists import edges in PostgreSQL. Pair uniqueness and the
// no-self-import rule are backed by table constraints; endpoint deletion
// cascades via foreign keys.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed edge store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const edgeColumns = "id, source_namespace_id, target_namespace_id, target_version_id, created_at, updated_at"

// Create inserts an edge, translating pair collisions into
// sentinel.ErrAlreadyUsed.
func (s *Postgres) Create(ctx context.Context, e *models.ImportEdge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_edges (`+edgeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID.String(), e.SourceNamespaceID.String(), e.TargetNamespaceID.String(),
		e.TargetVersionID.String(), e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch string(pqErr.Code) {
			case uniqueViolation:
				return sentinel.ErrAlreadyUsed
			case "23503": // foreign key: endpoint does not exist
				return sentinel.ErrNotFound
			}
		}
		return fmt.Errorf("insert import edge: %w", err)
	}
	return nil
}

// FindByID retrieves an edge by ID.
func (s *Postgres) FindByID(ctx context.Context, edgeID id.ImportEdgeID) (*models.ImportEdge, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+edgeColumns+` FROM import_edges WHERE id = $1`, edgeID.String())
	return scanEdge(row)
}

// Update repoints an edge to a new target version.
func (s *Postgres) Update(ctx context.Context, e *models.ImportEdge) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE import_edges SET target_version_id = $2, updated_at = $3 WHERE id = $1`,
		e.ID.String(), e.TargetVersionID.String(), e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update import edge: %w", err)
	}
	return requireAffected(res)
}

// Delete removes an edge.
func (s *Postgres) Delete(ctx context.Context, edgeID id.ImportEdgeID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM import_edges WHERE id = $1`, edgeID.String())
	if err != nil {
		return fmt.Errorf("delete import edge: %w", err)
	}
	return requireAffected(res)
}

// EdgesFrom returns edges whose source is the given namespace.
func (s *Postgres) EdgesFrom(ctx context.Context, nsID id.NamespaceID) ([]*models.ImportEdge, error) {
	return s.query(ctx, `
		SELECT `+edgeColumns+` FROM import_edges
		WHERE source_namespace_id = $1
		ORDER BY source_namespace_id, target_namespace_id`, nsID.String())
}

// EdgesTo returns edges whose target is the given namespace.
func (s *Postgres) EdgesTo(ctx context.Context, nsID id.NamespaceID) ([]*models.ImportEdge, error) {
	return s.query(ctx, `
		SELECT `+edgeColumns+` FROM import_edges
		WHERE target_namespace_id = $1
		ORDER BY source_namespace_id, target_namespace_id`, nsID.String())
}

// All returns a snapshot of every edge for resolver traversal.
func (s *Postgres) All(ctx context.Context) ([]*models.ImportEdge, error) {
	return s.query(ctx, `
		SELECT `+edgeColumns+` FROM import_edges
		ORDER BY source_namespace_id, target_namespace_id`)
}

// CountIncident returns the number of edges touching the namespace.
func (s *Postgres) CountIncident(ctx context.Context, nsID id.NamespaceID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM import_edges
		WHERE source_namespace_id = $1 OR target_namespace_id = $1`, nsID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count incident edges: %w", err)
	}
	return count, nil
}

// DeleteIncident removes every edge touching the namespace and returns the
// far endpoints of the removed edges so callers can drop cached
// reachability closures.
func (s *Postgres) DeleteIncident(ctx context.Context, nsID id.NamespaceID) ([]id.NamespaceID, error) {
	rows, err := s.db.QueryContext(ctx, `
		DELETE FROM import_edges
		WHERE source_namespace_id = $1 OR target_namespace_id = $1
		RETURNING source_namespace_id, target_namespace_id`, nsID.String())
	if err != nil {
		return nil, fmt.Errorf("delete incident edges: %w", err)
	}
	defer rows.Close()

	var touched []id.NamespaceID
	for rows.Next() {
		var source, target string
		if err := rows.Scan(&source, &target); err != nil {
			return nil, fmt.Errorf("scan removed edge endpoints: %w", err)
		}
		for _, raw := range []string{source, target} {
			endpoint, err := id.ParseNamespaceID(raw)
			if err != nil {
				return nil, fmt.Errorf("parse removed edge endpoint: %w", err)
			}
			if endpoint != nsID {
				touched = append(touched, endpoint)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate removed edges: %w", err)
	}
	return touched, nil
}

func (s *Postgres) query(ctx context.Context, q string, args ...any) ([]*models.ImportEdge, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query import edges: %w", err)
	}
	defer rows.Close()

	var out []*models.ImportEdge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEdge(row rowScanner) (*models.ImportEdge, error) {
	var (
		e         models.ImportEdge
		rawID     string
		rawSource string
		rawTarget string
		rawVer    string
	)
	err := row.Scan(&rawID, &rawSource, &rawTarget, &rawVer, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan import edge: %w", err)
	}
	edgeID, err := id.ParseImportEdgeID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan edge id: %w", err)
	}
	source, err := id.ParseNamespaceID(rawSource)
	if err != nil {
		return nil, fmt.Errorf("scan edge source: %w", err)
	}
	target, err := id.ParseNamespaceID(rawTarget)
	if err != nil {
		return nil, fmt.Errorf("scan edge target: %w", err)
	}
	version, err := id.ParseVersionID(rawVer)
	if err != nil {
		return nil, fmt.Errorf("scan edge version: %w", err)
	}
	e.ID = edgeID
	e.SourceNamespaceID = source
	e.TargetNamespaceID = target
	e.TargetVersionID = version
	return &e, nil
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
