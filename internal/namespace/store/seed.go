package store

import (
	"context"
	"time"

	"ontoreg/internal/iri"
	"ontoreg/internal/namespace/models"
	id "ontoreg/pkg/domain"
)

// Creator is the slice of a namespace store the seeder needs.
type Creator interface {
	CreateIfIdentityAvailable(ctx context.Context, ns *models.Namespace) error
}

// SeedDefaultNamespaces registers the base namespaces every deployment
// starts with. Seeding is explicit (called from main) rather than implicit
// in store construction, and is idempotent: existing identities are left
// untouched.
func SeedDefaultNamespaces(ctx context.Context, s Creator) []*models.Namespace {
	now := time.Now()
	defaults := []struct {
		name        string
		nsType      models.Type
		prefix      string
		description string
	}{
		{"odras", models.TypeCore, "odras", "Core ODRAS ontology"},
		{"odras-vocab", models.TypeVocab, "ov", "Shared vocabulary terms"},
	}

	seeded := make([]*models.Namespace, 0, len(defaults))
	for _, d := range defaults {
		path, err := iri.NamespacePath(string(d.nsType), d.name)
		if err != nil {
			continue
		}
		ns, err := models.NewNamespace(id.NewNamespaceID(), d.name, d.nsType, path, d.prefix, nil, d.description, now)
		if err != nil {
			continue
		}
		if err := s.CreateIfIdentityAvailable(ctx, ns); err != nil {
			continue
		}
		seeded = append(seeded, ns)
	}
	return seeded
}
