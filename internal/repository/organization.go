package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/Previo/internal/apperr"
)

// OrganizationRepository resolves the tenant of a user.
type OrganizationRepository struct {
	db DB
}

func NewOrganizationRepository(db DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// OrganizationForUser reads profiles.organization_id for userID.
func (r *OrganizationRepository) OrganizationForUser(ctx context.Context, userID string) (string, error) {
	var orgID *string
	err := r.db.QueryRow(ctx, `SELECT organization_id::text FROM profiles WHERE id=$1 LIMIT 1`, userID).Scan(&orgID)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && orgID == nil) {
		return "", apperr.NotFound("No se encontró la organización para este usuario")
	}
	if err != nil {
		return "", apperr.Persistence("No se pudo obtener información de la organización", fmt.Errorf("select profile: %w", err))
	}
	return *orgID, nil
}

// EnsureOrganization inserts an organization and a profile bound to it. The
// CLI uses it to seed a development tenant.
func (r *OrganizationRepository) EnsureOrganization(ctx context.Context, orgID, name, userID, email string) error {
	if _, err := r.db.Exec(ctx, `
		INSERT INTO organizations (id, name) VALUES ($1,$2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, orgID, name); err != nil {
		return fmt.Errorf("upsert organization: %w", err)
	}
	if _, err := r.db.Exec(ctx, `
		INSERT INTO profiles (id, email, organization_id) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET organization_id = EXCLUDED.organization_id, updated_at = now()
	`, userID, email, orgID); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
