package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/model"
)

// Previo is a previos row.
type Previo struct {
	Header         model.ShipmentHeader `json:"header"`
	OrganizationID string               `json:"organization_id"`
	CreatedBy      string               `json:"created_by"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// PrevioSummary is one line of the previo list.
type PrevioSummary struct {
	ID           string       `json:"id"`
	Client       string       `json:"client"`
	Entry        string       `json:"entry"`
	Supplier     string       `json:"supplier"`
	Date         model.Date   `json:"date"`
	Status       model.Status `json:"status"`
	ProductCount int          `json:"product_count"`
	ImageCount   int          `json:"image_count"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ListFilter narrows the previo list. Search matches client, entry or
// supplier case-insensitively.
type ListFilter struct {
	OrganizationID string
	Status         model.Status
	Search         string
	Limit          int
}

// PrevioRepository wraps the previos table.
type PrevioRepository struct {
	db  DB
	now func() time.Time
}

func NewPrevioRepository(db DB) *PrevioRepository {
	return &PrevioRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts an in-progress previo and assigns h.ID.
func (r *PrevioRepository) Create(ctx context.Context, h *model.ShipmentHeader, organizationID, createdBy string) error {
	id := uuid.NewString()
	now := r.now()
	packaging, err := json.Marshal(h.Packaging)
	if err != nil {
		return fmt.Errorf("encode packaging: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO previos (id, client, date, entry, supplier, purchase_order, tracking_number, reviewer,
			packages, package_type, carrier, total_weight, location, packaging, status, organization_id, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$18)
	`, id, h.Client, h.Date.Time, h.Entry, h.Supplier, nullable(h.PurchaseOrder), nullable(h.TrackingNumber), nullable(h.Reviewer),
		h.Packages, nullable(h.PackageType), nullable(h.Carrier), h.TotalWeight, nullable(h.Location), packaging,
		model.StatusInProgress, organizationID, createdBy, now)
	if err != nil {
		return apperr.Persistence("Error al crear el previo", fmt.Errorf("insert previo: %w", err))
	}
	h.ID = &id
	h.Status = model.StatusInProgress
	return nil
}

// UpdatePackaging writes the packaging step onto an existing previo.
func (r *PrevioRepository) UpdatePackaging(ctx context.Context, h model.ShipmentHeader) error {
	packaging, err := json.Marshal(h.Packaging)
	if err != nil {
		return fmt.Errorf("encode packaging: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE previos
		SET packages=$1, package_type=$2, carrier=$3, total_weight=$4, location=$5, packaging=$6, updated_at=$7
		WHERE id=$8
	`, h.Packages, nullable(h.PackageType), nullable(h.Carrier), h.TotalWeight, nullable(h.Location), packaging, r.now(), h.PrevioID())
	if err != nil {
		return apperr.Persistence("Error al guardar la información de embalaje", fmt.Errorf("update previo: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Previo no encontrado")
	}
	return nil
}

// SetStatus moves a previo to status.
func (r *PrevioRepository) SetStatus(ctx context.Context, id string, status model.Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE previos SET status=$1, updated_at=$2 WHERE id=$3`, status, r.now(), id)
	if err != nil {
		return apperr.Persistence("Error al actualizar el previo", fmt.Errorf("update previo status: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Previo no encontrado")
	}
	return nil
}

const previoColumns = `id::text, client, date, entry, supplier, COALESCE(purchase_order,''), COALESCE(tracking_number,''),
	COALESCE(reviewer,''), packages, COALESCE(package_type,''), COALESCE(carrier,''), COALESCE(total_weight,0)::float8,
	COALESCE(location,''), packaging, status, organization_id::text, created_by, created_at, updated_at`

// Get returns a previo by id.
func (r *PrevioRepository) Get(ctx context.Context, id string) (*Previo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("Previo no encontrado")
	}
	var (
		p         Previo
		previoID  string
		date      time.Time
		packaging []byte
	)
	h := &p.Header
	err := r.db.QueryRow(ctx, `SELECT `+previoColumns+` FROM previos WHERE id=$1`, id).Scan(
		&previoID, &h.Client, &date, &h.Entry, &h.Supplier, &h.PurchaseOrder, &h.TrackingNumber,
		&h.Reviewer, &h.Packages, &h.PackageType, &h.Carrier, &h.TotalWeight,
		&h.Location, &packaging, &h.Status, &p.OrganizationID, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Previo no encontrado")
	}
	if err != nil {
		return nil, apperr.Persistence("Error al cargar los datos del previo", fmt.Errorf("select previo: %w", err))
	}
	h.ID = &previoID
	h.Date = model.Today(date)
	if len(packaging) > 0 {
		if err := json.Unmarshal(packaging, &h.Packaging); err != nil {
			return nil, fmt.Errorf("decode packaging: %w", err)
		}
	}
	return &p, nil
}

// List returns previos newest first with their product and image counts.
func (r *PrevioRepository) List(ctx context.Context, f ListFilter) ([]PrevioSummary, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.OrganizationID != "" {
		where = append(where, "p.organization_id = "+arg(f.OrganizationID)+"::uuid")
	}
	if f.Status != "" {
		where = append(where, "p.status = "+arg(f.Status))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := arg("%" + s + "%")
		where = append(where, "(p.client ILIKE "+like+" OR p.entry ILIKE "+like+" OR p.supplier ILIKE "+like+")")
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT p.id::text, p.client, p.entry, p.supplier, p.date, p.status, p.created_at,
			(SELECT count(*) FROM products pr WHERE pr.previo_id = p.id),
			(SELECT count(*) FROM operation_images oi WHERE oi.operation_id = p.id)
		FROM previos p`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.created_at DESC LIMIT " + arg(limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Persistence("Error al cargar los previos", fmt.Errorf("list previos: %w", err))
	}
	defer rows.Close()
	var out []PrevioSummary
	for rows.Next() {
		var (
			s    PrevioSummary
			date time.Time
		)
		if err := rows.Scan(&s.ID, &s.Client, &s.Entry, &s.Supplier, &date, &s.Status, &s.CreatedAt, &s.ProductCount, &s.ImageCount); err != nil {
			return nil, fmt.Errorf("scan previo: %w", err)
		}
		s.Date = model.Today(date)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("Error al cargar los previos", fmt.Errorf("iterate previos: %w", err))
	}
	return out, nil
}
