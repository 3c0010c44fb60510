package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/imageupload"
	"github.com/dharsanguruparan/Previo/internal/model"
)

// ProductRow is a products row. Details holds the full product record when
// the row was written by the wizard.
type ProductRow struct {
	ID           string         `json:"id"`
	PrevioID     string         `json:"previo_id"`
	Position     int            `json:"position"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Quantity     int            `json:"quantity"`
	Weight       float64        `json:"weight"`
	SerialNumber string         `json:"serial_number"`
	ImageURL     string         `json:"image_url"`
	Details      *model.Product `json:"details,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Product returns the canonical product of the row. Rows without details
// are rebuilt from the flat columns.
func (r ProductRow) Product() model.Product {
	if r.Details != nil {
		return *r.Details
	}
	p := model.NewProduct(r.ID)
	p.NumeroParte = r.Name
	p.Descripcion = r.Description
	p.Cantidad = r.Quantity
	p.PesoNetoUnitario = r.Weight
	p.Serie = r.SerialNumber
	p.ProductPhoto = model.PhotoRef(r.ImageURL)
	p.RecomputeNetTotal()
	return p
}

// ProductRepository wraps the products table.
type ProductRepository struct {
	db  DB
	now func() time.Time
}

func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// RowID is the products.id for a wizard product; photos use the same ID.
func RowID(p model.Product) string {
	if p.ID == "" {
		return uuid.NewString()
	}
	return imageupload.EnsureUUID(p.ID)
}

// CreateAll inserts products in order. It stops at the first failure and
// leaves earlier rows in place.
func (r *ProductRepository) CreateAll(ctx context.Context, previoID string, products []model.Product) error {
	now := r.now()
	for i, p := range products {
		details, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode product %d: %w", i+1, err)
		}
		_, err = r.db.Exec(ctx, `
			INSERT INTO products (id, previo_id, position, name, description, quantity, weight, serial_number, image_url, details, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (id) DO UPDATE SET
				position=EXCLUDED.position, name=EXCLUDED.name, description=EXCLUDED.description,
				quantity=EXCLUDED.quantity, weight=EXCLUDED.weight, serial_number=EXCLUDED.serial_number,
				image_url=EXCLUDED.image_url, details=EXCLUDED.details
		`, RowID(p), previoID, i, p.Name(), nullable(p.Descripcion), p.Cantidad, p.PesoNetoUnitario,
			nullable(p.SerialText()), nullable(string(p.ProductPhoto)), details, now)
		if err != nil {
			return apperr.Persistence(fmt.Sprintf("Error al guardar el producto %d", i+1), fmt.Errorf("insert product: %w", err))
		}
	}
	return nil
}

const productColumns = `id::text, previo_id::text, position, name, COALESCE(description,''), quantity,
	COALESCE(weight,0)::float8, COALESCE(serial_number,''), COALESCE(image_url,''), details, created_at`

func scanProduct(row pgx.Row) (*ProductRow, error) {
	var (
		p       ProductRow
		details []byte
	)
	if err := row.Scan(&p.ID, &p.PrevioID, &p.Position, &p.Name, &p.Description, &p.Quantity,
		&p.Weight, &p.SerialNumber, &p.ImageURL, &details, &p.CreatedAt); err != nil {
		return nil, err
	}
	if len(details) > 0 {
		var d model.Product
		if err := json.Unmarshal(details, &d); err != nil {
			return nil, fmt.Errorf("decode product details: %w", err)
		}
		p.Details = &d
	}
	return &p, nil
}

// ListByPrevio returns the products of a previo in wizard order.
func (r *ProductRepository) ListByPrevio(ctx context.Context, previoID string) ([]ProductRow, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE previo_id=$1 ORDER BY position, created_at`, previoID)
	if err != nil {
		return nil, apperr.Persistence("Error al cargar los productos", fmt.Errorf("list products: %w", err))
	}
	defer rows.Close()
	var out []ProductRow
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("Error al cargar los productos", fmt.Errorf("iterate products: %w", err))
	}
	return out, nil
}

// Get returns one product row.
func (r *ProductRepository) Get(ctx context.Context, id string) (*ProductRow, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("Producto no encontrado")
	}
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Producto no encontrado")
	}
	if err != nil {
		return nil, apperr.Persistence("Error al cargar el producto", fmt.Errorf("select product: %w", err))
	}
	return p, nil
}
