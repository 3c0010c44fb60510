package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/model"
)

// ImageRepository wraps operation_images.
type ImageRepository struct {
	db DB
}

func NewImageRepository(db DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// CreateImage inserts img and assigns its ID.
func (r *ImageRepository) CreateImage(ctx context.Context, img *model.OperationImage) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO operation_images (id, url, operation_type, operation_id, product_id, description, file_path, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, img.ID, img.URL, img.OperationType, img.OperationID, img.ProductID, img.Description, img.FilePath, img.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert operation image: %w", err)
	}
	return nil
}

const imageColumns = `id::text, url, operation_type, operation_id::text, product_id::text, description, file_path, created_at`

func scanImage(row pgx.Row) (*model.OperationImage, error) {
	var img model.OperationImage
	err := row.Scan(&img.ID, &img.URL, &img.OperationType, &img.OperationID, &img.ProductID, &img.Description, &img.FilePath, &img.CreatedAt)
	return &img, err
}

// FindImageByURL looks up the metadata of a stored photo.
func (r *ImageRepository) FindImageByURL(ctx context.Context, url string) (*model.OperationImage, error) {
	img, err := scanImage(r.db.QueryRow(ctx, `SELECT `+imageColumns+` FROM operation_images WHERE url=$1`, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Imagen no encontrada")
	}
	if err != nil {
		return nil, apperr.Persistence("Error al buscar la imagen", fmt.Errorf("select operation image: %w", err))
	}
	return img, nil
}

// DeleteImageByURL removes the metadata row of a photo.
func (r *ImageRepository) DeleteImageByURL(ctx context.Context, url string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM operation_images WHERE url=$1`, url); err != nil {
		return apperr.Persistence("Error al eliminar la imagen", fmt.Errorf("delete operation image: %w", err))
	}
	return nil
}

// ListImages returns the photos of an operation, oldest first.
func (r *ImageRepository) ListImages(ctx context.Context, op model.OperationType, operationID string, productID *string) ([]model.OperationImage, error) {
	query := `SELECT ` + imageColumns + ` FROM operation_images WHERE operation_type=$1 AND operation_id=$2`
	args := []any{op, operationID}
	if productID != nil {
		query += ` AND product_id=$3`
		args = append(args, *productID)
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, apperr.Persistence("Error al cargar las imágenes", fmt.Errorf("list operation images: %w", err))
	}
	defer rows.Close()
	var out []model.OperationImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation image: %w", err)
		}
		out = append(out, *img)
	}
	return out, rows.Err()
}
