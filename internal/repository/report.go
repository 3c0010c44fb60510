package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/Previo/internal/apperr"
)

// ReportStatus enumerates the lifecycle of an archived report.
type ReportStatus string

const (
	ReportQueued     ReportStatus = "queued"
	ReportProcessing ReportStatus = "processing"
	ReportCompleted  ReportStatus = "completed"
	ReportFailed     ReportStatus = "failed"
)

// Report is a previo_reports row.
type Report struct {
	ID           string       `json:"id"`
	PrevioID     string       `json:"previo_id"`
	ObjectKey    string       `json:"object_key"`
	Status       ReportStatus `json:"status"`
	Content      string       `json:"content,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ReportRepository wraps previo_reports.
type ReportRepository struct {
	db DB
}

func NewReportRepository(db DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a queued report.
func (r *ReportRepository) Create(ctx context.Context, rep *Report) error {
	now := time.Now().UTC()
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	rep.Status = ReportQueued
	rep.CreatedAt = now
	rep.UpdatedAt = now
	_, err := r.db.Exec(ctx, `
		INSERT INTO previo_reports (id, previo_id, object_key, status, content, error_message, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, rep.ID, rep.PrevioID, rep.ObjectKey, rep.Status, "", nil, rep.CreatedAt, rep.UpdatedAt)
	if err != nil {
		return apperr.Persistence("Error al registrar el reporte", fmt.Errorf("insert report: %w", err))
	}
	return nil
}

const reportColumns = `id::text, previo_id::text, object_key, status, COALESCE(content,''), error_message, created_at, updated_at`

func scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	if err := row.Scan(&rep.ID, &rep.PrevioID, &rep.ObjectKey, &rep.Status, &rep.Content, &rep.ErrorMessage, &rep.CreatedAt, &rep.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Reporte no encontrado")
		}
		return nil, apperr.Persistence("Error al cargar el reporte", fmt.Errorf("select report: %w", err))
	}
	return &rep, nil
}

// Get returns a report by id.
func (r *ReportRepository) Get(ctx context.Context, id string) (*Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("Reporte no encontrado")
	}
	return scanReport(r.db.QueryRow(ctx, `SELECT `+reportColumns+` FROM previo_reports WHERE id=$1`, id))
}

// LatestCompleted returns the newest completed report of a previo.
func (r *ReportRepository) LatestCompleted(ctx context.Context, previoID string) (*Report, error) {
	return scanReport(r.db.QueryRow(ctx, `
		SELECT `+reportColumns+` FROM previo_reports
		WHERE previo_id=$1 AND status=$2
		ORDER BY created_at DESC LIMIT 1
	`, previoID, ReportCompleted))
}

// MarkProcessing sets the status to processing.
func (r *ReportRepository) MarkProcessing(ctx context.Context, id string) error {
	return r.updateStatus(ctx, id, ReportProcessing, nil, nil)
}

// MarkFailed stores the failure message.
func (r *ReportRepository) MarkFailed(ctx context.Context, id, msg string) error {
	return r.updateStatus(ctx, id, ReportFailed, nil, &msg)
}

// MarkCompleted stores the extracted report text.
func (r *ReportRepository) MarkCompleted(ctx context.Context, id, content string) error {
	return r.updateStatus(ctx, id, ReportCompleted, &content, nil)
}

func (r *ReportRepository) updateStatus(ctx context.Context, id string, status ReportStatus, content, errorMsg *string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE previo_reports
		SET status=$1,
			content = COALESCE($2, content),
			error_message = $3,
			updated_at=$4
		WHERE id=$5
	`, status, content, errorMsg, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	return nil
}
