// Package queue defines the asynq tasks shared by the API and the worker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/dharsanguruparan/Previo/internal/repository"
)

const (
	// ArchiveReportTask is scheduled each time a previo is completed.
	ArchiveReportTask = "report:archive"
)

// ArchivePayload tells the worker which previo to render and where to put it.
type ArchivePayload struct {
	ReportID  string `json:"report_id"`
	PrevioID  string `json:"previo_id"`
	ObjectKey string `json:"object_key"`
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueArchive enqueues a report archiving job.
func EnqueueArchive(ctx context.Context, client Enqueuer, payload ArchivePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(ArchiveReportTask, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(5), asynq.Timeout(2*time.Minute)); err != nil {
		return fmt.Errorf("enqueue archive task: %w", err)
	}
	return nil
}

var newReportID = uuid.NewString

// ReportCreator inserts the queued report row.
type ReportCreator interface {
	Create(ctx context.Context, rep *repository.Report) error
}

// Archiver records a queued report and schedules its rendering.
type Archiver struct {
	reports ReportCreator
	client  Enqueuer
}

func NewArchiver(reports ReportCreator, client Enqueuer) *Archiver {
	return &Archiver{reports: reports, client: client}
}

// ObjectKey is where the archived report of a previo lives.
func ObjectKey(previoID, reportID string) string {
	return fmt.Sprintf("previos/%s/%s.pdf", previoID, reportID)
}

// Archive creates the report row and enqueues the task. It returns the
// report ID.
func (a *Archiver) Archive(ctx context.Context, previoID string) (string, error) {
	rep := &repository.Report{PrevioID: previoID}
	rep.ID = newReportID()
	rep.ObjectKey = ObjectKey(previoID, rep.ID)
	if err := a.reports.Create(ctx, rep); err != nil {
		return "", err
	}
	if err := EnqueueArchive(ctx, a.client, ArchivePayload{ReportID: rep.ID, PrevioID: previoID, ObjectKey: rep.ObjectKey}); err != nil {
		return "", err
	}
	return rep.ID, nil
}
