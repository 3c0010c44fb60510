// Package worker renders and archives the reports of completed previos.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/Previo/internal/metrics"
	"github.com/dharsanguruparan/Previo/internal/model"
	"github.com/dharsanguruparan/Previo/internal/queue"
	"github.com/dharsanguruparan/Previo/internal/report"
	"github.com/dharsanguruparan/Previo/internal/repository"
)

// PrevioSource loads the previo to render.
type PrevioSource interface {
	Get(ctx context.Context, id string) (*repository.Previo, error)
}

// ProductSource loads its products.
type ProductSource interface {
	ListByPrevio(ctx context.Context, previoID string) ([]repository.ProductRow, error)
}

// ReportStore tracks the report row lifecycle.
type ReportStore interface {
	MarkProcessing(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, msg string) error
	MarkCompleted(ctx context.Context, id, content string) error
}

// ReportBlobs stores rendered PDFs.
type ReportBlobs interface {
	PutReport(ctx context.Context, key string, data []byte) error
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	previos   PrevioSource
	products  ProductSource
	reports   ReportStore
	blobs     ReportBlobs
	generator *report.Generator
	metrics   *metrics.Metrics
	log       *logrus.Entry
}

// Deps groups the Processor collaborators.
type Deps struct {
	Previos   PrevioSource
	Products  ProductSource
	Reports   ReportStore
	Blobs     ReportBlobs
	Generator *report.Generator
	Metrics   *metrics.Metrics
	Log       *logrus.Entry
}

// NewProcessor constructs a worker processor.
func NewProcessor(d Deps) *Processor {
	if d.Generator == nil {
		d.Generator = report.New()
	}
	if d.Log == nil {
		d.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Processor{
		previos:   d.Previos,
		products:  d.Products,
		reports:   d.Reports,
		blobs:     d.Blobs,
		generator: d.Generator,
		metrics:   d.Metrics,
		log:       d.Log.WithField("component", "worker"),
	}
}

// Handler registers the archive job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ArchiveReportTask, p.HandleArchive)
	return mux
}

// HandleArchive renders the stored previo, uploads the PDF and keeps its
// extracted text on the report row.
func (p *Processor) HandleArchive(ctx context.Context, task *asynq.Task) error {
	var payload queue.ArchivePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
	}
	log := p.log.WithFields(logrus.Fields{"report_id": payload.ReportID, "previo_id": payload.PrevioID})
	failure := func(err error) error {
		log.WithError(err).Error("report archive failed")
		_ = p.reports.MarkFailed(ctx, payload.ReportID, err.Error())
		return err
	}
	if err := p.reports.MarkProcessing(ctx, payload.ReportID); err != nil {
		return failure(err)
	}
	previo, err := p.previos.Get(ctx, payload.PrevioID)
	if err != nil {
		return failure(err)
	}
	rows, err := p.products.ListByPrevio(ctx, payload.PrevioID)
	if err != nil {
		return failure(err)
	}
	products := make([]model.Product, len(rows))
	for i, r := range rows {
		products[i] = r.Product()
	}
	data, err := p.generator.Render(previo.Header, products)
	if err != nil {
		return failure(err)
	}
	p.metrics.RecordReport("archive")
	if err := p.blobs.PutReport(ctx, payload.ObjectKey, data); err != nil {
		return failure(err)
	}
	pages, err := report.Pages(data)
	if err != nil {
		return failure(err)
	}
	if err := p.reports.MarkCompleted(ctx, payload.ReportID, report.ArchiveContent(pages)); err != nil {
		return failure(err)
	}
	log.WithFields(logrus.Fields{"bytes": len(data), "pages": len(pages)}).Info("report archived")
	return nil
}
