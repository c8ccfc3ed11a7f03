package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/selectt/autofacture-extractor/constants"
	"github.com/selectt/autofacture-extractor/internal/common"
	"github.com/selectt/autofacture-extractor/internal/entity"
)

// ProgressFunc receives a monotonically increasing count of documents
// processed out of total. Calls are serialized.
type ProgressFunc func(done, total int)

// BatchProcessor runs the per-document pipeline over an ordered collection,
// isolating every per-document failure. Documents carry no data dependency
// on one another, so they may run on a bounded worker pool; each worker
// writes only its own result slot and the accumulation counters are held
// under one mutex.
type BatchProcessor struct {
	proc     *Processor
	logger   *slog.Logger
	workers  int
	progress ProgressFunc
}

type BatchOption func(*BatchProcessor)

func WithWorkers(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.workers = n
		}
	}
}

func WithProgress(fn ProgressFunc) BatchOption {
	return func(b *BatchProcessor) { b.progress = fn }
}

func NewBatchProcessor(proc *Processor, logger *slog.Logger, opts ...BatchOption) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	b := &BatchProcessor{proc: proc, logger: logger, workers: 4}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Run processes docs and returns one BatchResult with exactly one entry per
// input document, in input order. The only batch-level error is an empty
// input collection. Cancelling ctx stops issuing further documents;
// already-started documents run to completion and unissued ones become
// FAILED entries.
func (b *BatchProcessor) Run(ctx context.Context, docs []entity.Document) (*entity.BatchResult, error) {
	if len(docs) == 0 {
		return nil, common.ErrEmptyBatch
	}

	workers := b.workers
	if workers > len(docs) {
		workers = len(docs)
	}

	outcomes := make([]entity.DocumentOutcome, len(docs))
	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = b.runOne(docs[i])
				mu.Lock()
				done++
				if b.progress != nil {
					b.progress(done, len(docs))
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for i := range docs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for i := range outcomes {
		if outcomes[i].Status == "" {
			outcomes[i] = entity.DocumentOutcome{
				DocumentID: docs[i].ID,
				Status:     constants.StatusFailed,
				Diagnostic: "batch cancelled before processing",
			}
		}
	}
	flagDuplicates(outcomes)

	res := &entity.BatchResult{
		BatchID:  uuid.New(),
		Total:    len(docs),
		Outcomes: outcomes,
	}
	totalNet, totalGross := decimal.Zero, decimal.Zero
	for _, o := range outcomes {
		switch o.Status {
		case constants.StatusComplete:
			res.Complete++
		case constants.StatusPartial:
			res.Partial++
		default:
			res.Failed++
		}
		if o.Record != nil {
			if o.Record.NetAmount != nil {
				totalNet = totalNet.Add(*o.Record.NetAmount)
			}
			if o.Record.GrossAmount != nil {
				totalGross = totalGross.Add(*o.Record.GrossAmount)
			}
		}
	}

	b.logger.Info("batch.done",
		"batch_id", res.BatchID.String(),
		"total", res.Total,
		"complete", res.Complete,
		"partial", res.Partial,
		"failed", res.Failed,
		"total_net", totalNet.StringFixed(2),
		"total_gross", totalGross.StringFixed(2),
	)
	return res, nil
}

// runOne shields the batch from anything a single document does, including
// panics in rule code.
func (b *BatchProcessor) runOne(doc entity.Document) (out entity.DocumentOutcome) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("doc.panic", "doc_id", doc.ID, "panic", r)
			out = entity.DocumentOutcome{
				DocumentID: doc.ID,
				Status:     constants.StatusFailed,
				Diagnostic: fmt.Sprintf("processing panic: %v", r),
			}
		}
	}()
	return b.proc.ProcessDocument(doc)
}

// flagDuplicates appends a diagnostic to every outcome whose invoice number
// was already claimed by an earlier document. Duplicates are flagged, never
// merged.
func flagDuplicates(outcomes []entity.DocumentOutcome) {
	seen := make(map[string]string)
	for i := range outcomes {
		rec := outcomes[i].Record
		if rec == nil {
			continue
		}
		if first, dup := seen[rec.InvoiceNumber]; dup {
			d := fmt.Sprintf("duplicate invoice number %s (first seen in %s)", rec.InvoiceNumber, first)
			if outcomes[i].Diagnostic != "" {
				d = outcomes[i].Diagnostic + "; " + d
			}
			outcomes[i].Diagnostic = d
			continue
		}
		seen[rec.InvoiceNumber] = outcomes[i].DocumentID
	}
}
