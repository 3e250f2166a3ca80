package processor

import (
	"context"
	"strconv"
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/internal/queue"
	"github.com/nimasrn/backoffice-ledger/internal/services"
	"github.com/nimasrn/backoffice-ledger/pkg/logger"
	"github.com/pkg/errors"
)

var errUnknownKind = errors.New("unknown job kind")

type InvoiceReconciler interface {
	ReconcileInvoice(ctx context.Context, id int64) (*model.Invoice, error)
	Unlinked(ctx context.Context, olderThan time.Time, limit int) ([]*model.Invoice, error)
}

type BalanceRecomputer interface {
	Recompute(ctx context.Context, partyID int64) (*model.PartyBalance, error)
}

type JobPublisher interface {
	PublishJob(ctx context.Context, job model.ReconcileJob) error
}

// ReconcileProcessor executes invoice_link and balance_recompute jobs.
type ReconcileProcessor struct {
	invoices    InvoiceReconciler
	balances    BalanceRecomputer
	idempotency *IdempotencyService
	metrics     *ServiceMetrics
}

func NewReconcileProcessor(invoices InvoiceReconciler, balances BalanceRecomputer, idempotency *IdempotencyService, metrics *ServiceMetrics) *ReconcileProcessor {
	if metrics == nil {
		metrics = NewServiceMetrics()
	}
	return &ReconcileProcessor{
		invoices:    invoices,
		balances:    balances,
		idempotency: idempotency,
		metrics:     metrics,
	}
}

func (p *ReconcileProcessor) Metrics() *ServiceMetrics {
	return p.metrics
}

// Process runs one job. A nil return acknowledges the stream entry.
func (p *ReconcileProcessor) Process(ctx context.Context, msg *queue.Message) error {
	job, err := queue.DecodeJob(msg)
	if err != nil {
		// a malformed entry never decodes on retry
		logger.Error("dropping undecodable job", "message_id", msg.ID, "error", err)
		p.metrics.RecordFailure("unknown")
		return nil
	}
	if job.ID == "" {
		job.ID = msg.ID
	}
	kind := string(job.Kind)

	claim, err := p.idempotency.Claim(ctx, job.ID)
	switch {
	case errors.Is(err, ErrAlreadyProcessed):
		logger.Info("job already processed, skipping", "job_id", job.ID, "kind", kind)
		p.metrics.RecordSkipped(kind)
		return nil
	case err != nil:
		return err
	}
	defer claim.Release(ctx)

	start := time.Now()
	if err := p.run(ctx, job); err != nil {
		if permanent(err) {
			logger.Warn("job cannot succeed, acknowledging", "job_id", job.ID, "kind", kind, "error", err)
			p.metrics.RecordSkipped(kind)
			if err := claim.Done(ctx); err != nil {
				logger.Error("failed to mark job processed", "job_id", job.ID, "error", err)
			}
			return nil
		}
		logger.Error("job failed, will retry", "job_id", job.ID, "kind", kind, "attempts", msg.Attempts, "error", err)
		p.metrics.RecordFailure(kind)
		return err
	}

	p.metrics.RecordSuccess(kind, time.Since(start))
	if err := claim.Done(ctx); err != nil {
		logger.Error("failed to mark job processed", "job_id", job.ID, "error", err)
	}
	logger.Info("job processed", "job_id", job.ID, "kind", kind, "duration", time.Since(start))
	return nil
}

func (p *ReconcileProcessor) run(ctx context.Context, job model.ReconcileJob) error {
	switch job.Kind {
	case model.JobInvoiceLink:
		_, err := p.invoices.ReconcileInvoice(ctx, job.InvoiceID)
		return err
	case model.JobBalanceRecompute:
		_, err := p.balances.Recompute(ctx, job.PartyID)
		return err
	default:
		return errors.Wrapf(errUnknownKind, "%q", job.Kind)
	}
}

func permanent(err error) bool {
	return errors.Is(err, services.ErrNotFound) ||
		errors.Is(err, services.ErrValidation) ||
		errors.Is(err, errUnknownKind)
}

// Sweep enqueues an invoice_link job for every invoice still unlinked after
// minAge. Job IDs are derived from the invoice so overlapping sweeps dedupe.
func Sweep(ctx context.Context, invoices InvoiceReconciler, publisher JobPublisher, minAge time.Duration, limit int) (int, error) {
	pending, err := invoices.Unlinked(ctx, time.Now().Add(-minAge), limit)
	if err != nil {
		return 0, errors.Wrap(err, "list unlinked invoices")
	}

	published := 0
	for _, inv := range pending {
		job := model.ReconcileJob{
			ID:        "sweep-invoice-" + strconv.FormatInt(inv.ID, 10),
			Kind:      model.JobInvoiceLink,
			InvoiceID: inv.ID,
			Reason:    "sweep: ledger status " + string(inv.LedgerStatus),
			CreatedAt: time.Now().UTC(),
		}
		if err := publisher.PublishJob(ctx, job); err != nil {
			return published, err
		}
		published++
	}
	if published > 0 {
		logger.Info("sweep enqueued unlinked invoices", "count", published)
	}
	return published, nil
}
