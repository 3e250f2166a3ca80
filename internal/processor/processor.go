package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/queue"
	"github.com/nimasrn/backoffice-ledger/pkg/logger"
	"github.com/nimasrn/backoffice-ledger/pkg/redis"
	"github.com/nimasrn/backoffice-ledger/pkg/worker"
	"github.com/pkg/errors"
)

const ProcessingTimeout = 10 * time.Second
const ReportInterval = 30 * time.Second
const ShutdownTimeout = time.Minute

// Processor handles one queue message.
type Processor interface {
	Process(ctx context.Context, msg *queue.Message) error
}

type Options struct {
	Queue         queue.Config
	Consumers     int
	Workers       int
	SweepInterval time.Duration
	SweepMinAge   time.Duration
	SweepLimit    int
}

// ReconcilerService consumes the reconcile stream through a worker pool and
// periodically sweeps for invoices whose ledger link is still missing.
type ReconcilerService struct {
	adapter   redis.RedisAdapter
	processor Processor
	invoices  InvoiceReconciler
	metrics   *ServiceMetrics
	opts      Options
	queues    []*queue.Queue
	publisher *queue.JobPublisher
	worker    *worker.WorkerManager
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewReconcilerService(adapter redis.RedisAdapter, processor Processor, invoices InvoiceReconciler, metrics *ServiceMetrics, opts Options) *ReconcilerService {
	if opts.Consumers <= 0 {
		opts.Consumers = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.SweepLimit <= 0 {
		opts.SweepLimit = 100
	}
	if metrics == nil {
		metrics = NewServiceMetrics()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ReconcilerService{
		adapter:   adapter,
		processor: processor,
		invoices:  invoices,
		metrics:   metrics,
		opts:      opts,
		worker:    worker.NewWorkerManager(opts.Workers*int(max(opts.Queue.BatchSize, 1)), opts.Workers),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *ReconcilerService) Start(ctx context.Context) error {
	logger.Info("starting reconciler", "queue", s.opts.Queue.Name, "consumers", s.opts.Consumers, "workers", s.opts.Workers)

	s.worker.SetWorker(s.workerHandler)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil && !errors.Is(err, worker.ErrStopped) {
			logger.Error("worker manager stopped", "error", err)
		}
	}()

	for i := 0; i < s.opts.Consumers; i++ {
		cfg := s.opts.Queue
		cfg.ConsumerName = fmt.Sprintf("%s-%d", cfg.ConsumerName, i)

		q, err := queue.NewQueue(ctx, s.adapter, cfg)
		if err != nil {
			return errors.Wrapf(err, "create consumer %d", i)
		}
		if err := q.Consume(s.messageHandler); err != nil {
			return errors.Wrapf(err, "start consumer %d", i)
		}
		s.queues = append(s.queues, q)
	}
	s.publisher = queue.NewJobPublisher(s.queues[0])

	s.wg.Add(1)
	go s.metricsReporter()

	if s.opts.SweepInterval > 0 && s.invoices != nil {
		s.wg.Add(1)
		go s.sweepLoop()
	}

	logger.Info("reconciler started", "consumers", len(s.queues))
	return nil
}

func (s *ReconcilerService) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := Sweep(s.ctx, s.invoices, s.publisher, s.opts.SweepMinAge, s.opts.SweepLimit); err != nil && s.ctx.Err() == nil {
				logger.Error("sweep failed", "error", err)
			}
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ReconcilerService) metricsReporter() {
	defer s.wg.Done()

	ticker := time.NewTicker(ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.report()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ReconcilerService) report() {
	stats := s.metrics.GetStats()
	logger.Info("reconciler stats",
		"processed", stats.Processed,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"avg_duration_ms", stats.AvgDuration.Milliseconds(),
		"uptime_seconds", int64(stats.Uptime.Seconds()),
		"backlog", s.worker.GetUnreadCount())

	if len(s.queues) == 0 {
		return
	}
	if qs, err := s.queues[0].GetStats(context.Background()); err == nil {
		logger.Info("reconcile queue stats", "total", qs.TotalMessages, "pending", qs.PendingMessages, "dead_letters", qs.DeadLetters)
	}
}

func (s *ReconcilerService) Stop() {
	logger.Info("shutting down reconciler")
	s.cancel()

	var stopping sync.WaitGroup
	for i, q := range s.queues {
		stopping.Add(1)
		go func(index int, q *queue.Queue) {
			defer stopping.Done()
			if err := q.Stop(ShutdownTimeout); err != nil {
				logger.Error("error stopping consumer", "consumer", index, "error", err)
			}
		}(i, q)
	}
	stopping.Wait()

	s.worker.Exit()
	s.wg.Wait()
	s.report()
	logger.Info("reconciler stopped")
}

type job struct {
	ctx    context.Context
	msg    *queue.Message
	result chan error
}

// messageHandler hands the message to the worker pool and waits for the
// outcome so the queue can ack or leave it pending.
func (s *ReconcilerService) messageHandler(ctx context.Context, msg *queue.Message) error {
	ctx, cancel := context.WithTimeout(ctx, ProcessingTimeout)
	defer cancel()

	j := &job{ctx: ctx, msg: msg, result: make(chan error, 1)}
	if err := s.worker.Enqueue(ctx, j); err != nil {
		return err
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for worker")
	}
}

func (s *ReconcilerService) workerHandler(workerIndex int, v interface{}) {
	j, ok := v.(*job)
	if !ok {
		logger.Error("invalid job type in worker", "worker", workerIndex)
		return
	}
	if j.ctx.Err() != nil {
		logger.Warn("job expired before processing", "worker", workerIndex, "message_id", j.msg.ID)
		return
	}

	// result is buffered so a timed out caller never blocks the worker
	j.result <- s.processor.Process(j.ctx, j.msg)
}
