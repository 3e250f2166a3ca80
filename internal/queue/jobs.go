package queue

import (
	"context"
	"encoding/json"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/pkg/errors"
)

const kindMetadata = "kind"

// JobPublisher enqueues reconcile jobs on a stream.
type JobPublisher struct {
	q *Queue
}

func NewJobPublisher(q *Queue) *JobPublisher {
	return &JobPublisher{q: q}
}

func (p *JobPublisher) PublishJob(ctx context.Context, job model.ReconcileJob) error {
	_, err := p.q.PublishJSON(ctx, job, map[string]string{kindMetadata: string(job.Kind)})
	if err != nil {
		return errors.Wrapf(err, "publish %s job %s", job.Kind, job.ID)
	}
	return nil
}

// DecodeJob reads the job carried by msg.
func DecodeJob(msg *Message) (model.ReconcileJob, error) {
	var job model.ReconcileJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		return job, errors.Wrapf(err, "decode job %s", msg.ID)
	}
	if job.Kind == "" {
		job.Kind = model.JobKind(msg.Metadata[kindMetadata])
	}
	return job, nil
}
