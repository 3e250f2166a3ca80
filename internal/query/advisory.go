package query

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/nimasrn/backoffice-ledger/pkg/logger"
	"github.com/nimasrn/backoffice-ledger/pkg/prom"
	"github.com/nimasrn/backoffice-ledger/pkg/redis"
	"github.com/pkg/errors"
)

const advisoriesKey = "query:advisories"

// Advisory tells an operator which index to provision so a degraded query
// gets its server-side ordering back.
type Advisory struct {
	Table       string    `json:"table"`
	Index       string    `json:"index"`
	Remediation string    `json:"remediation"`
	Query       string    `json:"query"`
	ObservedAt  time.Time `json:"observed_at"`
	Count       int64     `json:"count"`
}

// Recorder counts advisories and keeps the latest one per index in redis.
// Without a redis adapter they are kept in memory.
type Recorder struct {
	redis redis.RedisAdapter
	mu    sync.Mutex
	local map[string]Advisory
}

func NewRecorder(r redis.RedisAdapter) *Recorder {
	return &Recorder{redis: r, local: make(map[string]Advisory)}
}

func (r *Recorder) Record(ctx context.Context, a Advisory) {
	prom.IncIndexFallback(a.Table)

	if r.redis == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if prev, ok := r.local[a.Index]; ok {
			a.Count = prev.Count
		}
		a.Count++
		r.local[a.Index] = a
		return
	}

	if prev, err := r.get(ctx, a.Index); err == nil && prev != nil {
		a.Count = prev.Count
	}
	a.Count++
	raw, err := json.Marshal(a)
	if err != nil {
		logger.Error("failed to encode advisory", "index", a.Index, "error", err)
		return
	}
	if err := r.redis.HSet(ctx, advisoriesKey, a.Index, raw); err != nil {
		logger.Error("failed to store advisory", "index", a.Index, "error", err)
	}
}

func (r *Recorder) get(ctx context.Context, index string) (*Advisory, error) {
	all, err := r.redis.HGetAll(ctx, advisoriesKey)
	if err != nil {
		return nil, err
	}
	raw, ok := all[index]
	if !ok {
		return nil, nil
	}
	var a Advisory
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns the stored advisories ordered by index name.
func (r *Recorder) List(ctx context.Context) ([]Advisory, error) {
	var out []Advisory
	if r.redis == nil {
		r.mu.Lock()
		for _, a := range r.local {
			out = append(out, a)
		}
		r.mu.Unlock()
	} else {
		all, err := r.redis.HGetAll(ctx, advisoriesKey)
		if err != nil {
			return nil, errors.Wrap(err, "load advisories")
		}
		for index, raw := range all {
			var a Advisory
			if err := json.Unmarshal([]byte(raw), &a); err != nil {
				logger.Warn("skipping malformed advisory", "index", index, "error", err)
				continue
			}
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}
