package query

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/backoffice-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID    int64
	Party int64
	Day   int
}

func byDayDesc(a, b row) bool {
	if a.Day != b.Day {
		return a.Day > b.Day
	}
	return a.ID > b.ID
}

var rows = []row{
	{ID: 1, Party: 1, Day: 3},
	{ID: 2, Party: 2, Day: 9},
	{ID: 3, Party: 1, Day: 7},
	{ID: 4, Party: 1, Day: 7},
	{ID: 5, Party: 1, Day: 1},
}

// fakeStore filters rows by party and refuses ordered reads when indexed is false.
type fakeStore struct {
	indexed bool
	calls   []Query
	failAll error
}

func (s *fakeStore) exec(_ context.Context, q Query) ([]row, error) {
	s.calls = append(s.calls, q)
	if s.failAll != nil {
		return nil, s.failAll
	}
	if q.Compound() && !s.indexed {
		return nil, NewIndexUnavailable(q)
	}
	var out []row
	for _, r := range rows {
		if r.Party == q.Filters[0].Value.(int64) {
			out = append(out, r)
		}
	}
	if q.Sort != nil {
		for i := 1; i < len(out); i++ {
			for j := i; j > 0 && byDayDesc(out[j], out[j-1]); j-- {
				out[j], out[j-1] = out[j-1], out[j]
			}
		}
		if q.Limit > 0 && len(out) > q.Limit {
			out = out[:q.Limit]
		}
	}
	return out, nil
}

type captureSink struct{ got []Advisory }

func (c *captureSink) Record(_ context.Context, a Advisory) { c.got = append(c.got, a) }

func partyQuery() Query {
	return Query{
		Table:   "transactions",
		Filters: []Filter{{Field: "party_id", Value: int64(1)}},
		Sort:    &Sort{Field: "date", Desc: true},
	}
}

func TestQuery_Index(t *testing.T) {
	q := Query{
		Table:   "transactions",
		Filters: []Filter{{Field: "party_id", Value: 1}, {Field: "user_id", Value: 2}},
		Sort:    &Sort{Field: "date", Desc: true},
	}
	assert.True(t, q.Compound())
	assert.Equal(t, "idx_transactions_party_id_user_id_date", q.IndexName())
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS idx_transactions_party_id_user_id_date ON transactions (party_id, user_id, date)", q.Remediation())

	u := q.Unordered()
	assert.Nil(t, u.Sort)
	assert.False(t, u.Compound())
	assert.Len(t, u.Filters, 2)
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("indexed path", func(t *testing.T) {
		store := &fakeStore{indexed: true}
		sink := &captureSink{}
		res, err := Run(ctx, sink, partyQuery(), store.exec, byDayDesc)
		require.NoError(t, err)
		assert.False(t, res.Fallback)
		assert.Nil(t, res.Advisory)
		assert.Empty(t, sink.got)
		assert.Len(t, store.calls, 1)
	})

	t.Run("fallback returns same set in same order", func(t *testing.T) {
		indexed, err := Run(ctx, nil, partyQuery(), (&fakeStore{indexed: true}).exec, byDayDesc)
		require.NoError(t, err)

		store := &fakeStore{}
		sink := &captureSink{}
		res, err := Run(ctx, sink, partyQuery(), store.exec, byDayDesc)
		require.NoError(t, err)

		assert.True(t, res.Fallback)
		assert.Equal(t, indexed.Items, res.Items)
		assert.Equal(t, []int64{4, 3, 1, 5}, ids(res.Items))

		require.Len(t, store.calls, 2)
		assert.Nil(t, store.calls[1].Sort)

		require.NotNil(t, res.Advisory)
		require.Len(t, sink.got, 1)
		assert.Equal(t, "idx_transactions_party_id_date", sink.got[0].Index)
		assert.Contains(t, sink.got[0].Remediation, "CREATE INDEX")
	})

	t.Run("fallback applies limit after sorting", func(t *testing.T) {
		q := partyQuery()
		q.Limit = 2
		res, err := Run(ctx, nil, q, (&fakeStore{}).exec, byDayDesc)
		require.NoError(t, err)
		assert.Equal(t, []int64{4, 3}, ids(res.Items))
	})

	t.Run("other failures propagate", func(t *testing.T) {
		boom := errors.New("connection reset")
		store := &fakeStore{failAll: boom}
		sink := &captureSink{}
		_, err := Run(ctx, sink, partyQuery(), store.exec, byDayDesc)
		assert.ErrorIs(t, err, boom)
		assert.Len(t, store.calls, 1)
		assert.Empty(t, sink.got)
	})
}

func ids(rs []row) []int64 {
	out := make([]int64, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()

	t.Run("redis backed", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "test:", &goredis.UniversalOptions{
			Addrs: []string{mr.Addr()},
		})
		require.NoError(t, err)

		rec := NewRecorder(adapter)
		adv := Advisory{Table: "transactions", Index: "idx_transactions_party_id_date", Remediation: "CREATE INDEX ..."}
		rec.Record(ctx, adv)
		rec.Record(ctx, adv)
		rec.Record(ctx, Advisory{Table: "invoices", Index: "idx_invoices_party_id_created_at"})

		list, err := rec.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "idx_invoices_party_id_created_at", list[0].Index)
		assert.Equal(t, int64(1), list[0].Count)
		assert.Equal(t, int64(2), list[1].Count)
		assert.True(t, mr.Exists("test:"+advisoriesKey))
	})

	t.Run("in memory", func(t *testing.T) {
		rec := NewRecorder(nil)
		rec.Record(ctx, Advisory{Index: "idx_a"})
		list, err := rec.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
