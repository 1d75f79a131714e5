package fluid

import (
	"sort"
	"time"

	"github.com/mlange-42/ark/ecs"
)

// PendingSplat is the component holding a splat that has not been applied yet.
type PendingSplat struct {
	Splat Splat
}

// DueAt is the component holding when a pending splat becomes due. Seq orders
// splats that share a due time by insertion.
type DueAt struct {
	At  time.Time
	Seq uint64
}

// splatQueue holds delayed splats as entities so click bursts and host timers
// share one drain point at the start of a frame.
type splatQueue struct {
	world  *ecs.World
	mapper *ecs.Map2[PendingSplat, DueAt]
	filter *ecs.Filter2[PendingSplat, DueAt]
	seq    uint64
	count  int
}

func newSplatQueue() *splatQueue {
	world := ecs.NewWorld()
	return &splatQueue{
		world:  world,
		mapper: ecs.NewMap2[PendingSplat, DueAt](world),
		filter: ecs.NewFilter2[PendingSplat, DueAt](world),
	}
}

func (q *splatQueue) push(sp Splat, at time.Time) {
	q.seq++
	q.mapper.NewEntity(&PendingSplat{Splat: sp}, &DueAt{At: at, Seq: q.seq})
	q.count++
}

// due removes and returns every splat due at or before now, oldest first.
func (q *splatQueue) due(now time.Time) []Splat {
	if q.count == 0 {
		return nil
	}

	type dueSplat struct {
		entity ecs.Entity
		splat  Splat
		at     DueAt
	}
	var ready []dueSplat

	query := q.filter.Query()
	for query.Next() {
		ps, at := query.Get()
		if !at.At.After(now) {
			ready = append(ready, dueSplat{entity: query.Entity(), splat: ps.Splat, at: *at})
		}
	}
	if len(ready) == 0 {
		return nil
	}

	sort.Slice(ready, func(i, j int) bool {
		a, b := ready[i].at, ready[j].at
		if !a.At.Equal(b.At) {
			return a.At.Before(b.At)
		}
		return a.Seq < b.Seq
	})

	out := make([]Splat, len(ready))
	for i, r := range ready {
		q.mapper.Remove(r.entity)
		out[i] = r.splat
	}
	q.count -= len(ready)
	return out
}

func (q *splatQueue) len() int { return q.count }
