package search

import (
	"log"
	"time"

	"github.com/EmpoweredVote/geodata/internal/query"
	"github.com/google/uuid"
)

// run tags the log lines of one search invocation.
type run struct {
	kind  string
	id    string
	start time.Time
}

func startRun(kind string, plan *query.Plan) *run {
	r := &run{kind: kind, id: uuid.NewString()[:8], start: time.Now()}
	log.Printf("[search] %s run=%s steps=%d", r.kind, r.id, len(plan.Steps))
	return r
}

func (r *run) logDone(hits int) {
	log.Printf("[search] %s run=%s hits=%d duration=%dms",
		r.kind, r.id, hits, time.Since(r.start).Milliseconds())
}

func (r *run) logError(operation string, err error) {
	log.Printf("[search] %s run=%s %s error: %v", r.kind, r.id, operation, err)
}
