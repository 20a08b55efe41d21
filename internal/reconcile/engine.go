package reconcile

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/motorgrid/lotsync/internal/config"
	"github.com/motorgrid/lotsync/internal/model"
)

// Engine reconciles a prior snapshot against a fresh feed. Pure and
// synchronous: neither input is mutated and the output is fully
// determined by the inputs and the configured field set.
type Engine struct {
	fields []string
}

// NewEngine creates an Engine comparing the configured monitored
// fields. An empty field list selects the full default set; an unknown
// field name is an error.
func NewEngine(cfg config.ReconcileConfig) (*Engine, error) {
	fields := cfg.MonitoredFields
	if len(fields) == 0 {
		fields = defaultFieldOrder
	}
	for _, f := range fields {
		if _, ok := comparators[f]; !ok {
			return nil, eris.Errorf("reconcile: unknown monitored field %q", f)
		}
	}
	return &Engine{fields: fields}, nil
}

// Key normalizes a record identifier for set membership. Identifiers
// arrive from heterogeneous sources (numeric JSON IDs, spreadsheet
// cells) and are compared as trimmed strings so "42" and " 42" key the
// same record.
func Key(id string) string {
	return strings.TrimSpace(id)
}

// Reconcile partitions prior and fresh into unchanged, modified, new
// and deleted. Every identifier appearing in either input lands in
// exactly one list; records with a blank identifier are excluded from
// all four and logged. Output order follows input order: prior order
// for unchanged/modified/deleted, fresh order for new.
func (e *Engine) Reconcile(prior, fresh []model.CatalogRecord) *Partition {
	freshByKey := make(map[string]model.CatalogRecord, len(fresh))
	for _, rec := range fresh {
		k := Key(rec.ID)
		if k == "" {
			zap.L().Warn("reconcile: blank identifier in fresh set, record skipped",
				zap.String("brand", rec.Brand),
				zap.String("model", rec.Model))
			continue
		}
		if _, dup := freshByKey[k]; dup {
			zap.L().Warn("reconcile: duplicate identifier in fresh set, keeping first",
				zap.String("id", k))
			continue
		}
		freshByKey[k] = rec
	}

	p := &Partition{}
	seen := make(map[string]struct{}, len(prior))

	for _, priorRec := range prior {
		k := Key(priorRec.ID)
		if k == "" {
			zap.L().Warn("reconcile: blank identifier in prior set, record skipped",
				zap.String("brand", priorRec.Brand),
				zap.String("model", priorRec.Model))
			continue
		}
		if _, dup := seen[k]; dup {
			zap.L().Warn("reconcile: duplicate identifier in prior set, keeping first",
				zap.String("id", k))
			continue
		}
		seen[k] = struct{}{}

		freshRec, ok := freshByKey[k]
		if !ok {
			p.Deleted = append(p.Deleted, priorRec)
			continue
		}

		changes := e.compare(priorRec, freshRec)
		if len(changes) > 0 {
			p.Modified = append(p.Modified, ModifiedRecord{
				Prior:   priorRec,
				Fresh:   freshRec,
				Changes: changes,
			})
			continue
		}

		// Unchanged keeps the prior values but carries the fresh feed's
		// audit timestamps forward.
		kept := priorRec
		kept.CreatedAt = freshRec.CreatedAt
		kept.UpdatedAt = freshRec.UpdatedAt
		p.Unchanged = append(p.Unchanged, kept)
	}

	for _, rec := range fresh {
		k := Key(rec.ID)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		p.New = append(p.New, rec)
	}

	zap.L().Info("reconcile: partition complete",
		zap.Int("prior", len(prior)),
		zap.Int("fresh", len(fresh)),
		zap.Int("unchanged", len(p.Unchanged)),
		zap.Int("modified", len(p.Modified)),
		zap.Int("new", len(p.New)),
		zap.Int("deleted", len(p.Deleted)),
	)
	return p
}

// compare runs every configured comparator and collects all differing
// fields in the fixed report order.
func (e *Engine) compare(prior, fresh model.CatalogRecord) []FieldChange {
	var changes []FieldChange
	for _, name := range e.fields {
		if c, changed := comparators[name](prior, fresh); changed {
			changes = append(changes, c)
		}
	}
	return changes
}
