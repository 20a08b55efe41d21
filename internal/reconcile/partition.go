// Package reconcile partitions a prior snapshot and a fresh feed into
// unchanged, modified, new, and deleted records with itemized per-field
// changes.
package reconcile

import (
	"fmt"

	"github.com/motorgrid/lotsync/internal/model"
)

// FieldChange records one monitored field that differs between the
// prior and fresh copy of a record. Old and New are display strings;
// an absent monetary value renders as "(empty)".
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

func (c FieldChange) String() string {
	return fmt.Sprintf("%s: %s → %s", c.Field, c.Old, c.New)
}

// ModifiedRecord pairs the prior and fresh copies of a record whose
// monitored fields differ. Changes lists every differing field, not
// just the first found.
type ModifiedRecord struct {
	Prior   model.CatalogRecord `json:"prior"`
	Fresh   model.CatalogRecord `json:"fresh"`
	Changes []FieldChange       `json:"changes"`
}

// Partition is the result of reconciling a prior set against a fresh
// set. The four lists are disjoint and together cover every identifier
// present in either input exactly once.
type Partition struct {
	Unchanged []model.CatalogRecord `json:"unchanged"`
	Modified  []ModifiedRecord      `json:"modified"`
	New       []model.CatalogRecord `json:"new"`
	Deleted   []model.CatalogRecord `json:"deleted"`
}

// Counts returns the size of each category in list order.
func (p *Partition) Counts() (unchanged, modified, added, deleted int) {
	return len(p.Unchanged), len(p.Modified), len(p.New), len(p.Deleted)
}

// FinalTotal is the number of records forwarded downstream: unchanged,
// modified and new. Deleted records are reported but not forwarded.
func (p *Partition) FinalTotal() int {
	return len(p.Unchanged) + len(p.Modified) + len(p.New)
}

// Merged returns the final record set in partition order: unchanged
// records first, then the fresh copy of each modified record, then new
// records.
func (p *Partition) Merged() []model.CatalogRecord {
	out := make([]model.CatalogRecord, 0, p.FinalTotal())
	out = append(out, p.Unchanged...)
	for _, m := range p.Modified {
		out = append(out, m.Fresh)
	}
	out = append(out, p.New...)
	return out
}

func (p *Partition) String() string {
	return fmt.Sprintf("unchanged=%d modified=%d new=%d deleted=%d final=%d",
		len(p.Unchanged), len(p.Modified), len(p.New), len(p.Deleted), p.FinalTotal())
}
