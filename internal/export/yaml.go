package export

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/motorgrid/lotsync/internal/reconcile"
)

// reconcileDoc is the YAML shape of a reconciliation report.
type reconcileDoc struct {
	Summary struct {
		Unchanged  int `yaml:"unchanged"`
		Modified   int `yaml:"modified"`
		New        int `yaml:"new"`
		Deleted    int `yaml:"deleted"`
		FinalTotal int `yaml:"final_total"`
	} `yaml:"summary"`
	Modified   []modifiedDoc `yaml:"modified,omitempty"`
	NewIDs     []string      `yaml:"new_ids,omitempty"`
	DeletedIDs []string      `yaml:"deleted_ids,omitempty"`
}

type modifiedDoc struct {
	ID      string   `yaml:"id"`
	Changes []string `yaml:"changes"`
}

// WriteReconcileYAML writes a compact YAML summary of a partition,
// suitable for diffing between runs.
func WriteReconcileYAML(path string, p *reconcile.Partition) error {
	var doc reconcileDoc
	doc.Summary.Unchanged, doc.Summary.Modified, doc.Summary.New, doc.Summary.Deleted = p.Counts()
	doc.Summary.FinalTotal = p.FinalTotal()

	for _, m := range p.Modified {
		md := modifiedDoc{ID: m.Fresh.ID}
		for _, c := range m.Changes {
			md.Changes = append(md.Changes, c.String())
		}
		doc.Modified = append(doc.Modified, md)
	}
	for _, r := range p.New {
		doc.NewIDs = append(doc.NewIDs, r.ID)
	}
	for _, r := range p.Deleted {
		doc.DeletedIDs = append(doc.DeletedIDs, r.ID)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return eris.Wrap(err, "export: marshal yaml")
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return eris.Wrap(err, "export: write yaml")
	}
	zap.L().Info("export: yaml summary written", zap.String("path", path))
	return nil
}
