package reconcile

import (
	"fmt"
	"strconv"

	"github.com/motorgrid/lotsync/internal/model"
)

const emptyValue = "(empty)"

// fieldComparator compares one monitored field between the prior and
// fresh copy of a record. It returns the change, or ok=false when the
// field is equal.
type fieldComparator func(prior, fresh model.CatalogRecord) (FieldChange, bool)

// comparators holds the full set of monitored fields. The reconcile
// config selects a subset by name; an empty selection means all.
var comparators = map[string]fieldComparator{
	"price":    comparePrice,
	"mileage":  compareIntField("mileage", func(r model.CatalogRecord) *int { return r.Mileage }),
	"year":     compareIntField("year", func(r model.CatalogRecord) *int { return r.Year }),
	"active":   compareBoolField("active", func(r model.CatalogRecord) bool { return r.Active }),
	"featured": compareBoolField("featured", func(r model.CatalogRecord) bool { return r.Featured }),
}

// defaultFieldOrder fixes the order changes are reported in, so the
// change list is deterministic for equal inputs.
var defaultFieldOrder = []string{"price", "mileage", "year", "active", "featured"}

// comparePrice applies the monetary empty rule: a nil price and a zero
// amount are both "empty", and two empty values are equal regardless of
// representation. One empty side against a non-empty side is a change
// with the empty side rendered as "(empty)".
func comparePrice(prior, fresh model.CatalogRecord) (FieldChange, bool) {
	priorEmpty := prior.Price == nil || prior.Price.IsEmpty()
	freshEmpty := fresh.Price == nil || fresh.Price.IsEmpty()

	if priorEmpty && freshEmpty {
		return FieldChange{}, false
	}
	if !priorEmpty && !freshEmpty &&
		prior.Price.Amount == fresh.Price.Amount &&
		prior.Price.Currency == fresh.Price.Currency {
		return FieldChange{}, false
	}
	return FieldChange{
		Field: "price",
		Old:   formatMoney(prior.Price),
		New:   formatMoney(fresh.Price),
	}, true
}

func formatMoney(m *model.Money) string {
	if m == nil || m.IsEmpty() {
		return emptyValue
	}
	s := strconv.FormatFloat(m.Amount, 'f', -1, 64)
	if m.Currency != "" {
		return s + " " + m.Currency
	}
	return s
}

func compareIntField(name string, get func(model.CatalogRecord) *int) fieldComparator {
	return func(prior, fresh model.CatalogRecord) (FieldChange, bool) {
		p, f := get(prior), get(fresh)
		if p == nil && f == nil {
			return FieldChange{}, false
		}
		if p != nil && f != nil && *p == *f {
			return FieldChange{}, false
		}
		return FieldChange{Field: name, Old: formatInt(p), New: formatInt(f)}, true
	}
}

func formatInt(v *int) string {
	if v == nil {
		return emptyValue
	}
	return strconv.Itoa(*v)
}

func compareBoolField(name string, get func(model.CatalogRecord) bool) fieldComparator {
	return func(prior, fresh model.CatalogRecord) (FieldChange, bool) {
		p, f := get(prior), get(fresh)
		if p == f {
			return FieldChange{}, false
		}
		return FieldChange{Field: name, Old: fmt.Sprintf("%t", p), New: fmt.Sprintf("%t", f)}, true
	}
}
