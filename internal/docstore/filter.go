package docstore

import (
	"cmp"
	"sort"
)

// Match reports whether props satisfy the filter. A nil filter matches
// everything; a condition on a missing or empty property never matches.
func (f *Filter) Match(props Properties) bool {
	if f == nil {
		return true
	}
	p, ok := props[f.Property]
	if !ok {
		return false
	}

	switch {
	case f.Number != nil:
		if f.Number.Equals == nil {
			return true
		}
		return p.Number != nil && *p.Number == *f.Number.Equals
	case f.Date != nil:
		if p.Date == nil || p.Date.Start == "" {
			return false
		}
		if f.Date.OnOrAfter == "" {
			return true
		}
		return datePart(p.Date.Start) >= datePart(f.Date.OnOrAfter)
	default:
		return true
	}
}

// SortPages orders pages in place by the given sorts, first sort first.
// Pages missing a sort property go last in either direction.
func SortPages(pages []Page, sorts []Sort) {
	if len(sorts) == 0 {
		return
	}
	sort.SliceStable(pages, func(i, j int) bool {
		for _, s := range sorts {
			ka, okA := sortKey(pages[i].Properties[s.Property])
			kb, okB := sortKey(pages[j].Properties[s.Property])
			if okA != okB {
				return okA
			}
			if !okA {
				continue
			}
			c := compareKeys(ka, kb)
			if c == 0 {
				continue
			}
			if s.Direction == Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareKeys(a, b any) int {
	switch va := a.(type) {
	case float64:
		vb, _ := b.(float64)
		return cmp.Compare(va, vb)
	case string:
		vb, _ := b.(string)
		return cmp.Compare(va, vb)
	}
	return 0
}

func sortKey(p Property) (any, bool) {
	switch {
	case p.Number != nil:
		return *p.Number, true
	case p.Date != nil && p.Date.Start != "":
		return p.Date.Start, true
	case p.Select != nil:
		return p.Select.Name, true
	case len(p.Title) > 0 || len(p.RichText) > 0:
		return p.PlainText(), true
	}
	return nil, false
}

// datePart trims an ISO timestamp to its YYYY-MM-DD prefix
func datePart(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
