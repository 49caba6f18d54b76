// internal/filter/filter.go
package filter

import (
	"slices"
	"strings"
)

// All is the dimension value that places no constraint on a record.
const All = "all"

// Record is anything the filter engine can match against.
type Record interface {
	// SearchFields returns the fields matched by the free-text criterion.
	SearchFields() []string
	// Dimension returns the value of a categorical dimension and whether
	// the record carries that dimension at all.
	Dimension(name string) (string, bool)
}

// Criteria is the set of active filter values for one listing.
type Criteria struct {
	Text       string            `json:"text,omitempty"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
}

// Active reports whether any criterion constrains the result.
func (c Criteria) Active() bool {
	if strings.TrimSpace(c.Text) != "" {
		return true
	}
	for _, v := range c.Dimensions {
		if isConstraint(v) {
			return true
		}
	}
	return false
}

// With returns a copy of c with the given dimension set.
func (c Criteria) With(name, value string) Criteria {
	dims := make(map[string]string, len(c.Dimensions)+1)
	for k, v := range c.Dimensions {
		dims[k] = v
	}
	dims[name] = value
	return Criteria{Text: c.Text, Dimensions: dims}
}

// Apply returns the items matching every active criterion, in input order.
// The input slice is never modified.
func Apply[T Record](items []T, c Criteria) []T {
	text := strings.ToLower(strings.TrimSpace(c.Text))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matches(item, text, c.Dimensions) {
			out = append(out, item)
		}
	}
	return out
}

// Match reports whether a single record satisfies the criteria.
func Match(r Record, c Criteria) bool {
	return matches(r, strings.ToLower(strings.TrimSpace(c.Text)), c.Dimensions)
}

func matches(r Record, text string, dims map[string]string) bool {
	if text != "" && !matchesText(r.SearchFields(), text) {
		return false
	}
	for name, want := range dims {
		if !isConstraint(want) {
			continue
		}
		got, ok := r.Dimension(name)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func matchesText(fields []string, text string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), text) {
			return true
		}
	}
	return false
}

func isConstraint(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.EqualFold(v, All)
}

// Values collects the distinct values of a dimension across items, sorted.
// Records without the dimension are skipped.
func Values[T Record](items []T, name string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, item := range items {
		v, ok := item.Dimension(name)
		if !ok || v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
