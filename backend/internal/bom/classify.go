package bom

import (
	"fmt"

	"github.com/google/uuid"

	bomerrors "bom-server/backend/pkg/errors"
)

// Filter selects parts by how they sit in the graph
type Filter string

const (
	FilterAll         Filter = "all"
	FilterTopLevel    Filter = "top_level"
	FilterAssembly    Filter = "assembly"
	FilterSubassembly Filter = "subassembly"
	FilterComponent   Filter = "component"
	FilterOrphan      Filter = "orphan"
)

// Filters lists every filter in display order
var Filters = []Filter{FilterAll, FilterTopLevel, FilterAssembly, FilterSubassembly, FilterComponent, FilterOrphan}

// childFilters are the filters accepted when listing a part's children
var childFilters = map[Filter]bool{FilterAll: true, FilterTopLevel: true, FilterComponent: true}

// ParseFilter parses a query value. The empty string means FilterAll.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", bomerrors.NewValidation("filter", fmt.Sprintf("unknown filter %q", s))
}

// Match applies the filter to a part's edge counts
func (f Filter) Match(parents, children int) bool {
	switch f {
	case FilterAll:
		return true
	case FilterTopLevel:
		return children > 0 && parents == 0
	case FilterAssembly:
		return children > 0
	case FilterSubassembly:
		return children > 0 && parents > 0
	case FilterComponent:
		return children == 0 && parents > 0
	case FilterOrphan:
		return parents == 0 && children == 0
	}
	return false
}

// MatchPart applies the filter to a part copy
func (f Filter) MatchPart(p Part) bool {
	return f.Match(len(p.Parents), len(p.Children))
}

// Category is the single most specific class of a part. Every part falls
// in exactly one of top_level, subassembly, component or orphan.
func Category(parents, children int) Filter {
	switch {
	case children > 0 && parents == 0:
		return FilterTopLevel
	case children > 0:
		return FilterSubassembly
	case parents > 0:
		return FilterComponent
	default:
		return FilterOrphan
	}
}

// Classifier answers category queries over the repository. Read only.
type Classifier struct {
	repo *Repository
}

// NewClassifier creates a classifier over repo
func NewClassifier(repo *Repository) *Classifier {
	return &Classifier{repo: repo}
}

// ListParts returns every live part matching f, in creation order
func (c *Classifier) ListParts(f Filter) []Part {
	out := []Part{}
	for _, n := range c.repo.nodes() {
		if f.Match(n.parents.len(), n.children.len()) {
			out = append(out, n.view())
		}
	}
	return out
}

// ListChildren returns the immediate children of id matching f. Only all,
// top_level and component are accepted.
func (c *Classifier) ListChildren(id uuid.UUID, f Filter) ([]Part, error) {
	if !childFilters[f] {
		return nil, bomerrors.NewValidation("filter", fmt.Sprintf("unsupported filter on children %q, only all, top_level and component are supported", f))
	}
	n, err := c.repo.lookup(id)
	if err != nil {
		return nil, err
	}
	children, err := c.repo.views(n.children.ids())
	if err != nil {
		return nil, err
	}
	return filterParts(children, f), nil
}

func filterParts(parts []Part, f Filter) []Part {
	out := make([]Part, 0, len(parts))
	for _, p := range parts {
		if f.MatchPart(p) {
			out = append(out, p)
		}
	}
	return out
}
