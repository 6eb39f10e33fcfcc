package graph

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/rapport/pkg/catalog"
	"github.com/aretw0/rapport/pkg/domain"
)

// Severity grades a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found by Validate.
type Issue struct {
	Severity Severity `json:"severity"`
	NodeID   string   `json:"node_id,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.NodeID == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.NodeID, i.Message)
}

// ValidationError aggregates the error-level issues of a graph.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		lines = append(lines, i.String())
	}
	return fmt.Sprintf("found %d errors:\n- %s", len(e.Issues), strings.Join(lines, "\n- "))
}

var knownTypes = map[domain.SemanticType]bool{
	"":                true,
	domain.TypeText:   true,
	domain.TypeNumber: true,
	domain.TypeEmail:  true,
	domain.TypePhone:  true,
	domain.TypeHandle: true,
}

// Validate crawls the graph and reports dangling targets, duplicate field owners, unknown
// catalogues, choice nodes without options and unreachable nodes. It returns every issue
// found and a *ValidationError when at least one is an error. cat may be nil.
func (g *Graph) Validate(cat *catalog.Catalog) ([]Issue, error) {
	var issues []Issue
	add := func(sev Severity, node, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, NodeID: node, Message: fmt.Sprintf(format, args...)})
	}

	for _, id := range g.order {
		n := g.nodes[id]

		for _, t := range n.Targets() {
			if _, ok := g.nodes[t]; !ok {
				add(SeverityError, id, "transition to missing node %q", t)
			}
		}

		switch n.Kind {
		case domain.KindSingleChoice:
			if len(n.Options) == 0 {
				add(SeverityError, id, "single choice node has no options")
			}
		case domain.KindMultiChoice:
			if n.Field == "" {
				add(SeverityError, id, "multi choice node has no field")
			}
			if cat == nil || !cat.HasField(n.CatalogKey()) {
				add(SeverityError, id, "unknown catalogue %q", n.CatalogKey())
			}
		case domain.KindFreeText:
			if n.Field == "" {
				add(SeverityError, id, "free text node has no field")
			}
		case domain.KindPrompt:
			if n.Field != "" {
				add(SeverityWarning, id, "prompt node declares field %q but never collects it", n.Field)
			}
		}

		if v := n.Validation; v != nil {
			if !knownTypes[v.Type] {
				add(SeverityError, id, "unknown semantic type %q", v.Type)
			}
			if v.Pattern != "" {
				if _, err := regexp.Compile(v.Pattern); err != nil {
					add(SeverityError, id, "invalid pattern: %v", err)
				}
			}
			if v.MaxLength > 0 && v.MinLength > v.MaxLength {
				add(SeverityError, id, "min_length %d exceeds max_length %d", v.MinLength, v.MaxLength)
			}
			if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
				add(SeverityError, id, "min %g exceeds max %g", *v.Min, *v.Max)
			}
		}

		for _, opt := range n.Options {
			if opt.Action.Kind == domain.ActionURL && n.Field != "" && opt.Value != "" {
				add(SeverityWarning, id, "option %q offers a link but also commits a value", opt.ID)
			}
		}
	}

	for field, others := range g.dups {
		add(SeverityError, g.owners[field], "field %q is also collected by %s", field, strings.Join(others, ", "))
	}

	if g.home != "" && g.nodes[g.home].Kind != domain.KindPrompt {
		add(SeverityError, g.home, "home node must be a prompt node")
	}

	reachable := make(map[string]bool)
	for _, id := range g.Reachable() {
		reachable[id] = true
	}
	for _, id := range g.order {
		if !reachable[id] && id != g.home {
			add(SeverityWarning, id, "unreachable from entry %q", g.entry)
		}
	}

	var errs []Issue
	for _, i := range issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	if len(errs) > 0 {
		return issues, &ValidationError{Issues: errs}
	}
	return issues, nil
}
