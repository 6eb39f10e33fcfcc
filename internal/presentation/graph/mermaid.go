// Package graph renders a dialogue graph as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/rapport/pkg/domain"
	flow "github.com/aretw0/rapport/pkg/graph"
)

// GraphOverlay contains session state to highlight on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFor builds the overlay of a session: its history as visited, its current node as current.
func OverlayFor(s *domain.Session) *GraphOverlay {
	if s == nil {
		return nil
	}
	return &GraphOverlay{
		VisitedNodes: append([]string(nil), s.History...),
		CurrentNode:  s.CurrentNodeID,
	}
}

// GenerateMermaid produces a Mermaid flowchart of g.
// Shapes follow the node kind:
// - Entry: ((Circle))
// - Action: [[Subroutine]]
// - Free text: [/Parallelogram/]
// - Choices: {Rhombus}
// - Prompt: [Rectangle]
// Goto options are labelled with their caption, command options are dotted.
func GenerateMermaid(g *flow.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range g.Nodes() {
		node, err := g.Resolve(id)
		if err != nil {
			continue
		}
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.ID == g.Entry():
			opener, closer = "((", "))"
		case node.Kind == domain.KindAction:
			opener, closer = "[[", "]]"
		case node.Kind == domain.KindFreeText:
			opener, closer = "[/", "/]"
		case node.Kind == domain.KindSingleChoice || node.Kind == domain.KindMultiChoice:
			opener, closer = "{", "}"
		}

		label := node.ID
		if node.Field != "" {
			label = fmt.Sprintf("%s <br/> %s", node.ID, node.Field)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escape(label), closer)

		if node.Kind == domain.KindAction && node.Command != "" {
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", safeID, escape(node.Command), sanitizeMermaidID(node.Next))
		} else if node.Next != "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(node.Next))
		}

		for _, opt := range node.Options {
			switch opt.Action.Kind {
			case domain.ActionGoto:
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escape(opt.Text), sanitizeMermaidID(opt.Action.Target))
			case domain.ActionCommand:
				if node.Next != "" {
					fmt.Fprintf(&sb, "    %s -. \"%s: %s\" .-> %s\n", safeID, escape(opt.Text), escape(opt.Action.Target), sanitizeMermaidID(node.Next))
				}
			}
		}
	}

	if home := g.Home(); home != "" {
		fmt.Fprintf(&sb, "    class %s home;\n", sanitizeMermaidID(home))
		sb.WriteString("    classDef home stroke-dasharray: 5 5;\n")
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps labels readable on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visited[safeID] && safeID != "" {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
