package exporter

import (
	"sort"
	"strings"

	"github.com/Avi18971911/Emporium/internal/collector/model"
)

type spanNode struct {
	span     model.Span
	children []*spanNode
}

type traceTree struct {
	traceID string
	roots   []*spanNode
	spans   int
}

// assembleTraceTrees groups spans by trace and links them through their
// parent ids. A trace whose parent links are all valid yields a single root;
// spans whose parent is missing from the batch become additional roots
// rather than being discarded. Children are ordered by start time.
func assembleTraceTrees(spans []model.Span) []traceTree {
	nodesByTrace := make(map[string]map[string]*spanNode)
	traceOrder := make([]string, 0)
	for _, span := range spans {
		nodes, ok := nodesByTrace[span.TraceID]
		if !ok {
			nodes = make(map[string]*spanNode)
			nodesByTrace[span.TraceID] = nodes
			traceOrder = append(traceOrder, span.TraceID)
		}
		nodes[span.SpanID] = &spanNode{span: span}
	}

	trees := make([]traceTree, 0, len(traceOrder))
	for _, traceID := range traceOrder {
		nodes := nodesByTrace[traceID]
		tree := traceTree{traceID: traceID, spans: len(nodes)}
		for _, node := range nodes {
			parent, ok := nodes[node.span.ParentSpanID]
			if node.span.ParentSpanID == "" || !ok || parent == node {
				tree.roots = append(tree.roots, node)
				continue
			}
			parent.children = append(parent.children, node)
		}
		sortNodes(tree.roots)
		for _, node := range nodes {
			sortNodes(node.children)
		}
		trees = append(trees, tree)
	}
	return trees
}

func sortNodes(nodes []*spanNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].span.StartTime.Equal(nodes[j].span.StartTime) {
			return nodes[i].span.SpanID < nodes[j].span.SpanID
		}
		return nodes[i].span.StartTime.Before(nodes[j].span.StartTime)
	})
}

// renderTree prints one line per span, indented by call depth. The visited
// set keeps malformed parent links from looping.
func renderTree(tree traceTree) string {
	var builder strings.Builder
	visited := make(map[string]bool, tree.spans)
	for _, root := range tree.roots {
		renderNode(&builder, root, 0, visited)
	}
	return builder.String()
}

func renderNode(builder *strings.Builder, node *spanNode, depth int, visited map[string]bool) {
	if visited[node.span.SpanID] {
		return
	}
	visited[node.span.SpanID] = true
	builder.WriteString(strings.Repeat("  ", depth))
	builder.WriteString(node.span.ServiceName)
	builder.WriteString(" ")
	builder.WriteString(node.span.ActionName)
	builder.WriteString(" ")
	builder.WriteString(node.span.EndTime.Sub(node.span.StartTime).String())
	builder.WriteString("\n")
	for _, child := range node.children {
		renderNode(builder, child, depth+1, visited)
	}
}
