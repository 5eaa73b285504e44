// Package dotexport renders the dependency graph in Graphviz DOT format for
// debugging. It is a read of the graph and must not run while an
// integration is in flight.
package dotexport

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	dgraph "github.com/dominikbraun/graph"
	"github.com/specialistvlad/fgdeps/internal/depkey"
	"github.com/specialistvlad/fgdeps/internal/node"
)

// Source is the part of the dependency graph the exporter reads.
type Source interface {
	ForEachNode(visit func(node.Node))
	OrderedUses(def depkey.Key) []node.Node
}

// Build converts src into a directed graph whose vertices are node identities
// and whose edges run from a definition to each of its users.
func Build(src Source) (dgraph.Graph[string, string], error) {
	g := dgraph.New(dgraph.StringHash, dgraph.Directed())

	var nodes []node.Node
	src.ForEachNode(func(n node.Node) { nodes = append(nodes, n) })

	for _, n := range nodes {
		if err := g.AddVertex(n.Identity().String(), vertexAttributes(n)...); err != nil {
			return nil, fmt.Errorf("adding %s: %w", n, err)
		}
	}
	for _, def := range nodes {
		for _, user := range src.OrderedUses(def.Key) {
			err := g.AddEdge(def.Identity().String(), user.Identity().String())
			if err != nil && !errors.Is(err, dgraph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("adding use of %s by %s: %w", def, user, err)
			}
		}
	}
	return g, nil
}

// Write renders src as DOT to w. Vertices, their attributes and edges are
// written in sorted order, so rendering the same graph twice gives the same
// bytes.
func Write(w io.Writer, src Source) error {
	g, err := Build(src)
	if err != nil {
		return err
	}
	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("digraph {\n")
	ids := sortedKeys(adjacency)
	for _, id := range ids {
		_, props, err := g.VertexWithProperties(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "\t%s [%s];\n", quote(id), attributeList(props.Attributes))
	}
	for _, id := range ids {
		for _, target := range sortedKeys(adjacency[id]) {
			fmt.Fprintf(&b, "\t%s -> %s;\n", quote(id), quote(target))
		}
	}
	b.WriteString("}\n")

	_, err = io.WriteString(w, b.String())
	return err
}

func vertexAttributes(n node.Node) []func(*dgraph.VertexProperties) {
	attrs := []func(*dgraph.VertexProperties){
		dgraph.VertexAttribute("label", fmt.Sprintf("%s\\n%s", n.Key, n.Owner)),
	}
	if n.Key.Aspect == depkey.Implementation {
		attrs = append(attrs, dgraph.VertexAttribute("shape", "box"))
	}
	if n.IsExpat() {
		attrs = append(attrs, dgraph.VertexAttribute("style", "dashed"))
	}
	return attrs
}

func attributeList(attrs map[string]string) string {
	parts := make([]string, 0, len(attrs))
	for _, k := range sortedKeys(attrs) {
		parts = append(parts, fmt.Sprintf("%s=%s", k, quote(attrs[k])))
	}
	return strings.Join(parts, ", ")
}

// quote wraps s in double quotes. Backslashes are kept so `\n` stays a DOT
// line break inside labels.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
