package graph

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/awalterschulze/gographviz"
	"github.com/kr/text"

	"github.com/chunkflow/chunkflow/execution"
)

// Values longer than this are wrapped over multiple lines of the record label.
const maxValueWidth = 40

type Field struct {
	Name, Value string
}

type Child struct {
	Name string
	Node *Node
}

type Node struct {
	Name     string
	Fields   []Field
	Children []Child
}

func NewNode(name string) *Node {
	return &Node{
		Name: name,
	}
}

func (n *Node) AddField(name, value string) {
	n.Fields = append(n.Fields, Field{
		Name:  name,
		Value: value,
	})
}

func (n *Node) AddChild(name string, node *Node) {
	n.Children = append(n.Children, Child{
		Name: name,
		Node: node,
	})
}

// FromDescriptions builds the node tree of a described execution graph.
// Producers are the children of their consumers. The returned roots are the nodes nobody consumes.
func FromDescriptions(descriptions []execution.NodeDescription) []*Node {
	nodes := make(map[execution.NodeID]*Node, len(descriptions))
	consumed := map[execution.NodeID]bool{}
	for _, desc := range descriptions {
		n := NewNode(desc.Name)
		n.AddField("kind", desc.Kind.String())
		if desc.Schema != nil {
			n.AddField("schema", strings.Join(desc.Schema.Names(), ", "))
		}
		keys := make([]string, 0, len(desc.Properties))
		for k := range desc.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			n.AddField(k, desc.Properties[k])
		}
		if desc.Reader {
			n.AddField("output", "reader")
		}
		nodes[desc.ID] = n
	}
	// Descriptions come in topological order, so producers are always built first.
	for _, desc := range descriptions {
		for i, producer := range desc.Producers {
			nodes[desc.ID].AddChild(inputName(desc.Kind, i), nodes[producer])
			consumed[producer] = true
		}
	}

	var roots []*Node
	for _, desc := range descriptions {
		if !consumed[desc.ID] {
			roots = append(roots, nodes[desc.ID])
		}
	}
	return roots
}

func inputName(kind execution.NodeKind, i int) string {
	if kind == execution.KindHashJoin {
		if i == 0 {
			return "left"
		}
		return "right"
	}
	return fmt.Sprintf("input_%d", i)
}

// Show renders the trees as one graph. Nodes shared by several parents are drawn once.
func Show(roots ...*Node) (*gographviz.Graph, error) {
	graph := gographviz.NewGraph()
	graph.Directed = true
	if err := graph.AddAttr("", "rankdir", "LR"); err != nil {
		return nil, err
	}
	builder := &graphBuilder{
		graph:        graph,
		nameCounters: make(map[string]int),
		ids:          make(map[*Node]string),
	}

	for _, root := range roots {
		if _, err := builder.getGraphNode(root); err != nil {
			return nil, err
		}
	}

	return graph, nil
}

type graphBuilder struct {
	graph        *gographviz.Graph
	nameCounters map[string]int
	ids          map[*Node]string
}

func (gb *graphBuilder) getID(name string) string {
	id := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, name)
	count := gb.nameCounters[id]
	gb.nameCounters[id]++
	return fmt.Sprintf("%s_%d", id, count)
}

func escape(value string) string {
	replacer := strings.NewReplacer(
		"\"", "\\\"",
		"{", "\\{",
		"}", "\\}",
		"|", "\\|",
		"<", "\\<",
		">", "\\>",
		"\n", "\\n",
	)
	return replacer.Replace(value)
}

func (gb *graphBuilder) getGraphNode(node *Node) (string, error) {
	if id, ok := gb.ids[node]; ok {
		return id, nil
	}

	fields := make([]string, len(node.Fields))
	for i, field := range node.Fields {
		value := text.Wrap(field.Value, maxValueWidth)
		fields[i] = fmt.Sprintf("<%s> %s: %s", field.Name, field.Name, escape(value))
	}
	childPorts := make([]string, len(node.Children))
	for i, child := range node.Children {
		childPorts[i] = fmt.Sprintf("<%s> %s", child.Name, child.Name)
	}

	var labelParts []string
	labelParts = append(labelParts, fmt.Sprintf("<f0> %s", escape(node.Name)))

	if len(fields) > 0 {
		labelParts = append(labelParts, strings.Join(fields, "|"))
	}
	if len(childPorts) > 0 {
		labelParts = append(labelParts, strings.Join(childPorts, "|"))
	}

	label := fmt.Sprintf(
		"\"{{%s}}\"",
		strings.Join(labelParts, "}|{"),
	)

	id := gb.getID(node.Name)
	gb.ids[node] = id
	if err := gb.graph.AddNode("", id, map[string]string{
		"shape": "record",
		"label": label,
	}); err != nil {
		return "", err
	}

	for _, child := range node.Children {
		childGraphNode, err := gb.getGraphNode(child.Node)
		if err != nil {
			return "", err
		}
		if err := gb.graph.AddPortEdge(id, child.Name, childGraphNode, "", true, map[string]string{}); err != nil {
			return "", err
		}
	}
	return id, nil
}

// Explain renders the DOT description of the service's graph.
func Explain(service *execution.ExecutionService) (string, error) {
	descriptions, err := service.Describe()
	if err != nil {
		return "", err
	}
	graph, err := Show(FromDescriptions(descriptions)...)
	if err != nil {
		return "", err
	}
	return graph.String(), nil
}
