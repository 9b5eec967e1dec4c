package dialogue

// Choice is one selectable branch out of a node. Unavailable choices are
// hidden from presentation but kept in the graph data.
type Choice struct {
	Label     string `json:"label"`
	Next      string `json:"next"`
	Available bool   `json:"available"`
}

// Node is one entry in a dialogue graph.
type Node struct {
	ID      string   `json:"id"`
	Speaker string   `json:"speaker"`
	Lines   []string `json:"lines"`
	Choices []Choice `json:"choices"`
	Next    string   `json:"next"` // fallback when there are no choices
	End     bool     `json:"end"`
}

// Text joins the node's lines into the full display text.
func (n *Node) Text() string {
	out := ""
	for i, l := range n.Lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// Graph is a conversation: a start node and a set of nodes keyed by ID.
// Next-node references to IDs outside the graph are tolerated; the runner
// treats them as end of conversation.
type Graph struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	Nodes []Node `json:"nodes"`
}
