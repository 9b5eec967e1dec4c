package dialogue

import "errors"

// ErrInvalidGraph is returned by Start for a graph with no nodes or an
// unresolvable start node.
var ErrInvalidGraph = errors.New("dialogue: invalid graph")

// ErrNotActive is returned when advancing a conversation that has ended
// or was never started.
var ErrNotActive = errors.New("dialogue: no active conversation")

// ErrNoSuchChoice is returned when a choice index is out of range.
var ErrNoSuchChoice = errors.New("dialogue: no such choice")

// Runner walks one conversation at a time through a dialogue graph. Text
// reveal is an explicit tick-driven state rather than an animation: the
// host calls TickTyping with elapsed seconds and renders RevealedText.
type Runner struct {
	graph   *Graph
	index   map[string]*Node
	current *Node
	active  bool

	// chars per second; <= 0 reveals the full text immediately.
	typingSpeed float64
	revealed    float64
}

// NewRunner creates an idle runner. typingSpeed is characters revealed per
// second; pass 0 for instant full reveal.
func NewRunner(typingSpeed float64) *Runner {
	return &Runner{typingSpeed: typingSpeed}
}

// Start begins a conversation at the graph's start node. The node index is
// rebuilt once per call so lookups during the conversation are O(1).
func (r *Runner) Start(g *Graph) error {
	if g == nil || len(g.Nodes) == 0 {
		return ErrInvalidGraph
	}
	idx := make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		idx[g.Nodes[i].ID] = &g.Nodes[i]
	}
	start := g.Start
	if start == "" {
		start = g.Nodes[0].ID
	}
	first, ok := idx[start]
	if !ok {
		return ErrInvalidGraph
	}
	r.graph = g
	r.index = idx
	r.active = true
	r.enter(first)
	return nil
}

// Active reports whether a conversation is in progress.
func (r *Runner) Active() bool { return r.active }

// Current returns the node being displayed, or nil when inactive.
func (r *Runner) Current() *Node {
	if !r.active {
		return nil
	}
	return r.current
}

// AvailableChoices returns the current node's presentable choices, with
// unavailable ones filtered out. Indexes into the returned slice are the
// indexes SelectChoice expects.
func (r *Runner) AvailableChoices() []Choice {
	if !r.active || r.current == nil {
		return nil
	}
	var out []Choice
	for _, c := range r.current.Choices {
		if c.Available {
			out = append(out, c)
		}
	}
	return out
}

// Advance moves past the current node: an end node or a dangling next
// reference ends the conversation, otherwise the fallback next node is
// entered. A missing next ID ends the conversation silently; content with
// dangling references is tolerated rather than rejected.
func (r *Runner) Advance() error {
	if !r.active {
		return ErrNotActive
	}
	if r.current.End {
		r.end()
		return nil
	}
	r.follow(r.current.Next)
	return nil
}

// SelectChoice picks the i-th available choice. An empty next reference on
// the choice ends the conversation.
func (r *Runner) SelectChoice(i int) error {
	if !r.active {
		return ErrNotActive
	}
	choices := r.AvailableChoices()
	if i < 0 || i >= len(choices) {
		return ErrNoSuchChoice
	}
	r.follow(choices[i].Next)
	return nil
}

// follow enters the node with the given ID, ending the conversation when
// the ID is empty or does not resolve.
func (r *Runner) follow(id string) {
	if id == "" {
		r.end()
		return
	}
	next, ok := r.index[id]
	if !ok {
		r.end()
		return
	}
	r.enter(next)
}

func (r *Runner) enter(n *Node) {
	r.current = n
	r.revealed = 0
	if r.typingSpeed <= 0 {
		r.revealed = float64(len([]rune(n.Text())))
	}
}

func (r *Runner) end() {
	r.active = false
	r.current = nil
	r.graph = nil
	r.index = nil
	r.revealed = 0
}

// ---- Typing reveal ----

// TickTyping advances the reveal by dt seconds.
func (r *Runner) TickTyping(dt float64) {
	if !r.active || dt <= 0 || r.typingSpeed <= 0 {
		return
	}
	total := float64(len([]rune(r.current.Text())))
	r.revealed += dt * r.typingSpeed
	if r.revealed > total {
		r.revealed = total
	}
}

// SkipTyping completes the reveal instantly. Cutting the reveal short
// leaves no half-applied state: the full text is shown from then on.
func (r *Runner) SkipTyping() {
	if !r.active {
		return
	}
	r.revealed = float64(len([]rune(r.current.Text())))
}

// TypingDone reports whether the full text is revealed.
func (r *Runner) TypingDone() bool {
	if !r.active {
		return true
	}
	return int(r.revealed) >= len([]rune(r.current.Text()))
}

// RevealedText returns the currently visible prefix of the node text.
func (r *Runner) RevealedText() string {
	if !r.active {
		return ""
	}
	runes := []rune(r.current.Text())
	n := int(r.revealed)
	if n > len(runes) {
		n = len(runes)
	}
	return string(runes[:n])
}
