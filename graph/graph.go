// Package graph provides a sequential state-graph execution engine. Nodes
// are named functions that read the current state and return a partial
// update; a schema merges each update into the state, and static or
// conditional edges select the next node until the END sentinel is reached.
//
// Execution is strictly single-threaded: exactly one node runs per step, and
// the next node only starts once the previous node's update has been merged.
package graph

import (
	"context"
	"errors"
	"fmt"
)

// END is the terminal pseudo-node; routing to it stops execution.
const END = "END"

var (
	// ErrEntryPointNotSet is returned by Compile when no entry point was set.
	ErrEntryPointNotSet = errors.New("entry point not set")

	// ErrNodeNotFound is returned when routing selects an unknown node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNoOutgoingEdge is returned when a node has neither a static nor a
	// conditional edge.
	ErrNoOutgoingEdge = errors.New("no outgoing edge found for node")

	// ErrStepLimit is returned when a run exceeds its step ceiling. The
	// state accumulated so far is returned alongside it.
	ErrStepLimit = errors.New("graph step limit reached")
)

// Node is a unit of work in the graph. Its function receives the full state
// and returns a partial update to merge.
type Node[S, U any] struct {
	Name        string
	Description string
	Function    func(ctx context.Context, state S) (U, error)
}

// Edge is a static transition between two nodes.
type Edge struct {
	From string
	To   string
}

// Schema defines how a state is initialized and how node updates are merged
// into it.
type Schema[S, U any] interface {
	Init() S
	Apply(current S, update U) (S, error)
}

// Config controls one invocation.
type Config struct {
	// MaxSteps is the hard ceiling on node executions for a single run.
	// The router alone cannot detect livelock (a node that never satisfies
	// its successor's precondition), so the driver enforces this
	// independently. Zero or negative means DefaultMaxSteps.
	MaxSteps int
}

// DefaultMaxSteps is the step ceiling applied when Config leaves it unset.
const DefaultMaxSteps = 50

// StateGraph is a buildable description of nodes and edges.
type StateGraph[S, U any] struct {
	nodes            map[string]Node[S, U]
	edges            []Edge
	conditionalEdges map[string]func(ctx context.Context, state S) string
	entryPoint       string
	schema           Schema[S, U]
}

// NewStateGraph creates an empty graph for the given state and update types.
func NewStateGraph[S, U any](schema Schema[S, U]) *StateGraph[S, U] {
	return &StateGraph[S, U]{
		nodes:            make(map[string]Node[S, U]),
		conditionalEdges: make(map[string]func(ctx context.Context, state S) string),
		schema:           schema,
	}
}

// AddNode registers a node under a unique name.
func (g *StateGraph[S, U]) AddNode(name, description string, fn func(ctx context.Context, state S) (U, error)) {
	g.nodes[name] = Node[S, U]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds a static edge between two nodes.
func (g *StateGraph[S, U]) AddEdge(from, to string) {
	g.edges = append(g.edges, Edge{From: from, To: to})
}

// AddConditionalEdge adds an edge whose target is computed at runtime from
// the state. A conditional edge takes precedence over static edges from the
// same node.
func (g *StateGraph[S, U]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string) {
	g.conditionalEdges[from] = condition
}

// SetEntryPoint sets the node executed first.
func (g *StateGraph[S, U]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// Compile validates the graph and returns a Runnable.
func (g *StateGraph[S, U]) Compile() (*Runnable[S, U], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: entry point %q", ErrNodeNotFound, g.entryPoint)
	}
	return &Runnable[S, U]{graph: g}, nil
}

// Runnable is a compiled graph ready for invocation.
type Runnable[S, U any] struct {
	graph *StateGraph[S, U]
}

// Invoke executes the graph from its entry point with default config.
func (r *Runnable[S, U]) Invoke(ctx context.Context, initial S) (S, error) {
	return r.InvokeWithConfig(ctx, initial, Config{})
}

// InvokeWithConfig executes the graph until END is reached, the context is
// cancelled, a node fails, or the step ceiling triggers. On ErrStepLimit the
// state accumulated so far is returned so the caller can surface best-effort
// output.
func (r *Runnable[S, U]) InvokeWithConfig(ctx context.Context, initial S, cfg Config) (S, error) {
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	state := initial
	current := r.graph.entryPoint

	for steps := 0; current != END; steps++ {
		if steps >= maxSteps {
			return state, fmt.Errorf("%w: %d steps", ErrStepLimit, maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		update, err := runNode(ctx, node, state)
		if err != nil {
			return state, fmt.Errorf("error in node %s: %w", current, err)
		}

		state, err = r.graph.schema.Apply(state, update)
		if err != nil {
			return state, fmt.Errorf("schema update failed after node %s: %w", current, err)
		}

		current, err = r.nextNode(ctx, current, state)
		if err != nil {
			return state, err
		}
	}

	return state, nil
}

// runNode executes a node function, converting panics into errors so one
// misbehaving stage never takes the whole run down.
func runNode[S, U any](ctx context.Context, node Node[S, U], state S) (update U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in node %s: %v", node.Name, r)
		}
	}()
	return node.Function(ctx, state)
}

// nextNode resolves the successor of a node: the conditional edge if one is
// registered, otherwise the first static edge.
func (r *Runnable[S, U]) nextNode(ctx context.Context, current string, state S) (string, error) {
	if condition, ok := r.graph.conditionalEdges[current]; ok {
		next := condition(ctx, state)
		if next == "" {
			return "", fmt.Errorf("conditional edge returned empty next node from %s", current)
		}
		return next, nil
	}

	for _, edge := range r.graph.edges {
		if edge.From == current {
			return edge.To, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, current)
}
