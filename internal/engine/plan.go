package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqlconvert/internal/dag"
	"github.com/leapstack-labs/sqlconvert/internal/loader"
	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"golang.org/x/sync/errgroup"
)

// ErrNoCreateStatement marks a file that holds no CREATE statement.
var ErrNoCreateStatement = errors.New("no CREATE statement found")

// Item is one script moving through a batch.
type Item struct {
	Script     *loader.Script
	Name       string // defined object, owner-qualified when an owner is given
	Status     core.RecordStatus
	Analysed   core.Script
	References []core.Reference
	Warnings   []core.Warning
	Text       string
	OutputPath string
	Err        error
}

// ID identifies the item in the dependency graph.
func (it *Item) ID() string {
	return it.Script.RelPath
}

// ok reports whether the item is still eligible for rendering.
func (it *Item) ok() bool {
	return it.Err == nil && it.Status == "" && it.Analysed != nil
}

// Plan is the analysed, ordered form of a script set.
type Plan struct {
	// Items in dependency order: every item follows the items it references.
	Items      []*Item
	Levels     [][]string
	Graph      *dag.Graph[*Item]
	Unresolved []dag.Unresolved
	LoadErrors []*loader.LoadError
}

// Item returns the item with the given relative path.
func (p *Plan) Item(id string) (*Item, bool) {
	n, ok := p.Graph.Node(id)
	if !ok {
		return nil, false
	}
	return n.Data, true
}

// Plan discovers the scripts under root, analyses them concurrently and
// orders them by dependency. A dependency cycle is returned as a
// *dag.CycleError.
func (e *Engine) Plan(ctx context.Context, root string) (*Plan, error) {
	loaded, err := e.loader.Load(root)
	if err != nil {
		return nil, err
	}

	items := make([]*Item, len(loaded.Scripts))
	for i, s := range loaded.Scripts {
		items[i] = &Item{Script: s, Name: s.Name}
	}
	if err := e.analyseAll(ctx, items); err != nil {
		return nil, err
	}

	objects := make([]dag.Object[*Item], len(items))
	for i, it := range items {
		objects[i] = dag.Object[*Item]{
			ID:         it.ID(),
			Defines:    defines(it),
			References: dependencies(it),
			Data:       it,
		}
	}
	graph, unresolved, err := dag.Link(objects)
	if err != nil {
		return nil, err
	}
	levels, err := graph.Levels()
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Levels:     levels,
		Graph:      graph,
		Unresolved: unresolved,
		LoadErrors: loaded.Errors,
	}
	for _, level := range levels {
		for _, id := range level {
			n, _ := graph.Node(id)
			plan.Items = append(plan.Items, n.Data)
		}
	}

	e.logger.Debug("plan built",
		"scripts", len(plan.Items),
		"levels", len(levels),
		"edges", graph.EdgeCount(),
		"unresolved", len(unresolved))
	return plan, nil
}

// analyseAll analyses every item with at most cfg.Workers in flight.
// Per-item failures are stored on the item; only cancellation aborts.
func (e *Engine) analyseAll(ctx context.Context, items []*Item) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for _, it := range items {
		g.Go(func() error {
			return e.analyse(gctx, it)
		})
	}
	return g.Wait()
}

func (e *Engine) analyse(ctx context.Context, it *Item) error {
	s := it.Script
	if s.Config != nil && s.Config.Skip {
		it.Status = core.RecordStatusSkipped
		return nil
	}
	if s.DetectErr != nil {
		it.Status = core.RecordStatusFailed
		it.Err = fmt.Errorf("analyse %s: %w", s.RelPath, s.DetectErr)
		return nil
	}
	if s.Kind == "" {
		it.Status = core.RecordStatusSkipped
		it.Err = ErrNoCreateStatement
		return nil
	}

	source := e.cfg.Source
	if s.Config != nil && s.Config.Dialect != "" {
		source = s.Config.Dialect
	}
	res, err := e.converter.Analyse(ctx, source, s.Kind, s.SQL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		it.Status = core.RecordStatusFailed
		it.Err = err
		return nil
	}
	if !res.OK() {
		it.Status = core.RecordStatusFailed
		it.Err = fmt.Errorf("analyse %s: %w", s.RelPath, res.Error)
		return nil
	}

	it.Analysed = res.Script
	it.References = res.References
	it.Warnings = res.Script.Common().Warnings
	if it.Name == "" {
		it.Name = res.Script.Common().FullName()
	}
	return nil
}

// defines lists the names other scripts may use for the item's object.
func defines(it *Item) []string {
	var names []string
	if it.Name != "" {
		names = append(names, it.Name)
	}
	if it.Analysed != nil {
		c := it.Analysed.Common()
		names = append(names, c.FullName())
		if c.Name != nil {
			names = append(names, c.Name.Symbol)
		}
	}
	return names
}

// dependencies lists routine and table references plus declared depends_on.
func dependencies(it *Item) []string {
	var names []string
	if it.Script.Config != nil {
		names = append(names, it.Script.Config.DependsOn...)
	}
	for _, ref := range it.References {
		switch ref.Type {
		case core.TokenRoutineName, core.TokenTableName:
			names = append(names, ref.Name)
		}
	}
	return names
}
