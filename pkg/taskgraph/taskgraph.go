package taskgraph

import (
	"sync"

	"github.com/jzx17/gotaskgraph/pkg/future"
	"github.com/jzx17/gotaskgraph/pkg/pool"
	"github.com/jzx17/gotaskgraph/pkg/slotmap"
	"github.com/jzx17/gotaskgraph/pkg/types"
)

// Handle identifies a submitted task. Handles stay valid as dependency
// targets even after the task finishes.
type Handle uint64

// node is the bookkeeping for one pending task.
//
// run is nil while the node is only a completion record for dependees, and
// for nodes dispatched straight to the pool at submission.
type node struct {
	run       func() error
	remaining int
	dependees []Handle
}

// Config holds graph configuration set through options.
type Config struct {
	// Workers is the size of the underlying pool
	Workers int

	// PoolOptions are forwarded to the pool
	PoolOptions []pool.Option
}

// DefaultConfig returns the default graph configuration.
func DefaultConfig() *Config {
	return &Config{Workers: 8}
}

// Option configures a Graph.
type Option func(*Config)

// WithWorkers sets the worker count of the underlying pool.
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithPoolOptions forwards options to the underlying pool.
func WithPoolOptions(opts ...pool.Option) Option {
	return func(c *Config) { c.PoolOptions = append(c.PoolOptions, opts...) }
}

// Graph dispatches dependency-ordered tasks onto a pool.
//
// One mutex guards the node table. Pool submission happens while holding it;
// the pool runs tasks outside its own lock, so the lock order graph-then-pool
// never inverts and tasks are free to submit new graph work from inside the
// pool.
type Graph struct {
	pool *pool.Pool

	mu    sync.Mutex
	nodes *slotmap.SlotMap[node]
}

// New creates a graph backed by a freshly started pool.
func New(opts ...Option) *Graph {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Graph{
		pool:  pool.New(cfg.Workers, cfg.PoolOptions...),
		nodes: slotmap.New[node](),
	}
}

// Task pairs a submitted task's handle with the future for its result. The
// handle is what later submissions name as a dependency.
type Task[R any] struct {
	ID     Handle
	Future *future.Future[R]
}

// Submit registers fn to run after every task in deps has completed and
// returns its handle and future. Passing no deps dispatches fn to the pool
// immediately.
//
// Dependency handles that are no longer in the table are treated as already
// completed. Submitting after Close yields a future failed with
// types.ErrPoolClosed.
func Submit[R any](g *Graph, fn func() R, deps ...Handle) Task[R] {
	run, fut := future.NewTask(fn)

	g.mu.Lock()
	id := Handle(g.nodes.Insert(node{}))
	trampoline := g.wrap(id, run)

	pending := 0
	for _, dep := range deps {
		if g.nodes.Contains(uint64(dep)) {
			n := g.nodes.At(uint64(dep))
			n.dependees = append(n.dependees, id)
			pending++
		}
	}

	if pending == 0 {
		// Nothing to wait for. The node stays behind as a bare completion
		// record so dependees registered while fn runs still get counted.
		if err := g.pool.Enqueue(trampoline); err != nil {
			g.nodes.Erase(uint64(id))
			g.mu.Unlock()
			return Task[R]{ID: id, Future: future.Failed[R](types.ErrPoolClosed)}
		}
	} else {
		n := g.nodes.At(uint64(id))
		n.remaining = pending
		n.run = trampoline
	}
	g.mu.Unlock()

	return Task[R]{ID: id, Future: fut}
}

// wrap packages run so that completing it advances the graph. The future is
// completed by run itself before taskComplete fires, so a waiter released by
// a dependee's future never observes its predecessor unfinished.
func (g *Graph) wrap(id Handle, run func() error) func() error {
	return func() error {
		err := run()
		g.taskComplete(id)
		return err
	}
}

// taskComplete erases the finished node and hands each dependee whose last
// dependency just cleared to the pool.
//
// Dependees stay live until their own trampoline runs, so every handle in
// the dependee list still names a node here.
func (g *Graph) taskComplete(id Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()

	dependees := g.nodes.At(uint64(id)).dependees
	g.nodes.Erase(uint64(id))

	for _, dep := range dependees {
		d := g.nodes.At(uint64(dep))
		d.remaining--
		if d.remaining == 0 {
			run := d.run
			d.run = nil
			// Close drains only work enqueued before it; a task released
			// during the drain is dropped, like one still blocked on deps.
			_ = g.pool.Enqueue(run)
		}
	}
}

// Pool returns the underlying pool, for stats inspection.
func (g *Graph) Pool() *pool.Pool {
	return g.pool
}

// Pending returns the number of tasks waiting on dependencies or queued as
// completion records.
func (g *Graph) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nodes.Len()
}

// Close shuts down the underlying pool, waiting for all dispatched tasks.
// Tasks still blocked on dependencies at that point never run.
func (g *Graph) Close() error {
	return g.pool.Close()
}
