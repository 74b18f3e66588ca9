/*
Package taskgraph schedules dependency-ordered tasks on a worker pool.

# Overview

A Graph accepts tasks together with the handles of tasks that must complete
first. It supports:
- Arbitrary dependency DAGs declared at submission time
- Typed results through futures
- Immediate dispatch of dependency-free tasks
- Dependencies on already-completed tasks, treated as satisfied
- Task bodies that submit further graph work

# Scheduling

Pending tasks live in a slotmap keyed by their handle. When a task finishes,
its node is erased and each dependee's remaining-dependency count drops;
a dependee reaching zero is handed to the pool at that moment. The graph
never polls, and finished tasks leave no residue, so memory tracks the
in-flight frontier.

A predecessor's future completes before its dependees dispatch, so a
dependee can read predecessor results with TryGet without blocking.

# Usage Examples

A diamond:

	g := taskgraph.New(taskgraph.WithWorkers(4))
	defer g.Close()

	top := taskgraph.Submit(g, loadInput)
	left := taskgraph.Submit(g, processLeft, top.ID)
	right := taskgraph.Submit(g, processRight, top.ID)
	bottom := taskgraph.Submit(g, merge, left.ID, right.ID)

	result, err := bottom.Future.Get()

Forwarding pool options:

	g := taskgraph.New(
		taskgraph.WithWorkers(8),
		taskgraph.WithPoolOptions(pool.WithRecorder(exporter)),
	)

# Shutdown

Close shuts down the underlying pool and waits for every dispatched task.
Tasks still blocked on unfinished dependencies at that point never run and
their futures never complete.
*/
package taskgraph
