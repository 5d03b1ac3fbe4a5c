// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import "time"

// StatusEvent is a string-typed event a node emits during Process, for
// external observers.
type StatusEvent struct {
	Name string
	At   time.Time
}

// GraphRun is the per-iteration context: iteration indices, timing, the
// bound command buffer, and the wait/signal semaphores and submit
// callbacks collected for this iteration's submit. Semaphores and submit
// callbacks attached to a run are owned by the run and released when it
// completes.
type GraphRun struct {
	Iteration       uint64
	TotalIterations uint64
	InFlightIndex   int

	// TimeDelta is the difference to the previous iteration's start
	// timestamp, subject to the driver's time-overwrite configuration.
	// Elapsed is wall-clock time since init.
	TimeDelta time.Duration
	Elapsed   time.Duration

	Command CommandBuffer

	// Profiler is nil unless profiling is enabled on the driver.
	Profiler Profiler

	waitSemaphores   []WaitSemaphore
	signalSemaphores []Semaphore
	submitCallbacks  []func(q Queue, run *GraphRun)

	events []StatusEvent

	rebuildRequested bool
}

// AddWaitSemaphore registers a semaphore this iteration's submit must
// wait on at the given pipeline stage (value is ignored for binary
// semaphores).
func (r *GraphRun) AddWaitSemaphore(sem Semaphore, stage PipelineStageFlags, value uint64) {
	r.waitSemaphores = append(r.waitSemaphores, WaitSemaphore{Semaphore: sem, Stage: stage, Value: value})
}

// AddSignalSemaphore registers a semaphore this iteration's submit will
// signal on completion.
func (r *GraphRun) AddSignalSemaphore(sem Semaphore) {
	r.signalSemaphores = append(r.signalSemaphores, sem)
}

// AddSubmitCallback registers a callback run immediately after this
// iteration's command buffer is submitted to q.
func (r *GraphRun) AddSubmitCallback(cb func(q Queue, run *GraphRun)) {
	r.submitCallbacks = append(r.submitCallbacks, cb)
}

// Emit appends a named status event to the run, timestamped now.
func (r *GraphRun) Emit(name string) {
	r.events = append(r.events, StatusEvent{Name: name, At: time.Now()})
}

// Events returns the status events emitted so far this iteration.
func (r *GraphRun) Events() []StatusEvent { return r.events }

// RequestRebuild flags that the driver should enter *Building* before the
// next iteration.
func (r *GraphRun) RequestRebuild() { r.rebuildRequested = true }

func newGraphRun(iteration, total uint64, inFlight int, delta, elapsed time.Duration, cmd CommandBuffer, prof Profiler) *GraphRun {
	return &GraphRun{
		Iteration:       iteration,
		TotalIterations: total,
		InFlightIndex:   inFlight,
		TimeDelta:       delta,
		Elapsed:         elapsed,
		Command:         cmd,
		Profiler:        prof,
	}
}
