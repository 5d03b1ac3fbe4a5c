// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/jinzhu/copier"
)

// TimeMode selects how Driver computes a GraphRun's TimeDelta.
type TimeMode int

const (
	// TimeSystemClock uses the wall-clock difference between successive
	// iteration starts.
	TimeSystemClock TimeMode = iota
	// TimeGraphClock accumulates at a fixed rate independent of wall
	// clock stalls, useful for deterministic capture/replay.
	TimeGraphClock
	// TimeFixedDelta always reports Config.FixedDelta, ignoring wall time
	// entirely.
	TimeFixedDelta
)

// Config is the driver's bootstrap and runtime configuration: the part
// that isn't per-node — iterations-in-flight, FPS limit, time-overwrite
// mode, profiler enable.
type Config struct {
	InFlight         int           // K, ring size; must be >= 1
	FPSLimit         float64       // 0 disables the limiter
	TimeMode         TimeMode
	FixedDelta       time.Duration
	ProfilingEnabled bool
}

func (c Config) withDefaults() Config {
	if c.InFlight < 1 {
		c.InFlight = 1
	}
	return c
}

// driverState is the driver's state machine: Idle, Building, Running.
type driverState int

const (
	stateIdle driverState = iota
	stateBuilding
	stateRunning
)

// ringSlot is one of the K in-flight iteration contexts: a command
// pool and a completion fence. Per-node descriptor sets for each slot
// are held in Driver.descSets.
type ringSlot struct {
	pool  CommandPool
	fence Fence
}

// Driver is the execution driver: it owns the resource table, drives
// ordering, allocation, and resource-set precomputation on rebuild, and
// advances the ring of K in-flight iterations. The Vulkan-facing
// collaborators (allocator, queue, descriptor allocator, command
// pools/fences) are supplied by the caller; this type never constructs
// them.
type Driver struct {
	graph     *Graph
	cfg       Config
	alloc     Allocator
	descAlloc DescriptorAllocator
	queue     Queue
	profiler  Profiler

	state driverState
	slots []ringSlot

	resources *resourceTable
	order     []NodeID
	resolved  *resolved
	allocs    map[NodeID][]*allocationRecord

	// descSets[node][slot] is allocated once per build, sized by that
	// node's connectors' DescriptorInfo bindings.
	descSets map[NodeID][]DescriptorSet

	iteration       uint64
	totalIterations uint64
	initTime        time.Time
	lastIterStart   time.Time
	graphClock      time.Duration

	buf BarrierBuffer

	// lastLayout is a deep snapshot of the topology as of the previous
	// build, kept independent of graph's live node/edge tables so a
	// rebuild can report whether topology actually changed: a rebuild
	// with unchanged topology must reproduce the same allocation plan.
	lastLayout      *Layout
	topologyChanged bool
}

// RebuildTopologyChanged reports whether the most recent build's topology
// differs from the one before it. The first build, with no prior build
// recorded, always reports true.
func (d *Driver) RebuildTopologyChanged() bool {
	return d.topologyChanged
}

// NodeStats returns the most recent per-phase timing recorded for the
// node with the given identifier, and whether that node exists.
func (d *Driver) NodeStats(identifier string) (NodeStats, bool) {
	rec, ok := d.graph.nodes.ValueByKeyTry(identifier)
	if !ok {
		return NodeStats{}, false
	}
	return rec.stats, true
}

// NewDriver constructs a driver over g, bound to the given collaborators.
// pools and fences must each have length cfg.InFlight.
func NewDriver(g *Graph, cfg Config, alloc Allocator, descAlloc DescriptorAllocator, queue Queue, profiler Profiler, pools []CommandPool, fences []Fence) (*Driver, error) {
	cfg = cfg.withDefaults()
	if len(pools) != cfg.InFlight || len(fences) != cfg.InFlight {
		return nil, fmt.Errorf("graph: NewDriver needs %d command pools and fences, got %d and %d", cfg.InFlight, len(pools), len(fences))
	}
	slots := make([]ringSlot, cfg.InFlight)
	for i := range slots {
		slots[i] = ringSlot{pool: pools[i], fence: fences[i]}
	}
	return &Driver{
		graph:     g,
		cfg:       cfg,
		alloc:     alloc,
		descAlloc: descAlloc,
		queue:     queue,
		profiler:  profiler,
		slots:     slots,
		resources: newResourceTable(),
		descSets:  make(map[NodeID][]DescriptorSet),
	}, nil
}

// State reports the driver's current lifecycle phase, mostly useful for
// tests and the rgctl status command.
func (d *Driver) State() string {
	switch d.state {
	case stateIdle:
		return "idle"
	case stateBuilding:
		return "building"
	case stateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Run advances one iteration, building first if this is the first call or
// a rebuild is pending. Run never blocks except at its two suspension
// points: the ring-slot wait here, and the FPS-limiter sleep
// at the end of the iteration.
func (d *Driver) Run(ctx context.Context) error {
	if d.state == stateIdle || d.graph.needsRebuild {
		if err := d.build(ctx); err != nil {
			return err
		}
	}
	return d.step(ctx)
}

// Wait drains every ring slot, following the same shutdown discipline
// as a clean driver stop.
func (d *Driver) Wait(ctx context.Context) error {
	for i := range d.slots {
		if err := d.slots[i].fence.Wait(ctx); err != nil {
			return fmt.Errorf("graph: drain ring slot %d: %w", i, err)
		}
	}
	return nil
}

// build implements the Idle/Building -> Running transition: drain every
// in-flight iteration, then re-run validation, allocation, and the node
// on_build hooks.
func (d *Driver) build(ctx context.Context) error {
	d.state = stateBuilding
	Logger().Debug("graph build starting")

	if err := d.Wait(ctx); err != nil {
		return err
	}

	d.recordLayoutSnapshot()

	order, err := d.graph.order()
	if err != nil {
		Logger().Error("graph build aborted", "err", err)
		return err
	}

	r := &resolved{outputs: make(map[NodeID][]OutputConnector)}
	for _, id := range order {
		rec := d.graph.byID[id]
		if rec.removed || rec.disabled {
			continue
		}
		layout := d.resolveIOLayout(id, r)
		outs, err := describeOutputsSafely(rec.node, layout)
		if err != nil {
			rec.disabled = true
			rec.addError(err)
			Logger().Warn("node disabled during build", "node", rec.identifier, "err", err)
			continue
		}
		rec.outputs = outs
		r.outputs[id] = outs
	}

	if err := d.graph.validate(r); err != nil {
		Logger().Error("graph build aborted", "err", err)
		return err
	}

	d.resources.reset()
	allocs, err := d.graph.allocate(ctx, order, r, d.alloc, d.resources)
	if err != nil {
		Logger().Error("graph build aborted", "err", err)
		return err
	}

	precomputeResourceSets(order, d.graph, r, allocs)

	for _, id := range order {
		rec := d.graph.byID[id]
		if rec.removed || rec.disabled {
			continue
		}
		if builder, ok := rec.node.(Builder); ok {
			io := PerPhaseIO{Inputs: make(map[string][]ResourceID), Outputs: make(map[string][]ResourceID)}
			for i, in := range rec.inputs {
				per := make([]ResourceID, rec.period)
				for s := 0; s < rec.period; s++ {
					per[s] = rec.phaseInputs[s][i]
				}
				io.Inputs[in.Name()] = per
			}
			for i, o := range rec.outputs {
				per := make([]ResourceID, rec.period)
				for s := 0; s < rec.period; s++ {
					per[s] = rec.phaseOutputs[s][i]
				}
				io.Outputs[o.Name()] = per
			}
			err := func() (err error) {
				defer func() {
					if p := recover(); p != nil {
						err = wrapNodeError("on_build panicked: %v", p)
					}
				}()
				return builder.OnBuild(ctx, io)
			}()
			if err != nil {
				rec.disabled = true
				rec.addError(wrapNodeError("%s: on_build: %v", rec.identifier, err))
				Logger().Warn("node disabled during build", "node", rec.identifier, "err", err)
			}
		}
		if err := d.allocateDescriptorSets(ctx, rec); err != nil {
			return err
		}
	}

	d.order = order
	d.resolved = r
	d.allocs = allocs
	d.graph.needsRebuild = false
	d.graph.flushPendingMutations()
	d.state = stateRunning
	Logger().Info("graph build complete", "nodes", len(order))
	return nil
}

// recordLayoutSnapshot compares this build's topology against the one
// captured at the previous build and records whether it changed, then
// replaces the stored snapshot with a deep copy of the current one so the
// live graph's node/edge tables can keep mutating without disturbing it.
func (d *Driver) recordLayoutSnapshot() {
	current := d.graph.Layout()
	if d.lastLayout != nil {
		d.topologyChanged = !reflect.DeepEqual(*d.lastLayout, current)
	} else {
		d.topologyChanged = true
	}
	var snapshot Layout
	if err := copier.Copy(&snapshot, &current); err != nil {
		Logger().Warn("layout snapshot copy failed, rebuild diagnostics may be stale", "err", err)
		snapshot = current
	}
	d.lastLayout = &snapshot
}

// resolveIOLayout builds the IOLayout describe_outputs needs for node id:
// for each input already connected to a producer already described this
// build, its resolved connector; feedback (delay >= 1) or not-yet-visited
// producers leave that entry absent, since resolving an output's layout
// may need already-visited producers' outputs.
func (d *Driver) resolveIOLayout(id NodeID, r *resolved) IOLayout {
	rec := d.graph.byID[id]
	layout := IOLayout{Inputs: make(map[string]ResolvedInput)}
	for _, in := range rec.inputs {
		src, ok := resolveProducer(d.graph, id, in.Name())
		if !ok {
			continue
		}
		out, ok := r.outputByName(src.node, src.output)
		if !ok {
			continue
		}
		layout.Inputs[in.Name()] = ResolvedInput{
			Producer: out,
			Layout:   in.RequiredLayout(),
			Usage:    in.RequiredUsage(),
		}
	}
	return layout
}

// describeOutputsSafely recovers a node-hook panic into ErrNodeError.
func describeOutputsSafely(node Node, layout IOLayout) (outs []OutputConnector, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = wrapNodeError("describe_outputs panicked: %v", p)
		}
	}()
	return node.DescribeOutputs(layout)
}

// processSafely recovers a node-hook panic into ErrNodeError.
func processSafely(node Node, ctx context.Context, run *GraphRun, set DescriptorSet, io IO) (flags ProcessFlags, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = wrapNodeError("process panicked: %v", p)
		}
	}()
	return node.Process(ctx, run, set, io)
}

func (d *Driver) allocateDescriptorSets(ctx context.Context, rec *nodeRecord) error {
	if d.descAlloc == nil {
		return nil
	}
	var bindings []DescriptorBinding
	for _, in := range rec.inputs {
		if b, ok := in.DescriptorInfo(); ok {
			bindings = append(bindings, b)
		}
	}
	for _, o := range rec.outputs {
		if b, ok := o.DescriptorInfo(); ok {
			bindings = append(bindings, b)
		}
	}
	if len(bindings) == 0 {
		return nil
	}
	sets := make([]DescriptorSet, d.cfg.InFlight)
	for k := 0; k < d.cfg.InFlight; k++ {
		set, err := d.descAlloc.Allocate(ctx, fmt.Sprintf("%s#%d", rec.identifier, k), bindings)
		if err != nil {
			return fmt.Errorf("graph: allocate descriptor set for %q slot %d: %w", rec.identifier, k, err)
		}
		sets[k] = set
	}
	d.descSets[rec.id] = sets
	return nil
}

// step implements the per-iteration execution procedure.
func (d *Driver) step(ctx context.Context) error {
	k := int(d.iteration % uint64(d.cfg.InFlight))
	slot := &d.slots[k]

	if err := slot.fence.Wait(ctx); err != nil {
		return fmt.Errorf("graph: wait ring slot %d: %w", k, err)
	}
	if err := slot.fence.Reset(); err != nil {
		return fmt.Errorf("graph: reset fence for ring slot %d: %w", k, err)
	}
	if err := slot.pool.Reset(ctx); err != nil {
		return fmt.Errorf("graph: reset command pool for ring slot %d: %w", k, err)
	}
	cmd, err := slot.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("graph: acquire command buffer for ring slot %d: %w", k, err)
	}

	now := time.Now()
	var delta time.Duration
	switch d.cfg.TimeMode {
	case TimeFixedDelta:
		delta = d.cfg.FixedDelta
	case TimeGraphClock:
		delta = d.cfg.FixedDelta
		d.graphClock += delta
	default: // TimeSystemClock
		if !d.lastIterStart.IsZero() {
			delta = now.Sub(d.lastIterStart)
		}
	}
	d.lastIterStart = now
	if d.initTime.IsZero() {
		d.initTime = now
	}
	elapsed := now.Sub(d.initTime)

	var prof Profiler
	if d.cfg.ProfilingEnabled {
		prof = d.profiler
	}
	run := newGraphRun(d.iteration, d.totalIterations, k, delta, elapsed, cmd, prof)

	if err := cmd.Begin(ctx); err != nil {
		return fmt.Errorf("graph: begin command buffer: %w", err)
	}

	d.graph.runInProgress = true
	defer func() { d.graph.runInProgress = false }()
	for _, id := range d.order {
		rec := d.graph.byID[id]
		if rec.removed || rec.disabled {
			continue
		}
		if err := d.runNode(ctx, rec, run, k); err != nil {
			return err
		}
	}

	if err := cmd.End(ctx); err != nil {
		return fmt.Errorf("graph: end command buffer: %w", err)
	}

	signals := append(append([]Semaphore(nil), run.signalSemaphores...))
	if err := d.queue.Submit(ctx, SubmitInfo{
		Wait:    run.waitSemaphores,
		Signal:  signals,
		Fence:   slot.fence,
		Command: cmd,
	}); err != nil {
		return fmt.Errorf("graph: submit ring slot %d: %w", k, err)
	}
	for _, cb := range run.submitCallbacks {
		cb(d.queue, run)
	}

	d.iteration++
	d.totalIterations++

	if run.rebuildRequested {
		d.graph.needsRebuild = true
	}
	d.graph.runInProgress = false
	d.graph.flushPendingMutations()

	if d.cfg.FPSLimit > 0 {
		target := time.Duration(float64(time.Second) / d.cfg.FPSLimit)
		spent := time.Since(now)
		if spent < target {
			time.Sleep(target - spent)
		}
	}
	return nil
}

// runNode executes one node's pre-process/process/post-process sequence
// for ring slot k, batching its barriers into one buffer.
func (d *Driver) runNode(ctx context.Context, rec *nodeRecord, run *GraphRun, k int) error {
	s := 0
	if rec.period > 0 {
		s = int(run.Iteration % uint64(rec.period))
	}
	ins := rec.phaseInputs[s]
	outs := rec.phaseOutputs[s]

	var set DescriptorSet
	if sets, ok := d.descSets[rec.id]; ok {
		set = sets[k]
	}

	io := IO{Inputs: make(map[string]any), Outputs: make(map[string]any)}

	endPre := d.beginPhase(run, rec, "PreProcess", &rec.stats.PreProcess)
	d.buf.Reset()
	for i, in := range rec.inputs {
		if ins[i] == InvalidID {
			continue
		}
		r := d.resources.get(ins[i])
		flags, err := in.PreProcess(ctx, r, &d.buf)
		if err != nil {
			rec.addError(wrapConnectorError("%s.%s pre-process: %v", rec.identifier, in.Name(), err))
			rec.disabled = true
			endPre()
			return nil
		}
		if flags.Has(NeedsDescriptorUpdate) && set != nil {
			if err := in.DescriptorUpdate(ctx, r, set); err != nil {
				endPre()
				return fmt.Errorf("graph: %s.%s descriptor update: %w", rec.identifier, in.Name(), err)
			}
		}
		io.Inputs[in.Name()] = in.ResourceView(r)
	}
	if !d.buf.Empty() {
		if err := run.Command.PipelineBarrier(ctx, &d.buf); err != nil {
			endPre()
			return fmt.Errorf("graph: %s input barriers: %w", rec.identifier, err)
		}
	}

	d.buf.Reset()
	for i, o := range rec.outputs {
		if outs[i] == InvalidID {
			continue
		}
		r := d.resources.get(outs[i])
		flags, err := o.PreProcess(ctx, r, &d.buf)
		if err != nil {
			rec.addError(wrapConnectorError("%s.%s pre-process: %v", rec.identifier, o.Name(), err))
			rec.disabled = true
			endPre()
			return nil
		}
		if flags.Has(NeedsDescriptorUpdate) && set != nil {
			if err := o.DescriptorUpdate(ctx, r, set); err != nil {
				endPre()
				return fmt.Errorf("graph: %s.%s descriptor update: %w", rec.identifier, o.Name(), err)
			}
		}
		io.Outputs[o.Name()] = o.ResourceView(r)
	}
	if !d.buf.Empty() {
		if err := run.Command.PipelineBarrier(ctx, &d.buf); err != nil {
			endPre()
			return fmt.Errorf("graph: %s output barriers: %w", rec.identifier, err)
		}
	}
	endPre()

	endProcess := d.beginPhase(run, rec, "Process", &rec.stats.Process)
	flags, err := processSafely(rec.node, ctx, run, set, io)
	endProcess()
	if err != nil {
		rec.addError(err)
		rec.disabled = true
		Logger().Warn("node disabled at runtime", "node", rec.identifier, "err", err)
		return nil
	}
	if flags.Has(RemoveNode) {
		d.graph.RemoveNode(rec.identifier)
	}
	if flags.Has(NeedsReconnect) {
		run.RequestRebuild()
	}

	endPost := d.beginPhase(run, rec, "PostProcess", &rec.stats.PostProcess)
	d.buf.Reset()
	for i, in := range rec.inputs {
		if ins[i] == InvalidID {
			continue
		}
		r := d.resources.get(ins[i])
		flags, err := in.PostProcess(ctx, r, &d.buf)
		if err != nil {
			rec.addError(wrapConnectorError("%s.%s post-process: %v", rec.identifier, in.Name(), err))
			continue
		}
		if flags.Has(NeedsDescriptorUpdate) && set != nil {
			if err := in.DescriptorUpdate(ctx, r, set); err != nil {
				endPost()
				return fmt.Errorf("graph: %s.%s descriptor update: %w", rec.identifier, in.Name(), err)
			}
		}
	}
	for i, o := range rec.outputs {
		if outs[i] == InvalidID {
			continue
		}
		r := d.resources.get(outs[i])
		flags, err := o.PostProcess(ctx, r, &d.buf)
		if err != nil {
			rec.addError(wrapConnectorError("%s.%s post-process: %v", rec.identifier, o.Name(), err))
			continue
		}
		if flags.Has(NeedsDescriptorUpdate) && set != nil {
			if err := o.DescriptorUpdate(ctx, r, set); err != nil {
				endPost()
				return fmt.Errorf("graph: %s.%s descriptor update: %w", rec.identifier, o.Name(), err)
			}
		}
	}
	if !d.buf.Empty() {
		if err := run.Command.PipelineBarrier(ctx, &d.buf); err != nil {
			endPost()
			return fmt.Errorf("graph: %s post barriers: %w", rec.identifier, err)
		}
	}
	endPost()
	return nil
}

// beginPhase starts the optional Profiler span and wall-clock timer for
// one node phase, returning a func to call exactly once when the phase
// ends (on every path, including early returns) to record both.
func (d *Driver) beginPhase(run *GraphRun, rec *nodeRecord, label string, stat *durationStat) func() {
	if run.Profiler != nil {
		run.Profiler.Begin(rec.identifier + "." + label)
	}
	start := time.Now()
	return func() {
		stat.Record(int64(time.Since(start)))
		if run.Profiler != nil {
			run.Profiler.End(rec.identifier + "." + label)
		}
	}
}
