// system.go - multi-core system wiring: boot, shutdown, and the object
// tables every external API dispatches against

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// System is the whole kernel image: one instance per boot, owning every
// core and every static object table, the single point the api_*.go
// dispatch files call into.
type System struct {
	cfg SystemConfig

	cores     map[CoreID]*Core
	halByCore map[CoreID]Hal

	counters map[CounterID]*Counter
	alarms   map[AlarmID]*Alarm
	schTabs  map[ScheduleTableID]*ScheduleTable
	resByCore  map[CoreID]*ResourceTable // an OSEK resource is not cross-core (§5)
	isrByCore  map[CoreID]*ISREngine
	spin     *SpinlockTable // cross-core by design (§4.8)
	tpByCore map[CoreID]*TPEngine
	apps     *ApplicationTable
	errs     *ErrorSubsystem
	hooks    *Hooks

	mailboxes map[[2]CoreID]*XSignalRing // (sender, receiver) -> ring

	state OSState
}

// NewSystem builds every engine from cfg: one Scheduler/TaskEngine/
// ResourceTable/ISREngine/TPEngine/Core per configured core (resources and
// the TP engine are per-core per §5/§4.9), and one SpinlockTable /
// ApplicationTable shared cross-core (spinlocks are explicitly cross-core
// per §4.8; applications span cores by their task/ISR membership).
func NewSystem(cfg SystemConfig, halFactory func(CoreID) Hal, hooks *Hooks) *System {
	s := &System{
		cfg:       cfg,
		cores:     make(map[CoreID]*Core),
		halByCore: make(map[CoreID]Hal),
		counters:  make(map[CounterID]*Counter),
		alarms:    make(map[AlarmID]*Alarm),
		schTabs:   make(map[ScheduleTableID]*ScheduleTable),
		resByCore: make(map[CoreID]*ResourceTable),
		isrByCore: make(map[CoreID]*ISREngine),
		tpByCore:  make(map[CoreID]*TPEngine),
		errs:      NewErrorSubsystem(),
		hooks:     hooks,
		mailboxes: make(map[[2]CoreID]*XSignalRing),
	}

	tpConfigs := make(map[ThreadContext]TPConfig)
	for i, tc := range cfg.Tasks {
		tpConfigs[ThreadContext{Kind: ThreadKindTask, ID: int32(i)}] = tc.TP
	}
	for i, ic := range cfg.ISRs {
		tpConfigs[ThreadContext{Kind: ThreadKindISR, ID: int32(i)}] = ic.TP
	}

	homePrio := make([]Priority, len(cfg.Tasks))
	for i, tc := range cfg.Tasks {
		homePrio[i] = tc.HomePriority
	}

	s.spin = NewSpinlockTable(cfg.Spinlocks, nil) // re-pointed to core 0's HAL below

	for coreIdx, coreCfg := range cfg.Cores {
		core := CoreID(coreIdx)
		hal := halFactory(core)
		s.halByCore[core] = hal
		if coreIdx == 0 {
			s.spin.hal = hal
		}

		sched := NewScheduler(coreCfg.Scheduler.NumPriorities, coreCfg.Scheduler.DequeCapacity, homePrio, cfg.RoundRobinQuantum)

		tpHrt := NewCounter(-1, CounterConfig{Kind: CounterKindHRT, Core: core}, hal)
		tp := NewTPEngine(tpConfigs, tpHrt, s.onProtectionViolation)
		s.tpByCore[core] = tp

		res := NewResourceTable(cfg.Resources, sched, tp)
		s.resByCore[core] = res

		tasks := NewTaskEngine(cfg.Tasks, sched, res, tp)
		c := NewCore(core, hal, sched, tasks)
		s.cores[core] = c

		isrs := NewISREngine(cfg.ISRs, c, tp, res, s.spin, s.defaultErrHook)
		s.isrByCore[core] = isrs
	}

	s.apps = NewApplicationTable(cfg.Applications, s.taskEngineFor, s.isrEngineFor, cfg.TaskOwner, cfg.ISROwner)

	for id, cc := range cfg.Counters {
		s.counters[CounterID(id)] = NewCounter(CounterID(id), cc, s.halByCore[cc.Core])
	}
	for id, ac := range cfg.Alarms {
		aid := AlarmID(id)
		s.alarms[aid] = NewAlarm(aid, ac, s.fireAlarm)
	}
	for id, tc := range cfg.ScheduleTables {
		tid := ScheduleTableID(id)
		s.schTabs[tid] = NewScheduleTable(tid, tc, s.fireSchTPoint)
	}

	for coreIdx, coreCfg := range cfg.Cores {
		if coreCfg.RRPeriod == 0 {
			continue
		}
		core := CoreID(coreIdx)
		c, ok := s.counters[coreCfg.RRCounter]
		if !ok {
			continue
		}
		sched := s.cores[core].sched
		period := coreCfg.RRPeriod
		var job *Job
		job = &Job{Kind: JobKindRoundRobin, Owner: coreCfg.RRCounter}
		job.Callback = func(uint64) {
			sched.Tick()
			s.cores[core].RequestSchedule()
			s.cores[core].Schedule()
			c.Reload(job, period)
		}
		c.AddRel(job, period)
	}

	return s
}

// taskEngineFor returns the TaskEngine of t's owning core.
func (s *System) taskEngineFor(t TaskID) *TaskEngine {
	if int(t) < 0 || int(t) >= len(s.cfg.Tasks) {
		return nil
	}
	c, ok := s.cores[s.cfg.Tasks[t].Core]
	if !ok {
		return nil
	}
	return c.tasks
}

// coreOf returns the Core owning ctx (a task or an ISR), for dispatch-point
// wiring that must call Schedule() on that specific core after a kernel call
// that can change its ready set or current priority (§5).
func (s *System) coreOf(ctx ThreadContext) *Core {
	switch ctx.Kind {
	case ThreadKindTask:
		if int(ctx.ID) < 0 || int(ctx.ID) >= len(s.cfg.Tasks) {
			return nil
		}
		return s.cores[s.cfg.Tasks[ctx.ID].Core]
	case ThreadKindISR:
		if int(ctx.ID) < 0 || int(ctx.ID) >= len(s.cfg.ISRs) {
			return nil
		}
		return s.cores[s.cfg.ISRs[ctx.ID].Core]
	}
	return nil
}

// isrEngineFor returns the ISREngine of i's owning core.
func (s *System) isrEngineFor(i ISRID) *ISREngine {
	if int(i) < 0 || int(i) >= len(s.cfg.ISRs) {
		return nil
	}
	e, ok := s.isrByCore[s.cfg.ISRs[i].Core]
	if !ok {
		return nil
	}
	return e
}

// onProtectionViolation routes a TP violation through ProtectionHook and
// applies its verdict.
func (s *System) onProtectionViolation(ctx ThreadContext, code StatusCode) ProtectionAction {
	action := s.hooks.ProtectionHook(ctx, code)
	switch action {
	case ProtectionTerminateTaskISR:
		switch ctx.Kind {
		case ThreadKindTask:
			if te := s.taskEngineFor(TaskID(ctx.ID)); te != nil {
				te.Kill(TaskID(ctx.ID), func(c StatusCode) { s.defaultErrHook("ProtectionHook", c) })
			}
		case ThreadKindISR:
			if ie := s.isrEngineFor(ISRID(ctx.ID)); ie != nil {
				ie.Kill(ISRID(ctx.ID))
			}
		}
	case ProtectionTerminateAppl, ProtectionTerminateApplRestart:
		if owner, ok := s.ownerOf(ctx); ok {
			s.apps.TerminateApplication(owner, action == ProtectionTerminateApplRestart, func(c StatusCode) {
				s.defaultErrHook("ProtectionHook", c)
			})
		}
	case ProtectionShutdown:
		s.ShutdownOS(code)
	}
	return action
}

// ownerOf resolves the owning application of a task or ISR thread context.
func (s *System) ownerOf(ctx ThreadContext) (ApplicationID, bool) {
	switch ctx.Kind {
	case ThreadKindTask:
		if int(ctx.ID) < len(s.cfg.TaskOwner) {
			return s.cfg.TaskOwner[ctx.ID], true
		}
	case ThreadKindISR:
		if int(ctx.ID) < len(s.cfg.ISROwner) {
			return s.cfg.ISROwner[ctx.ID], true
		}
	}
	return 0, false
}

func (s *System) defaultErrHook(api string, code StatusCode) {
	s.errs.Record(0, api, code, noThread)
	s.hooks.fireError(api, code, noThread)
}

// fireAlarm performs the alarm's configured action then, if cyclic,
// re-arms it (§4.6).
func (s *System) fireAlarm(a *Alarm) {
	switch a.cfg.Action.Kind {
	case AlarmActionActivateTask:
		if te := s.taskEngineFor(a.cfg.Action.Task); te != nil {
			te.ActivateTask(a.cfg.Action.Task)
		}
	case AlarmActionSetEvent:
		if te := s.taskEngineFor(a.cfg.Action.Task); te != nil {
			te.SetEvent(a.cfg.Action.Task, a.cfg.Action.Events)
		}
	case AlarmActionCallback:
		if a.cfg.Action.Fn != nil {
			a.cfg.Action.Fn()
		}
	case AlarmActionIncrementCounter:
		if c, ok := s.counters[a.cfg.Action.Counter]; ok {
			c.IncrementCounter()
		}
	}
	if c, ok := s.counters[a.cfg.Counter]; ok {
		a.Rearm(c)
	}
}

// fireSchTPoint performs a schedule-table expiry point's actions (treated
// as a batch of alarm-style actions) and advances the table's state
// machine.
func (s *System) fireSchTPoint(t *ScheduleTable) {
	point := t.cfg.Points[t.cursor]
	for _, action := range point.Actions {
		switch action.Kind {
		case AlarmActionActivateTask:
			if te := s.taskEngineFor(action.Task); te != nil {
				te.ActivateTask(action.Task)
			}
		case AlarmActionSetEvent:
			if te := s.taskEngineFor(action.Task); te != nil {
				te.SetEvent(action.Task, action.Events)
			}
		case AlarmActionCallback:
			if action.Fn != nil {
				action.Fn()
			}
		case AlarmActionIncrementCounter:
			if c, ok := s.counters[action.Counter]; ok {
				c.IncrementCounter()
			}
		}
	}
	if c, ok := s.counters[t.cfg.Counter]; ok {
		t.advance(c)
		if !t.job.Queued() && t.cfg.HasNext && t.state == SchTStopped {
			// NEXT hand-off: chain to the sibling table at the exact
			// deadline this table just reached — no gap, no tick lost.
			if next, ok := s.schTabs[t.cfg.NextTable]; ok {
				next.StartAbs(c, c.wrap(t.start+t.cfg.Duration))
			}
		}
	}
}

// StartOS boots every configured core: runs each core's InitHook, then
// transitions it through the boot hand-shake to STARTED. Cores boot
// concurrently via an errgroup fan-out, mirroring the teacher's worker-pool
// start pattern.
func (s *System) StartOS(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for id, core := range s.cores {
		id, core := id, core
		isHWInit := s.cfg.Cores[id].IsHardwareInitCore
		g.Go(func() error {
			if s.hooks.InitHook != nil {
				s.hooks.InitHook(id)
			}
			core.StartCore()
			core.RunBootHandshake(bootWaitingSign, isHWInit, nil)
			core.RunBootHandshake(bootInitHardware, isHWInit, func() {})
			core.RunBootHandshake(bootInitHardwareCompleted, isHWInit, nil)
			core.RunBootHandshake(bootStartCore, isHWInit, nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.state = OSStateStarted
	if s.hooks.StartupHook != nil {
		s.hooks.StartupHook()
	}
	return nil
}

// ShutdownOS is the single-core shutdown variant.
func (s *System) ShutdownOS(code StatusCode) {
	for _, c := range s.cores {
		c.ShutdownLocal()
	}
	s.state = OSStateInit
	if s.hooks.ShutdownHook != nil {
		s.hooks.ShutdownHook(code)
	}
}

// ShutdownAllCores runs every core's local shutdown, synchronises at a
// barrier (the errgroup Wait), then invokes the global shutdown hook once
// from the calling (master) goroutine (§4.10).
func (s *System) ShutdownAllCores(ctx context.Context, code StatusCode) error {
	g, _ := errgroup.WithContext(ctx)
	for _, core := range s.cores {
		core := core
		g.Go(func() error {
			core.ShutdownLocal()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.state = OSStateInit
	if s.hooks.ShutdownHook != nil {
		s.hooks.ShutdownHook(code)
	}
	return nil
}

// Mailbox returns (creating if absent) the XSignal ring from sender to
// receiver, sized per the generator's static capacity.
func (s *System) Mailbox(sender, receiver CoreID, capacity int) *XSignalRing {
	key := [2]CoreID{sender, receiver}
	r, ok := s.mailboxes[key]
	if !ok {
		r = NewXSignalRing(capacity)
		s.mailboxes[key] = r
	}
	return r
}

// DrainMailboxes delivers every message queued for receiver from any
// sender, executing each as a local ActivateTask/SetEvent call (§4.3:
// "Cross-core activation is queued to the target's XSignal FIFO and
// executed there").
func (s *System) DrainMailboxes(receiver CoreID) {
	for key, ring := range s.mailboxes {
		if key[1] != receiver {
			continue
		}
		for _, msg := range ring.Drain() {
			te := s.taskEngineFor(msg.Task)
			if te == nil {
				continue
			}
			switch msg.Kind {
			case XSignalActivateTask:
				te.ActivateTask(msg.Task)
			case XSignalSetEvent:
				te.SetEvent(msg.Task, msg.Events)
			}
		}
	}
}

// GetNumberOfActivatedCores reports how many cores are not INACTIVE.
func (s *System) GetNumberOfActivatedCores() int {
	n := 0
	for _, c := range s.cores {
		if c.activation != CoreInactive {
			n++
		}
	}
	return n
}
