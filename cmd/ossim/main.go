// Command ossim boots a simulated multi-core kernel image on the software
// HAL shim, runs a scenario script against it, and prints a live status
// line to the terminal — the scripted-demo counterpart to the teacher's
// interactive Machine Monitor, aimed at a Lua script instead of a keyboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	rtos "github.com/intuitionamiga/ossim"
	"github.com/intuitionamiga/ossim/halshim"
	"github.com/intuitionamiga/ossim/scenario"
)

func main() {
	scenarioPath := flag.String("scenario", "", "Lua scenario script to run")
	numCores := flag.Int("cores", 1, "number of simulated cores")
	numPrio := flag.Int("priorities", 8, "scheduler priority levels per core")
	quiet := flag.Bool("quiet", false, "suppress the live status line")
	tracePath := flag.String("trace", "", "write a PNG task-state trace to this path after the scenario runs")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "ossim: software-HAL kernel demo harness")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *scenarioPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := buildConfig(*numCores, *numPrio)

	shims := make(map[rtos.CoreID]*halshim.Shim)
	hooks := rtos.NewHooks()
	sys := rtos.NewSystem(cfg, func(core rtos.CoreID) rtos.Hal {
		h, err := halshim.New(core)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ossim: halshim core %d: %v\n", core, err)
			os.Exit(1)
		}
		shims[core] = h
		return h
	}, hooks)

	if err := sys.StartOS(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "ossim: boot failed: %v\n", err)
		os.Exit(1)
	}

	if !*quiet && term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Printf("ossim: %d core(s) booted, running %s\n", *numCores, *scenarioPath)
	}

	res := scenario.Run(sys, *scenarioPath, *scenarioPath)

	if *tracePath != "" {
		if err := writeTaskTrace(*tracePath, sys, len(cfg.Tasks)); err != nil {
			fmt.Fprintf(os.Stderr, "ossim: trace: %v\n", err)
		}
	}

	sys.ShutdownOS(rtos.StatusOK)
	for _, h := range shims {
		h.Close()
	}

	for _, line := range res.Log {
		fmt.Println(line)
	}
	if !res.Passed() {
		fmt.Fprintf(os.Stderr, "ossim: scenario %s FAILED\n", res.Name)
		for _, f := range res.Failures {
			fmt.Fprintf(os.Stderr, "  - %s\n", f)
		}
		os.Exit(1)
	}
	fmt.Printf("ossim: scenario %s OK\n", res.Name)
}

// buildConfig builds a small uniform configuration: one low/one high
// priority task per core, a software millisecond counter, and a resource
// ceilinged at the high priority. Real deployments load this from the
// (out-of-scope) static generator; this is a deliberately minimal stand-in
// for exercising the scenario scripts.
func buildConfig(numCores, numPrio int) rtos.SystemConfig {
	cfg := rtos.SystemConfig{
		RoundRobinQuantum: make(map[rtos.TaskID]int),
	}
	for c := 0; c < numCores; c++ {
		core := rtos.CoreID(c)
		low := rtos.TaskConfig{HomePriority: 1, MaxActivations: 4, Core: core}
		high := rtos.TaskConfig{HomePriority: rtos.Priority(numPrio - 1), MaxActivations: 1, Core: core}
		cfg.Tasks = append(cfg.Tasks, low, high)
		cfg.TaskOwner = append(cfg.TaskOwner, 0, 0)

		cfg.Counters = append(cfg.Counters, rtos.CounterConfig{
			Kind:             rtos.CounterKindSW,
			Core:             core,
			MaxCountingValue: 1 << 32,
			MaxDifferential:  1 << 31,
			MinCycle:         1,
			TicksPerBase:     1,
		})

		// One alarm per core's counter, targeting that core's high-priority
		// task, so a scenario can exercise SetRelAlarm end to end (§8
		// scenario 2).
		highTask := rtos.TaskID(c*2 + 1)
		cfg.Alarms = append(cfg.Alarms, rtos.AlarmConfig{
			Counter:    rtos.CounterID(c),
			Action:     rtos.AlarmAction{Kind: rtos.AlarmActionActivateTask, Task: highTask},
			AccessMask: ^uint64(0),
		})

		// One ISR per core, owned by its own application (app 1) separate
		// from the tasks' app 0, so TerminateApplication can kill just the
		// ISR: a scenario exercises a resource held and then force-released
		// on TerminateApplication without also tearing down the tasks (§8
		// scenario 6).
		cfg.ISRs = append(cfg.ISRs, rtos.ISRConfig{Source: rtos.InterruptSourceID(c), App: 1, Core: core, AccessMask: ^uint64(0)})
		cfg.ISROwner = append(cfg.ISROwner, 1)

		cfg.Cores = append(cfg.Cores, rtos.CoreConfig{
			Applications:       []rtos.ApplicationID{0, 1},
			Scheduler:          rtos.SchedulerConfig{NumPriorities: numPrio, DequeCapacity: make([]int, numPrio)},
			IsHardwareInitCore: c == 0,
		})
		for i := range cfg.Cores[c].Scheduler.DequeCapacity {
			cfg.Cores[c].Scheduler.DequeCapacity[i] = 8
		}
	}
	cfg.Resources = []rtos.ResourceConfig{{Ceiling: rtos.Priority(numPrio - 1), AccessMask: ^uint64(0)}}
	// Two spinlocks with distinct ranks, usable by every core, to exercise
	// the rank-ordered nesting check (§8 scenario 5).
	allCores := make([]rtos.CoreID, numCores)
	for i := range allCores {
		allCores[i] = rtos.CoreID(i)
	}
	cfg.Spinlocks = []rtos.SpinlockConfig{
		{Rank: 1, Cores: allCores, AccessMask: ^uint64(0)},
		{Rank: 2, Cores: allCores, AccessMask: ^uint64(0)},
	}
	cfg.Applications = []rtos.ApplicationConfig{
		{Trusted: true, CategoryBMask: ^uint64(0)},
		{Trusted: true, CategoryBMask: ^uint64(0)},
	}
	return cfg
}
