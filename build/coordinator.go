// Package build serializes rebuilds: however many change notifications arrive,
// at most one compile runs at a time and a burst during a compile collapses
// into a single follow-up compile.
package build

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/subgraph/errors"
)

// State is the coordinator's rebuild state.
type State int

const (
	// Idle means no compile is running.
	Idle State = iota
	// Building means a compile is running and nothing new has been requested.
	Building
	// Pending means a compile is running and another was requested meanwhile.
	Pending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Trigger describes the change that requested a rebuild. It is informational:
// every trigger requests the same full rebuild.
type Trigger struct {
	Path string
	Op   string
	At   time.Time
}

// CompileFunc runs one full build.
type CompileFunc func(ctx context.Context) error

// ErrStopped is reported when a notification arrives outside Start/Stop.
var ErrStopped = errors.New("coordinator stopped")

// Coordinator is the Idle/Building/Pending rebuild state machine.
//
//	Idle     + notify     -> start build, Building
//	Building + notify     -> Pending
//	Pending  + notify     -> no change
//	build done, Pending   -> start next build, Building
//	build done, otherwise -> Idle
//
// A compile is never cancelled once started. A failed compile is logged and
// the coordinator keeps accepting notifications.
type Coordinator struct {
	compile CompileFunc
	logger  *zap.SugaredLogger

	mu      sync.Mutex
	idle    *sync.Cond
	ctx     context.Context
	state   State
	started bool
	stopped bool
	builds  int
	lastErr error
}

// NewCoordinator creates a coordinator that runs compile for every build.
func NewCoordinator(compile CompileFunc, logger *zap.SugaredLogger) *Coordinator {
	c := &Coordinator{
		compile: compile,
		logger:  logger,
		ctx:     context.Background(),
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Start enables the coordinator. ctx is handed to every compile; cancelling
// it does not interrupt a running compile, use Stop for shutdown.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = context.WithoutCancel(ctx)
	c.started = true
	c.stopped = false
}

// Stop refuses further notifications and waits for the running compile,
// including a follow-up that was already pending, to finish.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stopped = true
	for c.state != Idle {
		c.idle.Wait()
	}
	c.mu.Unlock()
	c.logger.Debugw("Rebuild coordinator stopped", "builds", c.Builds())
}

// Notify requests a rebuild. It never blocks on the compile.
func (c *Coordinator) Notify(t Trigger) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.stopped {
		c.logger.Debugw("Ignoring change notification",
			"path", t.Path,
			"error", ErrStopped)
		return
	}

	switch c.state {
	case Idle:
		c.state = Building
		go c.run(t)
	case Building:
		c.state = Pending
		c.logger.Debugw("Change during build, rebuild queued", "path", t.Path)
	case Pending:
	}
}

// run executes builds until no rebuild is pending.
func (c *Coordinator) run(t Trigger) {
	for {
		c.mu.Lock()
		ctx := c.ctx
		c.mu.Unlock()

		c.execute(ctx, t)

		c.mu.Lock()
		if c.state == Pending {
			c.state = Building
			c.mu.Unlock()
			t = Trigger{Op: "pending", At: time.Now()}
			continue
		}
		c.state = Idle
		c.idle.Broadcast()
		c.mu.Unlock()
		return
	}
}

func (c *Coordinator) execute(ctx context.Context, t Trigger) {
	id := uuid.New().String()
	start := time.Now()
	c.logger.Infow("Build started",
		"build_id", id,
		"trigger", t.Path,
		"op", t.Op)

	err := c.safeCompile(ctx)

	c.mu.Lock()
	c.builds++
	c.lastErr = err
	c.mu.Unlock()

	if err != nil {
		c.logger.Errorw("Build failed",
			"build_id", id,
			"duration", time.Since(start),
			"error", err)
		return
	}
	c.logger.Infow("Build completed",
		"build_id", id,
		"duration", time.Since(start))
}

// safeCompile turns a panicking compile into an error so the state machine
// always returns to Idle.
func (c *Coordinator) safeCompile(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.AssertionFailedf("compile panicked: %v", r)
		}
	}()
	return c.compile(ctx)
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Builds returns the number of compiles that have finished.
func (c *Coordinator) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}

// LastError returns the result of the most recent compile.
func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Wait blocks until the coordinator is Idle.
func (c *Coordinator) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.state != Idle {
		c.idle.Wait()
	}
}
