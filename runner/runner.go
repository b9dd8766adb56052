package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/ntkjh80/mcp-study/artifact"
	"github.com/ntkjh80/mcp-study/core"
	"github.com/ntkjh80/mcp-study/logging"
	"github.com/ntkjh80/mcp-study/memory"
	"github.com/ntkjh80/mcp-study/session"
)

// Config defines tuning parameters for the Runner's operational behavior.
type Config struct {
	// EventBufferSize sets the channel buffer size for event processing.
	// Larger buffers reduce blocking but increase memory usage.
	EventBufferSize int

	// MaxModelCalls caps the number of model invocations per run, guarding
	// against tool-calling loops that never settle. 0 means unlimited.
	MaxModelCalls int
}

// DefaultConfig provides production-ready default configuration values.
var DefaultConfig = Config{
	EventBufferSize: 100,
	MaxModelCalls:   100,
}

// Options configures a Runner instance. All stores have in-memory defaults so
// a Runner works out of the box for development and tests.
type Options struct {
	Config        Config
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore
	MemoryStore   core.MemoryStore
	Logger        logging.Logger
}

// Runner executes a single bound agent within conversational sessions. It is
// safe for concurrent use; multiple runs may be in flight at once, each in its
// own goroutine with isolated channels.
type Runner struct {
	agent         core.Agent
	sessionStore  core.SessionStore
	artifactStore core.ArtifactStore
	memoryStore   core.MemoryStore
	logger        logging.Logger
	config        Config

	activeRuns map[string]context.CancelFunc
	runsMu     sync.Mutex
}

// New creates a Runner bound to the given agent. Stores default to the
// in-memory implementations and logging to a no-op logger.
func New(agent core.Agent, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Config:        DefaultConfig,
		SessionStore:  session.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		MemoryStore:   memory.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		agent:         agent,
		sessionStore:  opts.SessionStore,
		artifactStore: opts.ArtifactStore,
		memoryStore:   opts.MemoryStore,
		logger:        opts.Logger,
		config:        opts.Config,
		activeRuns:    make(map[string]context.CancelFunc),
	}
}

// Agent returns the bound agent.
func (r *Runner) Agent() core.Agent { return r.agent }

// GetSession retrieves the current session snapshot by ID.
func (r *Runner) GetSession(sessionID string) (*core.Session, error) {
	return r.sessionStore.Get(sessionID)
}

// Run initiates an asynchronous agent execution bound to sessionID using the
// provided userContent as the starting input. See core.Runner for channel
// semantics.
func (r *Runner) Run(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, <-chan core.Event, <-chan error, error) {
	sess, err := r.sessionStore.Get(sessionID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	runID := core.NewID()

	eventsCh := make(chan core.Event, r.config.EventBufferSize)
	errorsCh := make(chan error, 1)
	agentEmit := make(chan core.Event, r.config.EventBufferSize)
	resumeCh := make(chan struct{}, 1)

	runCtx, cancel := context.WithCancel(ctx)

	r.runsMu.Lock()
	r.activeRuns[runID] = cancel
	r.runsMu.Unlock()

	rc := core.NewRunContext(
		runCtx,
		sessionID,
		runID,
		core.AgentInfo{Name: r.agent.Name(), Type: "model"},
		userContent,
		r.config.MaxModelCalls,
		agentEmit,
		resumeCh,
		sess,
		r.sessionStore,
		r.artifactStore,
		r.memoryStore,
		r.logger,
	)

	// Persist user input as the starting event for this run.
	userEvent := core.NewUserContentEvent(runID, &userContent)
	if err := r.sessionStore.AppendEvent(sessionID, userEvent); err != nil {
		cancel()
		r.runsMu.Lock()
		delete(r.activeRuns, runID)
		r.runsMu.Unlock()

		return "", nil, nil, fmt.Errorf("failed to append user event: %w", err)
	}

	r.logger.Info("runner.run.start", "run_id", runID, "session_id", sessionID, "agent", r.agent.Name())

	go func() {
		defer func() {
			close(agentEmit)
			r.runsMu.Lock()
			delete(r.activeRuns, runID)
			r.runsMu.Unlock()
		}()

		if err := r.runAgent(rc); err != nil {
			select {
			case <-runCtx.Done():
			case errorsCh <- fmt.Errorf("agent execution failed: %w", err):
			}
		}
	}()

	go func() {
		defer func() {
			close(eventsCh)
			close(errorsCh)
		}()

		r.processEvents(runCtx, sessionID, agentEmit, resumeCh, eventsCh, errorsCh)
	}()

	return runID, eventsCh, errorsCh, nil
}

// RunSync executes the agent synchronously and returns all generated events.
// It blocks until the run completes, an error occurs or ctx is cancelled.
// Partial events are included in the result.
func (r *Runner) RunSync(
	ctx context.Context,
	sessionID string,
	userContent core.Content,
) (string, []core.Event, error) {
	runID, eventsCh, errorsCh, err := r.Run(ctx, sessionID, userContent)
	if err != nil {
		return "", nil, err
	}

	var events []core.Event
	for {
		select {
		case <-ctx.Done():
			return runID, events, ctx.Err()

		case event, ok := <-eventsCh:
			if !ok {
				select {
				case err := <-errorsCh:
					return runID, events, err
				default:
					return runID, events, nil
				}
			}
			events = append(events, event)

		case err := <-errorsCh:
			if err != nil {
				return runID, events, err
			}
		}
	}
}

// Cancel requests cooperative termination of an in-flight run.
func (r *Runner) Cancel(runID string) error {
	r.runsMu.Lock()
	cancel, exists := r.activeRuns[runID]
	r.runsMu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

func (r *Runner) runAgent(rc *core.RunContext) error {
	if err := r.agent.Start(rc); err != nil {
		return err
	}
	defer func() {
		if err := r.agent.Stop(rc); err != nil {
			r.logger.Warn("runner.agent.stop.error", "agent", r.agent.Name(), "error", err.Error())
		}
	}()

	return r.agent.Run(rc)
}

// processEvents drives the event pipeline for one run: apply actions, persist
// non-partial events, forward to the caller, signal resumption.
func (r *Runner) processEvents(
	ctx context.Context,
	sessionID string,
	agentEmit <-chan core.Event,
	resumeCh chan<- struct{},
	eventsCh chan<- core.Event,
	errorsCh chan<- error,
) {
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-agentEmit:
			if !ok {
				return
			}

			if err := r.applyEventActions(sessionID, ev); err != nil {
				select {
				case <-ctx.Done():
				case errorsCh <- fmt.Errorf("failed to process event actions: %w", err):
				}
				return
			}

			if !ev.IsPartial() {
				if err := r.sessionStore.AppendEvent(sessionID, ev); err != nil {
					select {
					case <-ctx.Done():
					case errorsCh <- fmt.Errorf("failed to append event to session: %w", err):
					}
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case eventsCh <- ev:
				r.logger.Debug("runner.event.delivered", "event_id", ev.ID, "session_id", sessionID)
			}

			// Resume the agent once the non-partial event is persisted.
			if !ev.IsPartial() {
				select {
				case <-ctx.Done():
					return
				case resumeCh <- struct{}{}:
				default:
					// channel full, skip signal
				}
			}
		}
	}
}

// applyEventActions processes the side-effects encoded in an event's Actions
// field against the underlying stores.
func (r *Runner) applyEventActions(sessionID string, ev core.Event) error {
	if len(ev.Actions.StateDelta) > 0 {
		if err := r.sessionStore.ApplyDelta(sessionID, ev.Actions.StateDelta); err != nil {
			return fmt.Errorf("failed to apply state delta: %w", err)
		}
	}

	if len(ev.Actions.ArtifactDelta) > 0 {
		// Artifacts are persisted by the tool context at save time; the delta
		// only records versions for observability.
		r.logger.Debug("runner.event.artifacts", "session_id", sessionID, "count", len(ev.Actions.ArtifactDelta))
	}

	return nil
}
