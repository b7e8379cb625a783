// Package helper manages the migration helper process and exposes the
// operations callers use: EnsureReady, ListResources, ReadResource and
// SendChat.
//
// A Client owns at most one session at a time. Sessions are created on
// demand, initialized exactly once, and replaced when their process exits or
// their stream is left in an unknown state. Request ids keep increasing
// across sessions.
package helper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/cache"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/config"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/framing"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/jsonrpc"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/process"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const (
	clientName     = "migbridge"
	methodShutdown = "shutdown"
)

// State is the lifecycle state of the current session.
type State int

const (
	StateClosed State = iota
	StateStarting
	StateReady
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// proc is the part of *process.Process a session uses.
type proc interface {
	PID() int
	Done() <-chan struct{}
	ExitErr() error
	Stdin() io.Writer
	Stdout() io.Reader
	Alive() bool
	Close(grace time.Duration)
}

type startFunc func(ctx context.Context, spec process.Spec) (proc, error)

func startProcess(ctx context.Context, spec process.Spec) (proc, error) {
	p, err := process.Start(ctx, spec)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Options configure a Client.
type Options struct {
	Process process.Spec

	Model        string
	SystemPrompt string

	// ShutdownTimeout bounds the shutdown call and the wait for the process
	// to exit before it is killed.
	ShutdownTimeout time.Duration
	// IdleTimeout stops the helper after this long without operations.
	// Zero disables it.
	IdleTimeout time.Duration

	// Cache, when set together with a positive CacheTTL, stores
	// ReadResource results keyed by run id and uri.
	Cache    *cache.Store
	CacheTTL time.Duration

	ClientVersion string
	Logger        *zap.Logger
}

// OptionsFromConfig maps the loaded configuration onto Options.
func OptionsFromConfig(cfg *config.Config, logger *zap.Logger) Options {
	h := cfg.Helper
	opts := Options{
		Process: process.Spec{
			Executable: h.Executable,
			HostArgs:   append([]string(nil), h.ExtraArgs...),
			Assembly:   h.Assembly,
			Mode:       h.Mode,
			ConfigFile: h.ConfigFile,
			RunID:      h.RunID,
			Env:        h.Env,
			BaseDir:    h.BaseDir,
			WorkingDir: h.WorkingDir,
		},
		Model:           cfg.Chat.Model,
		SystemPrompt:    cfg.Chat.SystemPrompt,
		ShutdownTimeout: h.ShutdownGrace(),
		IdleTimeout:     h.IdleAfter(),
		CacheTTL:        cfg.Cache.TTL(),
		Logger:          logger,
	}
	if opts.CacheTTL > 0 {
		opts.Cache = cache.Default()
	}
	return opts
}

type session struct {
	id    string
	proc  proc
	conn  *framing.Conn
	state State

	// broken is set when a call left the stream in an unknown state.
	broken    atomic.Bool
	closeOnce sync.Once
}

// release stops the session's process. Only the first call has an effect.
func (s *session) release(grace time.Duration) {
	s.closeOnce.Do(func() { s.proc.Close(grace) })
}

// Client talks to the migration helper. It is safe for concurrent use;
// calls are sent one at a time.
type Client struct {
	opts       Options
	logger     *zap.Logger
	dispatcher *jsonrpc.Dispatcher
	keepalive  *keepalive
	start      startFunc

	// mu serializes start, initialize and teardown.
	mu      sync.Mutex
	session *session
}

// New returns a Client. No process is started until the first operation.
func New(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = config.DefaultShutdownTimeout
	}
	if opts.Model == "" {
		opts.Model = config.DefaultChatModel
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = config.DefaultSystemPrompt
	}
	if opts.ClientVersion == "" {
		opts.ClientVersion = "dev"
	}

	c := &Client{
		opts:       opts,
		logger:     opts.Logger,
		dispatcher: jsonrpc.NewDispatcher(opts.Logger),
		start:      startProcess,
	}
	c.keepalive = newKeepalive(opts.IdleTimeout, c.closeIdle)
	if c.cacheEnabled() {
		c.logger.Debug("resource cache enabled", zap.String("dir", opts.Cache.Dir()), zap.Duration("ttl", opts.CacheTTL))
	}
	return c
}

// State returns the lifecycle state of the current session.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return StateClosed
	}
	return c.session.state
}

// EnsureReady starts and initializes the helper if needed. It is a no-op
// when the current session is ready and its process is alive. When an
// earlier initialize failed on a live process, only initialize is retried.
func (c *Client) EnsureReady(ctx context.Context) error {
	c.keepalive.Begin()
	defer c.keepalive.End()

	_, err := c.ready(ctx)
	return err
}

func (c *Client) ready(ctx context.Context) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s != nil && (s.broken.Load() || !s.proc.Alive()) {
		c.logger.Info("replacing helper session",
			zap.String("session", s.id),
			zap.Bool("broken", s.broken.Load()),
			zap.Bool("alive", s.proc.Alive()),
		)
		c.teardownLocked(s)
		s = nil
	}

	if s == nil {
		var err error
		if s, err = c.startSession(ctx); err != nil {
			return nil, &notReadyError{err: err}
		}
		c.session = s
	}

	if s.state == StateStarting {
		if _, err := c.call(ctx, s, string(mcp.MethodInitialize), c.initializeParams()); err != nil {
			return nil, &notReadyError{stage: "initialize", err: err}
		}
		s.state = StateReady
		c.logger.Info("helper ready", zap.String("session", s.id), zap.Int("pid", s.proc.PID()))
	}
	return s, nil
}

func (c *Client) startSession(ctx context.Context) (*session, error) {
	id := uuid.NewString()
	logger := c.logger.With(zap.String("session", id))

	spec := c.opts.Process
	var pid atomic.Int64
	spec.Diagnostics = func(line string) {
		logger.Info("helper stderr", zap.Int64("pid", pid.Load()), zap.String("line", line))
	}

	p, err := c.start(ctx, spec)
	if err != nil {
		return nil, err
	}
	pid.Store(int64(p.PID()))
	logger.Info("helper started", zap.Int("pid", p.PID()))
	go func() {
		<-p.Done()
		logger.Info("helper exited", zap.Int("pid", p.PID()), zap.Error(p.ExitErr()))
	}()

	return &session{
		id:    id,
		proc:  p,
		conn:  framing.NewConn(p.Stdout(), p.Stdin()),
		state: StateStarting,
	}, nil
}

func (c *Client) initializeParams() mcp.InitializeParams {
	return mcp.InitializeParams{
		ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
		ClientInfo: mcp.Implementation{
			Name:    clientName,
			Version: c.opts.ClientVersion,
		},
		Capabilities: mcp.ClientCapabilities{},
	}
}

func (c *Client) call(ctx context.Context, s *session, method string, params any) (json.RawMessage, error) {
	result, err := c.dispatcher.Call(ctx, s.conn, method, params)
	if err != nil && poisons(err) {
		if !s.broken.Swap(true) {
			c.logger.Warn("helper session unusable", zap.String("session", s.id), zap.String("method", method), zap.Error(err))
			// Stopping the process ends any read still holding the
			// dispatcher, so queued calls fail instead of waiting.
			go s.release(c.opts.ShutdownTimeout)
		}
	}
	return result, err
}

// Close tears down the current session, if any. A shutdown request is sent
// first when the session is still usable; its failure is ignored. Close
// never fails, and the Client may be used again afterwards.
func (c *Client) Close() {
	c.keepalive.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.teardownLocked(c.session)
	}
}

func (c *Client) closeIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.logger.Info("stopping idle helper", zap.String("session", c.session.id), zap.Duration("idle", c.opts.IdleTimeout))
		c.teardownLocked(c.session)
	}
}

func (c *Client) teardownLocked(s *session) {
	if !s.broken.Load() && s.proc.Alive() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.ShutdownTimeout)
		if _, err := c.call(ctx, s, methodShutdown, nil); err != nil {
			c.logger.Debug("helper shutdown request failed", zap.String("session", s.id), zap.Error(err))
		}
		cancel()
	}

	s.release(c.opts.ShutdownTimeout)
	s.state = StateClosed
	if c.session == s {
		c.session = nil
	}
	c.logger.Info("helper stopped", zap.String("session", s.id))
}
