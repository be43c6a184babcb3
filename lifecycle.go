package oscquery

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/oscjson/go-oscquery/internal/subscribe"
	"github.com/oscjson/go-oscquery/mdnsadvertiser"
	"github.com/oscjson/go-oscquery/oscreceiver"
)

// State is a Server's position in the Init -> Starting -> Running ->
// Stopping -> Stopped lifecycle. A Stopped Server may be started again, and
// a Start that fails to bind returns the Server to Init.
type State int

const (
	StateInit State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// oscBindRetries bounds how many random ports from the configured range
// Start will try before giving up, the graceful re-binding behavior the
// source leaves to chance.
const oscBindRetries = 20

// guardedFilter adds the locking discipline the Subscription Filter itself
// does not provide: Accepts is read from the receiver's goroutine on every
// inbound datagram while Subscribe/Unsubscribe/SubscribeAllPaths are called
// from whatever goroutine holds the Server, per the concurrency model's
// requirement that subscription state be synchronized across both paths.
type guardedFilter struct {
	mu sync.RWMutex
	f  *subscribe.Filter
}

func newGuardedFilter() *guardedFilter {
	return &guardedFilter{f: subscribe.New()}
}

func (g *guardedFilter) Accepts(address string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.f.Accepts(address)
}

func (g *guardedFilter) Subscribe(p string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.f.Subscribe(p)
}

func (g *guardedFilter) Unsubscribe(p string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.f.Unsubscribe(p)
}

func (g *guardedFilter) SubscribeAllPaths() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.f.SubscribeAllPaths()
}

// Server is the Lifecycle Orchestrator (C8): it owns the address space Tree,
// the Subscription Filter, the HTTP Query Endpoint, the OSC Receiver, and
// the mDNS Advertiser, and drives them through the documented start and
// shutdown order. The zero Server is not usable; construct one with NewServer.
type Server struct {
	cfg    *config
	tree   *Tree
	filter *guardedFilter
	logger *slog.Logger

	mu    sync.Mutex
	state State

	sinkMu sync.RWMutex
	sink   oscreceiver.Sink

	httpLn   net.Listener
	httpSrv  *http.Server
	receiver *oscreceiver.Receiver
	advert   *mdnsadvertiser.Advertiser

	primeCancel context.CancelFunc

	// startCancel and startedCh let a concurrent Stop reach into an
	// in-flight Start: startCancel aborts the blocking bind/publish calls,
	// and startedCh is closed once Start has settled into Running or
	// unwound back out, so Stop knows when it is safe to proceed.
	startCancel context.CancelFunc
	startedCh   chan struct{}

	hostInfo HostInfo
}

// NewServer constructs a Server in [StateInit]. Nothing is bound or
// published until Start is called. An invalid option combination (for
// example an OSC port range with its bounds reversed or collapsed to zero
// width below 1) is rejected with [ErrInvalidConfig] rather than deferred
// to Start.
func NewServer(opts ...Option) (*Server, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return &Server{
		cfg:    cfg,
		tree:   NewTree(cfg.rootDescription),
		filter: newGuardedFilter(),
		logger: slog.New(cfg.logHandler),
		state:  StateInit,
	}, nil
}

func validateConfig(cfg *config) error {
	if !cfg.oscPortSet && cfg.oscPortRangeLo > cfg.oscPortRangeHi {
		return fmt.Errorf("%w: osc port range [%d, %d] is empty", ErrInvalidConfig, cfg.oscPortRangeLo, cfg.oscPortRangeHi)
	}
	if cfg.httpPortSet && (cfg.httpPort < 0 || cfg.httpPort > 65535) {
		return fmt.Errorf("%w: http port %d out of range", ErrInvalidConfig, cfg.httpPort)
	}
	if cfg.oscPortSet && (cfg.oscPort < 0 || cfg.oscPort > 65535) {
		return fmt.Errorf("%w: osc port %d out of range", ErrInvalidConfig, cfg.oscPort)
	}
	return nil
}

// Tree returns the address space the caller registers methods against
// before and during Start.
func (s *Server) Tree() *Tree {
	return s.tree
}

// State reports the Server's current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetSink installs the callback invoked for every OSC message accepted by
// the Subscription Filter. It may be called before or after Start; a nil
// sink silently drops accepted messages.
func (s *Server) SetSink(sink oscreceiver.Sink) {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	s.sink = sink
}

func (s *Server) dispatch(address string, args []interface{}) {
	s.sinkMu.RLock()
	sink := s.sink
	s.sinkMu.RUnlock()
	if sink != nil {
		sink(address, args)
	}
}

// Subscribe, Unsubscribe and SubscribeAllPaths delegate to the Subscription
// Filter guarding the OSC Receiver's dispatch path.
func (s *Server) Subscribe(pattern string)   { s.filter.Subscribe(pattern) }
func (s *Server) Unsubscribe(pattern string) { s.filter.Unsubscribe(pattern) }
func (s *Server) SubscribeAllPaths()         { s.filter.SubscribeAllPaths() }

// Start brings the Server up in the documented order: HTTP listener, OSC
// receiver, mDNS publish, then (if enabled) schedules the discovery prime.
// It returns the HostInfo the caller would otherwise have to reconstruct
// from the allocated ports. Start is only valid from [StateInit] or
// [StateStopped]; calling it from any other state returns a *StateError.
func (s *Server) Start(ctx context.Context) (HostInfo, error) {
	s.mu.Lock()
	if s.state != StateInit && s.state != StateStopped {
		st := s.state
		s.mu.Unlock()
		return HostInfo{}, newStateError("Start", st)
	}
	startCtx, cancel := context.WithCancel(ctx)
	started := make(chan struct{})
	s.state = StateStarting
	s.startCancel = cancel
	s.startedCh = started
	s.mu.Unlock()

	// settle transitions Start out of StateStarting exactly once, clearing
	// the cancellation plumbing and waking anyone blocked in Stop.
	settle := func(final State) {
		s.mu.Lock()
		s.state = final
		s.startCancel = nil
		s.startedCh = nil
		s.mu.Unlock()
		cancel()
		close(started)
	}

	var lc net.ListenConfig
	httpLn, err := lc.Listen(startCtx, "tcp", net.JoinHostPort(s.cfg.bindAddress, portOrZero(s.cfg.httpPort, s.cfg.httpPortSet)))
	if err != nil {
		if startCtx.Err() != nil {
			settle(StateStopped)
			return HostInfo{}, fmt.Errorf("oscquery: start aborted: %w", startCtx.Err())
		}
		settle(StateInit)
		return HostInfo{}, fmt.Errorf("oscquery: http listen: %w", err)
	}

	receiver, oscPort, err := s.bindReceiver(startCtx)
	if err != nil {
		_ = httpLn.Close()
		if startCtx.Err() != nil {
			settle(StateStopped)
			return HostInfo{}, fmt.Errorf("oscquery: start aborted: %w", startCtx.Err())
		}
		settle(StateInit)
		return HostInfo{}, fmt.Errorf("oscquery: osc listen: %w", err)
	}

	if startCtx.Err() != nil {
		_ = httpLn.Close()
		_ = receiver.Close()
		settle(StateStopped)
		return HostInfo{}, fmt.Errorf("oscquery: start aborted: %w", startCtx.Err())
	}

	hostIP := s.cfg.oscIP
	if !s.cfg.oscIPSet {
		hostIP = s.cfg.bindAddress
	}
	info := HostInfo{
		Name:         s.cfg.oscQueryHostName,
		Extensions:   allExtensions(),
		OSCIP:        hostIP,
		OSCPort:      oscPort,
		OSCTransport: s.cfg.oscTransport,
	}

	mux := http.NewServeMux()
	mux.Handle("/", newQueryHandler(s.tree, func() HostInfo { return info }, s.logger))
	httpSrv := &http.Server{Handler: mux}

	go func() {
		if err := httpSrv.Serve(httpLn); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server exited", "error", err)
		}
	}()

	go func() {
		if err := receiver.Serve(context.Background()); err != nil {
			s.logger.Error("osc receiver exited", "error", err)
		}
	}()

	advert, err := mdnsadvertiser.Publish(s.cfg.serviceName, httpPort(httpLn), s.logger)
	if err != nil {
		s.logger.Warn("mdns publish failed", "error", err)
	}

	var primeCancel context.CancelFunc
	if s.cfg.discoveryPrime && advert != nil {
		var primeCtx context.Context
		primeCtx, primeCancel = context.WithCancel(context.Background())
		delay := time.Duration(s.cfg.discoveryPrimeDur) * time.Second
		mdnsadvertiser.Prime(primeCtx, delay, 2*time.Second, s.logger)
	}

	if startCtx.Err() != nil {
		if primeCancel != nil {
			primeCancel()
		}
		advert.Shutdown()
		_ = receiver.Close()
		_ = httpLn.Close()
		settle(StateStopped)
		return HostInfo{}, fmt.Errorf("oscquery: start aborted: %w", startCtx.Err())
	}

	s.mu.Lock()
	s.httpLn = httpLn
	s.httpSrv = httpSrv
	s.receiver = receiver
	s.advert = advert
	s.primeCancel = primeCancel
	s.hostInfo = info
	s.state = StateRunning
	s.startCancel = nil
	s.startedCh = nil
	s.mu.Unlock()
	cancel()
	close(started)

	methods := 0
	s.tree.Walk(func(string, *Node) { methods++ })

	s.logger.Info("oscquery server running",
		"http_addr", httpLn.Addr().String(),
		"osc_port", oscPort,
		"service", s.cfg.serviceName,
		"methods", methods,
	)

	return info, nil
}

// Stop brings the Server down in the reverse of Start's order: the
// discovery prime is cancelled, the OSC socket is closed, the mDNS record
// is unpublished and destroyed, and finally the HTTP server is shut down
// with ctx governing how long in-flight requests are given to drain. Stop
// is only valid from [StateRunning]; it returns a *StateError otherwise,
// except that stopping an already-[StateStopped] server is a no-op.
//
// Calling Stop while a concurrent Start is still in [StateStarting] is also
// valid: Stop cancels Start's in-flight bind/publish calls and waits for
// Start to settle before proceeding, rather than failing fast and leaking
// whatever Start had already opened.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateStopped:
		s.mu.Unlock()
		return nil
	case StateStarting:
		cancel := s.startCancel
		started := s.startedCh
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		select {
		case <-started:
		case <-ctx.Done():
			return ctx.Err()
		}
		// Start may have already reached Running before the cancellation
		// took effect; recurse to drive the now-current state to Stopped.
		return s.Stop(ctx)
	case StateRunning:
	default:
		st := s.state
		s.mu.Unlock()
		return newStateError("Stop", st)
	}
	s.state = StateStopping
	primeCancel := s.primeCancel
	receiver := s.receiver
	advert := s.advert
	httpSrv := s.httpSrv
	s.mu.Unlock()

	if primeCancel != nil {
		primeCancel()
	}
	if receiver != nil {
		if err := receiver.Close(); err != nil {
			s.logger.Warn("osc socket close failed", "error", err)
		}
	}
	advert.Shutdown()
	if httpSrv != nil {
		if err := httpSrv.Shutdown(ctx); err != nil {
			s.logger.Warn("http server shutdown failed", "error", err)
		}
	}

	s.setState(StateStopped)
	s.logger.Info("oscquery server stopped")
	return nil
}

func (s *Server) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// bindReceiver binds the OSC UDP socket. With an explicit port it binds
// once; otherwise it draws random ports from the configured range,
// making up to oscBindRetries bind attempts in all before giving up,
// since an unprivileged random port in a wide range occasionally collides
// with another process.
func (s *Server) bindReceiver(ctx context.Context) (*oscreceiver.Receiver, int, error) {
	if s.cfg.oscPortSet {
		r, err := oscreceiver.Listen(ctx, s.cfg.bindAddress, s.cfg.oscPort, s.filter, s.dispatch, s.logger)
		if err != nil {
			return nil, 0, err
		}
		return r, r.LocalPort(), nil
	}

	var lastErr error
	for attempt := 0; attempt < oscBindRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		port, err := randomPort(s.cfg.oscPortRangeLo, s.cfg.oscPortRangeHi)
		if err != nil {
			return nil, 0, err
		}
		r, err := oscreceiver.Listen(ctx, s.cfg.bindAddress, port, s.filter, s.dispatch, s.logger)
		if err != nil {
			lastErr = err
			continue
		}
		return r, r.LocalPort(), nil
	}
	return nil, 0, fmt.Errorf("no free osc port in [%d, %d] after %d attempts: %w", s.cfg.oscPortRangeLo, s.cfg.oscPortRangeHi, oscBindRetries, lastErr)
}

func randomPort(lo, hi int) (int, error) {
	if hi < lo {
		lo, hi = hi, lo
	}
	span := int64(hi-lo) + 1
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return 0, err
	}
	return lo + int(n.Int64()), nil
}

func portOrZero(port int, set bool) string {
	if !set {
		return "0"
	}
	return fmt.Sprintf("%d", port)
}

func httpPort(ln net.Listener) int {
	if a, ok := ln.Addr().(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}
