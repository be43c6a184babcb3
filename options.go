package oscquery

import (
	"log/slog"

	"github.com/oscjson/go-oscquery/internal/slogpretty"
)

// config is the option bag assembled by Option values at construction time,
// covering every field from the configuration table. The zero value is not
// ready to use; NewServer fills in the defaults below before applying options.
type config struct {
	httpPort          int
	httpPortSet       bool
	oscPort           int
	oscPortSet        bool
	oscPortRangeLo    int
	oscPortRangeHi    int
	bindAddress       string
	oscIP             string
	oscIPSet          bool
	oscTransport      string
	oscQueryHostName  string
	serviceName       string
	rootDescription   string
	discoveryPrime    bool
	discoveryPrimeDur int // seconds, informational default documented on the option
	logHandler        slog.Handler
}

func defaultConfig() *config {
	return &config{
		oscPortRangeLo:    22000,
		oscPortRangeHi:    50000,
		bindAddress:       "0.0.0.0",
		oscTransport:      "UDP",
		oscQueryHostName:  "OSCQueryNode",
		serviceName:       "OSCQuery",
		rootDescription:   "root node",
		discoveryPrime:    true,
		discoveryPrimeDur: 1,
		logHandler:        slogpretty.DefaultHandler,
	}
}

// Option configures a Server at construction. Options are applied in order
// over the zero-value-safe defaults returned by defaultConfig.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithHTTPPort pins the TCP port for the HTTP query API. When omitted, a
// free port is allocated by the OS at Start.
func WithHTTPPort(port int) Option {
	return optionFunc(func(c *config) {
		c.httpPort = port
		c.httpPortSet = true
	})
}

// WithOSCPort pins the UDP port the OSC receiver binds to. When omitted, a
// port is drawn at random from the range configured by WithOSCPortRange
// (default 22000-50000 inclusive).
func WithOSCPort(port int) Option {
	return optionFunc(func(c *config) {
		c.oscPort = port
		c.oscPortSet = true
	})
}

// WithOSCPortRange overrides the inclusive range random OSC ports are drawn
// from when WithOSCPort is not used.
func WithOSCPortRange(lo, hi int) Option {
	return optionFunc(func(c *config) {
		c.oscPortRangeLo = lo
		c.oscPortRangeHi = hi
	})
}

// WithBindAddress sets the interface the HTTP listener binds to. Defaults to
// "0.0.0.0". Also becomes the default for the advertised OSC_IP unless
// WithOSCIP is used.
func WithBindAddress(addr string) Option {
	return optionFunc(func(c *config) {
		c.bindAddress = addr
	})
}

// WithOSCIP overrides the HOST_INFO.OSC_IP value advertised to clients,
// which otherwise defaults to the bind address.
func WithOSCIP(ip string) Option {
	return optionFunc(func(c *config) {
		c.oscIP = ip
		c.oscIPSet = true
	})
}

// WithOSCTransport overrides the advertised HOST_INFO.OSC_TRANSPORT string.
// Defaults to "UDP".
func WithOSCTransport(transport string) Option {
	return optionFunc(func(c *config) {
		c.oscTransport = transport
	})
}

// WithHostName sets the advertised HOST_INFO.NAME.
func WithHostName(name string) Option {
	return optionFunc(func(c *config) {
		c.oscQueryHostName = name
	})
}

// WithServiceName sets the mDNS instance name for the _oscjson._tcp record.
// Defaults to "OSCQuery".
func WithServiceName(name string) Option {
	return optionFunc(func(c *config) {
		c.serviceName = name
	})
}

// WithRootDescription sets the DESCRIPTION assigned to the tree's root node.
func WithRootDescription(desc string) Option {
	return optionFunc(func(c *config) {
		c.rootDescription = desc
	})
}

// WithDiscoveryPrime toggles the one-shot mDNS browse the orchestrator
// schedules after the HTTP listener comes up (see Server.Start). Enabled by
// default; disable it in environments where mDNS resolution is already
// synchronous, per the "Discovery prime" design note.
func WithDiscoveryPrime(enable bool) Option {
	return optionFunc(func(c *config) {
		c.discoveryPrime = enable
	})
}

// WithDiscoveryPrimeDelay overrides how long after the HTTP listener comes
// up the discovery prime browse fires. Defaults to 1 second.
func WithDiscoveryPrimeDelay(seconds int) Option {
	return optionFunc(func(c *config) {
		c.discoveryPrimeDur = seconds
	})
}

// WithLogHandler overrides the slog.Handler used for the server's internal
// logging (request logging, OSC decode errors, mDNS failures). Defaults to
// a handler writing human-readable lines to stdout, with Error-level lines
// going to stderr.
func WithLogHandler(h slog.Handler) Option {
	return optionFunc(func(c *config) {
		if h != nil {
			c.logHandler = h
		}
	})
}
