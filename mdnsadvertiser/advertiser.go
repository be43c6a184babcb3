// Package mdnsadvertiser implements the mDNS Advertiser (C7): publishing
// the _oscjson._tcp service record and performing the one-shot discovery
// prime browse, on top of github.com/hashicorp/mdns.
package mdnsadvertiser

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_oscjson._tcp"

// Advertiser owns the mDNS server handle for exactly one published record.
type Advertiser struct {
	server *mdns.Server
	logger *slog.Logger
}

// Publish advertises instance (the configured service name) on serviceType,
// pointing at port. TXT records are left empty, matching the wire contract.
func Publish(instance string, port int, logger *slog.Logger) (*Advertiser, error) {
	info, err := mdns.NewMDNSService(instance, serviceType, "", "", port, nil, nil)
	if err != nil {
		return nil, err
	}
	srv, err := mdns.NewServer(&mdns.Config{Zone: info})
	if err != nil {
		return nil, err
	}
	return &Advertiser{server: srv, logger: logger}, nil
}

// Shutdown unpublishes the record and destroys the mDNS handle. Errors are
// logged and swallowed: shutdown must complete regardless, per the error
// handling design.
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	if err := a.server.Shutdown(); err != nil {
		a.logger.Warn("mdns shutdown failed", "error", err)
	}
}

// Prime runs a short, self-cancelling browse for serviceType after delay,
// logging results but otherwise discarding them. On some hosts this
// outbound browse is what causes the platform mDNS stack to notice newly
// published services from other processes; it is best-effort and any
// failure is swallowed, never surfaced to the caller.
func Prime(ctx context.Context, delay, window time.Duration, logger *slog.Logger) {
	timer := time.NewTimer(delay)
	go func() {
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		entries := make(chan *mdns.ServiceEntry, 8)
		browseCtx, cancel := context.WithTimeout(ctx, window)
		defer cancel()

		go func() {
			for {
				select {
				case e, ok := <-entries:
					if !ok {
						return
					}
					logger.Debug("discovery prime observed service", "name", e.Name, "host", e.Host, "port", e.Port)
				case <-browseCtx.Done():
					return
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: serviceType,
			Timeout: window,
			Entries: entries,
		}
		if err := mdns.Query(params); err != nil {
			logger.Debug("discovery prime browse failed", "error", err)
		}
		close(entries)
	}()
}
