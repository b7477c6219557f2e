// Package netutil resolves the adapter/exclusion policy into the concrete
// interfaces and IPv4 addresses the responder binds to. Evaluated once at
// startup; adapter hot-plug is a documented limitation.
package netutil

import (
	"fmt"
	"net"
	"strings"

	"github.com/localpub/localpub/internal/logger"
)

// Adapter is one enumerated network interface with its addresses, decoupled
// from net.Interface so selection stays a pure function.
type Adapter struct {
	Iface net.Interface
	Addrs []net.Addr
}

// Selection is the outcome of adapter selection: the interfaces to join the
// multicast group on and the IPv4 addresses to answer with.
type Selection struct {
	Interfaces []net.Interface
	IPs        []string
}

// ListAdapters enumerates the host's interfaces and their addresses.
func ListAdapters() ([]Adapter, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate interfaces: %w", err)
	}

	adapters := make([]Adapter, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			// Interface may have gone away between the two calls.
			continue
		}
		adapters = append(adapters, Adapter{Iface: iface, Addrs: addrs})
	}
	return adapters, nil
}

// Select resolves the configured adapter policy against the enumerated list.
//
// A non-empty configured list selects exactly those adapters; names that do
// not exist are logged and skipped. An empty list selects all non-loopback
// adapters. Addresses are IPv4 only, non-loopback, and must not fall within
// any of the excluded CIDRs.
func Select(configured, excludedNets []string, all []Adapter, log logger.Logger) (Selection, error) {
	excluded, err := parseCIDRs(excludedNets)
	if err != nil {
		return Selection{}, err
	}

	candidates := all
	if len(configured) > 0 {
		candidates = make([]Adapter, 0, len(configured))
		byName := make(map[string]Adapter, len(all))
		for _, a := range all {
			byName[a.Iface.Name] = a
		}
		for _, name := range configured {
			a, ok := byName[name]
			if !ok {
				log.Warn("configured adapter does not exist, skipping",
					logger.String("adapter", name))
				continue
			}
			candidates = append(candidates, a)
		}
	}

	var sel Selection
	for _, a := range candidates {
		if len(configured) == 0 && a.Iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		var ips []string
		for _, addr := range a.Addrs {
			ip := addrIP(addr)
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			if inAnyNet(ip, excluded) {
				log.Debug("address excluded from publishing",
					logger.String("adapter", a.Iface.Name),
					logger.String("ip", ip.String()))
				continue
			}
			ips = append(ips, ip.String())
		}

		if len(ips) > 0 {
			sel.Interfaces = append(sel.Interfaces, a.Iface)
			sel.IPs = append(sel.IPs, ips...)
		}
	}

	if len(sel.IPs) == 0 {
		return Selection{}, fmt.Errorf("no publishable addresses on adapters %s",
			strings.Join(configured, ","))
	}
	return sel, nil
}

func parseCIDRs(nets []string) ([]*net.IPNet, error) {
	out := make([]*net.IPNet, 0, len(nets))
	for _, raw := range nets {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		_, ipnet, err := net.ParseCIDR(s)
		if err != nil {
			return nil, fmt.Errorf("invalid excluded network %q: %w", s, err)
		}
		out = append(out, ipnet)
	}
	return out, nil
}

func inAnyNet(ip net.IP, nets []*net.IPNet) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func addrIP(addr net.Addr) net.IP {
	switch v := addr.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	default:
		return nil
	}
}
