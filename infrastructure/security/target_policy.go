package security

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"vips_analyzer/domain/interfaces"
)

// ErrTargetDenied is returned for URLs the service refuses to load.
var ErrTargetDenied = errors.New("target denied")

type TargetPolicy struct {
	logger       *logrus.Logger
	deniedHosts  []string
	allowPrivate bool
	lookup       func(ctx context.Context, host string) ([]net.IPAddr, error)
}

func NewTargetPolicy(deniedHosts []string, allowPrivate bool, logger *logrus.Logger) *TargetPolicy {
	hosts := make([]string, 0, len(deniedHosts))
	for _, h := range deniedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	return &TargetPolicy{
		logger:       logger,
		deniedHosts:  hosts,
		allowPrivate: allowPrivate,
		lookup:       net.DefaultResolver.LookupIPAddr,
	}
}

// Check rejects denied hosts (and their subdomains) and, unless private
// targets are allowed, hosts resolving to loopback, private or link-local
// addresses.
func (p *TargetPolicy) Check(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTargetDenied, err)
	}
	host := strings.ToLower(u.Hostname())

	for _, denied := range p.deniedHosts {
		if host == denied || strings.HasSuffix(host, "."+denied) {
			p.logger.WithField("host", host).Warn("Blocked denied host")
			return fmt.Errorf("%w: host %s is not allowed", ErrTargetDenied, host)
		}
	}

	if p.allowPrivate {
		return nil
	}

	ips, err := p.resolve(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve %s: %v", ErrTargetDenied, host, err)
	}
	for _, ip := range ips {
		if isPrivate(ip) {
			p.logger.WithFields(logrus.Fields{"host": host, "ip": ip.String()}).Warn("Blocked private target")
			return fmt.Errorf("%w: %s resolves to a private address", ErrTargetDenied, host)
		}
	}
	return nil
}

func (p *TargetPolicy) resolve(ctx context.Context, host string) ([]net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}
	addrs, err := p.lookup(ctx, host)
	if err != nil {
		return nil, err
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		ips = append(ips, a.IP)
	}
	return ips, nil
}

func isPrivate(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

// Ensure TargetPolicy implements the TargetPolicy interface
var _ interfaces.TargetPolicy = (*TargetPolicy)(nil)
