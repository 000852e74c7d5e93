package propagation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"
)

// DefaultNameServers are the registrar's authoritative servers.
var DefaultNameServers = []string{"ns1.dnsowl.com", "ns2.dnsowl.com", "ns3.dnsowl.com"}

const (
	DefaultTimeout  = 30 * time.Minute
	DefaultInterval = 3 * time.Minute

	lookupRetries = 2
	queryTimeout  = 10 * time.Second
)

var lookupRetryDelay = time.Second

// ErrNoData means the name has no TXT records yet, which is the normal state
// while a record propagates.
var ErrNoData = errors.New("no TXT data yet")

// Progress is reported after every poll.
type Progress struct {
	Attempt  int
	Elapsed  time.Duration
	Found    bool
	Err      error
	Interval time.Duration
}

// Watcher queries authoritative nameservers directly, bypassing any caching
// resolver, until a TXT value shows up.
type Watcher struct {
	NameServers []string // hostnames or IPv4 addresses, with an optional port
	Timeout     time.Duration
	Interval    time.Duration
	OnProgress  func(Progress)

	// LookupIPv4 resolves nameserver hostnames.
	LookupIPv4 func(ctx context.Context, host string) ([]net.IP, error)

	udp   *dns.Client
	tcp   *dns.Client
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(nameServers []string) *Watcher {
	if len(nameServers) == 0 {
		nameServers = DefaultNameServers
	}
	return &Watcher{
		NameServers: nameServers,
		Timeout:     DefaultTimeout,
		Interval:    DefaultInterval,
		LookupIPv4: func(ctx context.Context, host string) ([]net.IP, error) {
			return net.DefaultResolver.LookupIP(ctx, "ip4", host)
		},
		udp:   &dns.Client{Net: "udp", Timeout: queryTimeout},
		tcp:   &dns.Client{Net: "tcp", Timeout: queryTimeout},
		now:   time.Now,
		sleep: sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WaitForValue polls until value is served for fqdn or the timeout elapses.
// The deadline is checked before each poll, so a poll started in time always
// completes. Running out of time is not an error.
func (w *Watcher) WaitForValue(ctx context.Context, fqdn, value string) (bool, error) {
	start := w.now()

	for attempt := 1; w.now().Sub(start) < w.Timeout; attempt++ {
		found, err := w.Check(ctx, fqdn, value)
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		if w.OnProgress != nil {
			w.OnProgress(Progress{
				Attempt:  attempt,
				Elapsed:  w.now().Sub(start),
				Found:    found,
				Err:      err,
				Interval: w.Interval,
			})
		}
		if found {
			return true, nil
		}

		if err := w.sleep(ctx, w.Interval); err != nil {
			return false, err
		}
	}

	return false, nil
}

// Check runs a single TXT query. It returns ErrNoData when the name has no TXT
// records.
func (w *Watcher) Check(ctx context.Context, fqdn, value string) (bool, error) {
	servers, err := w.resolveServers(ctx)
	if err != nil {
		return false, err
	}

	records, err := w.queryTXT(ctx, servers, fqdn)
	if err != nil {
		return false, err
	}
	return containsValue(records, value), nil
}

// resolveServers turns NameServers into host:port addresses, looking up all
// hostnames concurrently.
func (w *Watcher) resolveServers(ctx context.Context) ([]string, error) {
	resolved := make([][]string, len(w.NameServers))

	g, ctx := errgroup.WithContext(ctx)
	for i, ns := range w.NameServers {
		i, ns := i, ns
		g.Go(func() error {
			host, port := splitHostPort(ns)
			if ip := net.ParseIP(host); ip != nil {
				if ip.To4() == nil {
					return fmt.Errorf("nameserver %s is not an IPv4 address", ns)
				}
				resolved[i] = []string{net.JoinHostPort(host, port)}
				return nil
			}

			var ips []net.IP
			lookup := func() error {
				var err error
				ips, err = w.LookupIPv4(ctx, host)
				var dnsErr *net.DNSError
				if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
					return backoff.Permanent(err)
				}
				return err
			}
			b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(lookupRetryDelay), lookupRetries), ctx)
			if err := backoff.Retry(lookup, b); err != nil {
				return fmt.Errorf("resolve nameserver %s: %w", host, err)
			}

			for _, ip := range ips {
				if v4 := ip.To4(); v4 != nil {
					resolved[i] = append(resolved[i], net.JoinHostPort(v4.String(), port))
				}
			}
			if len(resolved[i]) == 0 {
				return fmt.Errorf("nameserver %s has no IPv4 address", host)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var servers []string
	for _, addrs := range resolved {
		servers = append(servers, addrs...)
	}
	return servers, nil
}

// queryTXT asks the servers in order, moving on only when a server cannot be
// reached or refuses to answer.
func (w *Watcher) queryTXT(ctx context.Context, servers []string, fqdn string) ([][]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(fqdn), dns.TypeTXT)
	msg.RecursionDesired = false

	var lastErr error
	for _, server := range servers {
		in, err := w.exchange(ctx, msg, server)
		if err != nil {
			lastErr = fmt.Errorf("query %s: %w", server, err)
			continue
		}

		switch in.Rcode {
		case dns.RcodeSuccess:
		case dns.RcodeNameError:
			return nil, ErrNoData
		default:
			lastErr = fmt.Errorf("query %s: %s", server, dns.RcodeToString[in.Rcode])
			continue
		}

		var records [][]string
		for _, rr := range in.Answer {
			if txt, ok := rr.(*dns.TXT); ok {
				records = append(records, txt.Txt)
			}
		}
		if len(records) == 0 {
			return nil, ErrNoData
		}
		return records, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no nameservers to query")
	}
	return nil, lastErr
}

func (w *Watcher) exchange(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error) {
	in, _, err := w.udp.ExchangeContext(ctx, msg, server)
	if err == nil && in.Truncated {
		in, _, err = w.tcp.ExchangeContext(ctx, msg, server)
	}
	return in, err
}

// containsValue matches value against each string of a record and against
// the record's strings joined together.
func containsValue(records [][]string, value string) bool {
	for _, segments := range records {
		if strings.Join(segments, "") == value {
			return true
		}
		for _, s := range segments {
			if s == value {
				return true
			}
		}
	}
	return false
}

func splitHostPort(ns string) (host, port string) {
	host, port, err := net.SplitHostPort(ns)
	if err != nil {
		host, port = ns, "53"
	}
	return strings.TrimSuffix(host, "."), port
}
