package resolver

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

const dnsDialerTimeout = time.Second * 5

var _ Lookuper = &Pool{}

// Pool spreads lookups over several DNS servers round robin.
type Pool struct {
	mu sync.Mutex
	// next index in pool
	next int

	resolvers []*net.Resolver
}

// NewPool creates resolvers dialing the given servers, port 53 is used
// when omitted. Without servers the system resolver is used.
func NewPool(servers []string) *Pool {
	if len(servers) == 0 {
		return &Pool{
			resolvers: []*net.Resolver{
				net.DefaultResolver,
			},
		}
	}

	var resolvers []*net.Resolver

	for _, addr := range servers {
		// default dns port
		if !strings.Contains(addr, ":") {
			addr += ":53"
		}

		resolvers = append(resolvers, newServerResolver(addr))
	}

	return &Pool{
		resolvers: resolvers,
	}
}

func newServerResolver(addr string) *net.Resolver {
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
			d := net.Dialer{
				Timeout: dnsDialerTimeout,
			}

			switch network {
			case "udp", "udp4", "udp6":
				return d.DialContext(ctx, "udp", addr)
			case "tcp", "tcp4", "tcp6":
				return d.DialContext(ctx, "tcp", addr)
			default:
				return nil, fmt.Errorf("unknown network %q", network)
			}
		},
	}
}

func (pool *Pool) get() *net.Resolver {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	r := pool.resolvers[pool.next]

	pool.next++
	if pool.next >= len(pool.resolvers) {
		pool.next = 0
	}

	return r
}

func (pool *Pool) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	return pool.get().LookupAddr(ctx, addr)
}

func (pool *Pool) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	return pool.get().LookupIPAddr(ctx, host)
}

func (pool *Pool) Len() int {
	return len(pool.resolvers)
}
