package resolver

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/vasyahuyasa/apachelog/log"
)

const defaultLookupTimeout = time.Second * 5

// Lookuper is the DNS part of net.Resolver used by Resolver.
type Lookuper interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Rules maps an alias to the hostname patterns it replaces.
type Rules map[string][]*regexp.Regexp

// Resolver turns IP addresses into host names through reverse DNS. Results
// are kept in a Cache, so each address is looked up once.
type Resolver struct {
	cache    *Cache
	lookuper Lookuper
	smart    bool
	verify   bool
	rules    Rules
	timeout  time.Duration
}

type Option func(r *Resolver)

// WithSmart replaces resolved names matching the alias rules by the alias.
func WithSmart(smart bool) Option {
	return func(r *Resolver) {
		r.smart = smart
	}
}

// WithRules sets the alias rules used in smart mode.
func WithRules(rules Rules) Option {
	return func(r *Resolver) {
		r.rules = rules
	}
}

// WithVerify applies an alias only when the forward lookup of the host
// name returns the original address.
func WithVerify(verify bool) Option {
	return func(r *Resolver) {
		r.verify = verify
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// New creates a Resolver. A nil lookuper uses the system resolver.
func New(cache *Cache, lookuper Lookuper, opts ...Option) *Resolver {
	if lookuper == nil {
		lookuper = NewPool(nil)
	}

	r := &Resolver{
		cache:    cache,
		lookuper: lookuper,
		rules:    DefaultRules(),
		timeout:  defaultLookupTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// DefaultRules aliases the well known crawlers.
func DefaultRules() Rules {
	rules := Rules{
		"feedburner": {regexp.MustCompile(anchor(`.*rate-limited-proxy-.*.google.com.*`))},
	}

	for _, bot := range []string{
		"baiduspider",
		"googlebot",
		// a.k.a. bingbot
		"msnbot",
		"yandex",
	} {
		rules[bot] = []*regexp.Regexp{regexp.MustCompile(anchor(".*" + bot + ".*"))}
	}

	return rules
}

// CompileRules builds Rules from textual patterns. Patterns match from the
// start of the host name.
func CompileRules(patterns map[string][]string) (Rules, error) {
	rules := Rules{}

	for alias, list := range patterns {
		for _, p := range list {
			re, err := regexp.Compile(anchor(p))
			if err != nil {
				return nil, fmt.Errorf("cannot compile rule %q for %q: %w", p, alias, err)
			}

			rules[alias] = append(rules[alias], re)
		}
	}

	return rules, nil
}

func anchor(pattern string) string {
	return "^(?:" + pattern + ")"
}

// Resolve returns the name of ip. Lookup errors are not reported, the
// address itself is used as its name instead.
func (r *Resolver) Resolve(ip string) string {
	if e, ok := r.cache.Get(ip); ok {
		cacheHitsCounter.Inc()
		return e.Name
	}

	// lookup runs without the cache lock held, the first stored entry wins
	e, _ := r.cache.Add(ip, r.lookup(ip))

	return e.Name
}

// Entry returns the resolved entry of ip, resolving it when needed.
func (r *Resolver) Entry(ip string) Entry {
	r.Resolve(ip)

	e, _ := r.cache.Get(ip)

	return e
}

// Ips returns the addresses whose name is name, e.g. every address seen
// for the googlebot alias.
func (r *Resolver) Ips(name string) []string {
	return r.cache.ips(name)
}

// Save flushes the cache to its store.
func (r *Resolver) Save() error {
	return r.cache.Save()
}

func (r *Resolver) lookup(ip string) Entry {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	lookupsCounter.Inc()

	names, err := r.lookuper.LookupAddr(ctx, ip)
	if err != nil {
		lookupFailuresCounter.Inc()
		log.Debugf("reverse lookup %s failed: %v", ip, err)

		return unresolved(ip)
	}

	var hosts []string

	for _, name := range names {
		name = strings.TrimRight(name, ".")
		if name != "" {
			hosts = append(hosts, name)
		}
	}

	if len(hosts) == 0 {
		lookupFailuresCounter.Inc()
		log.Debugf("reverse lookup %s returned no names", ip)

		return unresolved(ip)
	}

	e := Entry{
		Name:    hosts[0],
		Aliases: append([]string{}, hosts[1:]...),
		Addrs:   []string{ip},
	}

	if r.smart {
		e = r.smartResolve(ip, e)
	}

	return e
}

func unresolved(ip string) Entry {
	return Entry{
		Name:    ip,
		Aliases: []string{},
		Addrs:   []string{ip},
	}
}

// smartResolve replaces the host name by the alias of a matching rule.
// Rules are visited in map order, overlapping rules have no fixed winner.
func (r *Resolver) smartResolve(ip string, e Entry) Entry {
	host := e.Name

	for alias, patterns := range r.rules {
		for _, re := range patterns {
			if !re.MatchString(host) {
				continue
			}

			if r.verify && !r.confirmed(ip, host) {
				log.Printf("%s claims %s but forward lookup does not confirm it", ip, host)
				continue
			}

			e.Name = alias
		}
	}

	if e.Name != host {
		aliasedCounter.WithLabelValues(e.Name).Inc()
		log.Debugf("%s (%s) aliased to %s", ip, host, e.Name)
	}

	return e
}

// confirmed reports whether host resolves back to ip.
func (r *Resolver) confirmed(ip, host string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	addrs, err := r.lookuper.LookupIPAddr(ctx, host)
	if err != nil {
		log.Debugf("lookup %s failed: %v", host, err)
		return false
	}

	want := net.ParseIP(ip)

	for _, addr := range addrs {
		if addr.IP.Equal(want) {
			return true
		}
	}

	return false
}
