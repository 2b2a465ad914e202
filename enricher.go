package main

import (
	"github.com/vasyahuyasa/apachelog/apachelog"
	"github.com/vasyahuyasa/apachelog/resolver"
)

const resolvedSuffix = "_name"

// enricher adds derived fields to a parsed record.
type enricher interface {
	Enrich(*apachelog.Record)
}

var _ enricher = &resolveEnricher{}

// resolveEnricher stores the resolved name of every address field as
// <field>_name.
type resolveEnricher struct {
	res    *resolver.Resolver
	fields []string
}

func (re *resolveEnricher) Enrich(r *apachelog.Record) {
	for _, field := range re.fields {
		ip, ok := r.Get(field)
		if !ok || ip == "" || ip == "-" {
			continue
		}

		r.Set(field+resolvedSuffix, re.res.Resolve(ip))
	}
}

func newResolver(cfg resolveConfig) (*resolver.Resolver, error) {
	opts := []resolver.Option{
		resolver.WithSmart(cfg.Smart),
		resolver.WithVerify(cfg.Verify),
		resolver.WithTimeout(cfg.Timeout),
	}

	if len(cfg.Rules) > 0 {
		rules, err := resolver.CompileRules(cfg.Rules)
		if err != nil {
			return nil, err
		}

		opts = append(opts, resolver.WithRules(rules))
	}

	cache := resolver.NewCache(resolver.NewFileStore(cfg.CacheFile))
	cache.Load()

	return resolver.New(cache, resolver.NewPool(cfg.Servers), opts...), nil
}
