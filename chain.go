package main

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/vasyahuyasa/apachelog/apachelog"
	"github.com/vasyahuyasa/apachelog/log"
)

const (
	decisionNone decision = iota
	decisionDrop
	decisionKeep
)

const (
	filterActionKeep filterAction = iota
	filterActionDrop
)

var filterActionMap = map[string]filterAction{
	"keep": filterActionKeep,
	"drop": filterActionDrop,
}

type decision int

type filterAction int

type filter interface {
	Check(*apachelog.Record) decision
}

type filterWithKind struct {
	filter
	kind string
}

// chain asks every filter in turn, the first decisive answer wins. Records
// nobody decides on are kept.
type chain struct {
	filters []*filterWithKind
}

func (d decision) String() string {
	switch d {
	case decisionDrop:
		return "drop"
	case decisionKeep:
		return "keep"
	default:
		return "none"
	}
}

func (a filterAction) decision() decision {
	if a == filterActionKeep {
		return decisionKeep
	}

	return decisionDrop
}

func parseFilterAction(action string) (filterAction, error) {
	a, ok := filterActionMap[action]
	if !ok {
		return 0, fmt.Errorf("unknow action %q (supported: keep, drop)", action)
	}

	return a, nil
}

func newChainFromConfig(cfg config) (*chain, error) {
	var filters []*filterWithKind

	for _, filterCfg := range cfg.Filters {
		f, err := filterFromConfig(filterCfg, cfg.IPField)
		if err != nil {
			return nil, fmt.Errorf("cannot create filter: %w", err)
		}

		filters = append(filters, f)
	}

	return &chain{
		filters: filters,
	}, nil
}

func (c *chain) Keep(r *apachelog.Record) bool {
	for _, f := range c.filters {
		d := f.Check(r)

		log.Debugf("%s filter decision: %s", f.kind, d)

		if d == decisionNone {
			continue
		}

		return d == decisionKeep
	}

	return true
}

func (c *chain) Len() int {
	return len(c.filters)
}

func filterFromConfig(cfg filterConfig, ipField string) (*filterWithKind, error) {
	var kindOnly struct {
		Kind string
	}

	err := unmarshalConfig(cfg, &kindOnly)
	if err != nil {
		return nil, fmt.Errorf("cannot unmarshal filter config: %w", err)
	}

	switch strings.ToLower(kindOnly.Kind) {
	case "field":
		c := fieldFilterConfig{}

		err = unmarshalConfig(cfg, &c)
		if err != nil {
			return nil, fmt.Errorf("cannot unmarshal field filter config: %w", err)
		}

		ff, err := newFieldFilter(c)
		if err != nil {
			return nil, fmt.Errorf("cannot create field filter: %w", err)
		}

		return &filterWithKind{filter: ff, kind: "field"}, nil

	case "list":
		c := listFilterConfig{Field: ipField}

		err = unmarshalConfig(cfg, &c)
		if err != nil {
			return nil, fmt.Errorf("cannot unmarshal list filter config: %w", err)
		}

		list, err := newListFilter(c)
		if err != nil {
			return nil, fmt.Errorf("cannot create list filter: %w", err)
		}

		return &filterWithKind{filter: list, kind: "list"}, nil

	case "geoip":
		c := geoIPConfig{Field: ipField}

		err = unmarshalConfig(cfg, &c)
		if err != nil {
			return nil, fmt.Errorf("cannot unmarshal GeoIP filter config: %w", err)
		}

		gi, err := newGeoIP(c)
		if err != nil {
			return nil, fmt.Errorf("cannot create GeoIP filter: %w", err)
		}

		return &filterWithKind{filter: gi, kind: "geoip"}, nil

	default:
		return nil, fmt.Errorf("unknown filter %q", kindOnly.Kind)
	}
}

func unmarshalConfig(basic, specified interface{}) error {
	b, err := yaml.Marshal(basic)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(b, specified)
}
