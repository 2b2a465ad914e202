package main

import (
	"strings"

	"github.com/vasyahuyasa/apachelog/apachelog"
	"github.com/vasyahuyasa/apachelog/log"
)

var _ filter = &fieldFilter{}

type fieldFilterConfig struct {
	FieldName string   `yaml:"field_name"`
	Contains  []string `yaml:"contains"`
	Action    string   `yaml:"action"`
}

// fieldFilter decides on records whose field contains one of the
// substrings.
type fieldFilter struct {
	field    string
	contains []string
	action   filterAction
}

func newFieldFilter(cfg fieldFilterConfig) (*fieldFilter, error) {
	action, err := parseFilterAction(cfg.Action)
	if err != nil {
		return nil, err
	}

	log.Printf("filter field %q contains %v action %s", cfg.FieldName, strings.Join(cfg.Contains, ","), cfg.Action)

	return &fieldFilter{
		field:    cfg.FieldName,
		contains: cfg.Contains,
		action:   action,
	}, nil
}

func (ff *fieldFilter) Check(r *apachelog.Record) decision {
	fieldVal, ok := r.Get(ff.field)
	if !ok {
		return decisionNone
	}

	for _, v := range ff.contains {
		if strings.Contains(fieldVal, v) {
			return ff.action.decision()
		}
	}

	return decisionNone
}
