package main

import (
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/maxminddb-golang"

	"github.com/vasyahuyasa/apachelog/apachelog"
	"github.com/vasyahuyasa/apachelog/log"
)

const countryField = "country"

var (
	_ filter   = &geoIP{}
	_ enricher = &geoIP{}
)

type geoIPRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

type geoIPConfig struct {
	Path             string   `yaml:"path"`
	Field            string   `yaml:"field"`
	AllowedCountries []string `yaml:"allowed_countries"`
}

// geoIP stores the country of the address field in the record. With
// allowed countries set it also works as a filter.
type geoIP struct {
	db               *maxminddb.Reader
	field            string
	allowedCountries []string
}

func newGeoIP(cfg geoIPConfig) (*geoIP, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("GeoIP database path cannot be empty")
	}

	db, err := maxminddb.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("cannot load GeoIP database from %q: %w", cfg.Path, err)
	}

	log.Printf("geoIP loaded %q, allow countries %s", cfg.Path, strings.Join(cfg.AllowedCountries, ","))

	return &geoIP{
		db:               db,
		field:            cfg.Field,
		allowedCountries: cfg.AllowedCountries,
	}, nil
}

func (gi *geoIP) country(r *apachelog.Record) (string, bool) {
	if code, ok := r.Get(countryField); ok {
		return code, true
	}

	value, ok := r.Get(gi.field)
	if !ok {
		return "", false
	}

	ip := net.ParseIP(value)
	if ip == nil {
		return "", false
	}

	var rec geoIPRecord

	err := gi.db.Lookup(ip, &rec)
	if err != nil {
		log.Printf("cannot check country for %s: %v", value, err)
		return "", false
	}

	r.Set(countryField, rec.Country.ISOCode)

	return rec.Country.ISOCode, true
}

func (gi *geoIP) Enrich(r *apachelog.Record) {
	gi.country(r)
}

func (gi *geoIP) Check(r *apachelog.Record) decision {
	code, ok := gi.country(r)
	if !ok || len(gi.allowedCountries) == 0 {
		return decisionNone
	}

	for _, allowed := range gi.allowedCountries {
		if code == allowed {
			return decisionKeep
		}
	}

	return decisionDrop
}

func (gi *geoIP) Close() error {
	return gi.db.Close()
}
