package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/vasyahuyasa/apachelog/log"
	"github.com/vasyahuyasa/apachelog/processor"
	"github.com/vasyahuyasa/apachelog/resolver"
)

const defaultConfigFile = "config.yml"

func main() {
	configFile := flag.String("config", defaultConfigFile, "path to the configuration file")
	flag.Parse()

	f, err := os.Open(*configFile)
	if err != nil {
		log.Fatalf("cannot open config file %s: %v", *configFile, err)
	}

	cfg, err := loadConfig(f)
	f.Close()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	log.EnableDebug(cfg.Debug)

	format, err := cfg.compileFormat()
	if err != nil {
		log.Fatalf("cannot compile log format: %v", err)
	}

	log.Debugf("log format %q compiled to %s", format, format.Pattern())

	cn, err := newChainFromConfig(cfg)
	if err != nil {
		log.Fatalf("cannot create chain: %v", err)
	}

	var enrichers []enricher

	if len(cfg.Networks) > 0 {
		nl, err := newNetworkLabeler(cfg.IPField, cfg.Networks)
		if err != nil {
			log.Fatalf("cannot create network labels: %v", err)
		}

		enrichers = append(enrichers, nl)
	}

	if cfg.GeoIP.Path != "" {
		geoCfg := cfg.GeoIP
		if geoCfg.Field == "" {
			geoCfg.Field = cfg.IPField
		}

		gi, err := newGeoIP(geoCfg)
		if err != nil {
			log.Fatalf("cannot create GeoIP: %v", err)
		}

		defer gi.Close()

		enrichers = append(enrichers, gi)
	}

	var res *resolver.Resolver

	if cfg.Resolve.Enabled {
		res, err = newResolver(cfg.Resolve)
		if err != nil {
			log.Fatalf("cannot create resolver: %v", err)
		}

		enrichers = append(enrichers, &resolveEnricher{res: res, fields: cfg.Resolve.Fields})
	}

	lp, err := newLogPrinter(cfg.Output, cfg.Template)
	if err != nil {
		log.Fatalf("cannot create log printer: %v", err)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			err := setUpMetricServer(cfg.MetricsAddr)
			if err != nil {
				log.Fatalf("cannot create metric server: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var src io.Reader = os.Stdin

	if cfg.Logfile != stdinLogfile {
		streamfile, err := os.Open(cfg.Logfile)
		if err != nil {
			log.Fatalf("cannot open log file %s: %v", cfg.Logfile, err)
		}

		defer streamfile.Close()

		src = streamfile
	}

	logStream, err := newLogStreamer(ctx, src, cfg.Follow, format)
	if err != nil {
		log.Fatalf("cannot initialize log stream: %v", err)
	}

	log.Printf("read %s", cfg.Logfile)

	core := newAppCore(logStream, enrichers, cn, processor.NewTimeProcessor(cfg.TimeField, ""), res, lp)

	if err = core.run(); err != nil {
		log.Printf("log streamer done with error: %v", err)
	}
}
