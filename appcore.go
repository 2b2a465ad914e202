package main

import (
	"fmt"

	"github.com/vasyahuyasa/apachelog/log"
	"github.com/vasyahuyasa/apachelog/processor"
	"github.com/vasyahuyasa/apachelog/resolver"
)

type appcore struct {
	streamer  *logStreamer
	enrichers []enricher
	c         *chain
	times     *processor.TimeProcessor
	res       *resolver.Resolver
	log       *logPrinter
}

func newAppCore(streamer *logStreamer, enrichers []enricher, c *chain, times *processor.TimeProcessor, res *resolver.Resolver, lp *logPrinter) *appcore {
	return &appcore{
		streamer:  streamer,
		enrichers: enrichers,
		c:         c,
		times:     times,
		res:       res,
		log:       lp,
	}
}

func (core *appcore) run() error {
	for r := range core.streamer.C() {
		for _, e := range core.enrichers {
			e.Enrich(r)
		}

		if !core.c.Keep(r) {
			droppedCounter.Inc()
			continue
		}

		if core.times != nil {
			if err := core.times.Process(r); err != nil {
				log.Debugf("cannot track time: %v", err)
			}
		}

		if err := core.log.Println(r); err != nil {
			return fmt.Errorf("cannot print record: %w", err)
		}

		printedCounter.Inc()
	}

	if core.res != nil {
		if err := core.res.Save(); err != nil {
			log.Printf("%v", err)
		}
	}

	if core.times != nil && !core.times.Start.IsZero() {
		log.Printf("requests from %s to %s (%.0f seconds)", core.times.Start, core.times.Stop, core.times.TotalSeconds())
	}

	return core.streamer.Err()
}
