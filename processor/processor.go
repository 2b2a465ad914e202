// Package processor feeds parsed records to downstream consumers.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vasyahuyasa/apachelog/apachelog"
	"github.com/vasyahuyasa/apachelog/log"
)

// Processor consumes one record at a time.
type Processor interface {
	Process(r *apachelog.Record) error
}

type Func func(r *apachelog.Record) error

func (fn Func) Process(r *apachelog.Record) error {
	return fn(r)
}

// Stats counts the lines seen by Process.
type Stats struct {
	Lines  int
	Parsed int
	Failed int
}

// Process parses every line of r and hands the records to processors in
// order. Blank lines are skipped. Lines that do not match the format or are
// longer than MaxLineSize are counted and skipped, other errors stop the
// processing.
func Process(r io.Reader, format *apachelog.Format, processors ...Processor) (Stats, error) {
	return process(context.Background(), NewLineReader(r, false), format, 0, processors)
}

// Follow works like Process on a growing r. At the end of r it waits poll
// and reads again until ctx is done, an unfinished last line waits for its
// newline.
func Follow(ctx context.Context, r io.Reader, format *apachelog.Format, poll time.Duration, processors ...Processor) (Stats, error) {
	return process(ctx, NewLineReader(r, true), format, poll, processors)
}

func process(ctx context.Context, lines *LineReader, format *apachelog.Format, poll time.Duration, processors []Processor) (Stats, error) {
	var stats Stats

	for {
		line, err := lines.Next()

		switch {
		case errors.Is(err, io.EOF):
			if poll <= 0 {
				return stats, nil
			}

			select {
			case <-ctx.Done():
				return stats, nil
			case <-time.After(poll):
			}

			continue

		case errors.Is(err, ErrLineTooLong):
			stats.Lines++
			stats.Failed++
			linesCounter.WithLabelValues("failed").Inc()
			log.Debugf("line %d: longer than %d bytes", stats.Lines, MaxLineSize)

			continue

		case err != nil:
			return stats, fmt.Errorf("cannot read line: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		stats.Lines++

		record, err := format.Parse(line)
		if err != nil {
			var parseErr *apachelog.ParseError
			if errors.As(err, &parseErr) {
				stats.Failed++
				linesCounter.WithLabelValues("failed").Inc()
				log.Debugf("line %d: %v", stats.Lines, err)

				continue
			}

			return stats, err
		}

		stats.Parsed++
		linesCounter.WithLabelValues("parsed").Inc()

		for _, p := range processors {
			if err = p.Process(record); err != nil {
				return stats, fmt.Errorf("line %d: %w", stats.Lines, err)
			}
		}
	}
}
