package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vasyahuyasa/apachelog/apachelog"
	"github.com/vasyahuyasa/apachelog/log"
	"github.com/vasyahuyasa/apachelog/processor"
)

const (
	checkDelay = time.Millisecond * 300
)

// logStreamer parses lines of r. In follow mode it starts at the end of
// the file and waits for new lines until the context is done. Bad lines are
// counted and skipped.
type logStreamer struct {
	ctx    context.Context
	r      io.Reader
	follow bool
	err    error
	stats  processor.Stats
	pos    int64
	format *apachelog.Format
}

func newLogStreamer(ctx context.Context, r io.Reader, follow bool, format *apachelog.Format) (*logStreamer, error) {
	s := &logStreamer{
		ctx:    ctx,
		r:      r,
		follow: follow,
		format: format,
	}

	f, ok := r.(*os.File)
	if !follow || !ok || f == os.Stdin {
		return s, nil
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat log: %w", err)
	}

	s.pos = stat.Size()

	_, err = f.Seek(s.pos, io.SeekStart)
	if err != nil {
		return nil, fmt.Errorf("cannot seek to %d: %w", s.pos, err)
	}

	return s, nil
}

func (s *logStreamer) C() <-chan *apachelog.Record {
	c := make(chan *apachelog.Record)

	go func(recordChan chan *apachelog.Record) {
		defer func() {
			close(recordChan)
		}()

		send := processor.Func(func(r *apachelog.Record) error {
			select {
			case recordChan <- r:
				return nil
			case <-s.ctx.Done():
				return s.ctx.Err()
			}
		})

		var err error

		if s.follow {
			s.stats, err = processor.Follow(s.ctx, s.r, s.format, checkDelay, send)
		} else {
			s.stats, err = processor.Process(s.r, s.format, send)
		}

		if err != nil && s.ctx.Err() == nil {
			s.err = fmt.Errorf("cannot stream log: %w", err)
		}

		log.Debugf("log stream done, %d lines, %d parsed, %d failed", s.stats.Lines, s.stats.Parsed, s.stats.Failed)
	}(c)

	return c
}

// Err and Stats are valid once the records channel is closed.
func (s *logStreamer) Err() error {
	return s.err
}

func (s *logStreamer) Stats() processor.Stats {
	return s.stats
}
