package processor

import (
	"fmt"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"

	"github.com/vasyahuyasa/apachelog/apachelog"
)

// ApacheTimeLayout is the strftime layout of %t without brackets.
const ApacheTimeLayout = "%d/%b/%Y:%H:%M:%S %z"

var _ Processor = &TimeProcessor{}

// TimeProcessor tracks the first and the last request time.
type TimeProcessor struct {
	field  string
	layout string
	// reuse the time parsed by another processor
	previous *TimeProcessor

	Last  time.Time
	Start time.Time
	Stop  time.Time
}

// NewTimeProcessor reads field with the strftime layout, an empty layout
// is derived from the field's directive by LayoutFor.
func NewTimeProcessor(field, layout string) *TimeProcessor {
	if layout == "" {
		layout = LayoutFor(field)
	}

	return &TimeProcessor{
		field:  field,
		layout: layout,
	}
}

// Chain returns a processor sharing the times parsed by p.
func (p *TimeProcessor) Chain() *TimeProcessor {
	return &TimeProcessor{
		field:    p.field,
		layout:   p.layout,
		previous: p,
	}
}

// LayoutFor returns the strftime layout of a time field, named either by
// its directive (%t, %{format}t) or by its friendly name (time,
// time_format).
func LayoutFor(field string) string {
	if strings.HasPrefix(field, "%{") && strings.HasSuffix(field, "}t") {
		return field[2 : len(field)-2]
	}

	if strings.HasPrefix(field, "time_") {
		return strings.TrimPrefix(field, "time_")
	}

	return ApacheTimeLayout
}

// ParseTime parses a bracketed time field.
func ParseTime(value, layout string) (time.Time, error) {
	value = strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")

	t, err := timefmt.Parse(value, layout)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse time %q as %q: %w", value, layout, err)
	}

	return t, nil
}

func (p *TimeProcessor) Process(r *apachelog.Record) error {
	var t time.Time

	if p.previous == nil {
		value, ok := r.Get(p.field)
		if !ok {
			return fmt.Errorf("record has no %q field", p.field)
		}

		parsed, err := ParseTime(value, p.layout)
		if err != nil {
			return err
		}

		t = parsed
	} else {
		t = p.previous.Last
	}

	p.Last = t

	if p.Start.IsZero() || t.Before(p.Start) {
		p.Start = t
	}

	if p.Stop.IsZero() || t.After(p.Stop) {
		p.Stop = t
	}

	return nil
}

// TotalSeconds is the time between the first and the last request.
func (p *TimeProcessor) TotalSeconds() float64 {
	if p.Start.IsZero() {
		return 0
	}

	return p.Stop.Sub(p.Start).Seconds()
}
