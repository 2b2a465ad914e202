package processor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vasyahuyasa/apachelog/apachelog"
	"github.com/vasyahuyasa/apachelog/log"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestProcess(t *testing.T) {
	stream := strings.NewReader(strings.Join([]string{
		`192.168.0.1 - - [18/Feb/2012:10:25:43 -0500] "GET / HTTP/1.1" 200 561 "-" "Mozilla/5.0 (...)"`,
		`garbage`,
		`192.168.0.2 - - [18/Feb/2012:10:25:58 -0500] "GET / HTTP/1.1" 200 561 "-" "Mozilla/5.0 (...)"`,
	}, "\n"))

	format := apachelog.MustCompile(apachelog.FormatExtended, false)

	ltp := NewTimeProcessor("%t", "")
	chained := ltp.Chain()

	var hosts []string
	collect := Func(func(r *apachelog.Record) error {
		hosts = append(hosts, r.Value("%h"))
		return nil
	})

	stats, err := Process(stream, format, ltp, chained, collect)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	wantStats := Stats{Lines: 3, Parsed: 2, Failed: 1}
	if stats != wantStats {
		t.Errorf("Process() stats = %+v, want %+v", stats, wantStats)
	}

	if strings.Join(hosts, ",") != "192.168.0.1,192.168.0.2" {
		t.Errorf("processed hosts = %v", hosts)
	}

	if got := ltp.TotalSeconds(); got != 15 {
		t.Errorf("TimeProcessor.TotalSeconds() = %v, want 15", got)
	}

	if got := chained.TotalSeconds(); got != 15 {
		t.Errorf("chained TimeProcessor.TotalSeconds() = %v, want 15", got)
	}

	wantStart := time.Date(2012, time.February, 18, 15, 25, 43, 0, time.UTC)
	if !ltp.Start.Equal(wantStart) {
		t.Errorf("TimeProcessor.Start = %v, want %v", ltp.Start, wantStart)
	}

	if !ltp.Last.Equal(ltp.Stop) {
		t.Errorf("TimeProcessor.Last = %v, want %v", ltp.Last, ltp.Stop)
	}
}

func TestProcess_processorError(t *testing.T) {
	format := apachelog.MustCompile(`%h %t`, true)
	stream := strings.NewReader("1.1.1.1 [not a time]\n")

	_, err := Process(stream, format, NewTimeProcessor("time", ""))
	if err == nil {
		t.Fatalf("Process() error = nil, want time parse error")
	}
}

func TestTimeProcessor_customLayout(t *testing.T) {
	format := apachelog.MustCompile(`%h %{%Y-%m-%dT%H:%M:%S}t`, true)

	p := NewTimeProcessor("time_%Y-%m-%dT%H:%M:%S", "")

	for _, line := range []string{
		"a [2021-03-01T10:00:00]",
		"b [2021-03-01T09:00:00]",
		"c [2021-03-01T09:30:00]",
	} {
		r, err := format.Parse(line)
		if err != nil {
			t.Fatal(err)
		}

		if err = p.Process(r); err != nil {
			t.Fatal(err)
		}
	}

	if got := p.TotalSeconds(); got != 3600 {
		t.Errorf("TimeProcessor.TotalSeconds() = %v, want 3600", got)
	}

	if p.Last.Hour() != 9 || p.Last.Minute() != 30 {
		t.Errorf("TimeProcessor.Last = %v", p.Last)
	}
}

func TestTimeProcessor_missingField(t *testing.T) {
	err := NewTimeProcessor("time", "").Process(apachelog.NewRecord())
	if err == nil {
		t.Errorf("TimeProcessor.Process() error = nil for a record without time")
	}
}

func TestTimeProcessor_empty(t *testing.T) {
	if got := NewTimeProcessor("time", "").TotalSeconds(); got != 0 {
		t.Errorf("TotalSeconds() = %v, want 0", got)
	}
}

func TestLayoutFor(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{field: "%t", want: ApacheTimeLayout},
		{field: "time", want: ApacheTimeLayout},
		{field: "%{%Y-%m-%d}t", want: "%Y-%m-%d"},
		{field: "time_%Y-%m-%d", want: "%Y-%m-%d"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if got := LayoutFor(tt.field); got != tt.want {
				t.Errorf("LayoutFor(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestProcess_readError(t *testing.T) {
	format := apachelog.MustCompile(`%h`, true)

	_, err := Process(errReader{}, format)
	if err == nil {
		t.Errorf("Process() error = nil, want read error")
	}
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestProcess_longLine(t *testing.T) {
	format := apachelog.MustCompile(`%h "%r" %>s`, true)

	stream := strings.NewReader(strings.Join([]string{
		`1.1.1.1 "GET /` + strings.Repeat("a", MaxLineSize) + ` HTTP/1.1" 200`,
		``,
		`2.2.2.2 "GET / HTTP/1.1" 404`,
	}, "\n"))

	var statuses []string
	collect := Func(func(r *apachelog.Record) error {
		statuses = append(statuses, r.Value("last_status"))
		return nil
	})

	stats, err := Process(stream, format, collect)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	wantStats := Stats{Lines: 2, Parsed: 1, Failed: 1}
	if stats != wantStats {
		t.Errorf("Process() stats = %+v, want %+v", stats, wantStats)
	}

	if strings.Join(statuses, ",") != "404" {
		t.Errorf("processed statuses = %v, want [404]", statuses)
	}
}

func TestFollow(t *testing.T) {
	format := apachelog.MustCompile(`%h %>s`, true)

	path := filepath.Join(t.TempDir(), "access.log")
	if err := os.WriteFile(path, []byte("1.1.1.1 200\n2.2.2.2 4"), 0600); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := make(chan *apachelog.Record, 10)
	collect := Func(func(r *apachelog.Record) error {
		records <- r
		return nil
	})

	type result struct {
		stats Stats
		err   error
	}

	done := make(chan result, 1)

	go func() {
		stats, err := Follow(ctx, f, format, 10*time.Millisecond, collect)
		done <- result{stats, err}
	}()

	if r := <-records; r.Value("remote_host") != "1.1.1.1" {
		t.Fatalf("first record remote_host = %q", r.Value("remote_host"))
	}

	// let a few polls see the unfinished line
	time.Sleep(50 * time.Millisecond)

	w, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if _, err = w.WriteString("04\n"); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-records:
		if got := r.Value("last_status"); got != "404" {
			t.Errorf("completed record last_status = %q, want 404", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no record for the completed line within 5s")
	}

	cancel()

	res := <-done
	if res.err != nil {
		t.Errorf("Follow() error = %v", res.err)
	}

	wantStats := Stats{Lines: 2, Parsed: 2}
	if res.stats != wantStats {
		t.Errorf("Follow() stats = %+v, want %+v", res.stats, wantStats)
	}
}
