package main

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vasyahuyasa/apachelog/apachelog"
)

const (
	defaultDelayAfterWrite = time.Nanosecond * 1_000_000
	reportDelaySeconds     = 1

	metricsAddr = ":12383"

	clfTimeLayout = "02/Jan/2006:15:04:05 -0700"
)

var (
	requests = []string{
		"GET / HTTP/1.1",
		"GET /api/application/items/?item_ids=3633 HTTP/2.0",
		`GET /search?q=\"quoted\" HTTP/1.1`,
		"POST /order HTTP/2.0",
	}

	agents = []string{
		"Mozilla/5.0 (Linux; Android 10; HRY-LX1T Build/HONORHRY-LX1T; wv) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/103.0.5060.129 Mobile Safari/537.36",
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
		"curl/7.68.0",
	}

	linesWrittenBeforeReport uint64

	linesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apachelog_writer_lines_written_total",
	})
)

func main() {
	if len(os.Args) == 1 {
		log.Fatal("Usage: logwriter <file> [delay ns]")
	}

	logfile := os.Args[1]

	// generated lines must stay parseable by the extended format
	format := apachelog.MustCompile(apachelog.FormatExtended, true)
	if _, err := format.Parse(makeLine(rand.New(rand.NewSource(1)), time.Now())); err != nil {
		log.Fatalf("generated line does not match the format: %v", err)
	}

	f, err := os.OpenFile(logfile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, fs.ModePerm)
	if err != nil {
		log.Fatalf("cannot open %s: %v", logfile, err)
	}
	defer func() {
		f.Close()
	}()

	go func() {
		err := setUpMetricServer()
		if err != nil {
			log.Fatalf("cannot create metric server: %v", err)
		}
	}()

	delayAfterWrite := defaultDelayAfterWrite

	if len(os.Args) >= 3 {
		nano, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("cannot parse as number %q: %v", os.Args[2], err)
		}

		delayAfterWrite = time.Nanosecond * time.Duration(nano)
	}

	err = writer(f, delayAfterWrite)
	if err != nil {
		log.Fatalf("writer failed: %v", err)
	}
}

// makeLine renders a line in the extended (combined) format.
func makeLine(rnd *rand.Rand, now time.Time) string {
	return fmt.Sprintf("%d.%d.%d.%d - - [%s] \"%s\" %d %d \"-\" \"%s\"\n",
		rnd.Intn(223)+1, rnd.Intn(256), rnd.Intn(256), rnd.Intn(254)+1,
		now.Format(clfTimeLayout),
		requests[rnd.Intn(len(requests))],
		[]int{200, 301, 404, 500}[rnd.Intn(4)],
		rnd.Intn(100000),
		agents[rnd.Intn(len(agents))],
	)
}

func writer(w io.Writer, delayAfterWrite time.Duration) error {
	var err error

	go report()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		_, err = io.WriteString(w, makeLine(rnd, time.Now()))
		if err != nil {
			return err
		}

		linesCounter.Inc()
		atomic.AddUint64(&linesWrittenBeforeReport, 1)
		time.Sleep(delayAfterWrite)
	}
}

func report() {
	ticker := time.NewTicker(time.Second * reportDelaySeconds)

	for range ticker.C {
		linesWritten := atomic.SwapUint64(&linesWrittenBeforeReport, 0)
		log.Printf("%d lines/sec", linesWritten/reportDelaySeconds)
	}
}

func setUpMetricServer() error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(metricsAddr, nil)
}
