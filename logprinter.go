package main

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/vasyahuyasa/apachelog/apachelog"
)

type logPrinterParams map[string]string

// logPrinter writes records through a text/template, fields are available
// by name, e.g. {{.remote_host}} or {{index . "%h"}}. Without a template
// the record is printed as key=value pairs.
type logPrinter struct {
	w io.Writer
	t *template.Template
}

func newLogPrinter(logfile, tpl string) (*logPrinter, error) {
	w := os.Stdout

	if logfile != "" {
		f, err := os.OpenFile(logfile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
		if err != nil {
			return nil, err
		}

		w = f
	}

	return newlogPrinterFromWriter(w, tpl)
}

func newlogPrinterFromWriter(w io.Writer, tpl string) (*logPrinter, error) {
	lp := &logPrinter{
		w: w,
	}

	if tpl == "" {
		return lp, nil
	}

	t, err := template.New("log").Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return nil, fmt.Errorf("cannot parse log template %q: %w", tpl, err)
	}

	lp.t = t

	return lp, nil
}

func (lp *logPrinter) Println(r *apachelog.Record) error {
	if lp.t == nil {
		_, err := fmt.Fprintln(lp.w, r.String())
		return err
	}

	params := make(logPrinterParams, r.Len())

	r.EachField(func(key, value string) {
		params[key] = value
	})

	return lp.write(params)
}

func (lp *logPrinter) write(params logPrinterParams) error {
	err := lp.t.Execute(lp.w, params)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(lp.w, "\n")
	if err != nil {
		return err
	}

	return nil
}
