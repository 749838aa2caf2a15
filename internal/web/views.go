package web

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/carbot/internal/schema"
)

type indexData struct {
	Brand  string
	City   string
	Brands []string
	Cars   []schema.Car
}

// indexPage renders the brand list and the current offers.
func indexPage(d indexData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}

		ew.print(`<!DOCTYPE html><html lang="ru"><head><meta charset="utf-8"><title>Cars</title>`)
		ew.print(`<style>body{font-family:sans-serif;margin:2rem}table{border-collapse:collapse}td,th{padding:.25rem .75rem;border-bottom:1px solid #ddd;text-align:left}</style>`)
		ew.print(`</head><body><h1>Cars</h1>`)

		ew.print(`<nav><a href="/">All</a>`)
		for _, b := range d.Brands {
			href := "/?" + url.Values{"brand": {b}}.Encode()
			ew.printf(` · <a href="%s">%s</a>`, templ.EscapeString(href), templ.EscapeString(b))
		}
		ew.print(`</nav>`)

		if d.Brand != "" || d.City != "" {
			ew.printf(`<p>Filter: %s %s</p>`, templ.EscapeString(d.Brand), templ.EscapeString(d.City))
		}

		if len(d.Cars) == 0 {
			ew.print(`<p>No offers.</p>`)
		} else {
			ew.print(`<table><thead><tr><th>Brand</th><th>Model</th><th>Year</th><th>Price</th><th>City</th><th></th></tr></thead><tbody>`)
			for _, c := range d.Cars {
				ew.printf(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td><a href="%s" rel="noopener">open</a></td></tr>`,
					templ.EscapeString(c.Brand),
					templ.EscapeString(c.Model),
					yearText(c.Year),
					strconv.FormatInt(c.Price, 10),
					templ.EscapeString(c.City),
					templ.EscapeString(string(templ.URL(c.URL))),
				)
			}
			ew.print(`</tbody></table>`)
		}

		ew.print(`</body></html>`)
		return ew.err
	})
}

func yearText(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}

// errWriter keeps the first write error so rendering reads top to bottom.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) print(s string) {
	if e.err == nil {
		_, e.err = io.WriteString(e.w, s)
	}
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err == nil {
		_, e.err = fmt.Fprintf(e.w, format, args...)
	}
}
