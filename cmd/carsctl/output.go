package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/JonMunkholm/carbot/internal/core"
	"github.com/JonMunkholm/carbot/internal/database"
	"github.com/JonMunkholm/carbot/internal/schema"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.Faint)
)

func printList(w io.Writer, title string, items []string) {
	headerColor.Fprintf(w, "%s (%d)\n", title, len(items))
	if len(items) == 0 {
		dimColor.Fprintln(w, "  none")
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "  • %s\n", item)
	}
}

func printCars(w io.Writer, cars []schema.Car) {
	if len(cars) == 0 {
		dimColor.Fprintln(w, "no offers")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BRAND\tMODEL\tYEAR\tPRICE\tCITY\tURL")
	for _, c := range cars {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", c.Brand, c.Model, yearText(c.Year), c.Price, c.City, c.URL)
	}
	tw.Flush()
}

func printCar(w io.Writer, c schema.Car) {
	headerColor.Fprintf(w, "%s %s\n", c.Brand, c.Model)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  url\t%s\n", c.URL)
	fmt.Fprintf(tw, "  year\t%s\n", yearText(c.Year))
	fmt.Fprintf(tw, "  price\t%d\n", c.Price)
	fmt.Fprintf(tw, "  city\t%s\n", c.City)
	fmt.Fprintf(tw, "  volume\t%g %s\n", c.Volume, c.VolumeType)
	fmt.Fprintf(tw, "  mileage\t%g\n", c.Mileage)
	fmt.Fprintf(tw, "  customs cleared\t%t\n", c.CustomKZ)
	if c.CompanyName != "" {
		fmt.Fprintf(tw, "  seller\t%s\n", c.CompanyName)
	}
	if !c.UpdateDate.IsZero() {
		fmt.Fprintf(tw, "  updated\t%s\n", c.UpdateDate.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func printRows(w io.Writer, rows []core.Row) {
	if len(rows) == 0 {
		dimColor.Fprintln(w, "(0 rows)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	cols := rows[0].Columns()
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c)
	}
	fmt.Fprintln(tw)

	for _, row := range rows {
		for i, v := range row.Values() {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cellText(v))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
	dimColor.Fprintf(w, "(%d rows)\n", len(rows))
}

func printStatus(w io.Writer, s database.Status) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  acquired\t%d / %d\n", s.AcquiredConns, s.MaxConns)
	fmt.Fprintf(tw, "  idle\t%d\n", s.IdleConns)
	fmt.Fprintf(tw, "  total\t%d\n", s.TotalConns)
	fmt.Fprintf(tw, "  acquires\t%d (canceled %d, waited %d)\n", s.AcquireCount, s.CanceledAcquireCount, s.EmptyAcquireCount)
	fmt.Fprintf(tw, "  acquire time\t%s\n", s.AcquireDuration)
	tw.Flush()
}

func printSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

// printError prints err with the user-facing message when the data layer
// produced it, or the error text for input and connection problems.
func printError(w io.Writer, err error) {
	var verrs schema.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		errorColor.Fprintln(w, "✗ invalid input")
		for _, v := range verrs {
			fmt.Fprintf(w, "  %s\n", v.Error())
		}
	case core.IsUserFacing(err):
		errorColor.Fprintf(w, "✗ %s\n", core.FormatUserError(err))
	default:
		errorColor.Fprintf(w, "✗ %v\n", err)
	}
}

func cellText(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func yearText(y int) string {
	if y == 0 {
		return "-"
	}
	return strconv.Itoa(y)
}
