package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Printer renders command results as text or JSON.
type Printer struct {
	Out    io.Writer
	Format string
}

// NewPrinter writes to color.Output in the configured format.
func NewPrinter() *Printer {
	return &Printer{Out: color.Output, Format: GetString("output.format")}
}

// JSON reports whether output is machine-readable.
func (p *Printer) JSON() bool {
	return p.Format == "json"
}

// Print writes v as indented JSON in json mode, or as key: value lines.
func (p *Printer) Print(v interface{}) error {
	if p.JSON() {
		data, err := jsonAPI.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.Out, string(data))
		return err
	}
	record, ok := v.(map[string]interface{})
	if !ok {
		data, err := jsonAPI.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.Out, string(data))
		return err
	}
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	bold := color.New(color.Bold)
	for _, k := range keys {
		bold.Fprint(p.Out, k+": ")
		fmt.Fprintf(p.Out, "%v\n", record[k])
	}
	return nil
}

// Table writes rows under headers; json mode emits the rows as objects.
func (p *Printer) Table(headers []string, rows [][]string) error {
	if p.JSON() {
		objs := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			obj := make(map[string]string, len(headers))
			for i, h := range headers {
				if i < len(row) {
					obj[strings.ToLower(h)] = row[i]
				}
			}
			objs = append(objs, obj)
		}
		return p.Print(objs)
	}
	w := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func (p *Printer) Success(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(p.Out, format+"\n", args...)
}

func (p *Printer) Info(format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(p.Out, format+"\n", args...)
}

func (p *Printer) Warn(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(p.Out, "Warning: "+format+"\n", args...)
}
