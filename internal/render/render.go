// Package render turns registry and metadata state into plain text tables
// for the CLI.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dlscope/dlscope/internal/datasource"
)

// Header names the columns of a table.
type Header []string

// Row is one rendered table row.
type Row []string

// Sources renders one row per registered source.
func Sources(reg *datasource.Registry) (Header, []Row) {
	header := Header{"ID", "KIND", "CAPABILITIES", "AVAILABLE", "DESCRIPTION"}
	rows := make([]Row, 0, reg.Len())
	for _, id := range reg.IDs() {
		src, ok := reg.Get(id)
		if !ok {
			continue
		}
		rows = append(rows, Row{
			id,
			src.Kind(),
			Capabilities(src),
			yesNo(src.Available()),
			src.Description(),
		})
	}
	return header, rows
}

// Capabilities joins the capability names of a source.
func Capabilities(src *datasource.Source) string {
	caps := src.Capabilities()
	if len(caps) == 0 {
		return "-"
	}
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}

// Metadata renders fetch metadata as key/value rows.
func Metadata(m *datasource.Metadata) []Row {
	rows := []Row{
		{"source", m.Source},
		{"kind", m.Kind},
		{"mode", m.Mode},
		{"size", fmt.Sprintf("%d", m.Size)},
		{"fetched", m.Timestamp.Format("2006-01-02 15:04:05.000")},
	}
	if m.Name != "" {
		rows = append(rows, Row{"name", m.Name})
	}
	if m.Index >= 0 {
		rows = append(rows, Row{"index", fmt.Sprintf("%d", m.Index)})
	}
	if len(m.Shape) > 0 {
		rows = append(rows, Row{"shape", fmt.Sprint(m.Shape)})
	}
	return rows
}

// Print writes a table with an optional header to w.
func Print(w io.Writer, header Header, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if len(header) > 0 {
		fmt.Fprintln(tw, strings.Join(header, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
