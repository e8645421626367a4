package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"timeback/internal/mistakes"
	"timeback/internal/segments"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func segmentTable(keep []segments.KeepSegment) string {
	rows := make([][]string, 0, len(keep))
	for i, seg := range keep {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatClock(seg.Start),
			formatClock(seg.End),
			formatSeconds(seg.Duration()),
		})
	}
	return renderTable(
		[]string{"#", "Start", "End", "Length"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
	)
}

func mistakeTable(list []mistakes.Mistake) string {
	rows := make([][]string, 0, len(list))
	for _, m := range list {
		sources := make([]string, 0, len(m.Sources))
		for _, s := range m.Sources {
			sources = append(sources, string(s))
		}
		rows = append(rows, []string{
			formatClock(m.Start),
			formatSeconds(m.Duration()),
			string(m.Kind),
			strconv.FormatFloat(m.Confidence, 'f', 2, 64),
			strings.Join(sources, "+"),
			m.Text,
		})
	}
	return renderTable(
		[]string{"Start", "Length", "Kind", "Conf", "Sources", "Text"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

// formatClock renders seconds as m:ss.mmm (or h:mm:ss.mmm).
func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	frac := ms % 1000
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, frac)
	}
	return fmt.Sprintf("%d:%02d.%03d", m, s, frac)
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 2, 64) + "s"
}
