package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/ilkoid/paapi-search/pkg/history"
	"github.com/ilkoid/paapi-search/pkg/paapi"
)

// defaultTitleWidth — ширина колонки Title, если output.width не задан.
const defaultTitleWidth = 48

// tableOptions — параметры табличного вывода.
type tableOptions struct {
	TitleWidth int
	NoColor    bool
}

func headerStyle(noColor bool) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	if noColor {
		return s
	}
	return s.Foreground(lipgloss.Color("86")) // Cyan
}

func dimStyle(noColor bool) lipgloss.Style {
	if noColor {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("242")) // Серый
}

// writeJSON выводит записи JSON массивом в порядке документа.
func writeJSON(w io.Writer, records []paapi.Record, indent bool) error {
	data, err := paapi.MarshalRecords(records, indent)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// cell обрезает s до width по ширине на экране и добивает пробелами.
// Строка ровно в width колонок выводится целиком.
func cell(s string, width int) string {
	if ansi.PrintableRuneWidth(s) > width {
		s = truncate.StringWithTail(s, uint(width), "…")
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

// writeTable выводит записи таблицей: #, ASIN, Title, LowestUsedPrice, SmallImage.
func writeTable(w io.Writer, records []paapi.Record, opts tableOptions) error {
	titleWidth := opts.TitleWidth
	if titleWidth <= 0 {
		titleWidth = defaultTitleWidth
	}

	header := headerStyle(opts.NoColor)
	dim := dimStyle(opts.NoColor)

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, dim.Render("No items found"))
		return err
	}

	widths := []int{3, 10, titleWidth, 14}
	head := []string{"#", "ASIN", "Title", "Price"}

	var b strings.Builder
	for i, h := range head {
		b.WriteString(header.Render(cell(h, widths[i])))
		b.WriteString(" ")
	}
	b.WriteString(header.Render("SmallImage"))
	b.WriteString("\n")

	for i, r := range records {
		image := paapi.NotAvailable
		if r.SmallImage != nil {
			image = fmt.Sprintf("%s (%sx%s)", r.SmallImage.URL, r.SmallImage.Width, r.SmallImage.Height)
		}

		row := []string{strconv.Itoa(i + 1), r.ASIN, r.Title, r.LowestUsedPrice}
		for j, v := range row {
			b.WriteString(cell(v, widths[j]))
			b.WriteString(" ")
		}
		b.WriteString(dim.Render(image))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// writeHistory выводит записи журнала, новые первыми.
func writeHistory(w io.Writer, entries []history.Entry, noColor bool) error {
	dim := dimStyle(noColor)

	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, dim.Render("History is empty"))
		return err
	}

	for _, e := range entries {
		status := fmt.Sprintf("%d items", e.ResultCount)
		if e.Error != "" {
			status = "error: " + e.Error
		}
		category := e.Category
		if category == "" {
			category = "-"
		}

		_, err := fmt.Fprintf(w, "%s  %-3s %-14s %s  %s\n",
			dim.Render(e.RequestedAt.Local().Format("2006-01-02 15:04:05")),
			e.Locale, category, e.Keyword, dim.Render(status))
		if err != nil {
			return err
		}
	}
	return nil
}
