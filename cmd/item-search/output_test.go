package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/paapi-search/pkg/history"
	"github.com/ilkoid/paapi-search/pkg/paapi"
)

var sampleRecords = []paapi.Record{
	{
		ASIN:            "B00TEST001",
		Title:           "Digital Camera X100 with a really long marketing title that goes on",
		LowestUsedPrice: "￥ 12,800",
		SmallImage:      &paapi.Image{URL: "http://img.example/1.jpg", Height: "75", Width: "56"},
	},
	{
		ASIN:            "B00TEST002",
		Title:           paapi.NotAvailable,
		LowestUsedPrice: paapi.NotAvailable,
	},
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, sampleRecords, false))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "B00TEST001", got[0]["ASIN"])
	assert.Equal(t, "N/A", got[1]["SmallImage"])
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, nil, true))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, sampleRecords, tableOptions{TitleWidth: 20, NoColor: true}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3, "header + one line per record")

	assert.Contains(t, lines[0], "ASIN")
	assert.Contains(t, lines[0], "SmallImage")

	assert.Contains(t, lines[1], "B00TEST001")
	assert.Contains(t, lines[1], "…", "long title is truncated")
	assert.NotContains(t, lines[1], "goes on")
	assert.Contains(t, lines[1], "http://img.example/1.jpg (56x75)")

	assert.Contains(t, lines[2], "B00TEST002")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[2]), "N/A"))
}

func TestCell(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"exact width kept", "B00TEST001", 10, "B00TEST001"},
		{"shorter padded", "B00TEST01", 10, "B00TEST01 "},
		{"wide runes exact", "カメラ", 6, "カメラ"},
		{"longer truncated", "B00TEST0012", 10, "B00TEST00…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cell(tt.in, tt.width))
		})
	}
}

func TestWriteTable_ExactWidthTitle(t *testing.T) {
	var buf bytes.Buffer
	records := []paapi.Record{{ASIN: "B00TEST003", Title: "Exactly twenty chars", LowestUsedPrice: "$1.00"}}
	require.NoError(t, writeTable(&buf, records, tableOptions{TitleWidth: 20, NoColor: true}))

	assert.Contains(t, buf.String(), "B00TEST003")
	assert.Contains(t, buf.String(), "Exactly twenty chars")
	assert.NotContains(t, buf.String(), "…")
}

func TestWriteTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, nil, tableOptions{NoColor: true}))
	assert.Contains(t, buf.String(), "No items found")
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	entries := []history.Entry{
		{Keyword: "camera", Category: "Electronics", Locale: "jp", ResultCount: 10, RequestedAt: time.Now()},
		{Keyword: "book", Locale: "us", Error: "paapi error: status 503", RequestedAt: time.Now()},
	}
	require.NoError(t, writeHistory(&buf, entries, true))

	out := buf.String()
	assert.Contains(t, out, "camera")
	assert.Contains(t, out, "10 items")
	assert.Contains(t, out, "error: paapi error: status 503")

	buf.Reset()
	require.NoError(t, writeHistory(&buf, nil, true))
	assert.Contains(t, buf.String(), "History is empty")
}

func TestWriteNormalizedXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "response.xml")
	require.NoError(t, writeNormalizedXML(path, []byte(`<Items><Item><ASIN>B1</ASIN></Item></Items>`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<ASIN>B1</ASIN>")

	assert.Error(t, writeNormalizedXML(path, []byte("<<<")))
}

func TestResultCountAndErrorText(t *testing.T) {
	assert.Equal(t, 0, resultCount(nil))
	assert.Equal(t, 2, resultCount(&paapi.SearchResult{Records: sampleRecords}))
	assert.Empty(t, errorText(nil))
	assert.Equal(t, assert.AnError.Error(), errorText(assert.AnError))
}
