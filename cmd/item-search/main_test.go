package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/paapi-search/pkg/config"
	"github.com/ilkoid/paapi-search/pkg/history"
)

func TestShowHistory_DisabledDoesNotCreateDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	cfg := &config.AppConfig{History: config.HistoryConfig{Enabled: false, Path: dbPath}}

	var buf bytes.Buffer
	require.NoError(t, showHistory(context.Background(), &buf, cfg, 5))

	assert.Contains(t, buf.String(), "History is disabled")
	assert.NoFileExists(t, dbPath)
}

func TestShowHistory_Enabled(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	cfg := &config.AppConfig{History: config.HistoryConfig{Enabled: true, Path: dbPath}}

	recordHistory(ctx, cfg, history.Entry{RequestID: "r1", Keyword: "camera", Locale: "jp", ResultCount: 3})

	var buf bytes.Buffer
	require.NoError(t, showHistory(ctx, &buf, cfg, 5))
	assert.Contains(t, buf.String(), "camera")
	assert.Contains(t, buf.String(), "3 items")
}

func TestMarketplace(t *testing.T) {
	tests := []struct {
		name string
		api  config.PAAPIConfig
		want string
	}{
		{"default locale", config.PAAPIConfig{}, "jp"},
		{"explicit locale", config.PAAPIConfig{Locale: "US"}, "us"},
		{"host wins over locale", config.PAAPIConfig{Locale: "jp", Host: "webservices.amazon.de"}, "webservices.amazon.de"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, marketplace(tt.api))
		})
	}
}

// runWithArgs вызывает run с чистым набором флагов.
func runWithArgs(t *testing.T, args ...string) int {
	t.Helper()
	oldArgs, oldFlags := os.Args, flag.CommandLine
	t.Cleanup(func() {
		os.Args, flag.CommandLine = oldArgs, oldFlags
	})

	os.Args = append([]string{"item-search"}, args...)
	flag.CommandLine = flag.NewFlagSet("item-search", flag.ContinueOnError)
	return run()
}

func TestRun_ExitCodes(t *testing.T) {
	assert.Equal(t, 0, runWithArgs(t, "-version"))
	assert.Equal(t, 1, runWithArgs(t, "-config", filepath.Join(t.TempDir(), "missing.yaml"), "camera"))
}

func TestRun_URLOnly(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "credentials:\n  access_key_id: AKIDEXAMPLE\n  secret_key: secret\n  associate_tag: tag-22\n" +
		"app:\n  logs_dir: " + filepath.Join(dir, "logs") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	assert.Equal(t, 0, runWithArgs(t, "-config", cfgPath, "-url-only", "camera"))
	assert.Equal(t, 1, runWithArgs(t, "-config", cfgPath, "-url-only"), "keyword is required")
}
