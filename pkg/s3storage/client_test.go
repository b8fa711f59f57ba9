package s3storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/paapi-search/pkg/config"
)

func TestResultKey(t *testing.T) {
	ts := time.Date(2026, 10, 19, 23, 30, 0, 0, time.FixedZone("JST", 9*60*60))

	tests := []struct {
		name    string
		prefix  string
		keyword string
		want    string
	}{
		{"plain", "paapi/results", "camera", "paapi/results/2026/10/19/camera-req1.json"},
		{"slashes trimmed", "/paapi/", "Digital Camera!", "paapi/2026/10/19/digital-camera-req1.json"},
		{"no prefix", "", "デジタルカメラ", "2026/10/19/デジタルカメラ-req1.json"},
		{"only symbols", "out", "!!!", "out/2026/10/19/search-req1.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResultKey(tt.prefix, tt.keyword, "req1", ts))
		})
	}
}

func TestSlug_Truncates(t *testing.T) {
	long := "abcdefghij abcdefghij abcdefghij abcdefghij abcdefghij"
	got := slug(long)
	assert.LessOrEqual(t, len([]rune(got)), maxSlugRunes)
	assert.NotEqual(t, '-', rune(got[len(got)-1]))
}

func TestNew(t *testing.T) {
	c, err := New(config.S3Config{Endpoint: "localhost:9000", Bucket: "results", AccessKey: "a", SecretKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "results", c.bucket)

	_, err = New(config.S3Config{Bucket: "results"})
	assert.Error(t, err)

	_, err = New(config.S3Config{Endpoint: "localhost:9000"})
	assert.Error(t, err)
}
