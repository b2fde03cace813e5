package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthpath/pricewatch/internal/config"
)

func TestNewScraper(t *testing.T) {
	t.Parallel()

	sc, err := NewScraper(config.ScraperConfig{RequestTimeout: 5 * time.Second, MaxRedirects: 3}, nil)
	require.NoError(t, err)
	defer sc.Close()

	assert.NotNil(t, sc.Scraper)
	assert.Nil(t, sc.pool)
}

func TestNewScraper_BadSelectorsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("amazon: [unterminated"), 0o600))

	_, err := NewScraper(config.ScraperConfig{SelectorsFile: path}, nil)
	assert.Error(t, err)
}

func TestRetryConfig(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, retryConfig(0).MaxAttempts)
	assert.Equal(t, 1, retryConfig(1).MaxAttempts)
	assert.Equal(t, 4, retryConfig(4).MaxAttempts)
}

func TestItemTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestTimeout time.Duration
		attempts       int
		want           time.Duration
	}{
		{
			name:     "defaults fit two full fetches",
			attempts: 0,
			want:     2*15*time.Second + 1250*time.Millisecond + itemTimeoutMargin,
		},
		{
			name:           "single attempt has no backoff",
			requestTimeout: 10 * time.Second,
			attempts:       1,
			want:           10*time.Second + itemTimeoutMargin,
		},
		{
			name:           "slow sites scale with the request timeout",
			requestTimeout: 40 * time.Second,
			attempts:       3,
			want:           3*40*time.Second + 1250*time.Millisecond + 2500*time.Millisecond + itemTimeoutMargin,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			retry := retryConfig(tt.attempts)
			assert.Equal(t, tt.want, itemTimeout(tt.requestTimeout, retry))
		})
	}
}
