package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestNewConfigFromViperDefaults(t *testing.T) {
	cfg, err := NewConfigFromViper(newDefaultViper())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "webhand", cfg.Logger().ServiceName)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, 90*time.Second, cfg.Network().NavigationTimeout)
	assert.Equal(t, 2*time.Second, cfg.Executor().AttachTimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.Executor().VisibilityTimeout)
	assert.Equal(t, 800*time.Millisecond, cfg.Executor().DragTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Executor().SettleDelay)
	assert.Equal(t, "file", cfg.History().Backend)
	assert.Equal(t, 2000, cfg.History().MaxSize)
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(v *viper.Viper)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(v *viper.Viper) {},
		},
		{
			name:    "zero attach timeout",
			mutate:  func(v *viper.Viper) { v.Set("executor.attach_timeout", "0s") },
			wantErr: "attach_timeout",
		},
		{
			name:    "negative rate limit",
			mutate:  func(v *viper.Viper) { v.Set("executor.rate_limit", -1.0) },
			wantErr: "rate_limit",
		},
		{
			name:    "unknown history backend",
			mutate:  func(v *viper.Viper) { v.Set("history.backend", "redis") },
			wantErr: "history.backend",
		},
		{
			name:    "postgres backend without url",
			mutate:  func(v *viper.Viper) { v.Set("history.backend", "postgres") },
			wantErr: "history.postgres.url",
		},
		{
			name:    "empty file path",
			mutate:  func(v *viper.Viper) { v.Set("history.file_path", "") },
			wantErr: "history.file_path",
		},
		{
			name:    "non-positive history size",
			mutate:  func(v *viper.Viper) { v.Set("history.max_size", 0) },
			wantErr: "history.max_size",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := newDefaultViper()
			tc.mutate(v)
			_, err := NewConfigFromViper(v)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestConfigSetters(t *testing.T) {
	cfg, err := NewConfigFromViper(newDefaultViper())
	require.NoError(t, err)

	cfg.SetBrowserHeadless(false)
	cfg.SetBrowserIgnoreTLSErrors(true)
	cfg.SetHistoryPath("/tmp/hist.json")

	assert.False(t, cfg.Browser().Headless)
	assert.True(t, cfg.Browser().IgnoreTLSErrors)
	assert.Equal(t, "/tmp/hist.json", cfg.History().FilePath)
}
