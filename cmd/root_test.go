package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webhand/internal/config"
	"github.com/xkilldash9x/webhand/internal/history"
)

func TestRootCommandWiring(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"], "run command must be registered")
	assert.True(t, names["replay"], "replay command must be registered")
	assert.True(t, names["history"], "history command must be registered")

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("headless"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("ignore-tls-errors"))
}

func TestRunCommandFlags(t *testing.T) {
	runCmd := newRunCmd()

	require.NotNil(t, runCmd.Flags().Lookup("actions"))
	require.NotNil(t, runCmd.Flags().Lookup("url"))
	require.NotNil(t, runCmd.Flags().Lookup("pre-delay"))

	require.NoError(t, runCmd.Flags().Set("pre-delay", "250ms"))
	d, err := runCmd.Flags().GetDuration("pre-delay")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
}

func TestHistoryCommandFlags(t *testing.T) {
	historyCmd := newHistoryCmd()

	n, err := historyCmd.Flags().GetInt("limit")
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	var clear bool
	for _, c := range historyCmd.Commands() {
		if c.Name() == "clear" {
			clear = true
		}
	}
	assert.True(t, clear, "history clear subcommand must be registered")
}

func TestNewHistoryStoreBackendSelection(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)
	cfg.SetHistoryPath(filepath.Join(t.TempDir(), "history.json"))

	store, err := newHistoryStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	_, isFile := store.(*history.FileStore)
	assert.True(t, isFile, "default backend should be the file store")
}
