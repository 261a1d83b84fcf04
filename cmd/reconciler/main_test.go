package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/race-reconciler/internal/config"
)

func withFlags(t *testing.T, c *config.Config, dry bool, date string) {
	t.Helper()
	prevCfg, prevDry, prevDate := cfg, dryRun, raceDate
	cfg, dryRun, raceDate = c, dry, date
	t.Cleanup(func() { cfg, dryRun, raceDate = prevCfg, prevDry, prevDate })
}

func TestRunOptions(t *testing.T) {
	c := &config.Config{Reconciler: config.ReconcilerConfig{SettleWorkers: 4, LookbackDays: 7}}

	withFlags(t, c, false, "")
	opts, err := runOptions()
	require.NoError(t, err)
	assert.Equal(t, 4, opts.SettleWorkers)
	assert.Equal(t, 7, opts.LookbackDays)
	assert.False(t, opts.DryRun)
	assert.Nil(t, opts.RaceDate)

	withFlags(t, c, true, "2024-03-12")
	opts, err = runOptions()
	require.NoError(t, err)
	assert.True(t, opts.DryRun)
	require.NotNil(t, opts.RaceDate)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), *opts.RaceDate)
}

func TestRunOptionsConfigDryRun(t *testing.T) {
	withFlags(t, &config.Config{Reconciler: config.ReconcilerConfig{DryRun: true}}, false, "")

	opts, err := runOptions()
	require.NoError(t, err)
	assert.True(t, opts.DryRun)
}

func TestRunOptionsRejectsBadDate(t *testing.T) {
	withFlags(t, &config.Config{}, false, "12/03/2024")

	_, err := runOptions()
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"run", "serve", "resolve-track", "version"} {
		assert.True(t, names[want], want)
	}

	assert.NotNil(t, runCmd.Flags().Lookup("dry-run"))
	assert.NotNil(t, runCmd.Flags().Lookup("date"))
}
