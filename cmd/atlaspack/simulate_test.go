package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simConfig() packConfig {
	c := defaultPackConfig()
	c.Atlas.Size = 256
	c.Atlas.MinRegionSize = 4
	c.Simulate.Steps = 2000
	c.Simulate.Seed = 11
	c.Simulate.FreeRatio = 0.3
	c.Simulate.MaxSize = 32
	return c
}

func TestRunSimulate(t *testing.T) {
	res, err := runSimulate(simConfig())
	require.NoError(t, err)

	assert.Equal(t, 2000, res.Allocs+res.Failed+res.Frees)
	assert.Equal(t, res.Allocs-res.Frees, res.Live)
	assert.Equal(t, res.Live, res.Stats.Leases)
	assert.LessOrEqual(t, res.Stats.Utilization, 1.0)
	assert.GreaterOrEqual(t, res.PeakLive, res.Live)
	assert.Positive(t, res.AvgScan)

	again, err := runSimulate(simConfig())
	require.NoError(t, err)
	assert.Equal(t, res, again, "same seed must give the same run")

	var buf bytes.Buffer
	res.print(&buf)
	assert.Contains(t, buf.String(), "Atlas 256x256")
	assert.Contains(t, buf.String(), "scan steps")
}

func TestRunSimulate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*packConfig)
	}{
		{"negative steps", func(c *packConfig) { c.Simulate.Steps = -1 }},
		{"free ratio", func(c *packConfig) { c.Simulate.FreeRatio = 1.5 }},
		{"size", func(c *packConfig) { c.Atlas.Size = 100 }},
		{"max size", func(c *packConfig) { c.Simulate.MaxSize = 3 }},
		{"max below min", func(c *packConfig) { c.Simulate.MaxSize = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := simConfig()
			tt.modify(&c)
			_, err := runSimulate(c)
			assert.Error(t, err)
		})
	}
}
