package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vagahub/engine/internal/config"
	"github.com/vagahub/engine/internal/fetch"
)

func TestBuildSourcesBudgetsAndSkips(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	client := fetch.New(fetch.Config{}, logger)

	cfg := config.Config{Sources: []config.SourceConfig{
		{Name: "board", Vendor: "vagas", BaseURL: "https://example.com", Enabled: true, MaxItemsPerRun: 3, MaxDetailFetch: 2},
		{Name: "paused", Vendor: "gupy", BaseURL: "https://portal.example.com", Enabled: false},
		{Name: "", Vendor: "jsonld", BaseURL: "https://broken.example.com", Enabled: true},
	}}

	targets := buildSources(cfg, client, logger)

	require.Len(t, targets, 1)
	assert.Equal(t, "board", targets[0].Source.Name())
	assert.Equal(t, 3, targets[0].Options.MaxItems)
	assert.Equal(t, 2, targets[0].Options.MaxDetailFetch)

	disabled := logs.FilterMessage("source disabled").All()
	require.Len(t, disabled, 1)
	assert.Equal(t, "paused", disabled[0].ContextMap()["source"])

	skipped := logs.FilterMessage("skipping misconfigured source").All()
	assert.Len(t, skipped, 1)
}
