package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsMissingRPCEndpoints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Venue.RPCEndpoints = nil
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsOddGridLevels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trading.GridLevels = 7
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsWebsocketFeedWithoutURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Venue.PriceFeedKind = "websocket"
	cfg.Venue.PriceFeedURL = ""
	assert.Error(t, cfg.Validate())
}

func TestLoad_OverridesOnlyProvidedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	partial := map[string]interface{}{
		"starting_equity": 12345.0,
		"venue": map[string]interface{}{
			"symbol":        "SOL/USDC",
			"input_mint":    "So11111111111111111111111111111111111111112",
			"output_mint":   "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			"rpc_endpoints": []string{"https://example.invalid"},
		},
	}
	data, err := json.Marshal(partial)
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 12345.0, cfg.StartingEquity)
	// untouched sections keep their defaults
	assert.Equal(t, DefaultConfig().Trading.GridLevels, cfg.Trading.GridLevels)
}
