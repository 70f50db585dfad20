package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmcp/odata-vdm/internal/constants"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p, err := cfg.ProtocolVersion()
	require.NoError(t, err)
	assert.Equal(t, constants.ProtocolV4, p)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"v2", func(c *Config) { c.Protocol = "2.0" }, ""},
		{"yaml output", func(c *Config) { c.Output = "yaml" }, ""},
		{"recursive strategy", func(c *Config) { c.Strategy = "patch-recursive-delta" }, ""},
		{"unknown protocol", func(c *Config) { c.Protocol = "3.0" }, "invalid protocol"},
		{"unknown output", func(c *Config) { c.Output = "xml" }, "invalid output"},
		{"unknown strategy", func(c *Config) { c.Strategy = "upsert" }, "invalid strategy"},
		{"missing type", func(c *Config) { c.Type = "" }, "invalid type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFieldLists(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{}, cfg.IncludeFields())

	cfg.Include = "Id, Name,,Price "
	cfg.Exclude = "Image"
	assert.Equal(t, []string{"Id", "Name", "Price"}, cfg.IncludeFields())
	assert.Equal(t, []string{"Image"}, cfg.ExcludeFields())
}

func TestIsVerbose(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.IsVerbose())
	cfg.Debug = true
	assert.True(t, cfg.IsVerbose())
}
