package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobmatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/jobmatch/internal/core/services"
)

func TestRootCmd_PersistentFlags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
	}{
		{"verbose", "v"},
		{"json", ""},
		{"ephemeral", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := rootCmd.PersistentFlags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
			assert.Equal(t, "false", flag.DefValue)
		})
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"ingest", "search", "delete", "jobs", "generate", "extract", "index", "settings", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}

func withBootstrap(t *testing.T, b Bootstrap) {
	t.Helper()
	SetBootstrap(b)
	t.Cleanup(func() {
		SetBootstrap(nil)
		SetServices(&Services{})
		cleanup = nil
	})
}

func TestBootstrap_BindsServices(t *testing.T) {
	var got Options
	closed := false
	withBootstrap(t, func(_ context.Context, opts Options) (*Services, func(), error) {
		got = opts
		return &Services{
			Records:  services.NewRecordService(memory.NewRecordStore(), nil),
			Warnings: []string{"llm: not configured"},
		}, func() { closed = true }, nil
	})

	out, err := runCLI(t, "", "--ephemeral", "jobs", "list")
	require.NoError(t, err)

	assert.True(t, got.Ephemeral)
	assert.Contains(t, out, "No jobs stored.")
	require.NotNil(t, cleanup)
	cleanup()
	assert.True(t, closed)
}

func TestBootstrap_SkippedForVersion(t *testing.T) {
	called := false
	withBootstrap(t, func(_ context.Context, _ Options) (*Services, func(), error) {
		called = true
		return &Services{}, nil, nil
	})

	_, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.False(t, called)
}

func TestBootstrap_Failure(t *testing.T) {
	withBootstrap(t, func(_ context.Context, _ Options) (*Services, func(), error) {
		return nil, nil, errors.New("config file is not valid TOML")
	})

	_, err := runCLI(t, "", "jobs", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup failed")
	assert.Contains(t, err.Error(), "not valid TOML")
}

func TestNotConfigured_IncludesWarnings(t *testing.T) {
	SetServices(&Services{Warnings: []string{"embedding provider: connection refused"}})
	t.Cleanup(func() { SetServices(&Services{}) })

	_, err := runCLI(t, "", "search", "go")
	require.Error(t, err)
	assert.Equal(t, "search service not configured: embedding provider: connection refused", err.Error())
}
