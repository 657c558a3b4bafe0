package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/snyk-batch-client/pkg/filter"
	"github.com/Sternrassler/snyk-batch-client/pkg/snyk"
)

func TestSelectTypes_Presets(t *testing.T) {
	tests := []struct {
		name     string
		flags    cliFlags
		expected []string
	}{
		{name: "all types", flags: cliFlags{allTypes: true}, expected: filter.All()},
		{name: "sca preset", flags: cliFlags{sca: true}, expected: filter.OpenSource()},
		{name: "iac preset", flags: cliFlags{iac: true}, expected: filter.IaC()},
		{name: "container preset", flags: cliFlags{container: true}, expected: filter.Container()},
		{name: "no filter", flags: cliFlags{}, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types, rejected := selectTypes(tt.flags, zerolog.Nop())
			assert.Equal(t, tt.expected, types)
			assert.Nil(t, rejected)
		})
	}
}

func TestSelectTypes_ExplicitList(t *testing.T) {
	types, rejected := selectTypes(cliFlags{types: "npm, cargo, maven"}, zerolog.Nop())

	assert.Equal(t, []string{"npm", "maven"}, types)
	assert.Equal(t, []string{"cargo"}, rejected)
}

func TestSelectTypes_AllInvalidFallsBackToUnfiltered(t *testing.T) {
	types, rejected := selectTypes(cliFlags{types: "cargo"}, zerolog.Nop())

	assert.Empty(t, types)
	assert.Equal(t, []string{"cargo"}, rejected)
}

func TestPresetFlagsAreMutuallyExclusive(t *testing.T) {
	t.Cleanup(func() { rootFlags = cliFlags{} })

	cmd := *rootCmd
	cmd.RunE = func(*cobra.Command, []string) error { return nil }
	cmd.SetArgs([]string{"--org", "org-1", "--frequency", "weekly", "--sca", "--iac"})
	cmd.SetErr(&nopWriter{})
	cmd.SetOut(&nopWriter{})

	// The group check rejects the combination before RunE executes.
	err := cmd.Execute()
	require.Error(t, err)
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestBuildConfig(t *testing.T) {
	t.Run("valid flags", func(t *testing.T) {
		cfg, err := buildConfig(cliFlags{
			orgID:     "org-1",
			token:     "flag-token",
			frequency: "weekly",
			types:     "npm",
		}, zerolog.Nop())
		require.NoError(t, err)

		assert.Equal(t, "org-1", cfg.OrgID)
		assert.Equal(t, "flag-token", cfg.Token)
		assert.Equal(t, snyk.FrequencyWeekly, cfg.Frequency)
		assert.Equal(t, []string{"npm"}, cfg.Types)
	})

	t.Run("token falls back to environment", func(t *testing.T) {
		t.Setenv("SNYK_TOKEN", "env-token")

		cfg, err := buildConfig(cliFlags{
			orgID:     "org-1",
			frequency: "daily",
		}, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, "env-token", cfg.Token)
	})

	t.Run("missing token is a configuration error", func(t *testing.T) {
		t.Setenv("SNYK_TOKEN", "")

		_, err := buildConfig(cliFlags{
			orgID:     "org-1",
			frequency: "weekly",
		}, zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("invalid frequency is a configuration error", func(t *testing.T) {
		_, err := buildConfig(cliFlags{
			orgID:     "org-1",
			token:     "tok",
			frequency: "hourly",
		}, zerolog.Nop())
		assert.Error(t, err)
	})
}
