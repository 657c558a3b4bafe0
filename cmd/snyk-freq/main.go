// Command snyk-freq bulk-updates the test frequency of every project in
// a Snyk organization, optionally filtered by project type.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/snyk-batch-client/pkg/config"
	"github.com/Sternrassler/snyk-batch-client/pkg/dispatcher"
	"github.com/Sternrassler/snyk-batch-client/pkg/fetcher"
	"github.com/Sternrassler/snyk-batch-client/pkg/filter"
	"github.com/Sternrassler/snyk-batch-client/pkg/logging"
	"github.com/Sternrassler/snyk-batch-client/pkg/ratelimit"
	"github.com/Sternrassler/snyk-batch-client/pkg/snyk"
)

type cliFlags struct {
	orgID     string
	token     string
	frequency string

	types     string
	allTypes  bool
	sca       bool
	iac       bool
	container bool

	overridesPath string
	maxRetries    int

	logLevel string
	pretty   bool
}

var rootFlags cliFlags

var rootCmd = &cobra.Command{
	Use:   "snyk-freq",
	Short: "Bulk-update the test frequency of Snyk projects",
	Long: `snyk-freq lists every project in a Snyk organization and sets the
test frequency attribute (daily, weekly, never) on each of them.

Note: SAST and IaC projects can only be set to weekly or never; the
server rejects daily for those types.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&rootFlags.orgID, "org", "", "Snyk organization ID (required)")
	f.StringVar(&rootFlags.token, "token", "", "Snyk API token (falls back to SNYK_TOKEN)")
	f.StringVar(&rootFlags.frequency, "frequency", "", "Target test frequency: daily, weekly, never (required)")

	f.StringVar(&rootFlags.types, "types", "", "Comma-separated project types to filter by")
	f.BoolVar(&rootFlags.allTypes, "all-types", false, "Filter by all allow-listed project types")
	f.BoolVar(&rootFlags.sca, "sca", false, "Filter by open source project types")
	f.BoolVar(&rootFlags.iac, "iac", false, "Filter by IaC project types")
	f.BoolVar(&rootFlags.container, "container", false, "Filter by container project types")

	f.StringVar(&rootFlags.overridesPath, "config", "", "Optional YAML overrides file (API host, delays, page size)")
	f.IntVar(&rootFlags.maxRetries, "max-rate-limit-retries", 0, "Cap 429 retries per project (0 = unlimited)")

	f.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	f.BoolVar(&rootFlags.pretty, "pretty", false, "Human-readable log output")

	_ = rootCmd.MarkFlagRequired("org")
	_ = rootCmd.MarkFlagRequired("frequency")

	// One filter source per run. The presets are exclusive by design.
	rootCmd.MarkFlagsMutuallyExclusive("types", "all-types", "sca", "iac", "container")
}

// selectTypes resolves the filter flags into a validated type list.
// Non-allow-listed entries in --types are dropped and returned for
// reporting; they are never sent to the server.
func selectTypes(fl cliFlags, logger zerolog.Logger) (types, rejected []string) {
	switch {
	case fl.allTypes:
		logger.Info().Msg("Filtering by all allow-listed project types")
		return filter.All(), nil
	case fl.sca:
		logger.Info().Msg("Filtering by open source project types")
		return filter.OpenSource(), nil
	case fl.iac:
		logger.Info().Msg("Filtering by IaC project types")
		return filter.IaC(), nil
	case fl.container:
		logger.Info().Msg("Filtering by container project types")
		return filter.Container(), nil
	case fl.types != "":
		valid, rejected := filter.Validate(filter.ParseList(fl.types))
		if len(rejected) > 0 {
			logger.Warn().
				Strs("types", rejected).
				Msg("Ignoring invalid project types")
		}
		if len(valid) == 0 {
			logger.Warn().Msg("No valid types selected, fetching all project types")
		}
		return valid, rejected
	default:
		return nil, nil
	}
}

// buildConfig assembles and validates the run configuration from flags,
// the SNYK_TOKEN environment variable, and the optional overrides file.
func buildConfig(fl cliFlags, logger zerolog.Logger) (config.Config, error) {
	cfg := config.Default()
	cfg.OrgID = fl.orgID

	cfg.Token = fl.token
	if cfg.Token == "" {
		cfg.Token = os.Getenv("SNYK_TOKEN")
	}

	freq, err := snyk.ParseFrequency(fl.frequency)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Frequency = freq

	cfg.Types, _ = selectTypes(fl, logger)
	cfg.MaxRateLimitRetries = fl.maxRetries

	if fl.overridesPath != "" {
		overrides, err := config.LoadOverrides(fl.overridesPath)
		if err != nil {
			return config.Config{}, err
		}
		if err := cfg.Apply(overrides); err != nil {
			return config.Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, _ []string) error {
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(rootFlags.logLevel),
		Pretty: rootFlags.pretty,
		Output: os.Stderr,
	})

	cfg, err := buildConfig(rootFlags, logger)
	if err != nil {
		return err
	}

	client, err := snyk.New(snyk.Config{
		Host:    cfg.APIHost,
		Version: cfg.APIVersion,
		Token:   cfg.Token,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	pacer := ratelimit.NewPacer(cfg.RequestDelay, cfg.BackoffDelay, logger)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Fetching projects for organization %s...\n", cfg.OrgID)

	projects, err := fetcher.New(client, pacer).FetchAll(ctx, cfg.OrgID, cfg.PageLimit, cfg.Types)
	if err != nil {
		return fmt.Errorf("failed to retrieve projects: %w", err)
	}

	fmt.Fprintf(out, "Found %d matching projects.\n", len(projects))
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects to update.")
		return nil
	}

	d := dispatcher.New(client, pacer, dispatcher.Config{
		MaxRateLimitRetries: cfg.MaxRateLimitRetries,
	})

	summary, err := d.Run(ctx, cfg.OrgID, projects, cfg.Frequency)
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "--- Update Complete ---")
	fmt.Fprintf(out, "Successfully updated: %d\n", summary.Updated)
	fmt.Fprintf(out, "Failed to update:     %d\n", summary.Failed)
	fmt.Fprintf(out, "Total projects:       %d\n", summary.Total)

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
