package main

import (
	"fmt"
	"strings"
	"time"

	"f1-pitwall/internal/core/auth"
	"f1-pitwall/internal/shared/logs"

	"github.com/spf13/cobra"
)

func newFetchCmd(opts *options) *cobra.Command {
	var top3 bool
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch schedules and rosters into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validateYears(); err != nil {
				return err
			}
			service, closeFn, err := opts.openService()
			if err != nil {
				return err
			}
			defer closeFn()

			for _, year := range opts.years {
				weekends, err := service.FetchSeason(cmd.Context(), year, top3)
				if err != nil {
					return fmt.Errorf("fetch %d: %w", year, err)
				}
				if _, err := service.SeasonDrivers(cmd.Context(), year); err != nil {
					logs.Warn("season roster unavailable", "year", year, "error", err)
				}
				fmt.Fprintf(opts.out, "%d: %d race weekends\n", year, len(weekends))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&top3, "top3", false, "include the top three finishers of every session")
	return cmd
}

func newProcessCmd(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Build standings, tyre and teammate documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validateYears(); err != nil {
				return err
			}
			service, closeFn, err := opts.openService()
			if err != nil {
				return err
			}
			defer closeFn()

			for _, year := range opts.years {
				start := time.Now()
				if err := service.Process(cmd.Context(), year, force); err != nil {
					return fmt.Errorf("process %d: %w", year, err)
				}
				fmt.Fprintf(opts.out, "%d: processed in %s\n", year, time.Since(start).Round(time.Millisecond))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "rebuild documents that are already cached")
	return cmd
}

func newSeasonsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seasons",
		Short: "List seasons with cached data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, closeFn, err := opts.openService()
			if err != nil {
				return err
			}
			defer closeFn()

			years, err := service.AvailableSeasons(cmd.Context())
			if err != nil {
				return err
			}
			if len(years) == 0 {
				fmt.Fprintln(opts.out, "no cached seasons")
				return nil
			}
			parts := make([]string, len(years))
			for i, y := range years {
				parts[i] = fmt.Sprint(y)
			}
			fmt.Fprintln(opts.out, strings.Join(parts, "\n"))
			return nil
		},
	}
}

func newTokenCmd(opts *options) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}
			token, err := auth.NewAuthenticator(opts.config()).IssueToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "seasonctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
