package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/travelagency/config"
	"github.com/Domenick1991/travelagency/internal/auth"
	"github.com/Domenick1991/travelagency/internal/cache"
	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/logger"
	"github.com/Domenick1991/travelagency/internal/repository"
	"github.com/Domenick1991/travelagency/internal/service/pricing"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "agencyctl",
		Short:         "Operator tool for the travel agency backend",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", envOr("CONFIG_PATH", "config.yaml"), "path to config file")

	load := func() (*config.Config, error) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		logger.Setup(os.Stderr, cfg.Log.Level, "agencyctl")
		return cfg, nil
	}

	root.AddCommand(newMigrateCmd(load), newResolveCmd(load), newTokenCmd(load), newKindsCmd(), newCacheCmd(load))
	return root
}

type loader func() (*config.Config, error)

func newMigrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			pool, err := pgxpool.New(cmd.Context(), cfg.Database.DSN())
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repository.Migrate(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func newResolveCmd(load loader) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "resolve <kind> <facet>...",
		Short: "Resolve the price code for a full facet tuple",
		Example: `  agencyctl resolve airport 픽업 공항-하노이 7인승
  agencyctl resolve room 2N3D Ambassador Suite card --date 2025-07-01`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var day *time.Time
			if date != "" {
				t, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
				day = &t
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			pool, err := pgxpool.New(cmd.Context(), cfg.Database.DSN())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := pricing.NewPricingService(repository.NewPriceRepository(pool), nil)
			res, err := svc.Resolve(cmd.Context(), domain.Kind(args[0]), args[1:], day)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "usage date (YYYY-MM-DD) for date-bound kinds")
	return cmd
}

func newTokenCmd(load loader) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			token, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List service kinds with their facet order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, spec := range domain.Kinds() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-8s %v\n", spec.Kind, spec.ReservationType, spec.Facets)
			}
			return nil
		},
	}
}

func newCacheCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the price option cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "invalidate <kind>...",
		Short:   "Drop cached facet options after a price table change",
		Example: "  agencyctl cache invalidate room hotel",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := make([]domain.Kind, 0, len(args))
			for _, a := range args {
				if _, err := domain.Spec(domain.Kind(a)); err != nil {
					return err
				}
				kinds = append(kinds, domain.Kind(a))
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			redisCache := cache.NewRedisCache(cfg.Redis, 0)
			defer redisCache.Close()

			for _, k := range kinds {
				if err := redisCache.InvalidateOptions(cmd.Context(), k); err != nil {
					return fmt.Errorf("invalidate %s: %w", k, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s options dropped\n", k)
			}
			return nil
		},
	})
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
