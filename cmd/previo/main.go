// Command previo is the operator CLI: schema migration, tenant seeding,
// offline report rendering and the local development stack.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/Previo/internal/config"
	"github.com/dharsanguruparan/Previo/internal/database"
	"github.com/dharsanguruparan/Previo/internal/repository"
)

var (
	composeFile string
	envFile     string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "previo: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "previo",
		Short:        "Previo operator CLI",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional env file read before the environment")
	cmd.PersistentFlags().StringVarP(&composeFile, "compose-file", "f", "docker-compose.yml", "Compose file to use for stack commands")
	cmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newRenderCmd(),
		newInspectCmd(),
		newStackCmd(),
		newTestCmd(),
		newRunCmd(),
	)
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			pool, err := database.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := database.EnsureSchema(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var orgID, name, userID, email string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create an organization and bind a user profile to it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			pool, err := database.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			orgs := repository.NewOrganizationRepository(pool)
			if err := orgs.EnsureOrganization(cmd.Context(), orgID, name, userID, email); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s belongs to organization %s\n", userID, orgID)
			return nil
		},
	}
	cmd.Flags().StringVar(&orgID, "org-id", "00000000-0000-4000-8000-000000000001", "Organization UUID")
	cmd.Flags().StringVar(&name, "name", "Desarrollo", "Organization name")
	cmd.Flags().StringVar(&userID, "user", "dev-user", "User ID sent in X-User-ID")
	cmd.Flags().StringVar(&email, "email", "dev@example.com", "User email")
	return cmd
}
