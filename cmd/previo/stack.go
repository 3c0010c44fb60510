package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/Previo/internal/config"
)

func newStackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Manage the local Postgres, Redis and MinIO containers",
	}
	cmd.AddCommand(
		composeCmd("up [service...]", "Start the backing services in the background", "up", "-d", "--wait"),
		composeCmd("ps", "Show the state of the backing services", "ps"),
		newDownCmd(),
		newLogsCmd(),
	)
	return cmd
}

func compose(args ...string) []string {
	return append([]string{"compose", "-f", composeFile}, args...)
}

// composeCmd passes fixed compose arguments followed by the positional ones.
func composeCmd(use, short string, fixed ...string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd.Context(), nil, "docker", compose(append(fixed, args...)...)...)
		},
	}
}

func newDownCmd() *cobra.Command {
	var wipe bool
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop the backing services",
		RunE: func(cmd *cobra.Command, args []string) error {
			composeArgs := compose("down")
			if wipe {
				composeArgs = append(composeArgs, "-v")
			}
			return runCommand(cmd.Context(), nil, "docker", composeArgs...)
		},
	}
	cmd.Flags().BoolVar(&wipe, "wipe", false, "Also drop the database, Redis and bucket volumes")
	return cmd
}

func newLogsCmd() *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "logs [service...]",
		Short: "Print logs of the backing services",
		RunE: func(cmd *cobra.Command, args []string) error {
			composeArgs := compose("logs")
			if follow {
				composeArgs = append(composeArgs, "--follow")
			}
			return runCommand(cmd.Context(), nil, "docker", append(composeArgs, args...)...)
		},
	}
	cmd.Flags().BoolVar(&follow, "follow", false, "Keep streaming")
	return cmd
}

// integrationEnv points the live repository, session and storage tests at
// the configured backing services.
func integrationEnv(cfg *config.Config) []string {
	return []string{
		"PREVIO_TEST_DATABASE_URL=" + cfg.DatabaseURL,
		"PREVIO_TEST_REDIS_ADDR=" + cfg.RedisAddr,
		"PREVIO_TEST_S3_ENDPOINT=" + cfg.S3Endpoint,
	}
}

func newTestCmd() *cobra.Command {
	var integration, race bool
	cmd := &cobra.Command{
		Use:   "test [packages]",
		Short: "Run the Go tests (defaults to ./...)",
		RunE: func(cmd *cobra.Command, args []string) error {
			goArgs := []string{"test"}
			if race {
				goArgs = append(goArgs, "-race")
			}
			if len(args) == 0 {
				args = []string{"./..."}
			}
			var env []string
			if integration {
				cfg, err := config.Load(envFile)
				if err != nil {
					return err
				}
				env = integrationEnv(cfg)
				fmt.Fprintf(cmd.ErrOrStderr(), "integration against %s\n", strings.Join(env, " "))
			}
			return runCommand(cmd.Context(), env, "go", append(goArgs, args...)...)
		},
	}
	cmd.Flags().BoolVar(&integration, "integration", false, "Run the live tests against the stack from the env file")
	cmd.Flags().BoolVar(&race, "race", false, "Enable the race detector")
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the API or the archive worker from source",
	}
	for name, pkg := range map[string]string{"server": "./cmd/server", "worker": "./cmd/worker"} {
		pkg := pkg
		cmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: "go run " + pkg,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCommand(cmd.Context(), nil, "go", append([]string{"run", pkg}, args...)...)
			},
		})
	}
	return cmd
}

// runCommand runs name with the terminal attached. extraEnv is appended to
// the current environment.
func runCommand(ctx context.Context, extraEnv []string, name string, args ...string) error {
	c := exec.CommandContext(ctx, name, args...)
	c.Stdout, c.Stderr, c.Stdin = os.Stdout, os.Stderr, os.Stdin
	if len(extraEnv) > 0 {
		c.Env = append(os.Environ(), extraEnv...)
	}
	return c.Run()
}
