package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Execute runs the CLI. Ctrl-C cancels the command context, which stops any poller.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(os.Stdin, os.Stdout).ExecuteContext(ctx)
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "kibaro.yaml"
	}

	d := newDeps(in, out)
	cmd := &cobra.Command{
		Use:           "kibaro",
		Short:         "Kibaro History: quizzes, duels and rooms on the history of Guinea and Africa",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return d.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return d.close()
		},
	}
	cmd.SetIn(in)
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVar(&d.configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&d.apiURL, "api", "", "backend API base URL (overrides config)")

	cmd.AddCommand(
		newLoginCmd(d),
		newRegisterCmd(d),
		newLogoutCmd(d),
		newWhoamiCmd(d),
		newChaptersCmd(d),
		newQuizCmd(d),
		newScoresCmd(d),
		newBadgesCmd(d),
		newDuelCmd(d),
		newRoomCmd(d),
		newAdminCmd(d),
		newSyncCmd(d),
		newMigrateCmd(d),
	)
	return cmd
}
