package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"twinchat/twinchat/app"
	"twinchat/twinchat/config"
	"twinchat/twinchat/controllers"
	"twinchat/twinchat/utils/color"
	"twinchat/twinchat/utils/jsonutils"
	"twinchat/twinchat/utils/logging"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := config.LoadConfig()
	var noColor bool

	rootCmd := &cobra.Command{
		Use:           "twinchat",
		Short:         "Chat with agents built from Telegram channels",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.Disable()
			}
			logging.InitLogger(cfg.LogDir)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "Backend base URL")
	rootCmd.PersistentFlags().StringVar(&cfg.UserID, "user", cfg.UserID, "Backend user id to act as")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(newServeCmd(&cfg))
	rootCmd.AddCommand(newLoginCmd(&cfg))
	rootCmd.AddCommand(newAgentsCmd(&cfg))
	rootCmd.AddCommand(newChatCmd(&cfg))
	return rootCmd
}

func buildApp(ctx context.Context, cfg *config.Config) (*app.App, error) {
	return app.New(ctx, *cfg, logging.Default())
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.Info("listening on "+cfg.ListenAddr))
			return a.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "Address to listen on")
	return cmd
}

func newLoginCmd(cfg *config.Config) *cobra.Command {
	var telegramID, username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Create or fetch the backend user for a Telegram account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			user, err := a.Auth.TelegramLogin(cmd.Context(), telegramID, username)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), jsonutils.ToJSON(user))
			fmt.Fprintln(cmd.ErrOrStderr(), color.Info("use --user "+user.ID+" or TWINCHAT_USER_ID="+user.ID))
			return nil
		},
	}
	cmd.Flags().StringVar(&telegramID, "telegram-id", "", "Telegram account id")
	cmd.Flags().StringVar(&username, "username", "", "Telegram username")
	return cmd
}

func newAgentsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Manage agents",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgents(cmd, cfg, func(ctx context.Context, agents *controllers.AgentController) (any, error) {
				return agents.List(ctx)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get [AGENT_ID]",
		Short: "Show one agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgents(cmd, cfg, func(ctx context.Context, agents *controllers.AgentController) (any, error) {
				return agents.Get(ctx, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete [AGENT_ID]",
		Short: "Delete an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgents(cmd, cfg, func(ctx context.Context, agents *controllers.AgentController) (any, error) {
				return agents.Delete(ctx, args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "create [CHANNEL_LINK]",
		Short: "Create an agent from a Telegram channel",
		Long: `Fetch the channel's metadata and photo, then create an agent from it.
Example: twinchat agents create https://t.me/startup_daily --user <id>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.ErrOrStderr(), color.Info("fetching channel info for "+args[0]))
			return withAgents(cmd, cfg, func(ctx context.Context, agents *controllers.AgentController) (any, error) {
				created, err := agents.Create(ctx, controllers.CreateAgentInput{ChannelLink: args[0], OwnerID: cfg.UserID})
				if err == nil {
					fmt.Fprintln(cmd.ErrOrStderr(), color.Success("agent "+created.ID+" created"))
				}
				return created, err
			})
		},
	})
	return cmd
}

// withAgents runs fn against a fresh app and prints its result as JSON.
func withAgents(cmd *cobra.Command, cfg *config.Config, fn func(context.Context, *controllers.AgentController) (any, error)) error {
	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	res, err := fn(cmd.Context(), a.Agents)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), jsonutils.ToJSON(res))
	return nil
}

func newChatCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [AGENT_ID]",
		Short: "Open an interactive chat with an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			return runChat(ctx, a.Chat, args[0], cfg.UserID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
