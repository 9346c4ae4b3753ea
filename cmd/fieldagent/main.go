package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"field-agent/internal/app"
	"field-agent/internal/config"
	"field-agent/internal/logging"
	"field-agent/internal/models"
)

var (
	// Global flags
	configPath string
	userID     string
	password   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "fieldagent",
	Short: "Field collection agent",
	Long: `fieldagent keeps the customer, branch and collection lists of a field
employee on the device and serves them to the mobile UI over a loopback API.

Credentials can be given with --user/--password or FIELD_USER/FIELD_PASSWORD.`,
	SilenceUsage: true,
}

// serveCmd runs the local API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local API on 127.0.0.1",
	Long: `Starts the loopback HTTP API used by the mobile UI.

If credentials are given the session is opened before the server starts;
otherwise the UI signs in through POST /api/session/login.`,
	RunE: runServe,
}

// refreshCmd refetches both reference lists
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refetch customers and branches",
	RunE:  runRefresh,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Config file")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "Employee user id (or set FIELD_USER env)")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "Employee password (or set FIELD_PASSWORD env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(collectionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// setup loads config, builds the logger and wires the agent
func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	opts := logging.Options{Level: cfg.Logging.Level, JSON: cfg.Logging.JSON}
	if verbose {
		opts.Level = "debug"
	}
	logger, err := logging.New(opts)
	if err != nil {
		return nil, err
	}
	for _, note := range cfg.Notes() {
		logger.Info(note)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, err
	}
	return a, nil
}

func credentials() (string, string) {
	user, pass := userID, password
	if user == "" {
		user = os.Getenv("FIELD_USER")
	}
	if pass == "" {
		pass = os.Getenv("FIELD_PASSWORD")
	}
	return user, pass
}

// login opens the session from flags or env. required=false tolerates
// missing credentials.
func login(ctx context.Context, a *app.App, required bool) error {
	user, pass := credentials()
	if user == "" || pass == "" {
		if required {
			return fmt.Errorf("credentials required: pass --user and --password")
		}
		return nil
	}
	session, err := a.Session.Login(ctx, &models.LoginRequest{UserID: user, Password: pass})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	a.Logger.Info("signed in", zap.String("user_id", session.UserID), zap.String("name", session.Name))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.Logger.Sync()

	if err := login(ctx, a, false); err != nil {
		a.Logger.Warn("starting without a session", zap.Error(err))
	}
	return a.Serve(ctx)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.Logger.Sync()

	if err := login(ctx, a, true); err != nil {
		return err
	}

	result, err := a.References.RefreshAll(ctx)
	if result != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "customers: %d (%s)\nbranches:  %d (%s)\n",
			result.Customers, result.CustomerSource, result.Branches, result.BranchSource)
	}
	return err
}
