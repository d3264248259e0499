/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lgu-records/recordkeeper/config"
	"github.com/lgu-records/recordkeeper/internal/app"
	"github.com/lgu-records/recordkeeper/internal/logging"
	"github.com/lgu-records/recordkeeper/types"
)

// passwordEnv lets scripted runs of the one-shot commands skip the prompt.
const passwordEnv = "RECORDKEEPER_PASSWORD"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "recordkeeper",
	Short: "Document record keeping for the mayor's office",
	Long: `recordkeeper tracks documents routed between offices: who sent them,
where they went and whether they have been handled. Records can be managed
from the terminal menu or over the HTTP API, exported, imported and backed up.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openApp loads configuration and builds the application.
func openApp(ctx context.Context) (*app.App, error) {
	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel, os.Stderr)
	return app.New(ctx, cfg, logger)
}

// login authenticates username for a one-shot command. The password comes
// from RECORDKEEPER_PASSWORD or an echo-free terminal prompt.
func login(ctx context.Context, a *app.App, username string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return types.User{}, fmt.Errorf("--user is required")
	}

	password, ok := os.LookupEnv(passwordEnv)
	if !ok {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return types.User{}, fmt.Errorf("no terminal to read the password from; set %s", passwordEnv)
		}
		fmt.Fprintf(os.Stderr, "Password for %s: ", username)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return types.User{}, err
		}
		password = string(raw)
	}

	return a.Users.Authenticate(ctx, username, password)
}
