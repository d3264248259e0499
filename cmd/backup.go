/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lgu-records/recordkeeper/internal/services"
)

var (
	backupUser string

	restoreFile string
	restoreKey  string
	restoreMode string
	restoreUser string
)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Writes a backup of every record to the configured storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := login(cmd.Context(), a, backupUser)
		if err != nil {
			return err
		}
		result, err := a.Backups.Create(cmd.Context(), user)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "backup %s written with %d records\n", result.Key, result.Info.TotalRecords)
		return nil
	},
}

// restoreCmd represents the restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restores records from a backup file or a stored backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (restoreFile == "") == (restoreKey == "") {
			return fmt.Errorf("exactly one of --file or --key is required")
		}
		mode, err := services.ParseLoadMode(restoreMode, services.ModeReplace)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := login(cmd.Context(), a, restoreUser)
		if err != nil {
			return err
		}

		var result services.RestoreResult
		if restoreKey != "" {
			result, err = a.Backups.RestoreKey(cmd.Context(), user, restoreKey, mode)
		} else {
			f, openErr := os.Open(restoreFile)
			if openErr != nil {
				return openErr
			}
			defer f.Close()
			result, err = a.Backups.Restore(cmd.Context(), user, f, mode)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: restored %d, skipped %d\n", result.Mode, result.Restored, result.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)

	backupCmd.Flags().StringVar(&backupUser, "user", "", "username to act as")
	_ = backupCmd.MarkFlagRequired("user")

	restoreCmd.Flags().StringVar(&restoreFile, "file", "", "backup document on disk")
	restoreCmd.Flags().StringVar(&restoreKey, "key", "", "name of a stored backup")
	restoreCmd.Flags().StringVar(&restoreMode, "mode", "replace", "replace or append")
	restoreCmd.Flags().StringVar(&restoreUser, "user", "", "username to act as")
	_ = restoreCmd.MarkFlagRequired("user")
}
