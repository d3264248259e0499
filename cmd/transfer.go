/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lgu-records/recordkeeper/internal/services"
	"github.com/lgu-records/recordkeeper/internal/transfer"
)

var (
	exportFormat string
	exportOut    string
	exportUser   string

	importFile string
	importMode string
	importUser string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Writes every record to an xlsx, csv, json or xml file",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := transfer.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := login(cmd.Context(), a, exportUser)
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = a.Transfer.ExportFilename(format)
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if _, err := a.Transfer.Export(cmd.Context(), user, format, f); err != nil {
			f.Close()
			os.Remove(out)
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported records to %s\n", out)
		return nil
	},
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Loads records from an xlsx, csv, json or xml file",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := services.ParseLoadMode(importMode, services.ModeAppend)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := login(cmd.Context(), a, importUser)
		if err != nil {
			return err
		}

		f, err := os.Open(importFile)
		if err != nil {
			return err
		}
		defer f.Close()

		result, err := a.Transfer.Import(cmd.Context(), user, f, importFile, mode)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: imported %d, skipped %d, total %d\n",
			result.Mode, result.Imported, result.Skipped, result.Total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "output format: xlsx, csv, json or xml")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default records_export_<timestamp>.<ext>)")
	exportCmd.Flags().StringVar(&exportUser, "user", "", "username to act as")
	_ = exportCmd.MarkFlagRequired("user")

	importCmd.Flags().StringVar(&importFile, "file", "", "file to import")
	importCmd.Flags().StringVar(&importMode, "mode", "append", "append or replace")
	importCmd.Flags().StringVar(&importUser, "user", "", "username to act as")
	_ = importCmd.MarkFlagRequired("file")
	_ = importCmd.MarkFlagRequired("user")
}
