/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lgu-records/recordkeeper/internal/menu"
)

// menuCmd represents the menu command
var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Runs the interactive terminal menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		m := menu.New(menu.Services{
			Records:  a.Records,
			Users:    a.Users,
			Transfer: a.Transfer,
			Backups:  a.Backups,
		}, os.Stdin, os.Stdout)
		return m.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(menuCmd)
}
