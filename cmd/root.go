package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "social-auth",
	Short: "Social network authentication service",
	Long:  `An authentication service for a social network: sign-up with email confirmation, login with per-device sessions, refresh token rotation and password recovery over HTTP.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
