package main

import (
	"fmt"

	"github.com/averycross/waygate"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of waygate",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("waygate version %s\n", waygate.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
