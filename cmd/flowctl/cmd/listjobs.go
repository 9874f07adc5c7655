package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nuulab/flowengine/internal/registry"
)

func init() {
	rootCmd.AddCommand(listJobsCmd)
}

var listJobsCmd = &cobra.Command{
	Use:   "list-jobs",
	Short: "List every registered job name",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(bold("Registered jobs"))
		for _, name := range registry.Names() {
			fmt.Println(" ", cyan(name))
		}
	},
}
