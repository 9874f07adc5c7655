package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nuulab/flowengine/internal/dsl"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <file.dot>...",
	Short: "Parse one or more graph files, merge them, and execute",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var merged *dsl.Graph
		for _, path := range args {
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			g, err := dsl.Parse(string(src))
			if err != nil {
				fail(fmt.Sprintf("%s: %v", path, err))
				return err
			}
			if merged == nil {
				merged = g
			} else {
				merged = dsl.Merge(merged, g)
			}
		}

		info(fmt.Sprintf("running %d node(s), %d edge(s) on %d root(s)",
			len(merged.Nodes), len(merged.Edges), len(merged.Roots())))

		runner := dsl.NewRunner(merged, viper.GetInt("threads"))
		defer runner.Close()

		results := runner.ExecuteAll()
		for i, r := range results {
			var pretty map[string]any
			if err := json.Unmarshal(r.Doc, &pretty); err == nil {
				out, _ := json.MarshalIndent(pretty, "", "  ")
				fmt.Printf("root %d:\n%s\n", i, out)
			} else {
				fmt.Printf("root %d: %s\n", i, r.Doc)
			}
		}

		success("execution complete")
		return nil
	},
}
