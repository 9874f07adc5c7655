// Package cmd provides the CLI commands for flowctl.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "flowctl",
	Short: "flowctl - status-directed graph execution engine",
	Long: `
  _____ _             _____            _
 |  ___| | _____      __|  ___|_ __   __ _(_)_ __   ___
 | |_  | |/ _ \ \ /\ / /| |_ | '_ \ / _` + "`" + ` | | '_ \ / _ \
 |  _| | | (_) \ V  V / |  _|| | | | (_| | | | | |  __/
 |_|   |_|\___/ \_/\_/  |_|  |_| |_|\__, |_|_| |_|\___|
                                    |___/

flowctl parses a digraph DSL into an execution graph and runs it on a
worker pool, dispatching each node's job and following the edge its
status selects.

Run 'flowctl help <command>' for details on any command.
`,
	Version: "0.1.0",
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./flowengine.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Int("threads", 0, "worker pool size (0 = number of CPUs)")

	viper.BindPFlag("threads", rootCmd.PersistentFlags().Lookup("threads"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("flowengine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.flowengine")
	}

	viper.SetEnvPrefix("FLOWENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Println("Using config:", viper.ConfigFileUsed())
	}
}

func green(s string) string { return "\033[32m" + s + "\033[0m" }
func red(s string) string   { return "\033[31m" + s + "\033[0m" }
func cyan(s string) string  { return "\033[36m" + s + "\033[0m" }
func bold(s string) string  { return "\033[1m" + s + "\033[0m" }

func success(msg string) { fmt.Println(green("✓ ") + msg) }
func fail(msg string)    { fmt.Fprintln(os.Stderr, red("✗ ")+msg) }
func info(msg string)    { fmt.Println(cyan("ℹ ") + msg) }
