package cmd

import (
	"fmt"
	"os"

	"github.com/finchkv/finch/cmd/kv"
	"github.com/finchkv/finch/cmd/serve"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "finch",
		Short: "key-value server and client",
		Long: fmt.Sprintf(`finch (v%s)

A key-value store served over a framed request/response protocol,
running on a single-node in-memory engine or replicated via RAFT
consensus for linearizability and fault tolerance.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of finch",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("finch v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
