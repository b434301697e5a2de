// Command cmd/marine is the CLI front end for the FaaS runtime: it
// loads a TOML service configuration, then either drops into an
// interactive REPL or runs a single call/introspection command and
// exits, mirroring the root-command-plus-subcommands shape of OPA's
// own cmd package.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// RootCommand is the base CLI command every subcommand below attaches
// to.
var RootCommand = &cobra.Command{
	Use:   "marine",
	Short: "Run WebAssembly modules behind a closed interface-types ABI",
	Long:  "marine loads one or more WebAssembly modules described by a TOML service configuration and calls into them through the interface-types lift/lower protocol.",
}

var (
	configFlag  string
	verboseFlag bool
)

func init() {
	RootCommand.PersistentFlags().StringVarP(&configFlag, "config", "c", "service.toml", "path to the service TOML configuration")
	RootCommand.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	RootCommand.AddCommand(runCommand)
	RootCommand.AddCommand(callCommand)
	RootCommand.AddCommand(interfaceCommand)
	RootCommand.AddCommand(memoryStatsCommand)
}

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Load the configured modules and start an interactive REPL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, _, err := buildService(ctx, configFlag, verboseFlag)
		if err != nil {
			return err
		}
		NewRepl(svc).Loop()
		return nil
	},
}

var callCommand = &cobra.Command{
	Use:   "call <module> <function> [args...]",
	Short: "Call one exported function and print its result",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, _, err := buildService(ctx, configFlag, verboseFlag)
		if err != nil {
			return err
		}
		return runCall(ctx, svc, args[0], args[1], args[2:])
	},
}

var interfaceCommand = &cobra.Command{
	Use:   "interface",
	Short: "Print every loaded module's exported functions and record types",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, _, err := buildService(ctx, configFlag, verboseFlag)
		if err != nil {
			return err
		}
		printInterface(svc)
		return nil
	},
}

var memoryStatsCommand = &cobra.Command{
	Use:   "memory-stats",
	Short: "Print each loaded module's linear memory size and allocation rejects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		svc, _, err := buildService(ctx, configFlag, verboseFlag)
		if err != nil {
			return err
		}
		fmt.Print(svc.ModuleMemoryStats().String())
		return nil
	},
}
