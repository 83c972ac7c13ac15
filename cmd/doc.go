// Package cmd implements the command-line interface for the finch key-value
// store. It provides a hierarchical command structure with operations for
// running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value operations (get, set, multiget, etc.) and benchmarking
//   - serve: Commands for starting and configuring the finch server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See finch -help for a list of all commands.
package cmd
