// Command etl loads a diagnosis CSV file into the star-schema warehouse.
//
//	etl run --config configs/config.json [--report]
//	etl validate --config configs/config.json
//	etl report --config configs/config.json
//	etl probe --config configs/config.json [--rows 100]
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "diagetl/internal/storage/all"
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "etl: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "etl",
		Short:         "Chunked diagnosis CSV loader",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (JSON or YAML); default ./config.json or ./configs/config.json")

	root.AddCommand(
		newRunCmd(&cfgPath),
		newValidateCmd(&cfgPath),
		newReportCmd(&cfgPath),
		newProbeCmd(&cfgPath),
	)
	return root
}
