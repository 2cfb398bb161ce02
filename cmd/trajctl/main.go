// Command trajctl inspects, loads and exports trajectory container files.
// Grounded on avcmd/main.go's cobra root-command wiring: a root command,
// package-wide logging configured once in main, and one Init<Name>(root)
// call per subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/n0remac/robotraj/config"
)

func main() {
	root := &cobra.Command{
		Use:   "trajctl",
		Short: "Inspect and export robot trajectory container files",
	}

	var logLevel, logHandler string
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logHandler, "log-handler", "text", "log handler (text, json)")
	cobra.OnInitialize(func() {
		config.InitLogging(logLevel, logHandler)
	})

	if err := initInspect(root); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := initLoad(root); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := initToHDF5(root); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
