package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/pgmermaid"
	"github.com/tordrt/pgmermaid/internal/export"
	"github.com/tordrt/pgmermaid/internal/formatter"
)

func (a *app) newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [input]",
		Short: "Print a summary of the tables in a dump or database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			opts, err := a.renderOptions(cmd, cfg)
			if err != nil {
				return err
			}

			db, err := a.loadDatabase(cmd.Context(), args)
			if err != nil {
				return err
			}
			a.suggestTables(db, opts)

			_, err = fmt.Fprint(a.stdout, formatter.Summary(db, opts))
			return err
		},
	}
}

func newCheckDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-deps",
		Short: "Report which image export methods are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, dep := range export.CheckDependencies() {
				status := "✗ not found"
				if dep.Available {
					status = "✓ available"
				}
				fmt.Fprintf(out, "%-20s %s\n", dep.Name, status)
			}

			methods := export.AvailableMethods()
			if methods[0] != export.MethodLocal {
				fmt.Fprintln(out, "\nInstall mermaid-cli for offline export: npm install -g @mermaid-js/mermaid-cli")
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pgmermaid %s\n", pgmermaid.Version)
		},
	}
}
