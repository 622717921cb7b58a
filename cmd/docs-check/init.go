package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/docscheck/config"
	"github.com/c360studio/docscheck/errs"
	"github.com/c360studio/docscheck/processor/ast"
)

func initCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ProjectConfigFiles[0]
			if len(args) == 1 {
				path = args[0]
			}

			// Never overwrite an existing config
			if _, err := os.Stat(path); err == nil {
				return errs.WithHint(errs.Configf("%s already exists", path),
					"edit the existing file or pass another path")
			}

			if err := config.DefaultConfig(ast.DefaultRegistry.ListExtensions()...).SaveToFile(path); err != nil {
				return errs.WrapConfig(err, path)
			}
			fmt.Fprintf(stdout, "Created %s\n", path)
			return nil
		},
	}
}
