package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/healthaudit/internal/benchmark"
	"github.com/spf13/cobra"
)

func newDomainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "domains",
		Short: "List built-in audit domains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDomains(cmd.OutOrStdout())
		},
	}
}

func listDomains(w io.Writer) error {
	names, err := benchmark.List()
	if err != nil {
		return err
	}
	for _, n := range names {
		d, err := benchmark.LoadBuiltin(n)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-10s %d categories  %s\n", d.Name, len(d.Categories), strings.TrimSpace(d.Description))
	}
	return nil
}
