package main

import (
	"fmt"
	"io"
	"strings"

	"ninebox/domain/orgchart"
	"ninebox/internal/orggraph"

	"github.com/spf13/cobra"
)

func newOrgCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Query the reporting hierarchy",
	}

	var minTeamSize int
	managers := &cobra.Command{
		Use:   "managers",
		Short: "List managers by total team size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.graph(cmd)
			if err != nil {
				return err
			}
			list := g.FindManagers(minTeamSize)
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			w := cmd.OutOrStdout()
			for _, m := range list {
				marker := ""
				if !m.Resolved {
					marker = " (not in roster)"
				}
				fmt.Fprintf(w, "%-30s team %4d  direct %3d%s\n", m.Name, m.TeamSize, m.DirectReports, marker)
			}
			return nil
		},
	}
	managers.Flags().IntVar(&minTeamSize, "min-team-size", 1, "Minimum total team size")

	reports := &cobra.Command{
		Use:   "reports NAME",
		Short: "List every direct and indirect report of a manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.graph(cmd)
			if err != nil {
				return err
			}
			t := g.Traverse(args[0])
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), t)
			}
			w := cmd.OutOrStdout()
			for _, r := range t.Reports {
				fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.Name, r.Manager)
			}
			for _, c := range t.Cycles {
				fmt.Fprintf(w, "cycle: %s\n", strings.Join(c, " -> "))
			}
			return nil
		},
	}

	chain := &cobra.Command{
		Use:   "chain NAME",
		Short: "Print the reporting chain above an employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.graph(cmd)
			if err != nil {
				return err
			}
			names, err := g.ReportingChain(args[0])
			if err != nil {
				return err
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), names)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(append([]string{args[0]}, names...), " -> "))
			return nil
		},
	}

	tree := &cobra.Command{
		Use:   "tree [NAME]",
		Short: "Print the org chart below an employee, or the whole forest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.graph(cmd)
			if err != nil {
				return err
			}
			var roots []*orgchart.TreeNode
			if len(args) == 1 {
				root, err := g.Subtree(args[0])
				if err != nil {
					return err
				}
				roots = []*orgchart.TreeNode{root}
			} else {
				roots = g.Forest()
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), roots)
			}
			for _, r := range roots {
				printTree(cmd.OutOrStdout(), r, 0)
			}
			return nil
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Report cycles, dangling managers, self-management and duplicate names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := opts.graph(cmd)
			if err != nil {
				return err
			}
			result := g.ValidateStructure()
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			w := cmd.OutOrStdout()
			if result.Valid {
				fmt.Fprintln(w, "org structure is valid")
				return nil
			}
			for _, warning := range result.Warnings {
				fmt.Fprintf(w, "[%s] %s\n", warning.Kind, warning.Message)
			}
			return nil
		},
	}

	cmd.AddCommand(managers, reports, chain, tree, validate)
	return cmd
}

func (o *options) graph(cmd *cobra.Command) (*orggraph.Service, error) {
	pop, err := o.loadPopulation(cmd.Context())
	if err != nil {
		return nil, err
	}
	return orggraph.NewFromPopulation(pop), nil
}

func printTree(w io.Writer, n *orgchart.TreeNode, depth int) {
	suffix := ""
	if n.Truncated {
		suffix = " [cycle truncated]"
	}
	fmt.Fprintf(w, "%s%s (%d)%s\n", strings.Repeat("  ", depth), n.Name, n.TeamSize, suffix)
	for _, c := range n.Children {
		printTree(w, c, depth+1)
	}
}
