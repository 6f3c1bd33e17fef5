// Command cpa loads a YAML system description (package cpa/sysdef) and runs
// the compositional performance analysis engine over it, printing a
// violation report. Deliberately thin — spec.md places a general CLI option
// registry out of scope, so this exposes exactly two verbs and leans on
// cobra for all flag parsing rather than hand-rolling any of its own.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cpa-go/cpa"
	"github.com/cpa-go/cpa/cpa/sysdef"
)

// version is set at the module level rather than via -ldflags, since this
// binary has no release pipeline of its own.
const version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cpa",
		Short: "Compositional performance analysis for distributed real-time task graphs",
	}
	root.AddCommand(analyzeCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cpa binary version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func analyzeCmd() *cobra.Command {
	var maxIterations int
	var maxWCRT int64

	cmd := &cobra.Command{
		Use:   "analyze SYSTEM.yaml",
		Short: "Analyze a YAML system description and report constraint violations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := sysdef.Load(args[0])
			if err != nil {
				return err
			}
			sys, err := sysdef.Build(doc)
			if err != nil {
				return err
			}

			var opts []cpa.Option
			if maxIterations > 0 {
				opts = append(opts, cpa.WithMaxIterations(maxIterations))
			}
			if maxWCRT > 0 {
				opts = append(opts, cpa.WithMaxWCRT(maxWCRT))
			}

			results, err := cpa.AnalyzeSystem(sys, opts...)
			if err != nil {
				return err
			}

			printResults(cmd, sys, results)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "override the dirty-set and busy-window iteration ceiling")
	cmd.Flags().Int64Var(&maxWCRT, "max-wcrt", 0, "override the per-task WCRT ceiling")
	return cmd
}

func printResults(cmd *cobra.Command, sys *cpa.System, results map[string]cpa.TaskResult) {
	out := cmd.OutOrStdout()
	for _, r := range sys.Resources {
		for _, t := range r.Tasks {
			res, ok := results[t.Name]
			if !ok {
				continue
			}
			fmt.Fprintf(out, "%s: wcrt=%d bcrt=%d max_backlog=%d\n", t.Name, res.WCRT, res.BCRT, res.MaxBacklog)
		}
		for _, f := range r.Forks {
			res, ok := results[f.Name]
			if !ok {
				continue
			}
			fmt.Fprintf(out, "%s: wcrt=%d bcrt=%d max_backlog=%d\n", f.Name, res.WCRT, res.BCRT, res.MaxBacklog)
		}
	}

	violations := cpa.CheckViolations(sys, results)
	if len(violations) == 0 {
		fmt.Fprintln(out, "no constraint violations")
		return
	}
	fmt.Fprintf(out, "%d constraint violation(s):\n", len(violations))
	for _, v := range violations {
		fmt.Fprintf(out, "  %s: observed=%.2f required=%.2f\n", v.String(), v.Observed, v.Required)
	}
}
