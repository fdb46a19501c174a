/*
Copyright © 2015-2022 Leo Antunes <leo@costela.net>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/costela/bpstrong"
	"github.com/costela/bpstrong/colpool"
	"github.com/costela/bpstrong/glpk"
	"github.com/costela/bpstrong/lpsolve"
	"github.com/costela/bpstrong/relax"
)

type options struct {
	configPath string
	modelPath  string
	backend    string
	rule       string
	verbose    bool
	nodeLimit  int
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "bpstrong",
		Short:         "Strong branching for branch-and-price",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.modelPath, "model", "m", "", "YAML model file")
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML strong branching configuration")
	flags.StringVar(&opts.backend, "backend", "gonum", "LP backend: gonum, lpsolve or glpk")
	flags.StringVar(&opts.rule, "rule", "original", "branching rule: original or ryanfoster")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log selection details to stderr")
	_ = root.MarkPersistentFlagRequired("model")

	selectCmd := &cobra.Command{
		Use:   "select",
		Short: "Solve the root node and print the branching decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSelect(cmd, opts)
		},
	}

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Run branch-and-bound with strong branching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSolve(cmd, opts)
		},
	}
	solveCmd.Flags().IntVar(&opts.nodeLimit, "node-limit", 0, "stop after this many nodes (0: no limit)")

	root.AddCommand(selectCmd, solveCmd)
	return root
}

func (o *options) solver() (*colpool.Solver, *colpool.Model, error) {
	f, err := os.Open(o.modelPath)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	model, err := colpool.LoadModel(f)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", o.modelPath, err)
	}

	cfg := bpstrong.DefaultConfig()
	if o.configPath != "" {
		cf, err := os.Open(o.configPath)
		if err != nil {
			return nil, nil, err
		}
		defer cf.Close()

		if cfg, err = bpstrong.LoadConfig(cf); err != nil {
			return nil, nil, fmt.Errorf("loading %s: %w", o.configPath, err)
		}
	}

	var rule bpstrong.Rule
	switch o.rule {
	case "original":
		rule = bpstrong.RuleOriginal
	case "ryanfoster":
		rule = bpstrong.RuleRyanFoster
	default:
		return nil, nil, fmt.Errorf("unknown rule %q", o.rule)
	}

	copts := []colpool.Option{colpool.WithConfig(cfg), colpool.WithRule(rule), colpool.WithNodeLimit(o.nodeLimit)}

	var backend relax.Backend
	var logger bpstrong.Logger = nopLogger{}
	if o.verbose {
		logger = slog.NewLogLogger(slog.NewTextHandler(os.Stderr, nil), slog.LevelInfo)
	}
	copts = append(copts, colpool.WithLogger(logger))

	switch o.backend {
	case "gonum":
		backend = relax.Gonum{}
	case "lpsolve":
		if backend, err = lpsolve.New(lpsolve.WithLogger(logger)); err != nil {
			return nil, nil, err
		}
	case "glpk":
		backend = glpk.Solver{Verbose: o.verbose}
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", o.backend)
	}
	copts = append(copts, colpool.WithBackend(backend))

	s, err := colpool.NewSolver(model, copts...)
	if err != nil {
		return nil, nil, err
	}
	return s, model, nil
}

func runSelect(cmd *cobra.Command, opts *options) error {
	s, _, err := opts.solver()
	if err != nil {
		return err
	}

	dec, err := s.SelectRoot(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "result:    %s\n", dec.Result)
	if dec.Result == bpstrong.ResultBranched {
		fmt.Fprintf(out, "candidate: %s\n", dec.Candidate)
		fmt.Fprintf(out, "score:     %.6g\n", dec.Score)
	}
	if dec.DownInfeasible || dec.UpInfeasible {
		fmt.Fprintf(out, "infeasible: down=%t up=%t\n", dec.DownInfeasible, dec.UpInfeasible)
	}
	fmt.Fprintf(out, "survivors: %d %d %d\n", dec.Survivors[0], dec.Survivors[1], dec.Survivors[2])
	if dec.Err != nil {
		fmt.Fprintf(out, "warning:   %v\n", dec.Err)
	}
	return nil
}

func runSolve(cmd *cobra.Command, opts *options) error {
	s, model, err := opts.solver()
	if err != nil {
		return err
	}

	res, err := s.Solve(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status:    %s\n", res.Status)
	fmt.Fprintf(out, "nodes:     %d\n", res.Nodes)
	if res.X == nil {
		return nil
	}
	fmt.Fprintf(out, "objective: %.6g\n", res.Objective)
	for j, v := range model.Vars {
		fmt.Fprintf(out, "  %s = %.6g\n", v.Name(), res.X[j])
	}

	results := make([]bpstrong.Result, 0, len(res.Decisions))
	for r := range res.Decisions {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for _, r := range results {
		fmt.Fprintf(out, "decisions %s: %d\n", r, res.Decisions[r])
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Print(...interface{}) {}
