package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lowvolt/conduitcalc/pkg/engine"
	"github.com/lowvolt/conduitcalc/pkg/fill"
	"github.com/lowvolt/conduitcalc/pkg/logging"
	"github.com/lowvolt/conduitcalc/pkg/project"
	"github.com/lowvolt/conduitcalc/pkg/status"
)

var logLevel string

func main() {
	root := &cobra.Command{
		Use:   "conduitcalc",
		Short: "Conduit and cable-tray capacity calculator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetDefaultLogger(logging.NewJSONLogger(os.Stderr, logging.ParseLevel(logLevel)))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(checkCmd())
	root.AddCommand(trunksCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadAndRecalc(path, presetID string) (*project.Project, *engine.ResultSet, error) {
	p, err := project.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if presetID != "" {
		if err := p.Rules.SetActive(presetID); err != nil {
			return nil, nil, err
		}
	}
	eng := engine.New(p.Network, p.Trunks, p.Rules, p.Catalog, engine.Config{
		Logger: logging.DefaultLogger(),
	})
	rs, err := eng.Recalculate(context.Background(), engine.ReasonProjectLoaded)
	if err != nil {
		return nil, nil, err
	}
	return p, rs, nil
}

func checkCmd() *cobra.Command {
	var presetID string
	cmd := &cobra.Command{
		Use:   "check <project.json>",
		Short: "Recalculate a project and report fill results and violations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, rs, err := loadAndRecalc(args[0], presetID)
			if err != nil {
				return err
			}

			for _, failure := range rs.RouteFailures {
				fmt.Printf("ROUTE  %-12s %s\n", failure.Circuit, failure.Err)
			}
			for _, seg := range rs.Segments {
				if seg.Err != "" {
					fmt.Printf("%-5s  %-12s %s\n", "ERROR", seg.Segment, seg.Err)
					continue
				}
				for _, conduit := range seg.Conduits {
					fmt.Printf("%-5s  %-12s %s  limit %s  %d circuit(s)\n",
						seg.Status, conduit.Label,
						fill.FormatPercent(conduit.Utilization),
						fill.FormatPercent(conduit.FillLimitPct),
						len(conduit.Circuits))
					for _, v := range conduit.Violations {
						fmt.Printf("       %s\n", v.Message)
					}
				}
			}
			fmt.Printf("overall: %s (%d segments, %d violations)\n",
				rs.Status, len(rs.Segments), len(rs.Violations()))

			if rs.Status == status.Error {
				cmd.SilenceUsage = true
				return fmt.Errorf("project has blocking violations")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&presetID, "preset", "", "override the active rule preset")
	return cmd
}

func trunksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trunks <project.json>",
		Short: "List the trunk partition of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.Load(args[0])
			if err != nil {
				return err
			}
			trunks, err := p.Trunks.DeriveAll()
			if err != nil {
				return err
			}
			for _, tr := range trunks {
				kind := "auto"
				if tr.Manual {
					kind = "manual"
				}
				fmt.Printf("%s  (%s, %d segments)\n", tr.ID, kind, len(tr.Members))
				for _, member := range tr.Members {
					fmt.Printf("  %s\n", member)
				}
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <project.json>",
		Short: "Load a project, apply any pending schema migration, and save it back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.Load(args[0])
			if err != nil {
				return err
			}
			if !p.Migrated {
				fmt.Println("already current, nothing to do")
				return nil
			}
			if err := p.Save(args[0]); err != nil {
				return err
			}
			fmt.Println("migrated")
			return nil
		},
	}
}
