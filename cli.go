package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aquilax/eightd/node"
	"github.com/aquilax/eightd/problem"
	"github.com/aquilax/eightd/tree"
	"github.com/urfave/cli/v3"
)

func (l *EightD) command() *cli.Command {
	return &cli.Command{
		Name:  "eightd",
		Usage: "8D problem solving backend",
		Flags: l.config.Flags(),
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: l.serveAction,
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations and exit",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := l.config.Load(cmd); err != nil {
						return err
					}
					l.config.Migrate = true
					if err := l.open(ctx); err != nil {
						return err
					}
					defer l.Close()
					l.log.Info().Str("database", l.config.Database).Msg("migrations applied")
					return nil
				},
			},
			{
				Name:  "seed",
				Usage: "add demo crews, users and a problem with a root-cause tree",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := l.start(ctx, cmd); err != nil {
						return err
					}
					defer l.Close()
					problemID, err := l.seed(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.Root().Writer, "seeded problem %d\n", problemID)
					return nil
				},
			},
			{
				Name:      "tree",
				Usage:     "print the root-cause tree of a problem",
				ArgsUsage: "<problem-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "flat", Usage: "print the pre-order node list"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: l.treeAction,
			},
			{
				Name:  "check",
				Usage: "run the tree integrity sweep once",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := l.start(ctx, cmd); err != nil {
						return err
					}
					defer l.Close()
					sweep, err := NewIntegritySweep(l.m, "@every 1h", l.log)
					if err != nil {
						return err
					}
					report, err := sweep.Check(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.Root().Writer, report)
				},
			},
		},
		Action: l.serveAction,
	}
}

func (l *EightD) start(ctx context.Context, cmd *cli.Command) error {
	if err := l.config.Load(cmd); err != nil {
		return err
	}
	return l.open(ctx)
}

func (l *EightD) serveAction(ctx context.Context, cmd *cli.Command) error {
	if err := l.start(ctx, cmd); err != nil {
		return err
	}
	defer l.Close()
	return l.serve(ctx)
}

func (l *EightD) treeAction(ctx context.Context, cmd *cli.Command) error {
	problemID, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("problem id: %w", err)
	}
	if err := l.start(ctx, cmd); err != nil {
		return err
	}
	defer l.Close()
	w := cmd.Root().Writer
	switch {
	case cmd.Bool("flat") && cmd.Bool("json"):
		pn, err := l.m.FlatTree(ctx, problemID)
		if err != nil {
			return err
		}
		return printJSON(w, pn)
	case cmd.Bool("json"):
		pt, err := l.m.Tree(ctx, problemID)
		if err != nil {
			return err
		}
		return printJSON(w, pt)
	}
	p, f, err := l.m.Forest(ctx, problemID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s (%s)\n", p.Title, hfTime(p.CreatedAt))
	printForest(w, f, cmd.Bool("flat"))
	return nil
}

// printForest writes one line per node, indented by depth unless flat.
func printForest(w io.Writer, f *tree.Forest, flat bool) {
	f.Walk(func(n node.Node, depth int) bool {
		indent := ""
		if !flat {
			indent = strings.Repeat("  ", depth)
		}
		mark := ""
		if n.IsRootCause {
			mark = " [root cause]"
		}
		fmt.Fprintf(w, "%s- #%d %s%s\n", indent, n.ID, n.Description, mark)
		return true
	})
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// seed adds a small demo data set through the model.
func (l *EightD) seed(ctx context.Context) (problem.ProblemID, error) {
	assembly, err := l.db.AddCrew(ctx, &problem.Crew{Name: "Assembly"})
	if err != nil {
		return 0, err
	}
	if _, err := l.db.AddCrew(ctx, &problem.Crew{Name: "Maintenance"}); err != nil {
		return 0, err
	}
	ana, err := l.db.AddUser(ctx, &problem.User{Name: "Ana", Email: "ana@example.com", CrewID: &assembly})
	if err != nil {
		return 0, err
	}
	problemID, err := l.m.AddProblem(ctx, &problem.Problem{
		Title:       "Conveyor stops every hour",
		Description: "Line 2 conveyor stops for about *five minutes* every hour.",
		CreatedByID: ana,
		CrewID:      assembly,
	})
	if err != nil {
		return 0, err
	}
	add := func(parent *node.NodeID, description string) (node.NodeID, error) {
		return l.m.AddNode(ctx, &node.Node{ProblemID: problemID, ParentID: parent, Description: description, AuthorID: &ana})
	}
	motor, err := add(nil, "Motor overheats")
	if err != nil {
		return 0, err
	}
	fan, err := add(&motor, "Cooling fan clogged")
	if err != nil {
		return 0, err
	}
	if _, err := add(&fan, "No cleaning schedule"); err != nil {
		return 0, err
	}
	if _, err := add(&motor, "Overload relay set too low"); err != nil {
		return 0, err
	}
	if _, err := add(nil, "Sensor misreads"); err != nil {
		return 0, err
	}
	if _, err := l.m.ToggleRootCause(ctx, fan); err != nil {
		return 0, err
	}
	if _, err := l.m.AddSolution(ctx, &problem.Solution{ProblemID: problemID, RootCauseID: fan, Description: "Clean the fan every week", AuthorID: &ana}); err != nil {
		return 0, err
	}
	return problemID, nil
}
