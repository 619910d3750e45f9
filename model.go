package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aquilax/eightd/database"
	"github.com/aquilax/eightd/events"
	"github.com/aquilax/eightd/node"
	"github.com/aquilax/eightd/problem"
	"github.com/aquilax/eightd/tree"
	"github.com/rs/zerolog"
)

const itemsPerPage = 20

type ProblemTree struct {
	Problem *problem.Problem `json:"problem"`
	Tree    []*tree.Item     `json:"tree"`
}

type ProblemNodes struct {
	Problem *problem.Problem `json:"problem"`
	Nodes   node.NodeList    `json:"nodes"`
}

type ProblemNode struct {
	Problem *problem.Problem `json:"problem"`
	Node    *node.Node       `json:"node"`
}

type Model struct {
	db     database.Database
	events events.Publisher
	log    zerolog.Logger
}

func NewModel(db database.Database, pub events.Publisher, log zerolog.Logger) *Model {
	return &Model{db: db, events: pub, log: log}
}

// exists turns sql.ErrNoRows into a validation error on field.
func exists(err error, field, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ValidationErrors{field: message}
	}
	return err
}

func (m *Model) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = time.Now().UTC()
	if err := m.events.Publish(ctx, e); err != nil {
		m.log.Error().Err(err).Str("event", e.Type).Int64("problem_id", e.ProblemID).Msg("publish failed")
	}
}

// Problems returns one page of problems, newest first, and the total count.
func (m *Model) Problems(ctx context.Context, page int) (*problem.ProblemList, int, error) {
	if page < 1 {
		page = 1
	}
	total, err := m.db.GetTotalProblems(ctx)
	if err != nil {
		return nil, 0, err
	}
	pl, err := m.db.GetProblems(ctx, itemsPerPage, (page-1)*itemsPerPage)
	if err != nil {
		return nil, 0, err
	}
	return pl, total, nil
}

func (m *Model) Problem(ctx context.Context, problemID problem.ProblemID) (*problem.Problem, error) {
	return m.db.GetProblem(ctx, problemID)
}

func (m *Model) AddProblem(ctx context.Context, p *problem.Problem) (problem.ProblemID, error) {
	if _, err := m.db.GetCrew(ctx, p.CrewID); err != nil {
		return 0, exists(err, "crew_id", "crew does not exist")
	}
	if _, err := m.db.GetUser(ctx, p.CreatedByID); err != nil {
		return 0, exists(err, "user_id", "user does not exist")
	}
	id, err := m.db.AddProblem(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("add problem: %w", err)
	}
	m.publish(ctx, events.Event{Type: events.ProblemCreated, ProblemID: id, SubjectID: id, Payload: p.Title})
	return id, nil
}

// Forest loads a problem and builds the forest of its root causes.
func (m *Model) Forest(ctx context.Context, problemID problem.ProblemID) (*problem.Problem, *tree.Forest, error) {
	p, err := m.db.GetProblem(ctx, problemID)
	if err != nil {
		return nil, nil, err
	}
	nl, err := m.db.GetNodes(ctx, problemID)
	if err != nil {
		return nil, nil, fmt.Errorf("nodes of problem %d: %w", problemID, err)
	}
	f := tree.Build(*nl)
	if d := f.Dangling(); len(d) > 0 {
		m.log.Warn().Int64("problem_id", problemID).Ints64("dangling", d).Msg("nodes with missing parents promoted to roots")
	}
	if u := f.Unreachable(); len(u) > 0 {
		m.log.Warn().Int64("problem_id", problemID).Ints64("unreachable", u).Msg("nodes in parent cycles left out of the tree")
	}
	return p, f, nil
}

func (m *Model) Tree(ctx context.Context, problemID problem.ProblemID) (*ProblemTree, error) {
	p, f, err := m.Forest(ctx, problemID)
	if err != nil {
		return nil, err
	}
	return &ProblemTree{Problem: p, Tree: f.Roots()}, nil
}

func (m *Model) FlatTree(ctx context.Context, problemID problem.ProblemID) (*ProblemNodes, error) {
	p, f, err := m.Forest(ctx, problemID)
	if err != nil {
		return nil, err
	}
	return &ProblemNodes{Problem: p, Nodes: f.Flatten()}, nil
}

func (m *Model) Node(ctx context.Context, nodeID node.NodeID) (*ProblemNode, error) {
	n, err := m.db.GetNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	p, err := m.db.GetProblem(ctx, n.ProblemID)
	if err != nil {
		return nil, fmt.Errorf("problem of node %d: %w", nodeID, err)
	}
	return &ProblemNode{Problem: p, Node: n}, nil
}

// AddNode requires the parent to exist in the same problem, so the stored
// parent links can only point at older nodes and never form a cycle.
func (m *Model) AddNode(ctx context.Context, n *node.Node) (node.NodeID, error) {
	if _, err := m.db.GetProblem(ctx, n.ProblemID); err != nil {
		return 0, exists(err, "problem_id", "problem does not exist")
	}
	if n.ParentID != nil {
		parent, err := m.db.GetNode(ctx, *n.ParentID)
		if err != nil {
			return 0, exists(err, "parent_id", "parent does not exist")
		}
		if parent.ProblemID != n.ProblemID {
			return 0, ValidationErrors{"parent_id": "parent belongs to another problem"}
		}
	}
	if n.AuthorID != nil {
		if _, err := m.db.GetUser(ctx, *n.AuthorID); err != nil {
			return 0, exists(err, "author_id", "user does not exist")
		}
	}
	id, err := m.db.AddNode(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("add node: %w", err)
	}
	m.publish(ctx, events.Event{Type: events.RootCauseCreated, ProblemID: n.ProblemID, SubjectID: id, Payload: n.Description})
	return id, nil
}

func (m *Model) ToggleRootCause(ctx context.Context, nodeID node.NodeID) (*node.Node, error) {
	if err := m.db.ToggleRootCause(ctx, nodeID); err != nil {
		return nil, err
	}
	n, err := m.db.GetNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	m.publish(ctx, events.Event{Type: events.RootCauseToggled, ProblemID: n.ProblemID, SubjectID: n.ID, Payload: n.IsRootCause})
	return n, nil
}

func (m *Model) Solutions(ctx context.Context, problemID problem.ProblemID) (*problem.SolutionList, error) {
	if _, err := m.db.GetProblem(ctx, problemID); err != nil {
		return nil, err
	}
	return m.db.GetSolutions(ctx, problemID)
}

func (m *Model) Solution(ctx context.Context, solutionID problem.SolutionID) (*problem.Solution, error) {
	return m.db.GetSolution(ctx, solutionID)
}

func (m *Model) AddSolution(ctx context.Context, s *problem.Solution) (problem.SolutionID, error) {
	if _, err := m.db.GetProblem(ctx, s.ProblemID); err != nil {
		return 0, exists(err, "problem_id", "problem does not exist")
	}
	rc, err := m.db.GetNode(ctx, s.RootCauseID)
	if err != nil {
		return 0, exists(err, "root_cause_id", "root cause does not exist")
	}
	if rc.ProblemID != s.ProblemID {
		return 0, ValidationErrors{"root_cause_id": "root cause belongs to another problem"}
	}
	if s.AuthorID != nil {
		if _, err := m.db.GetUser(ctx, *s.AuthorID); err != nil {
			return 0, exists(err, "author_id", "user does not exist")
		}
	}
	id, err := m.db.AddSolution(ctx, s)
	if err != nil {
		return 0, fmt.Errorf("add solution: %w", err)
	}
	m.publish(ctx, events.Event{Type: events.SolutionCreated, ProblemID: s.ProblemID, SubjectID: id, Payload: s.Description})
	return id, nil
}

func (m *Model) Crews(ctx context.Context) (*problem.CrewList, error) {
	return m.db.GetCrews(ctx)
}

func (m *Model) User(ctx context.Context, userID problem.UserID) (*problem.User, error) {
	return m.db.GetUser(ctx, userID)
}

// EachProblem calls fn for every problem, newest first, one page at a time.
func (m *Model) EachProblem(ctx context.Context, fn func(p problem.Problem) error) error {
	for offset := 0; ; offset += itemsPerPage {
		pl, err := m.db.GetProblems(ctx, itemsPerPage, offset)
		if err != nil {
			return err
		}
		for _, p := range *pl {
			if err := fn(p); err != nil {
				return err
			}
		}
		if len(*pl) < itemsPerPage {
			return nil
		}
	}
}
