package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/aquilax/eightd/database/databasetest"
	"github.com/aquilax/eightd/database/memory"
	"github.com/aquilax/eightd/events"
	"github.com/aquilax/eightd/node"
	"github.com/aquilax/eightd/problem"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, e events.Event) error {
	return errors.New("broker down")
}

func (failingPublisher) Close() error {
	return nil
}

func newTestModel(t *testing.T, pub events.Publisher) (*Model, *memory.Memory, databasetest.Fixture, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	db := memory.New()
	fx := databasetest.Seed(t, db)
	return NewModel(db, pub, zerolog.New(&buf)), db, fx, &buf
}

func TestModel_Tree(t *testing.T) {
	ctx := context.Background()
	m, db, fx, logs := newTestModel(t, events.Nop{})

	root, err := m.AddNode(ctx, &node.Node{ProblemID: fx.Problem, Description: "A"})
	require.NoError(t, err)
	child, err := m.AddNode(ctx, &node.Node{ProblemID: fx.Problem, ParentID: &root, Description: "B"})
	require.NoError(t, err)
	// written behind the model's back, as a broken import would
	orphan, err := db.AddNode(ctx, &node.Node{ProblemID: fx.Problem, ParentID: node.Parent(999), Description: "C"})
	require.NoError(t, err)

	pt, err := m.Tree(ctx, fx.Problem)
	require.NoError(t, err)
	assert.Equal(t, fx.Problem, pt.Problem.ID)
	require.Len(t, pt.Tree, 2)
	assert.Equal(t, root, pt.Tree[0].ID)
	assert.Equal(t, child, pt.Tree[0].Children[0].ID)
	assert.Equal(t, orphan, pt.Tree[1].ID)
	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), `"dangling":[`)

	pn, err := m.FlatTree(ctx, fx.Problem)
	require.NoError(t, err)
	require.Len(t, pn.Nodes, 3)
	assert.Equal(t, []node.NodeID{root, child, orphan}, []node.NodeID{pn.Nodes[0].ID, pn.Nodes[1].ID, pn.Nodes[2].ID})

	_, err = m.Tree(ctx, fx.Problem+100)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestModel_AddNode(t *testing.T) {
	ctx := context.Background()
	rec := &events.Recorder{}
	m, _, fx, _ := newTestModel(t, rec)

	other, err := m.AddProblem(ctx, &problem.Problem{Title: "Other", Description: "d", CreatedByID: fx.User, CrewID: fx.Crew})
	require.NoError(t, err)
	foreign, err := m.AddNode(ctx, &node.Node{ProblemID: other, Description: "Foreign"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		n     node.Node
		field string
	}{
		{"missing problem", node.Node{ProblemID: fx.Problem + 100, Description: "x"}, "problem_id"},
		{"missing parent", node.Node{ProblemID: fx.Problem, ParentID: node.Parent(999), Description: "x"}, "parent_id"},
		{"parent of another problem", node.Node{ProblemID: fx.Problem, ParentID: &foreign, Description: "x"}, "parent_id"},
		{"missing author", node.Node{ProblemID: fx.Problem, AuthorID: node.Parent(999), Description: "x"}, "author_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.AddNode(ctx, &tt.n)
			var ve ValidationErrors
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve, tt.field)
		})
	}

	require.Len(t, rec.Events, 2)
	assert.Equal(t, events.ProblemCreated, rec.Events[0].Type)
	assert.Equal(t, events.RootCauseCreated, rec.Events[1].Type)
	assert.Equal(t, other, rec.Events[1].ProblemID)
	assert.Equal(t, foreign, rec.Events[1].SubjectID)
	assert.False(t, rec.Events[1].OccurredAt.IsZero())
}

func TestModel_PublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	m, _, fx, logs := newTestModel(t, failingPublisher{})

	id, err := m.AddNode(ctx, &node.Node{ProblemID: fx.Problem, Description: "A"})
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Contains(t, logs.String(), "broker down")
}

func TestModel_AddSolution(t *testing.T) {
	ctx := context.Background()
	m, _, fx, _ := newTestModel(t, events.Nop{})

	other, err := m.AddProblem(ctx, &problem.Problem{Title: "Other", Description: "d", CreatedByID: fx.User, CrewID: fx.Crew})
	require.NoError(t, err)
	foreign, err := m.AddNode(ctx, &node.Node{ProblemID: other, Description: "Foreign"})
	require.NoError(t, err)
	own, err := m.AddNode(ctx, &node.Node{ProblemID: fx.Problem, Description: "Own"})
	require.NoError(t, err)

	_, err = m.AddSolution(ctx, &problem.Solution{ProblemID: fx.Problem, RootCauseID: foreign, Description: "x"})
	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ValidationErrors{"root_cause_id": "root cause belongs to another problem"}, ve)

	id, err := m.AddSolution(ctx, &problem.Solution{ProblemID: fx.Problem, RootCauseID: own, Description: "Fix"})
	require.NoError(t, err)
	s, err := m.Solution(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Fix", s.Description)
}

func TestModel_AddProblem(t *testing.T) {
	ctx := context.Background()
	m, _, fx, _ := newTestModel(t, events.Nop{})

	_, err := m.AddProblem(ctx, &problem.Problem{Title: "x", CreatedByID: fx.User, CrewID: fx.Crew + 100})
	assert.Equal(t, ValidationErrors{"crew_id": "crew does not exist"}, err)
	_, err = m.AddProblem(ctx, &problem.Problem{Title: "x", CreatedByID: fx.User + 100, CrewID: fx.Crew})
	assert.Equal(t, ValidationErrors{"user_id": "user does not exist"}, err)

	pl, total, err := m.Problems(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, *pl, 1)

	seen := 0
	require.NoError(t, m.EachProblem(ctx, func(p problem.Problem) error {
		seen++
		return nil
	}))
	assert.Equal(t, 1, seen)
}
