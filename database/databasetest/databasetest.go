// Package databasetest holds a behaviour suite shared by every
// database.Database backend.
package databasetest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/aquilax/eightd/database"
	"github.com/aquilax/eightd/node"
	"github.com/aquilax/eightd/problem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixture is the minimal data every problem needs.
type Fixture struct {
	Crew    problem.CrewID
	User    problem.UserID
	Problem problem.ProblemID
}

// Seed adds one crew, one user and one problem.
func Seed(t *testing.T, db database.Database) Fixture {
	t.Helper()
	ctx := context.Background()
	crewID, err := db.AddCrew(ctx, &problem.Crew{Name: "Assembly"})
	require.NoError(t, err)
	userID, err := db.AddUser(ctx, &problem.User{Name: "Ana", Email: "ana@example.com", CrewID: &crewID})
	require.NoError(t, err)
	problemID, err := db.AddProblem(ctx, &problem.Problem{
		Title:       "Conveyor stops",
		Description: "Line 2 conveyor stops *every* hour",
		CreatedByID: userID,
		CrewID:      crewID,
	})
	require.NoError(t, err)
	return Fixture{Crew: crewID, User: userID, Problem: problemID}
}

// Run exercises db, which must be open, migrated and empty.
func Run(t *testing.T, db database.Database) {
	ctx := context.Background()
	fx := Seed(t, db)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("problems", func(t *testing.T) {
		p, err := db.GetProblem(ctx, fx.Problem)
		require.NoError(t, err)
		assert.Equal(t, "Conveyor stops", p.Title)
		assert.Equal(t, "Ana", p.CreatedBy)
		assert.Equal(t, "Assembly", p.CrewName)
		assert.False(t, p.CreatedAt.IsZero())

		total, err := db.GetTotalProblems(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, total)

		pl, err := db.GetProblems(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, *pl, 1)
		assert.Equal(t, fx.Problem, (*pl)[0].ID)

		pl, err = db.GetProblems(ctx, 10, 5)
		require.NoError(t, err)
		assert.Empty(t, *pl)

		_, err = db.GetProblem(ctx, fx.Problem+100)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	var root, child node.NodeID
	t.Run("nodes", func(t *testing.T) {
		var err error
		root, err = db.AddNode(ctx, &node.Node{ProblemID: fx.Problem, Description: "Motor overheats", AuthorID: &fx.User, CreatedAt: base})
		require.NoError(t, err)
		child, err = db.AddNode(ctx, &node.Node{ProblemID: fx.Problem, ParentID: &root, Description: "Fan clogged", CreatedAt: base.Add(2 * time.Minute)})
		require.NoError(t, err)
		sibling, err := db.AddNode(ctx, &node.Node{ProblemID: fx.Problem, ParentID: &root, Description: "Wrong fuse", CreatedAt: base.Add(time.Minute)})
		require.NoError(t, err)

		nl, err := db.GetNodes(ctx, fx.Problem)
		require.NoError(t, err)
		require.Len(t, *nl, 3)
		assert.Equal(t, []node.NodeID{root, sibling, child}, []node.NodeID{(*nl)[0].ID, (*nl)[1].ID, (*nl)[2].ID})
		require.NotNil(t, (*nl)[0].AuthorName)
		assert.Equal(t, "Ana", *(*nl)[0].AuthorName)
		assert.Nil(t, (*nl)[0].ParentID)
		require.NotNil(t, (*nl)[2].ParentID)
		assert.Equal(t, root, *(*nl)[2].ParentID)
		assert.True(t, (*nl)[0].CreatedAt.Equal(base))

		n, err := db.GetNode(ctx, child)
		require.NoError(t, err)
		assert.Equal(t, "Fan clogged", n.Description)
		assert.Equal(t, fx.Problem, n.ProblemID)
		assert.False(t, n.IsRootCause)
		assert.Nil(t, n.AuthorName)

		other, err := db.GetNodes(ctx, fx.Problem+100)
		require.NoError(t, err)
		assert.Empty(t, *other)

		_, err = db.GetNode(ctx, child+100)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("toggle root cause", func(t *testing.T) {
		require.NoError(t, db.ToggleRootCause(ctx, child))
		n, err := db.GetNode(ctx, child)
		require.NoError(t, err)
		assert.True(t, n.IsRootCause)

		nl, err := db.GetNodes(ctx, fx.Problem)
		require.NoError(t, err)
		for _, n := range *nl {
			assert.Equal(t, n.ID == child, n.IsRootCause, "node %d", n.ID)
		}

		require.NoError(t, db.ToggleRootCause(ctx, child))
		n, err = db.GetNode(ctx, child)
		require.NoError(t, err)
		assert.False(t, n.IsRootCause)

		assert.ErrorIs(t, db.ToggleRootCause(ctx, child+100), sql.ErrNoRows)
	})

	t.Run("solutions", func(t *testing.T) {
		id, err := db.AddSolution(ctx, &problem.Solution{ProblemID: fx.Problem, RootCauseID: child, Description: "Clean fan weekly", AuthorID: &fx.User})
		require.NoError(t, err)

		s, err := db.GetSolution(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Clean fan weekly", s.Description)
		require.NotNil(t, s.RootCauseDescription)
		assert.Equal(t, "Fan clogged", *s.RootCauseDescription)
		require.NotNil(t, s.Author())
		assert.Equal(t, "Ana", s.Author().Name)

		sl, err := db.GetSolutions(ctx, fx.Problem)
		require.NoError(t, err)
		require.Len(t, *sl, 1)
		require.NotNil(t, (*sl)[0].IsRootCause)
		assert.False(t, *(*sl)[0].IsRootCause)

		_, err = db.GetSolution(ctx, id+100)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("crews and users", func(t *testing.T) {
		second, err := db.AddCrew(ctx, &problem.Crew{Name: "Maintenance"})
		require.NoError(t, err)
		cl, err := db.GetCrews(ctx)
		require.NoError(t, err)
		assert.Equal(t, problem.CrewList{{ID: fx.Crew, Name: "Assembly"}, {ID: second, Name: "Maintenance"}}, *cl)

		c, err := db.GetCrew(ctx, second)
		require.NoError(t, err)
		assert.Equal(t, "Maintenance", c.Name)
		_, err = db.GetCrew(ctx, second+100)
		assert.ErrorIs(t, err, sql.ErrNoRows)

		u, err := db.GetUser(ctx, fx.User)
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", u.Email)
		require.NotNil(t, u.Crew())
		assert.Equal(t, "Assembly", u.Crew().Name)

		loner, err := db.AddUser(ctx, &problem.User{Name: "Ivo", Email: "ivo@example.com"})
		require.NoError(t, err)
		u, err = db.GetUser(ctx, loner)
		require.NoError(t, err)
		assert.Nil(t, u.Crew())

		_, err = db.GetUser(ctx, loner+100)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}
