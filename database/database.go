package database

import (
	"context"

	"github.com/aquilax/eightd/node"
	"github.com/aquilax/eightd/problem"
)

// Database is the storage behind the 8D service. Lookups of missing rows
// return sql.ErrNoRows regardless of the backend.
type Database interface {
	Open(database, dsn string) error
	Migrate(ctx context.Context) error
	Close() error

	GetProblems(ctx context.Context, count, offset int) (*problem.ProblemList, error)
	GetTotalProblems(ctx context.Context) (int, error)
	GetProblem(ctx context.Context, problemID problem.ProblemID) (*problem.Problem, error)
	AddProblem(ctx context.Context, p *problem.Problem) (problem.ProblemID, error)

	// GetNodes returns the flat root-cause rows of a problem ordered by
	// created_at, id.
	GetNodes(ctx context.Context, problemID node.ProblemID) (*node.NodeList, error)
	GetNode(ctx context.Context, nodeID node.NodeID) (*node.Node, error)
	AddNode(ctx context.Context, n *node.Node) (node.NodeID, error)
	ToggleRootCause(ctx context.Context, nodeID node.NodeID) error

	GetSolutions(ctx context.Context, problemID problem.ProblemID) (*problem.SolutionList, error)
	GetSolution(ctx context.Context, solutionID problem.SolutionID) (*problem.Solution, error)
	AddSolution(ctx context.Context, s *problem.Solution) (problem.SolutionID, error)

	GetCrews(ctx context.Context) (*problem.CrewList, error)
	GetCrew(ctx context.Context, crewID problem.CrewID) (*problem.Crew, error)
	AddCrew(ctx context.Context, c *problem.Crew) (problem.CrewID, error)
	GetUser(ctx context.Context, userID problem.UserID) (*problem.User, error)
	AddUser(ctx context.Context, u *problem.User) (problem.UserID, error)
}
