package cached

import (
	"context"
	"sync"

	"github.com/aquilax/eightd/database"
	"github.com/aquilax/eightd/node"
	"github.com/aquilax/eightd/problem"
)

// Cached keeps problems and their flat node lists in memory. A write that
// touches a problem drops everything cached for that problem and bumps its
// generation, so a read that started before the write never fills the cache.
type Cached struct {
	db       database.Database
	mu       sync.RWMutex
	problems map[problem.ProblemID]*problem.Problem
	nodes    map[problem.ProblemID]node.NodeList
	owners   map[node.NodeID]problem.ProblemID
	gen      map[problem.ProblemID]uint64
}

func New(db database.Database) *Cached {
	return &Cached{
		db:       db,
		problems: make(map[problem.ProblemID]*problem.Problem),
		nodes:    make(map[problem.ProblemID]node.NodeList),
		owners:   make(map[node.NodeID]problem.ProblemID),
		gen:      make(map[problem.ProblemID]uint64),
	}
}

func (m *Cached) clear(problemID problem.ProblemID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen[problemID]++
	delete(m.problems, problemID)
	for _, n := range m.nodes[problemID] {
		delete(m.owners, n.ID)
	}
	delete(m.nodes, problemID)
}

func (m *Cached) Open(database, dsn string) error {
	return m.db.Open(database, dsn)
}

func (m *Cached) Migrate(ctx context.Context) error {
	return m.db.Migrate(ctx)
}

func (m *Cached) Close() error {
	return m.db.Close()
}

func (m *Cached) GetProblems(ctx context.Context, count, offset int) (*problem.ProblemList, error) {
	return m.db.GetProblems(ctx, count, offset)
}

func (m *Cached) GetTotalProblems(ctx context.Context) (int, error) {
	return m.db.GetTotalProblems(ctx)
}

func (m *Cached) GetProblem(ctx context.Context, problemID problem.ProblemID) (*problem.Problem, error) {
	m.mu.RLock()
	p, found := m.problems[problemID]
	gen := m.gen[problemID]
	m.mu.RUnlock()
	if found {
		result := *p
		return &result, nil
	}
	p, err := m.db.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	stored := *p
	m.mu.Lock()
	if m.gen[problemID] == gen {
		m.problems[problemID] = &stored
	}
	m.mu.Unlock()
	return p, nil
}

func (m *Cached) AddProblem(ctx context.Context, p *problem.Problem) (problem.ProblemID, error) {
	return m.db.AddProblem(ctx, p)
}

func (m *Cached) GetNodes(ctx context.Context, problemID node.ProblemID) (*node.NodeList, error) {
	m.mu.RLock()
	nl, found := m.nodes[problemID]
	gen := m.gen[problemID]
	m.mu.RUnlock()
	if found {
		result := nl.Clone()
		return &result, nil
	}
	fresh, err := m.db.GetNodes(ctx, problemID)
	if err != nil {
		return nil, err
	}
	stored := fresh.Clone()
	m.mu.Lock()
	if m.gen[problemID] == gen {
		m.nodes[problemID] = stored
		for _, n := range stored {
			m.owners[n.ID] = problemID
		}
	}
	m.mu.Unlock()
	return fresh, nil
}

func (m *Cached) GetNode(ctx context.Context, nodeID node.NodeID) (*node.Node, error) {
	return m.db.GetNode(ctx, nodeID)
}

func (m *Cached) AddNode(ctx context.Context, n *node.Node) (node.NodeID, error) {
	result, err := m.db.AddNode(ctx, n)
	if err == nil {
		m.clear(n.ProblemID)
	}
	return result, err
}

func (m *Cached) ToggleRootCause(ctx context.Context, nodeID node.NodeID) error {
	if err := m.db.ToggleRootCause(ctx, nodeID); err != nil {
		return err
	}
	m.mu.RLock()
	problemID, found := m.owners[nodeID]
	m.mu.RUnlock()
	if !found {
		n, err := m.db.GetNode(ctx, nodeID)
		if err != nil {
			return err
		}
		problemID = n.ProblemID
	}
	m.clear(problemID)
	return nil
}

func (m *Cached) GetSolutions(ctx context.Context, problemID problem.ProblemID) (*problem.SolutionList, error) {
	return m.db.GetSolutions(ctx, problemID)
}

func (m *Cached) GetSolution(ctx context.Context, solutionID problem.SolutionID) (*problem.Solution, error) {
	return m.db.GetSolution(ctx, solutionID)
}

func (m *Cached) AddSolution(ctx context.Context, s *problem.Solution) (problem.SolutionID, error) {
	return m.db.AddSolution(ctx, s)
}

func (m *Cached) GetCrews(ctx context.Context) (*problem.CrewList, error) {
	return m.db.GetCrews(ctx)
}

func (m *Cached) GetCrew(ctx context.Context, crewID problem.CrewID) (*problem.Crew, error) {
	return m.db.GetCrew(ctx, crewID)
}

func (m *Cached) AddCrew(ctx context.Context, c *problem.Crew) (problem.CrewID, error) {
	return m.db.AddCrew(ctx, c)
}

func (m *Cached) GetUser(ctx context.Context, userID problem.UserID) (*problem.User, error) {
	return m.db.GetUser(ctx, userID)
}

func (m *Cached) AddUser(ctx context.Context, u *problem.User) (problem.UserID, error) {
	return m.db.AddUser(ctx, u)
}
