package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/aquilax/eightd/node"
	"github.com/aquilax/eightd/problem"
)

// Memory keeps every table in a slice. Ids are handed out per table starting
// at 1, like an auto increment column.
type Memory struct {
	mu        sync.RWMutex
	problems  problem.ProblemList
	nodes     node.NodeList
	solutions problem.SolutionList
	crews     problem.CrewList
	users     []problem.User
	lastID    map[string]int64
	now       func() time.Time
}

func New() *Memory {
	return &Memory{
		lastID: make(map[string]int64),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func min(value int, values ...int) int {
	for _, v := range values {
		if v < value {
			value = v
		}
	}
	return value
}

func find[T any](list []T, filter func(v T) bool) []T {
	result := []T{}
	for _, v := range list {
		if filter(v) {
			result = append(result, v)
		}
	}
	return result
}

func (m *Memory) nextID(table string) int64 {
	m.lastID[table]++
	return m.lastID[table]
}

func (m *Memory) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return m.now()
	}
	return t.UTC()
}

func (m *Memory) Open(database, dsn string) error {
	return nil
}

func (m *Memory) Migrate(ctx context.Context) error {
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// joinProblem fills the creator and crew names the way the SQL join does.
func (m *Memory) joinProblem(p problem.Problem) (problem.Problem, bool) {
	user, found := m.user(p.CreatedByID)
	if !found {
		return p, false
	}
	crew, found := m.crew(p.CrewID)
	if !found {
		return p, false
	}
	p.CreatedBy = user.Name
	p.CrewName = crew.Name
	return p, true
}

func (m *Memory) joinNode(n node.Node) node.Node {
	n.AuthorName = nil
	if n.AuthorID != nil {
		if u, found := m.user(*n.AuthorID); found {
			name := u.Name
			n.AuthorName = &name
		}
	}
	return n
}

func (m *Memory) joinSolution(s problem.Solution) problem.Solution {
	s.RootCauseDescription, s.IsRootCause, s.AuthorName = nil, nil, nil
	if n, found := m.node(s.RootCauseID); found {
		description, isRootCause := n.Description, n.IsRootCause
		s.RootCauseDescription = &description
		s.IsRootCause = &isRootCause
	}
	if s.AuthorID != nil {
		if u, found := m.user(*s.AuthorID); found {
			name := u.Name
			s.AuthorName = &name
		}
	}
	return s
}

func (m *Memory) user(userID problem.UserID) (problem.User, bool) {
	for _, u := range m.users {
		if u.ID == userID {
			u.CrewName = nil
			if u.CrewID != nil {
				if c, found := m.crew(*u.CrewID); found {
					name := c.Name
					u.CrewName = &name
				}
			}
			return u, true
		}
	}
	return problem.User{}, false
}

func (m *Memory) crew(crewID problem.CrewID) (problem.Crew, bool) {
	for _, c := range m.crews {
		if c.ID == crewID {
			return c, true
		}
	}
	return problem.Crew{}, false
}

func (m *Memory) node(nodeID node.NodeID) (node.Node, bool) {
	for _, n := range m.nodes {
		if n.ID == nodeID {
			return n, true
		}
	}
	return node.Node{}, false
}

func (m *Memory) GetProblems(ctx context.Context, count, offset int) (*problem.ProblemList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	found := problem.ProblemList{}
	for _, p := range m.problems {
		if p, ok := m.joinProblem(p); ok {
			found = append(found, p)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].CreatedAt.Equal(found[j].CreatedAt) {
			return found[i].ID > found[j].ID
		}
		return found[i].CreatedAt.After(found[j].CreatedAt)
	})
	offset = min(offset, len(found))
	result := found[offset:min(len(found), offset+count)]
	return &result, nil
}

func (m *Memory) GetTotalProblems(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, p := range m.problems {
		if _, ok := m.joinProblem(p); ok {
			total++
		}
	}
	return total, nil
}

func (m *Memory) GetProblem(ctx context.Context, problemID problem.ProblemID) (*problem.Problem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.problems {
		if p.ID == problemID {
			if p, ok := m.joinProblem(p); ok {
				return &p, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (m *Memory) AddProblem(ctx context.Context, p *problem.Problem) (problem.ProblemID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *p
	stored.ID = m.nextID("problems")
	stored.CreatedAt = m.stamp(p.CreatedAt)
	m.problems = append(m.problems, stored)
	return stored.ID, nil
}

func (m *Memory) GetNodes(ctx context.Context, problemID node.ProblemID) (*node.NodeList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	found := node.NodeList(find(m.nodes, func(n node.Node) bool {
		return n.ProblemID == problemID
	}))
	for i := range found {
		found[i] = m.joinNode(found[i].Clone())
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Less(found[j])
	})
	return &found, nil
}

func (m *Memory) GetNode(ctx context.Context, nodeID node.NodeID) (*node.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, found := m.node(nodeID)
	if !found {
		return nil, sql.ErrNoRows
	}
	n = m.joinNode(n.Clone())
	return &n, nil
}

func (m *Memory) AddNode(ctx context.Context, n *node.Node) (node.NodeID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := n.Clone()
	stored.ID = m.nextID("root_causes_tree")
	stored.CreatedAt = m.stamp(n.CreatedAt)
	stored.AuthorName = nil
	m.nodes = append(m.nodes, stored)
	return stored.ID, nil
}

func (m *Memory) ToggleRootCause(ctx context.Context, nodeID node.NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.nodes {
		if m.nodes[i].ID == nodeID {
			m.nodes[i].IsRootCause = !m.nodes[i].IsRootCause
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *Memory) GetSolutions(ctx context.Context, problemID problem.ProblemID) (*problem.SolutionList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	found := problem.SolutionList(find(m.solutions, func(s problem.Solution) bool {
		return s.ProblemID == problemID
	}))
	for i := range found {
		found[i] = m.joinSolution(found[i])
	}
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].CreatedAt.Equal(found[j].CreatedAt) {
			return found[i].ID > found[j].ID
		}
		return found[i].CreatedAt.After(found[j].CreatedAt)
	})
	return &found, nil
}

func (m *Memory) GetSolution(ctx context.Context, solutionID problem.SolutionID) (*problem.Solution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.solutions {
		if s.ID == solutionID {
			s = m.joinSolution(s)
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *Memory) AddSolution(ctx context.Context, s *problem.Solution) (problem.SolutionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *s
	stored.ID = m.nextID("solutions")
	stored.CreatedAt = m.stamp(s.CreatedAt)
	m.solutions = append(m.solutions, stored)
	return stored.ID, nil
}

func (m *Memory) GetCrews(ctx context.Context) (*problem.CrewList, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cl := make(problem.CrewList, len(m.crews))
	copy(cl, m.crews)
	sort.SliceStable(cl, func(i, j int) bool {
		if cl[i].Name == cl[j].Name {
			return cl[i].ID < cl[j].ID
		}
		return cl[i].Name < cl[j].Name
	})
	return &cl, nil
}

func (m *Memory) GetCrew(ctx context.Context, crewID problem.CrewID) (*problem.Crew, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, found := m.crew(crewID)
	if !found {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (m *Memory) AddCrew(ctx context.Context, c *problem.Crew) (problem.CrewID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *c
	stored.ID = m.nextID("crews")
	m.crews = append(m.crews, stored)
	return stored.ID, nil
}

func (m *Memory) GetUser(ctx context.Context, userID problem.UserID) (*problem.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, found := m.user(userID)
	if !found {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (m *Memory) AddUser(ctx context.Context, u *problem.User) (problem.UserID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *u
	stored.ID = m.nextID("users")
	stored.CrewName = nil
	m.users = append(m.users, stored)
	return stored.ID, nil
}
