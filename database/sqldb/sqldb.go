// Package sqldb implements database.Database on top of sqlx. The sqlite and
// postgres packages wrap it with their driver and migrations.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/aquilax/eightd/node"
	"github.com/aquilax/eightd/problem"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

const selectProblem = `SELECT
		p.id,
		p.title,
		p.description,
		p.created_at,
		u.id   AS created_by_id,
		u.name AS created_by_name,
		c.id   AS crew_id,
		c.name AS crew_name
	FROM problems p
	INNER JOIN users u ON u.id = p.created_by
	INNER JOIN crews c ON c.id = p.crew_id`

const selectNode = `SELECT
		rct.id,
		rct.parent_id,
		rct.problem_id,
		rct.description,
		rct.created_at,
		rct.author_id,
		ua.name AS author_name,
		rct.is_root_cause
	FROM root_causes_tree rct
	LEFT JOIN users ua ON ua.id = rct.author_id`

const selectSolution = `SELECT
		s.id,
		s.problem_id,
		s.root_cause_id,
		rc.description   AS root_cause_description,
		rc.is_root_cause AS is_root_cause,
		s.description,
		s.created_at,
		s.author_id,
		u.name AS author_name
	FROM solutions s
	LEFT JOIN root_causes_tree rc ON rc.id = s.root_cause_id
	LEFT JOIN users u ON u.id = s.author_id`

const selectUser = `SELECT
		u.id,
		u.name,
		u.email,
		u.crew_id,
		c.name AS crew_name
	FROM users u
	LEFT JOIN crews c ON c.id = u.crew_id`

type DB struct {
	db         *sqlx.DB
	dialect    string
	migrations fs.FS
	now        func() time.Time
}

// New returns an unopened DB. dialect is the goose dialect name and
// migrations must contain a "migrations" directory of goose SQL files.
func New(dialect string, migrations fs.FS) *DB {
	return &DB{
		dialect:    dialect,
		migrations: migrations,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (m *DB) Open(database, dsn string) error {
	var err error
	m.db, err = sqlx.Open(database, dsn)
	if err != nil {
		return err
	}
	return m.db.Ping()
}

func (m *DB) Migrate(ctx context.Context) error {
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	goose.SetBaseFS(m.migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.UpContext(ctx, m.db.DB, "migrations"); err != nil {
		return fmt.Errorf("migrate %s: %w", m.dialect, err)
	}
	return nil
}

func (m *DB) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

func (m *DB) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return m.now()
	}
	return t.UTC()
}

func (m *DB) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	err := m.db.GetContext(ctx, &id, m.db.Rebind(query), args...)
	return id, err
}

func (m *DB) GetProblems(ctx context.Context, count, offset int) (*problem.ProblemList, error) {
	pl := problem.ProblemList{}
	err := m.db.SelectContext(ctx, &pl, m.db.Rebind(selectProblem+" ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?"), count, offset)
	return &pl, err
}

func (m *DB) GetTotalProblems(ctx context.Context) (int, error) {
	var total int
	err := m.db.GetContext(ctx, &total, "SELECT count(*) FROM problems")
	return total, err
}

func (m *DB) GetProblem(ctx context.Context, problemID problem.ProblemID) (*problem.Problem, error) {
	var p problem.Problem
	if err := m.db.GetContext(ctx, &p, m.db.Rebind(selectProblem+" WHERE p.id = ?"), problemID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *DB) AddProblem(ctx context.Context, p *problem.Problem) (problem.ProblemID, error) {
	return m.insert(ctx, `INSERT INTO problems (title, description, created_by, crew_id, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`,
		p.Title, p.Description, p.CreatedByID, p.CrewID, m.stamp(p.CreatedAt))
}

func (m *DB) GetNodes(ctx context.Context, problemID node.ProblemID) (*node.NodeList, error) {
	nl := node.NodeList{}
	err := m.db.SelectContext(ctx, &nl, m.db.Rebind(selectNode+" WHERE rct.problem_id = ? ORDER BY rct.created_at ASC, rct.id ASC"), problemID)
	return &nl, err
}

func (m *DB) GetNode(ctx context.Context, nodeID node.NodeID) (*node.Node, error) {
	var n node.Node
	if err := m.db.GetContext(ctx, &n, m.db.Rebind(selectNode+" WHERE rct.id = ?"), nodeID); err != nil {
		return nil, err
	}
	return &n, nil
}

func (m *DB) AddNode(ctx context.Context, n *node.Node) (node.NodeID, error) {
	return m.insert(ctx, `INSERT INTO root_causes_tree (problem_id, parent_id, description, author_id, is_root_cause, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		n.ProblemID, n.ParentID, n.Description, n.AuthorID, n.IsRootCause, m.stamp(n.CreatedAt))
}

func (m *DB) ToggleRootCause(ctx context.Context, nodeID node.NodeID) error {
	res, err := m.db.ExecContext(ctx, m.db.Rebind("UPDATE root_causes_tree SET is_root_cause = NOT is_root_cause WHERE id = ?"), nodeID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (m *DB) GetSolutions(ctx context.Context, problemID problem.ProblemID) (*problem.SolutionList, error) {
	sl := problem.SolutionList{}
	err := m.db.SelectContext(ctx, &sl, m.db.Rebind(selectSolution+" WHERE s.problem_id = ? ORDER BY s.created_at DESC, s.id DESC"), problemID)
	return &sl, err
}

func (m *DB) GetSolution(ctx context.Context, solutionID problem.SolutionID) (*problem.Solution, error) {
	var s problem.Solution
	if err := m.db.GetContext(ctx, &s, m.db.Rebind(selectSolution+" WHERE s.id = ?"), solutionID); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *DB) AddSolution(ctx context.Context, s *problem.Solution) (problem.SolutionID, error) {
	return m.insert(ctx, `INSERT INTO solutions (problem_id, root_cause_id, author_id, description, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`,
		s.ProblemID, s.RootCauseID, s.AuthorID, s.Description, m.stamp(s.CreatedAt))
}

func (m *DB) GetCrews(ctx context.Context) (*problem.CrewList, error) {
	cl := problem.CrewList{}
	err := m.db.SelectContext(ctx, &cl, "SELECT id, name FROM crews ORDER BY name, id")
	return &cl, err
}

func (m *DB) GetCrew(ctx context.Context, crewID problem.CrewID) (*problem.Crew, error) {
	var c problem.Crew
	if err := m.db.GetContext(ctx, &c, m.db.Rebind("SELECT id, name FROM crews WHERE id = ?"), crewID); err != nil {
		return nil, err
	}
	return &c, nil
}

func (m *DB) AddCrew(ctx context.Context, c *problem.Crew) (problem.CrewID, error) {
	return m.insert(ctx, "INSERT INTO crews (name) VALUES (?) RETURNING id", c.Name)
}

func (m *DB) GetUser(ctx context.Context, userID problem.UserID) (*problem.User, error) {
	var u problem.User
	if err := m.db.GetContext(ctx, &u, m.db.Rebind(selectUser+" WHERE u.id = ?"), userID); err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *DB) AddUser(ctx context.Context, u *problem.User) (problem.UserID, error) {
	return m.insert(ctx, "INSERT INTO users (crew_id, name, email, created_at) VALUES (?, ?, ?, ?) RETURNING id",
		u.CrewID, u.Name, u.Email, m.now())
}
