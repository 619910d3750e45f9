// Package problem holds the records surrounding a root-cause tree: the
// problem that owns it, the solutions attached to its nodes, and the crews
// and users that create them.
package problem

import (
	"time"

	"github.com/aquilax/eightd/node"
)

type ProblemID = node.ProblemID
type SolutionID = int64
type CrewID = int64
type UserID = node.UserID

// Ref is the {id, name} pair used for creators, authors and crews.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Problem struct {
	ID          ProblemID `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	CreatedByID UserID    `db:"created_by_id"`
	CreatedBy   string    `db:"created_by_name"`
	CrewID      CrewID    `db:"crew_id"`
	CrewName    string    `db:"crew_name"`
}

type ProblemList []Problem

// Creator is the user who opened the problem.
func (p Problem) Creator() Ref {
	return Ref{ID: p.CreatedByID, Name: p.CreatedBy}
}

// Crew is the crew the problem was assigned to.
func (p Problem) Crew() Ref {
	return Ref{ID: p.CrewID, Name: p.CrewName}
}

type Solution struct {
	ID                   SolutionID  `db:"id"`
	ProblemID            ProblemID   `db:"problem_id"`
	RootCauseID          node.NodeID `db:"root_cause_id"`
	RootCauseDescription *string     `db:"root_cause_description"`
	IsRootCause          *bool       `db:"is_root_cause"`
	Description          string      `db:"description"`
	CreatedAt            time.Time   `db:"created_at"`
	AuthorID             *UserID     `db:"author_id"`
	AuthorName           *string     `db:"author_name"`
}

type SolutionList []Solution

// Author returns nil for solutions without attribution.
func (s Solution) Author() *Ref {
	if s.AuthorID == nil {
		return nil
	}
	ref := &Ref{ID: *s.AuthorID}
	if s.AuthorName != nil {
		ref.Name = *s.AuthorName
	}
	return ref
}

type Crew struct {
	ID   CrewID `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type CrewList []Crew

type User struct {
	ID       UserID  `db:"id"`
	Name     string  `db:"name"`
	Email    string  `db:"email"`
	CrewID   *CrewID `db:"crew_id"`
	CrewName *string `db:"crew_name"`
}

// Crew returns nil for users without a crew.
func (u User) Crew() *Ref {
	if u.CrewID == nil {
		return nil
	}
	ref := &Ref{ID: *u.CrewID}
	if u.CrewName != nil {
		ref.Name = *u.CrewName
	}
	return ref
}
