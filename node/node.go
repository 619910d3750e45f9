package node

import (
	"time"
)

type NodeID = int64
type ProblemID = int64
type UserID = int64

// Node is one entry of a problem's root-cause tree as stored in the
// root_causes_tree table. The tree shape is never stored, only ParentID.
type Node struct {
	ID          NodeID    `db:"id" json:"id"`
	ParentID    *NodeID   `db:"parent_id" json:"parentId"`
	ProblemID   ProblemID `db:"problem_id" json:"-"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	AuthorID    *UserID   `db:"author_id" json:"authorId"`
	AuthorName  *string   `db:"author_name" json:"authorName"`
	IsRootCause bool      `db:"is_root_cause" json:"isRootCause"`
}

type NodeList []Node

// IsRoot reports whether the node was created without a parent.
func (n Node) IsRoot() bool {
	return n.ParentID == nil
}

// Less orders nodes by creation time, falling back to the id when two
// nodes share a timestamp.
func (n Node) Less(o Node) bool {
	if n.CreatedAt.Equal(o.CreatedAt) {
		return n.ID < o.ID
	}
	return n.CreatedAt.Before(o.CreatedAt)
}

// Parent returns a pointer suitable for Node.ParentID.
func Parent(id NodeID) *NodeID {
	return &id
}

// Clone returns a copy of n that shares no pointers with it.
func (n Node) Clone() Node {
	if n.ParentID != nil {
		n.ParentID = Parent(*n.ParentID)
	}
	if n.AuthorID != nil {
		author := *n.AuthorID
		n.AuthorID = &author
	}
	if n.AuthorName != nil {
		name := *n.AuthorName
		n.AuthorName = &name
	}
	return n
}

// Clone deep copies every node of nl.
func (nl NodeList) Clone() NodeList {
	result := make(NodeList, len(nl))
	for i, n := range nl {
		result[i] = n.Clone()
	}
	return result
}
