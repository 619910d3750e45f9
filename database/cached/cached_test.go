package cached

import (
	"context"
	"reflect"
	"testing"

	"github.com/aquilax/eightd/database"
	"github.com/aquilax/eightd/database/databasetest"
	"github.com/aquilax/eightd/database/memory"
	"github.com/aquilax/eightd/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImplementsDatabase(t *testing.T) {
	inter := reflect.TypeOf((*database.Database)(nil)).Elem()

	if !reflect.TypeOf(New(memory.New())).Implements(inter) {
		t.Errorf("Cached does not implement the database interface")
	}
}

func TestCached(t *testing.T) {
	databasetest.Run(t, New(memory.New()))
}

func TestCachedInvalidation(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	db := New(backend)
	fx := databasetest.Seed(t, db)

	root, err := db.AddNode(ctx, &node.Node{ProblemID: fx.Problem, Description: "root"})
	require.NoError(t, err)

	nl, err := db.GetNodes(ctx, fx.Problem)
	require.NoError(t, err)
	require.Len(t, *nl, 1)

	// writes that bypass the cache are not seen
	_, err = backend.AddNode(ctx, &node.Node{ProblemID: fx.Problem, Description: "hidden"})
	require.NoError(t, err)
	nl, err = db.GetNodes(ctx, fx.Problem)
	require.NoError(t, err)
	assert.Len(t, *nl, 1)

	// callers cannot corrupt the cached list
	(*nl)[0].Description = "changed"
	nl, err = db.GetNodes(ctx, fx.Problem)
	require.NoError(t, err)
	assert.Equal(t, "root", (*nl)[0].Description)

	_, err = db.AddNode(ctx, &node.Node{ProblemID: fx.Problem, ParentID: &root, Description: "child"})
	require.NoError(t, err)
	nl, err = db.GetNodes(ctx, fx.Problem)
	require.NoError(t, err)
	assert.Len(t, *nl, 3)

	require.NoError(t, db.ToggleRootCause(ctx, root))
	nl, err = db.GetNodes(ctx, fx.Problem)
	require.NoError(t, err)
	assert.True(t, (*nl)[0].IsRootCause)
}

// pausingNodes holds GetNodes after the backend read until released.
type pausingNodes struct {
	*memory.Memory
	read    chan struct{}
	release chan struct{}
}

func (p *pausingNodes) GetNodes(ctx context.Context, problemID node.ProblemID) (*node.NodeList, error) {
	nl, err := p.Memory.GetNodes(ctx, problemID)
	if p.read != nil {
		p.read <- struct{}{}
		<-p.release
	}
	return nl, err
}

func TestCachedWriteDuringRead(t *testing.T) {
	ctx := context.Background()
	backend := &pausingNodes{Memory: memory.New()}
	db := New(backend)
	fx := databasetest.Seed(t, db)

	backend.read = make(chan struct{})
	backend.release = make(chan struct{})
	done := make(chan error)
	go func() {
		_, err := db.GetNodes(ctx, fx.Problem)
		done <- err
	}()
	<-backend.read
	backend.read = nil

	_, err := db.AddNode(ctx, &node.Node{ProblemID: fx.Problem, Description: "added while reading"})
	require.NoError(t, err)
	close(backend.release)
	require.NoError(t, <-done)

	nl, err := db.GetNodes(ctx, fx.Problem)
	require.NoError(t, err)
	require.Len(t, *nl, 1)
	assert.Equal(t, "added while reading", (*nl)[0].Description)
}

func TestCachedListsShareNoPointers(t *testing.T) {
	ctx := context.Background()
	db := New(memory.New())
	fx := databasetest.Seed(t, db)
	root, err := db.AddNode(ctx, &node.Node{ProblemID: fx.Problem, Description: "root", AuthorID: &fx.User})
	require.NoError(t, err)
	_, err = db.AddNode(ctx, &node.Node{ProblemID: fx.Problem, ParentID: &root, Description: "child"})
	require.NoError(t, err)

	nl, err := db.GetNodes(ctx, fx.Problem)
	require.NoError(t, err)
	*(*nl)[0].AuthorName = "changed"
	*(*nl)[1].ParentID = 99

	nl, err = db.GetNodes(ctx, fx.Problem)
	require.NoError(t, err)
	assert.Equal(t, "Ana", *(*nl)[0].AuthorName)
	assert.Equal(t, root, *(*nl)[1].ParentID)
}
