package service_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threaded-comments-api/internal/apperror"
	"github.com/threaded-comments-api/internal/config"
	"github.com/threaded-comments-api/internal/models"
)

func childIDs(n *models.CommentNode) []int64 {
	out := make([]int64, len(n.Children))
	for i, c := range n.Children {
		out[i] = c.ID
	}
	return out
}

func TestSubtreeKeepsDeletedNodesAsPlaceholders(t *testing.T) {
	f := newFixture(t)
	a := f.article(t)
	parent := f.topLevel(t, a.ID, "parent")
	child1 := f.reply(t, parent.ID, "child one")
	grand1 := f.reply(t, child1.ID, "grandchild")
	child2 := f.reply(t, parent.ID, "child two")
	require.NoError(t, f.services.Comments.SoftDelete(f.ctx, child1.ID))

	tree, err := f.services.Comments.GetSubtree(f.ctx, parent.ID)
	require.NoError(t, err)

	assert.Equal(t, parent.ID, tree.ID)
	assert.Equal(t, "parent", tree.Content)
	require.Equal(t, []int64{child1.ID, child2.ID}, childIDs(tree))

	deleted := tree.Children[0]
	assert.Equal(t, models.DeletedPlaceholder, deleted.Content)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, child1.AuthorID, deleted.AuthorID)
	assert.Equal(t, child1.CreatedAt, deleted.CreatedAt)
	assert.Equal(t, 1, deleted.Depth)
	require.Equal(t, []int64{grand1.ID}, childIDs(deleted))
	assert.Equal(t, "grandchild", deleted.Children[0].Content)

	assert.Equal(t, "child two", tree.Children[1].Content)
	assert.Empty(t, tree.Children[1].Children)
	assert.NotNil(t, tree.Children[1].Children)

	// The stored row keeps its original content
	assert.Equal(t, "child one", f.store.Comment(child1.ID).Content)
}

func TestSubtreeOfDeletedComment(t *testing.T) {
	f := newFixture(t)
	a := f.article(t)
	root := f.topLevel(t, a.ID, "root")
	child := f.reply(t, root.ID, "child")
	require.NoError(t, f.services.Comments.SoftDelete(f.ctx, root.ID))

	tree, err := f.services.Comments.GetSubtree(f.ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeletedPlaceholder, tree.Content)
	assert.Equal(t, []int64{child.ID}, childIDs(tree))
}

func TestSubtreeOfReply(t *testing.T) {
	f := newFixture(t)
	a := f.article(t)
	root := f.topLevel(t, a.ID, "root")
	child := f.reply(t, root.ID, "child")
	grand := f.reply(t, child.ID, "grand")
	f.reply(t, root.ID, "sibling")

	tree, err := f.services.Comments.GetSubtree(f.ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, child.ID, tree.ID)
	assert.Equal(t, []int64{grand.ID}, childIDs(tree))
	assert.Equal(t, 2, tree.Size())
}

func TestSubtreeUnknownComment(t *testing.T) {
	f := newFixture(t)

	_, err := f.services.Comments.GetSubtree(f.ctx, 404)
	assert.True(t, apperror.Is(err, apperror.KindNotFound), "got %v", err)
}

func TestSubtreeCapsFanOutPerParent(t *testing.T) {
	f := newFixture(t, func(c *config.CommentsConfig) { c.TreeMaxChildren = 3 })
	a := f.article(t)
	root := f.topLevel(t, a.ID, "root")

	var children []*models.Comment
	for i := 0; i < 5; i++ {
		children = append(children, f.reply(t, root.ID, "child"))
	}
	for i := 0; i < 4; i++ {
		f.reply(t, children[0].ID, "grand")
	}

	tree, err := f.services.Comments.GetSubtree(f.ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{children[0].ID, children[1].ID, children[2].ID}, childIDs(tree))
	assert.Len(t, tree.Children[0].Children, 3)
}

func TestSubtreeCapsLevels(t *testing.T) {
	f := newFixture(t, func(c *config.CommentsConfig) { c.TreeMaxLevels = 2 })
	a := f.article(t)
	node := f.topLevel(t, a.ID, "root")
	rootID := node.ID
	for i := 0; i < 4; i++ {
		node = f.reply(t, node.ID, "deeper")
	}

	tree, err := f.services.Comments.GetSubtree(f.ctx, rootID)
	require.NoError(t, err)
	assert.Equal(t, 3, tree.Size())
	require.Len(t, tree.Children, 1)
	require.Len(t, tree.Children[0].Children, 1)
	assert.Empty(t, tree.Children[0].Children[0].Children)
	assert.Equal(t, 2, f.store.ListFirstChildrenCalls)
}

func TestSubtreeUsesDescendingOrderWhenConfigured(t *testing.T) {
	f := newFixture(t, func(c *config.CommentsConfig) { c.TreeOrder = "desc" })
	a := f.article(t)
	root := f.topLevel(t, a.ID, "root")
	c1 := f.reply(t, root.ID, "first")
	c2 := f.reply(t, root.ID, "second")

	tree, err := f.services.Comments.GetSubtree(f.ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{c2.ID, c1.ID}, childIDs(tree))
}

func TestSubtreeIssuesOneQueryPerLevel(t *testing.T) {
	f := newFixture(t)
	a := f.article(t)
	root := f.topLevel(t, a.ID, "root")
	for i := 0; i < 5; i++ {
		child := f.reply(t, root.ID, "child")
		f.reply(t, child.ID, "grand")
	}

	tree, err := f.services.Comments.GetSubtree(f.ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, tree.Size())

	// Two populated levels plus the empty one that ends the walk
	assert.Equal(t, 3, f.store.ListFirstChildrenCalls)
}

func TestSubtreeChunksLargeFrontiers(t *testing.T) {
	f := newFixture(t, func(c *config.CommentsConfig) { c.ParentBatchSize = 2 })
	a := f.article(t)
	root := f.topLevel(t, a.ID, "root")
	for i := 0; i < 5; i++ {
		child := f.reply(t, root.ID, "child")
		f.reply(t, child.ID, "grand")
	}

	var batches [][]int64
	f.store.BeforeListFirstChildren = func(parentIDs []int64) {
		batches = append(batches, append([]int64(nil), parentIDs...))
	}

	tree, err := f.services.Comments.GetSubtree(f.ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, tree.Size())

	// 1 root, then 5 children in chunks of 2, then 5 grandchildren in chunks of 2
	assert.Equal(t, 7, f.store.ListFirstChildrenCalls)
	for _, batch := range batches {
		assert.LessOrEqual(t, len(batch), 2)
	}

	// Chunking does not change the order children are attached in
	for _, child := range tree.Children {
		require.Len(t, child.Children, 1)
		assert.Equal(t, child.ID, *child.Children[0].ParentID)
	}
}

func TestSubtreeStorageFailure(t *testing.T) {
	f := newFixture(t)
	a := f.article(t)
	root := f.topLevel(t, a.ID, "root")
	f.store.ListFirstChildrenError = errors.New("connection reset")

	_, err := f.services.Comments.GetSubtree(f.ctx, root.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
}

func TestSubtreeReflectsLaterWrites(t *testing.T) {
	f := newFixture(t)
	a := f.article(t)
	root := f.topLevel(t, a.ID, "root")

	tree, err := f.services.Comments.GetSubtree(f.ctx, root.ID)
	require.NoError(t, err)
	assert.Empty(t, tree.Children)

	child := f.reply(t, root.ID, "child")
	require.NoError(t, f.services.Comments.SoftDelete(f.ctx, child.ID))

	tree, err = f.services.Comments.GetSubtree(f.ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, models.DeletedPlaceholder, tree.Children[0].Content)
}

func TestConcurrentSubtreeRequestsShareOneAssembly(t *testing.T) {
	f := newFixture(t)
	a := f.article(t)
	root := f.topLevel(t, a.ID, "root")
	f.reply(t, root.ID, "child")

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.store.BeforeListFirstChildren = func([]int64) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	const callers = 5
	results := make([]*models.CommentNode, callers)
	var wg sync.WaitGroup
	get := func(i int) {
		defer wg.Done()
		tree, err := f.services.Comments.GetSubtree(f.ctx, root.ID)
		assert.NoError(t, err)
		results[i] = tree
	}

	wg.Add(1)
	go get(0)
	<-entered

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go get(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	// One assembly: the root level plus the empty level below the child
	assert.Equal(t, 2, f.store.ListFirstChildrenCalls)
	for _, tree := range results[1:] {
		assert.Same(t, results[0], tree)
	}
}
