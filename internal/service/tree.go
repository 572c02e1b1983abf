package service

import (
	"context"
	"strconv"

	"github.com/threaded-comments-api/internal/apperror"
	"github.com/threaded-comments-api/internal/models"
)

// GetSubtree returns the comment with its replies, level by level. Deleted
// comments stay in the tree as placeholders so their replies keep a parent.
// Concurrent requests for the same comment share one assembly.
func (s *commentService) GetSubtree(ctx context.Context, commentID int64) (*models.CommentNode, error) {
	// Waiters share one call, detached from any single caller's cancellation.
	shared := context.WithoutCancel(ctx)

	v, err, _ := s.trees.Do(strconv.FormatInt(commentID, 10), func() (interface{}, error) {
		return s.buildSubtree(shared, commentID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.CommentNode), nil
}

func (s *commentService) buildSubtree(ctx context.Context, commentID int64) (*models.CommentNode, error) {
	root, err := s.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load comment")
	}
	if root == nil {
		return nil, apperror.NotFound("comment not found")
	}

	tree := models.NewCommentNode(root)
	frontier := []*models.CommentNode{tree}
	levels, nodes := 0, 1

	for len(frontier) > 0 {
		if s.cfg.TreeMaxLevels > 0 && levels >= s.cfg.TreeMaxLevels {
			break
		}

		next, err := s.fetchLevel(ctx, root.ArticleID, frontier)
		if err != nil {
			return nil, err
		}
		if len(next) == 0 {
			break
		}

		levels++
		nodes += len(next)
		frontier = next
	}

	s.metrics.RecordTree(levels, nodes)
	s.log.Debug().
		Int64("comment_id", commentID).
		Int("levels", levels).
		Int("nodes", nodes).
		Msg("Subtree assembled")

	return tree, nil
}

// fetchLevel attaches the children of every frontier node and returns them
// as the next frontier. Parent ids are sent in chunks of ParentBatchSize.
func (s *commentService) fetchLevel(ctx context.Context, articleID int64, frontier []*models.CommentNode) ([]*models.CommentNode, error) {
	byID := make(map[int64]*models.CommentNode, len(frontier))
	ids := make([]int64, 0, len(frontier))
	for _, node := range frontier {
		byID[node.ID] = node
		ids = append(ids, node.ID)
	}

	var next []*models.CommentNode
	for start := 0; start < len(ids); start += s.cfg.ParentBatchSize {
		end := min(start+s.cfg.ParentBatchSize, len(ids))

		children, err := s.repos.Comment.ListFirstChildren(ctx, articleID, ids[start:end], s.cfg.TreeMaxChildren, s.treeOrder)
		if err != nil {
			return nil, apperror.Internal(err, "failed to load replies")
		}

		for _, c := range children {
			if c.ParentID == nil {
				continue
			}
			parent, ok := byID[*c.ParentID]
			if !ok {
				continue
			}
			child := models.NewCommentNode(c)
			parent.Children = append(parent.Children, child)
			next = append(next, child)
		}
	}
	return next, nil
}
