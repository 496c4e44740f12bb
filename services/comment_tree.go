package services

import (
	"gorm.io/gorm"

	"github.com/inkwell/sketchblog/models"
)

// MaxReplyDepth bounds how many levels of replies are materialized below a
// top-level comment. Deeper replies stay in storage but are not returned,
// which keeps response size and recursion depth predictable.
const MaxReplyDepth = 3

// CommentNode is a comment plus its (possibly truncated) reply subtree.
type CommentNode struct {
	models.Comment
	Replies []CommentNode `json:"replies"`
}

// CommentTree assembles the bounded-depth reply forest for a post.
type CommentTree struct {
	db *gorm.DB
}

// NewCommentTree creates a tree assembler on top of db.
func NewCommentTree(db *gorm.DB) *CommentTree {
	return &CommentTree{db: db}
}

// TreeForPost returns the post's top-level comments ordered by creation time
// ("newest" descending, anything else ascending), each carrying up to
// MaxReplyDepth levels of replies. Reply ordering is always oldest-first
// regardless of the top-level sort.
func (t *CommentTree) TreeForPost(postID uint, sort string) ([]CommentNode, error) {
	order := "created_at ASC"
	if sort == "" || sort == "newest" {
		order = "created_at DESC"
	}

	var roots []models.Comment
	err := t.db.Where("post_id = ? AND parent_id IS NULL", postID).
		Order(order).
		Find(&roots).Error
	if err != nil {
		return nil, err
	}

	nodes := make([]CommentNode, 0, len(roots))
	for _, c := range roots {
		node, err := t.buildNode(c, 1)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (t *CommentTree) buildNode(c models.Comment, depth int) (CommentNode, error) {
	node := CommentNode{Comment: c, Replies: []CommentNode{}}
	if depth > MaxReplyDepth {
		// Depth limit reached: replies stay empty even if deeper rows exist.
		return node, nil
	}

	var replies []models.Comment
	err := t.db.Where("parent_id = ?", c.ID).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return node, err
	}
	for _, r := range replies {
		child, err := t.buildNode(r, depth+1)
		if err != nil {
			return node, err
		}
		node.Replies = append(node.Replies, child)
	}
	return node, nil
}
