package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkwell/sketchblog/config"
	"github.com/inkwell/sketchblog/models"
	"github.com/inkwell/sketchblog/services"
	"github.com/inkwell/sketchblog/utils"
)

// CommentController handles anonymous comments: bounded-depth tree reads,
// rate-limited creation, admin deletion.
type CommentController struct {
	db      *gorm.DB
	tree    *services.CommentTree
	limiter *services.CommentLimiter
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(db *gorm.DB, tree *services.CommentTree, limiter *services.CommentLimiter) *CommentController {
	return &CommentController{db: db, tree: tree, limiter: limiter}
}

// ListComments returns the comment tree for a post. sort=newest (default)
// orders top-level comments newest first, sort=oldest the other way; replies
// are always oldest first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	postID, err := parseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid post id")
		return
	}

	var post models.Post
	if err := c.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40410, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to load post")
		return
	}

	sort := ctx.DefaultQuery("sort", "newest")
	nodes, err := c.tree.TreeForPost(post.ID, sort)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to load comments")
		return
	}
	utils.Success(ctx, gin.H{"items": nodes})
}

// CreateComment adds an anonymous comment or reply. Creation is bounded by
// the per-IP sliding window, whose limits come from site settings (with
// config fallbacks) so they can be tuned at runtime.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		Nickname string `json:"nickname" binding:"max=50"`
		Content  string `json:"content" binding:"required,min=1,max=2000"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40061, "invalid request payload")
		return
	}

	content := utils.Sanitize(strings.TrimSpace(req.Content))
	if content == "" {
		utils.Error(ctx, http.StatusBadRequest, 40062, "content cannot be empty")
		return
	}

	postID, err := parseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid post id")
		return
	}

	var post models.Post
	if err := c.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40411, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load post")
		return
	}

	cfg := config.Get()
	limit := models.GetSettingInt(c.db, models.SettingCommentRateLimit, cfg.CommentRateLimit)
	windowSec := models.GetSettingInt(c.db, models.SettingCommentRateWindow, cfg.CommentRateWindowSec)
	if !c.limiter.Allow(ctx.ClientIP(), limit, time.Duration(windowSec)*time.Second) {
		utils.Error(ctx, http.StatusTooManyRequests, 42902, "too many comments, slow down")
		return
	}

	if req.ParentID != nil {
		var parent models.Comment
		if err := c.db.First(&parent, *req.ParentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.Error(ctx, http.StatusBadRequest, 40063, "parent comment not found")
				return
			}
			utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to load parent comment")
			return
		}
		if parent.PostID != post.ID {
			utils.Error(ctx, http.StatusBadRequest, 40064, "parent comment belongs to another post")
			return
		}
	}

	nickname := utils.Sanitize(strings.TrimSpace(req.Nickname))
	if nickname == "" {
		nickname = "匿名用户"
	}

	comment := models.Comment{
		PostID:   post.ID,
		Nickname: nickname,
		Content:  content,
		ParentID: req.ParentID,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to create comment")
		return
	}

	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"comment": comment})
}

// DeleteComment removes a comment (admin only). Replies are not cascaded;
// they become invisible to tree assembly but stay in storage.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	var comment models.Comment
	if err := c.db.First(&comment, ctx.Param("commentId")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40412, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50065, "failed to load comment")
		return
	}

	if err := c.db.Delete(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50066, "failed to delete comment")
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
