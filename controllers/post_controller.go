package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkwell/sketchblog/middleware"
	"github.com/inkwell/sketchblog/models"
	"github.com/inkwell/sketchblog/services"
	"github.com/inkwell/sketchblog/utils"
)

// PostController manages CRUD and read operations for posts.
type PostController struct {
	db    *gorm.DB
	views *services.ViewCounter
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, views *services.ViewCounter) *PostController {
	return &PostController{db: db, views: views}
}

type postPayload struct {
	Title       string     `json:"title" binding:"required,min=1,max=255"`
	Excerpt     string     `json:"excerpt" binding:"required,min=1,max=500"`
	Content     string     `json:"content" binding:"required,min=1"`
	Tags        []string   `json:"tags"`
	PublishDate *time.Time `json:"publish_date"`
}

// CreatePost creates a new post (admin only).
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}

	date := time.Now()
	if req.PublishDate != nil {
		date = *req.PublishDate
	}

	post := models.Post{
		Title:   title,
		Excerpt: utils.Sanitize(req.Excerpt),
		Content: utils.Sanitize(req.Content),
		Tags:    models.TagList(utils.UniqueStrings(req.Tags)),
		Date:    date,
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:tags")

	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"post": post})
}

// ListPosts returns paginated posts, newest publish date first. Scheduled
// posts (publish date in the future) are hidden unless the request carries a
// valid admin token. Supports search and tag filters.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))
	tag := strings.TrimSpace(ctx.Query("tag"))
	isAdmin := middleware.IsAdmin(ctx)

	// Cache plain listings only; search/tag/admin variants would explode the
	// key space.
	cacheable := search == "" && tag == "" && !isAdmin
	cacheKey := fmt.Sprintf("cache:posts:list:page=%d:size=%d", page, pageSize)
	if cacheable {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	query := p.db.Model(&models.Post{})
	if !isAdmin {
		query = query.Where("date <= ?", time.Now())
	}
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ? OR excerpt LIKE ?", pattern, pattern, pattern)
	}
	if tag != "" {
		query = query.Where("tags LIKE ? ESCAPE '!'", "%"+tagPattern(tag)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}

	var posts []models.Post
	offset := (page - 1) * pageSize
	if err := query.Order("date DESC").Offset(offset).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	payload := gin.H{
		"items": posts,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if cacheable {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetPost returns a single post.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID := ctx.Param("id")

	if b, ok := utils.CacheGetBytes("cache:post:detail:" + postID); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	payload := gin.H{"post": post}
	utils.CacheSetJSON("cache:post:detail:"+postID, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// RecordView counts a view of the post, deduplicated per client IP within the
// dedup window, and returns the fresh counter.
func (p *PostController) RecordView(ctx *gin.Context) {
	postID, err := parseID(ctx.Param("id"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid post id")
		return
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load post")
		return
	}

	counted, err := p.views.RecordView(post.ID, ctx.ClientIP())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to record view")
		return
	}

	var count int64
	if err := p.db.Model(&models.Post{}).Where("id = ?", post.ID).
		Select("view_count").Scan(&count).Error; err != nil {
		count = post.ViewCount
	}

	if counted {
		utils.InvalidateByPrefix("cache:post:detail:" + ctx.Param("id"))
	}

	utils.Success(ctx, gin.H{"counted": counted, "view_count": count})
}

// PopularPosts returns published posts ordered by view count.
func (p *PostController) PopularPosts(ctx *gin.Context) {
	limit := 5
	if v, err := strconv.Atoi(ctx.Query("limit")); err == nil && v > 0 && v <= 50 {
		limit = v
	}

	query := p.db.Model(&models.Post{})
	if !middleware.IsAdmin(ctx) {
		query = query.Where("date <= ?", time.Now())
	}

	var posts []models.Post
	if err := query.Order("view_count DESC").Limit(limit).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list popular posts")
		return
	}
	utils.Success(ctx, gin.H{"items": posts})
}

// RelatedPosts returns published posts sharing at least one tag with the
// given post, ordered by view count.
func (p *PostController) RelatedPosts(ctx *gin.Context) {
	var post models.Post
	if err := p.db.First(&post, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to load post")
		return
	}

	if len(post.Tags) == 0 {
		utils.Success(ctx, gin.H{"items": []models.Post{}})
		return
	}

	limit := 5
	if v, err := strconv.Atoi(ctx.Query("limit")); err == nil && v > 0 && v <= 50 {
		limit = v
	}

	query := p.db.Model(&models.Post{}).Where("id != ?", post.ID)
	if !middleware.IsAdmin(ctx) {
		query = query.Where("date <= ?", time.Now())
	}

	// Match on any shared tag. Tags live as a JSON array in a TEXT column, so
	// a quoted-substring LIKE per tag is the portable match.
	tags := post.Tags
	if len(tags) > 5 {
		tags = tags[:5]
	}
	conds := p.db
	for i, t := range tags {
		like := "%" + tagPattern(t) + "%"
		if i == 0 {
			conds = p.db.Where("tags LIKE ? ESCAPE '!'", like)
		} else {
			conds = conds.Or("tags LIKE ? ESCAPE '!'", like)
		}
	}
	query = query.Where(conds)

	var posts []models.Post
	if err := query.Order("view_count DESC").Limit(limit).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to list related posts")
		return
	}
	utils.Success(ctx, gin.H{"items": posts})
}

// ListTags returns the distinct tags across published posts with usage counts.
func (p *PostController) ListTags(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes("cache:tags"); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var posts []models.Post
	if err := p.db.Select("tags").Where("date <= ?", time.Now()).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to load tags")
		return
	}

	counts := map[string]int{}
	order := []string{}
	for _, post := range posts {
		for _, t := range utils.UniqueStrings(post.Tags) {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}

	items := make([]gin.H, 0, len(order))
	for _, t := range order {
		items = append(items, gin.H{"tag": t, "count": counts[t]})
	}

	payload := gin.H{"items": items}
	utils.CacheSetJSON("cache:tags", utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// CheckTitle reports whether a post title is already taken (admin helper for
// the editor), optionally excluding one post id when editing.
func (p *PostController) CheckTitle(ctx *gin.Context) {
	var req struct {
		Title     string `json:"title" binding:"required,min=1,max=255"`
		ExcludeID *uint  `json:"exclude_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}

	query := p.db.Model(&models.Post{}).Where("title = ?", strings.TrimSpace(req.Title))
	if req.ExcludeID != nil {
		query = query.Where("id != ?", *req.ExcludeID)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to check title")
		return
	}
	utils.Success(ctx, gin.H{"exists": n > 0})
}

// UpdatePost updates a post (admin only). Fields are replaced wholesale; a
// nil publish_date keeps the current one.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req postPayload
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40404, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post")
		return
	}

	post.Title = strings.TrimSpace(req.Title)
	post.Excerpt = utils.Sanitize(req.Excerpt)
	post.Content = utils.Sanitize(req.Content)
	post.Tags = models.TagList(utils.UniqueStrings(req.Tags))
	if req.PublishDate != nil {
		post.Date = *req.PublishDate
	}

	if err := p.db.Save(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:" + postID)
	utils.InvalidateByPrefix("cache:tags")

	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost hard-deletes a post (admin only). Comments and view records are
// left in place; comment rows become unreachable through the API.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40405, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to load post")
		return
	}

	if err := p.db.Delete(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:" + postID)
	utils.InvalidateByPrefix("cache:tags")

	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// likeEscaper neutralizes LIKE metacharacters in a tag match. '!' is the
// escape character declared in the queries; MySQL's default backslash escape
// would collide with the backslashes of the stored JSON escapes.
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// tagPattern returns the JSON-encoded form of a tag as it appears inside the
// stored array, quotes included, so LIKE cannot match across tag boundaries.
// The fragment is escaped for use with LIKE ... ESCAPE '!'.
func tagPattern(tag string) string {
	b, err := json.Marshal(tag)
	if err != nil {
		return ""
	}
	return likeEscaper.Replace(string(b))
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
