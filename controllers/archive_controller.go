package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkwell/sketchblog/middleware"
	"github.com/inkwell/sketchblog/models"
	"github.com/inkwell/sketchblog/utils"
)

// ArchiveController serves date-based archives grouped by year and month.
type ArchiveController struct {
	db *gorm.DB
}

// NewArchiveController creates a new ArchiveController instance.
func NewArchiveController(db *gorm.DB) *ArchiveController {
	return &ArchiveController{db: db}
}

// ListYears returns the years that have published posts, newest first, with
// per-year counts.
func (a *ArchiveController) ListYears(ctx *gin.Context) {
	posts, err := a.publishedPosts(ctx, nil, nil)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50090, "failed to load archive")
		return
	}

	counts := map[int]int{}
	years := []int{}
	for _, p := range posts {
		y := p.Date.Year()
		if counts[y] == 0 {
			years = append(years, y)
		}
		counts[y]++
	}
	// posts come back date-descending, so years are already newest first
	items := make([]gin.H, 0, len(years))
	for _, y := range years {
		items = append(items, gin.H{"year": y, "post_count": counts[y]})
	}
	utils.Success(ctx, gin.H{"items": items})
}

// ListByYear returns the posts of one year grouped by month, newest first.
func (a *ArchiveController) ListByYear(ctx *gin.Context) {
	year, err := strconv.Atoi(ctx.Param("year"))
	if err != nil || year < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40090, "invalid year")
		return
	}

	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	posts, err := a.publishedPosts(ctx, &start, &end)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50091, "failed to load archive")
		return
	}

	type monthGroup struct {
		Month     int           `json:"month"`
		MonthName string        `json:"month_name"`
		PostCount int           `json:"post_count"`
		Posts     []models.Post `json:"posts"`
	}
	groups := []*monthGroup{}
	byMonth := map[int]*monthGroup{}
	for _, p := range posts {
		m := int(p.Date.Month())
		g, ok := byMonth[m]
		if !ok {
			g = &monthGroup{Month: m, MonthName: p.Date.Month().String()}
			byMonth[m] = g
			groups = append(groups, g)
		}
		g.Posts = append(g.Posts, p)
		g.PostCount++
	}
	utils.Success(ctx, gin.H{"year": year, "post_count": len(posts), "months": groups})
}

// ListByMonth returns the posts of one year+month.
func (a *ArchiveController) ListByMonth(ctx *gin.Context) {
	year, err := strconv.Atoi(ctx.Param("year"))
	if err != nil || year < 1 {
		utils.Error(ctx, http.StatusBadRequest, 40090, "invalid year")
		return
	}
	month, err := strconv.Atoi(ctx.Param("month"))
	if err != nil || month < 1 || month > 12 {
		utils.Error(ctx, http.StatusBadRequest, 40091, "invalid month")
		return
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	posts, err := a.publishedPosts(ctx, &start, &end)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50092, "failed to load archive")
		return
	}

	utils.Success(ctx, gin.H{
		"year":       year,
		"month":      month,
		"month_name": time.Month(month).String(),
		"post_count": len(posts),
		"items":      posts,
	})
}

func (a *ArchiveController) publishedPosts(ctx *gin.Context, start, end *time.Time) ([]models.Post, error) {
	query := a.db.Model(&models.Post{})
	if start != nil {
		query = query.Where("date >= ?", *start)
	}
	if end != nil {
		query = query.Where("date < ?", *end)
	}
	if !middleware.IsAdmin(ctx) {
		query = query.Where("date <= ?", time.Now())
	}
	var posts []models.Post
	err := query.Order("date DESC").Find(&posts).Error
	return posts, err
}
