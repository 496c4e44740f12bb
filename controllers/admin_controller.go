package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inkwell/sketchblog/config"
	"github.com/inkwell/sketchblog/middleware"
	"github.com/inkwell/sketchblog/models"
	"github.com/inkwell/sketchblog/utils"
)

const adminTokenTTL = 24 * time.Hour

// AdminController implements the single-password admin gate plus the
// admin-only stats and settings endpoints.
type AdminController struct {
	db *gorm.DB
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

// Login checks the admin password and issues a signed token. A wrong
// password answers 200 with success=false and a null token; 401 is reserved
// for protected routes.
func (a *AdminController) Login(ctx *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "invalid request payload")
		return
	}

	cfg := config.Get()
	if !utils.CheckAdminPassword(cfg.AdminPassword, req.Password) {
		ctx.JSON(http.StatusOK, gin.H{"success": false, "token": nil})
		return
	}

	token, err := utils.GenerateAdminToken(adminTokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to issue token")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

// Logout revokes the presented token until its natural expiration.
func (a *AdminController) Logout(ctx *gin.Context) {
	v, _ := ctx.Get(middleware.ContextTokenKey)
	token, _ := v.(string)
	if token != "" {
		exp := time.Now().Add(adminTokenTTL)
		if claims, err := utils.ParseAdminToken(token); err == nil && claims.ExpiresAt != nil {
			exp = claims.ExpiresAt.Time
		}
		utils.BlacklistToken(token, exp)
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Stats returns aggregate content statistics.
func (a *AdminController) Stats(ctx *gin.Context) {
	var postCount, commentCount, viewRecordCount int64
	var totalViews int64

	if err := a.db.Model(&models.Post{}).Count(&postCount).Error; err != nil {
		postCount = 0
	}
	if err := a.db.Model(&models.Comment{}).Count(&commentCount).Error; err != nil {
		commentCount = 0
	}
	if err := a.db.Model(&models.ViewRecord{}).Count(&viewRecordCount).Error; err != nil {
		viewRecordCount = 0
	}
	if err := a.db.Model(&models.Post{}).
		Select("COALESCE(SUM(view_count),0)").
		Scan(&totalViews).Error; err != nil {
		totalViews = 0
	}

	// Today's raw page views, aligned with the DATE column.
	var dailyViews int64
	today := time.Now().In(time.Local).Format("2006-01-02")
	if err := a.db.Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&dailyViews).Error; err != nil {
		dailyViews = 0
	}

	utils.Success(ctx, gin.H{
		"post_count":        postCount,
		"comment_count":     commentCount,
		"total_views":       totalViews,
		"view_record_count": viewRecordCount,
		"daily_page_views":  dailyViews,
	})
}

// GetSettings returns the runtime-tunable policy settings with their
// effective values (stored value, or the config fallback).
func (a *AdminController) GetSettings(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"comment_rate_limit":          models.GetSettingInt(a.db, models.SettingCommentRateLimit, cfg.CommentRateLimit),
		"comment_rate_window_seconds": models.GetSettingInt(a.db, models.SettingCommentRateWindow, cfg.CommentRateWindowSec),
	})
}

// UpdateSettings stores new policy values. Subsequent comment requests pick
// them up immediately since limits are read per request.
func (a *AdminController) UpdateSettings(ctx *gin.Context) {
	var req struct {
		CommentRateLimit         *int `json:"comment_rate_limit"`
		CommentRateWindowSeconds *int `json:"comment_rate_window_seconds"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40081, "invalid request payload")
		return
	}

	if req.CommentRateLimit != nil {
		if *req.CommentRateLimit <= 0 {
			utils.Error(ctx, http.StatusBadRequest, 40082, "comment_rate_limit must be positive")
			return
		}
		if err := models.SetSetting(a.db, models.SettingCommentRateLimit,
			strconv.Itoa(*req.CommentRateLimit), "max comments per IP per window"); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to update settings")
			return
		}
	}
	if req.CommentRateWindowSeconds != nil {
		if *req.CommentRateWindowSeconds <= 0 {
			utils.Error(ctx, http.StatusBadRequest, 40083, "comment_rate_window_seconds must be positive")
			return
		}
		if err := models.SetSetting(a.db, models.SettingCommentRateWindow,
			strconv.Itoa(*req.CommentRateWindowSeconds), "sliding window length in seconds"); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50082, "failed to update settings")
			return
		}
	}

	a.GetSettings(ctx)
}
