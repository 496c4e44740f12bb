package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkwell/sketchblog/models"
	"github.com/inkwell/sketchblog/utils"
)

func newAdminRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	a := NewAdminController(db)
	r.POST("/api/admin/login", a.Login)
	r.GET("/api/admin/stats", a.Stats)
	r.GET("/api/admin/settings", a.GetSettings)
	r.PUT("/api/admin/settings", a.UpdateSettings)
	return r
}

func TestLoginWrongPassword(t *testing.T) {
	db := newTestDB(t)
	r := newAdminRouter(db)

	w := doJSON(t, r, "POST", "/api/admin/login", gin.H{"password": "nope"})
	// Wrong credentials still answer 200; the body carries the verdict.
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Nil(t, body["token"])
}

func TestLoginRightPasswordIssuesToken(t *testing.T) {
	db := newTestDB(t)
	r := newAdminRouter(db)

	w := doJSON(t, r, "POST", "/api/admin/login", gin.H{"password": "sesame"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, true, body["success"])
	token, ok := body["token"].(string)
	require.True(t, ok)

	claims, err := utils.ParseAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
}

func TestLoginMissingPassword(t *testing.T) {
	db := newTestDB(t)
	r := newAdminRouter(db)

	w := doJSON(t, r, "POST", "/api/admin/login", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsAggregates(t *testing.T) {
	db := newTestDB(t)
	r := newAdminRouter(db)

	p1 := seedPost(t, db, "one", time.Now().Add(-time.Hour))
	p2 := seedPost(t, db, "two", time.Now().Add(-time.Hour))
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", p1.ID).Update("view_count", 7).Error)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", p2.ID).Update("view_count", 3).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: p1.ID, Nickname: "x", Content: "c"}).Error)

	w := doJSON(t, r, "GET", "/api/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataField(t, w)
	assert.EqualValues(t, 2, data["post_count"])
	assert.EqualValues(t, 1, data["comment_count"])
	assert.EqualValues(t, 10, data["total_views"])
}

func TestSettingsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	r := newAdminRouter(db)

	// Before any write the config fallbacks apply.
	w := doJSON(t, r, "GET", "/api/admin/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	assert.EqualValues(t, 5, data["comment_rate_limit"])
	assert.EqualValues(t, 60, data["comment_rate_window_seconds"])

	w = doJSON(t, r, "PUT", "/api/admin/settings",
		gin.H{"comment_rate_limit": 9, "comment_rate_window_seconds": 120})
	require.Equal(t, http.StatusOK, w.Code)
	data = dataField(t, w)
	assert.EqualValues(t, 9, data["comment_rate_limit"])
	assert.EqualValues(t, 120, data["comment_rate_window_seconds"])

	assert.Equal(t, 9, models.GetSettingInt(db, models.SettingCommentRateLimit, 0))
}

func TestSettingsRejectNonPositive(t *testing.T) {
	db := newTestDB(t)
	r := newAdminRouter(db)

	w := doJSON(t, r, "PUT", "/api/admin/settings", gin.H{"comment_rate_limit": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "PUT", "/api/admin/settings", gin.H{"comment_rate_window_seconds": -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
