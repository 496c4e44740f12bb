package controllers

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/inkwell/sketchblog/middleware"
	"github.com/inkwell/sketchblog/models"
	"github.com/inkwell/sketchblog/services"
)

func newPostRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	p := NewPostController(db, services.NewViewCounter(db, 24*time.Hour))
	pub := r.Group("")
	pub.Use(middleware.OptionalAdmin())
	pub.GET("/api/posts", p.ListPosts)
	pub.GET("/api/posts/popular", p.PopularPosts)
	pub.POST("/api/posts/:id/view", p.RecordView)
	r.POST("/api/posts", p.CreatePost)
	r.POST("/api/posts/check-title", p.CheckTitle)
	r.PUT("/api/posts/:id", p.UpdatePost)
	r.DELETE("/api/posts/:id", p.DeletePost)
	return r
}

func seedTaggedPost(t *testing.T, db *gorm.DB, title string, tags []string, date time.Time) models.Post {
	t.Helper()
	post := models.Post{
		Title:   title,
		Excerpt: "excerpt",
		Content: "content",
		Tags:    models.TagList(tags),
		Date:    date,
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func TestListPostsHidesScheduled(t *testing.T) {
	db := newTestDB(t)
	seedPost(t, db, "published entry", time.Now().Add(-time.Hour))
	seedPost(t, db, "scheduled entry", time.Now().Add(48*time.Hour))
	r := newPostRouter(db)

	// search makes the listing uncacheable, keeping the test off Redis
	w := doJSON(t, r, "GET", "/api/posts?search=entry", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := dataField(t, w)
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "published entry", items[0].(map[string]interface{})["title"])

	pagination := data["pagination"].(map[string]interface{})
	assert.EqualValues(t, 1, pagination["total"])
}

func TestListPostsTagFilter(t *testing.T) {
	db := newTestDB(t)
	seedTaggedPost(t, db, "go post", []string{"go", "backend"}, time.Now().Add(-time.Hour))
	seedTaggedPost(t, db, "rust post", []string{"rust"}, time.Now().Add(-time.Hour))
	// "golang" must not match "go" through a substring
	seedTaggedPost(t, db, "golang post", []string{"golang"}, time.Now().Add(-time.Hour))
	r := newPostRouter(db)

	w := doJSON(t, r, "GET", "/api/posts?tag=go", nil)
	require.Equal(t, http.StatusOK, w.Code)

	items := dataField(t, w)["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "go post", items[0].(map[string]interface{})["title"])
}

func TestListPostsTagFilterSpecialCharacters(t *testing.T) {
	db := newTestDB(t)
	seedTaggedPost(t, db, "quoted", []string{`say "hi"`}, time.Now().Add(-time.Hour))
	seedTaggedPost(t, db, "underscored", []string{"c_b"}, time.Now().Add(-time.Hour))
	// underscore is a LIKE wildcard; "cab" must not satisfy a "c_b" filter
	seedTaggedPost(t, db, "decoy", []string{"cab"}, time.Now().Add(-time.Hour))

	r := newPostRouter(db)

	w := doJSON(t, r, "GET", "/api/posts?tag="+url.QueryEscape(`say "hi"`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := dataField(t, w)["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "quoted", items[0].(map[string]interface{})["title"])

	w = doJSON(t, r, "GET", "/api/posts?tag=c_b", nil)
	require.Equal(t, http.StatusOK, w.Code)
	items = dataField(t, w)["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "underscored", items[0].(map[string]interface{})["title"])
}

func TestRecordViewEndpoint(t *testing.T) {
	db := newTestDB(t)
	post := seedPost(t, db, "viewed", time.Now().Add(-time.Hour))
	r := newPostRouter(db)

	w := doJSON(t, r, "POST", fmt.Sprintf("/api/posts/%d/view", post.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	assert.Equal(t, true, data["counted"])
	assert.EqualValues(t, 1, data["view_count"])

	// Same client again inside the window: acknowledged but not counted.
	w = doJSON(t, r, "POST", fmt.Sprintf("/api/posts/%d/view", post.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = dataField(t, w)
	assert.Equal(t, false, data["counted"])
	assert.EqualValues(t, 1, data["view_count"])
}

func TestRecordViewUnknownPost(t *testing.T) {
	db := newTestDB(t)
	r := newPostRouter(db)

	w := doJSON(t, r, "POST", "/api/posts/9999/view", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPopularPostsOrder(t *testing.T) {
	db := newTestDB(t)
	a := seedPost(t, db, "quiet", time.Now().Add(-time.Hour))
	b := seedPost(t, db, "popular", time.Now().Add(-time.Hour))
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", a.ID).Update("view_count", 2).Error)
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", b.ID).Update("view_count", 9).Error)
	r := newPostRouter(db)

	w := doJSON(t, r, "GET", "/api/posts/popular?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	items := dataField(t, w)["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "popular", items[0].(map[string]interface{})["title"])
	assert.Equal(t, "quiet", items[1].(map[string]interface{})["title"])
}

func TestCreatePostValidation(t *testing.T) {
	db := newTestDB(t)
	r := newPostRouter(db)

	w := doJSON(t, r, "POST", "/api/posts", gin.H{"title": "", "excerpt": "e", "content": "c"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "POST", "/api/posts",
		gin.H{"title": "valid", "excerpt": "e", "content": "c", "tags": []string{"go", "go", "web"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var saved models.Post
	require.NoError(t, db.Where("title = ?", "valid").First(&saved).Error)
	assert.Equal(t, models.TagList{"go", "web"}, saved.Tags, "duplicate tags collapse")
}

func TestCheckTitle(t *testing.T) {
	db := newTestDB(t)
	post := seedPost(t, db, "taken", time.Now().Add(-time.Hour))
	r := newPostRouter(db)

	w := doJSON(t, r, "POST", "/api/posts/check-title", gin.H{"title": "taken"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, dataField(t, w)["exists"])

	w = doJSON(t, r, "POST", "/api/posts/check-title", gin.H{"title": "free"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataField(t, w)["exists"])

	// Excluding the post itself lets an edit keep its own title.
	w = doJSON(t, r, "POST", "/api/posts/check-title", gin.H{"title": "taken", "exclude_id": post.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataField(t, w)["exists"])
}

func TestUpdatePostKeepsDateWhenOmitted(t *testing.T) {
	db := newTestDB(t)
	date := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	post := seedPost(t, db, "before", date)
	r := newPostRouter(db)

	w := doJSON(t, r, "PUT", fmt.Sprintf("/api/posts/%d", post.ID),
		gin.H{"title": "after", "excerpt": "e", "content": "c"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var saved models.Post
	require.NoError(t, db.First(&saved, post.ID).Error)
	assert.Equal(t, "after", saved.Title)
	assert.True(t, saved.Date.Equal(date), "publish date survives an update without publish_date")
}

func TestDeletePostLeavesComments(t *testing.T) {
	db := newTestDB(t)
	post := seedPost(t, db, "doomed", time.Now().Add(-time.Hour))
	require.NoError(t, db.Create(&models.Comment{PostID: post.ID, Nickname: "x", Content: "c"}).Error)
	r := newPostRouter(db)

	w := doJSON(t, r, "DELETE", fmt.Sprintf("/api/posts/%d", post.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var postCount, commentCount int64
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&commentCount).Error)
	assert.EqualValues(t, 0, postCount)
	assert.EqualValues(t, 1, commentCount, "comment rows stay, they just become unreachable")
}
