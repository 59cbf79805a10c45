package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/miniblog/middleware"
	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/utils"
)

// PostController manages CRUD operations for posts and comments.
type PostController struct {
	db     *gorm.DB
	cache  *utils.PostCache
	logger *zap.Logger
}

// NewPostController creates a new PostController instance. cache may be nil.
func NewPostController(db *gorm.DB, cache *utils.PostCache, logger *zap.Logger) *PostController {
	return &PostController{db: db, cache: cache, logger: logger}
}

// CreatePost stores a post owned by the caller.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	if missing := missingFields(required("title", req.Title), required("body", req.Body)); len(missing) > 0 {
		respondMissing(ctx, missing)
		return
	}

	// stored verbatim
	post := models.Post{Title: req.Title, Body: req.Body, AuthorID: userID}
	if err := p.db.WithContext(ctx.Request.Context()).Create(&post).Error; err != nil {
		utils.ServerError(ctx, p.logger, "failed to create post", err)
		return
	}

	p.cache.Invalidate(ctx.Request.Context(), utils.PostListCacheKey)
	utils.Respond(ctx, http.StatusCreated, gin.H{"message": "Post added successfully!", "post_id": post.ID})
}

// ListPosts returns every post with its author.
func (p *PostController) ListPosts(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()
	if b, ok := p.cache.GetBytes(reqCtx, utils.PostListCacheKey); ok {
		ctx.Data(http.StatusOK, gin.MIMEJSON+"; charset=utf-8", b)
		return
	}

	var posts []models.Post
	if err := p.db.WithContext(reqCtx).Preload("Author").Order("id ASC").Find(&posts).Error; err != nil {
		utils.ServerError(ctx, p.logger, "failed to list posts", err)
		return
	}

	items := make([]postResponse, 0, len(posts))
	for _, post := range posts {
		items = append(items, newPostResponse(post))
	}
	payload := gin.H{"posts": items}

	p.cache.SetJSON(reqCtx, utils.PostListCacheKey, payload)
	utils.Respond(ctx, http.StatusOK, payload)
}

// GetPost returns a single post with its comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := postIDParam(ctx)
	if !ok {
		return
	}

	reqCtx := ctx.Request.Context()
	cacheKey := utils.PostDetailCacheKey(postID)
	if b, ok := p.cache.GetBytes(reqCtx, cacheKey); ok {
		ctx.Data(http.StatusOK, gin.MIMEJSON+"; charset=utf-8", b)
		return
	}

	var post models.Post
	err := p.db.WithContext(reqCtx).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Comments.Author").
		First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, msgPostNotFound)
		return
	}
	if err != nil {
		utils.ServerError(ctx, p.logger, "failed to load post", err)
		return
	}

	payload := gin.H{"post": newPostDetailResponse(post)}
	p.cache.SetJSON(reqCtx, cacheKey, payload)
	utils.Respond(ctx, http.StatusOK, payload)
}

// UpdatePost applies a partial update; only supplied fields change.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, ok := p.loadOwnedPost(ctx)
	if !ok {
		return
	}

	var req struct {
		Title *string `json:"title"`
		Body  *string `json:"body"`
	}
	// an absent body supplies no fields and leaves the post as it is
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.Error(ctx, http.StatusBadRequest, msgInvalidData)
		return
	}

	updates := map[string]interface{}{}
	var blank []string
	if req.Title != nil {
		if isBlank(*req.Title) {
			blank = append(blank, "title")
		} else {
			updates["title"] = *req.Title
		}
	}
	if req.Body != nil {
		if isBlank(*req.Body) {
			blank = append(blank, "body")
		} else {
			updates["body"] = *req.Body
		}
	}
	if len(blank) > 0 {
		respondMissing(ctx, blank)
		return
	}

	if len(updates) > 0 {
		if err := p.db.WithContext(ctx.Request.Context()).Model(post).Updates(updates).Error; err != nil {
			utils.ServerError(ctx, p.logger, "failed to update post", err)
			return
		}
		p.cache.Invalidate(ctx.Request.Context(), utils.PostListCacheKey, utils.PostDetailCacheKey(post.ID))
	}

	utils.Message(ctx, http.StatusOK, "Post updated successfully!")
}

// DeletePost removes the caller's post together with its comments.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.loadOwnedPost(ctx)
	if !ok {
		return
	}

	err := p.db.WithContext(ctx.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		utils.ServerError(ctx, p.logger, "failed to delete post", err)
		return
	}

	p.cache.Invalidate(ctx.Request.Context(), utils.PostListCacheKey, utils.PostDetailCacheKey(post.ID))
	utils.Message(ctx, http.StatusOK, "Post deleted successfully!")
}

// CreateComment adds the caller's comment to an existing post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	if missing := missingFields(required("body", req.Body)); len(missing) > 0 {
		respondMissing(ctx, missing)
		return
	}

	comment := models.Comment{Body: req.Body, AuthorID: userID, PostID: post.ID}
	if err := p.db.WithContext(ctx.Request.Context()).Create(&comment).Error; err != nil {
		utils.ServerError(ctx, p.logger, "failed to create comment", err)
		return
	}

	p.cache.Invalidate(ctx.Request.Context(), utils.PostDetailCacheKey(post.ID))
	utils.Respond(ctx, http.StatusCreated, gin.H{"message": "Comment added successfully!", "comment_id": comment.ID})
}

// loadPost resolves :id or answers 404.
func (p *PostController) loadPost(ctx *gin.Context) (*models.Post, bool) {
	postID, ok := postIDParam(ctx)
	if !ok {
		return nil, false
	}

	var post models.Post
	err := p.db.WithContext(ctx.Request.Context()).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, msgPostNotFound)
		return nil, false
	}
	if err != nil {
		utils.ServerError(ctx, p.logger, "failed to load post", err)
		return nil, false
	}
	return &post, true
}

// loadOwnedPost resolves :id and enforces that the caller is its author.
func (p *PostController) loadOwnedPost(ctx *gin.Context) (*models.Post, bool) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, msgUnauthorized)
		return nil, false
	}
	post, ok := p.loadPost(ctx)
	if !ok {
		return nil, false
	}
	if !post.OwnedBy(userID) {
		utils.Error(ctx, http.StatusBadRequest, msgPermissionDenied)
		return nil, false
	}
	return post, true
}
