package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/utils"
)

// StatsController reports aggregate counts for the blog.
type StatsController struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB, logger *zap.Logger) *StatsController {
	return &StatsController{db: db, logger: logger}
}

// GetStats returns the number of users, posts and comments.
func (s *StatsController) GetStats(ctx *gin.Context) {
	db := s.db.WithContext(ctx.Request.Context())

	var userCount, postCount, commentCount int64
	if err := db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		utils.ServerError(ctx, s.logger, "failed to count users", err)
		return
	}
	if err := db.Model(&models.Post{}).Count(&postCount).Error; err != nil {
		utils.ServerError(ctx, s.logger, "failed to count posts", err)
		return
	}
	if err := db.Model(&models.Comment{}).Count(&commentCount).Error; err != nil {
		utils.ServerError(ctx, s.logger, "failed to count comments", err)
		return
	}

	utils.Respond(ctx, http.StatusOK, gin.H{
		"user_count":    userCount,
		"post_count":    postCount,
		"comment_count": commentCount,
	})
}

// GetPostStats returns the comment count of one post.
func (s *StatsController) GetPostStats(ctx *gin.Context) {
	postID, ok := postIDParam(ctx)
	if !ok {
		return
	}
	db := s.db.WithContext(ctx.Request.Context())

	var exists int64
	if err := db.Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
		utils.ServerError(ctx, s.logger, "failed to load post", err)
		return
	}
	if exists == 0 {
		utils.Error(ctx, http.StatusNotFound, msgPostNotFound)
		return
	}

	var commentsCount int64
	if err := db.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&commentsCount).Error; err != nil {
		utils.ServerError(ctx, s.logger, "failed to count comments", err)
		return
	}

	utils.Respond(ctx, http.StatusOK, gin.H{"post_id": postID, "comments_count": commentsCount})
}
