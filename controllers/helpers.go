package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/utils"
)

const (
	msgInvalidData      = "Invalid data!"
	msgPostNotFound     = "Post not found!"
	msgPermissionDenied = "Permission denied!"
	msgUnauthorized     = "Unauthorized!"
)

// field pairs a JSON field name with its submitted value for presence checks.
type field struct {
	name  string
	value string
	// exact fields count any non-empty value, whitespace included
	exact bool
}

// required is a field that must contain something besides whitespace.
func required(name, value string) field {
	return field{name: name, value: value}
}

// requiredExact is a field that only has to be non-empty, such as a password.
func requiredExact(name, value string) field {
	return field{name: name, value: value, exact: true}
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

// missingFields lists the names of fields that are absent or blank.
func missingFields(fields ...field) []string {
	var missing []string
	for _, f := range fields {
		if (f.exact && f.value == "") || (!f.exact && isBlank(f.value)) {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func respondMissing(ctx *gin.Context, names []string) {
	utils.Error(ctx, http.StatusBadRequest, "Missing fields: "+strings.Join(names, ", "))
}

// bindJSON decodes the body into dst, answering 400 when it is absent or malformed.
func bindJSON(ctx *gin.Context, dst interface{}) bool {
	if err := ctx.ShouldBindJSON(dst); err != nil {
		utils.Error(ctx, http.StatusBadRequest, msgInvalidData)
		return false
	}
	return true
}

// postIDParam parses the :id segment; anything but a positive integer cannot name a post.
func postIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusNotFound, msgPostNotFound)
		return 0, false
	}
	return uint(id), true
}

type authorResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type commentResponse struct {
	ID        uint           `json:"id"`
	Body      string         `json:"body"`
	AuthorID  uint           `json:"author_id"`
	PostID    uint           `json:"post_id"`
	Author    authorResponse `json:"author"`
	CreatedAt time.Time      `json:"created_at"`
}

type postResponse struct {
	ID        uint           `json:"id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	AuthorID  uint           `json:"author_id"`
	Author    authorResponse `json:"author"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type postDetailResponse struct {
	postResponse
	Comments []commentResponse `json:"comments"`
}

func newAuthorResponse(u models.User) authorResponse {
	return authorResponse{ID: u.ID, Username: u.Username}
}

func newPostResponse(p models.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Body:      p.Body,
		AuthorID:  p.AuthorID,
		Author:    newAuthorResponse(p.Author),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// newPostDetailResponse includes the comments; the list view leaves them out.
func newPostDetailResponse(p models.Post) postDetailResponse {
	resp := postDetailResponse{postResponse: newPostResponse(p)}
	resp.Comments = make([]commentResponse, 0, len(p.Comments))
	for _, c := range p.Comments {
		resp.Comments = append(resp.Comments, commentResponse{
			ID:        c.ID,
			Body:      c.Body,
			AuthorID:  c.AuthorID,
			PostID:    c.PostID,
			Author:    newAuthorResponse(c.Author),
			CreatedAt: c.CreatedAt,
		})
	}
	return resp
}
