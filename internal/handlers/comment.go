package handlers

import (
	"net/http"

	"promptdir/internal/logger"
	"promptdir/internal/middleware"
	"promptdir/internal/models"
	"promptdir/internal/services"
	"promptdir/internal/utils"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
	log      *logger.Logger
}

func NewCommentHandler(comments *services.CommentService, log *logger.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, log: log.With("handler", "CommentHandler")}
}

// addCommentRequest has no author fields; the author is always the caller.
type addCommentRequest struct {
	Content  string  `json:"content" binding:"required"`
	ParentID *string `json:"parentId"`
}

// List returns a prompt's comments newest first, or as threads with ?threaded=true.
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.comments.GetComments(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	for i := range comments {
		renderComment(&comments[i])
	}

	if c.Query("threaded") == "true" {
		RespondOK(c, gin.H{"comments": services.OrganizeComments(comments)})
		return
	}
	RespondOK(c, gin.H{"comments": comments})
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	comment, err := h.comments.AddComment(c.Request.Context(), middleware.CurrentIdentity(c), services.AddCommentInput{
		PromptID: c.Param("id"),
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	renderComment(comment)
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.comments.DeleteComment(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func renderComment(comment *models.Comment) {
	comment.ContentHTML = utils.RenderMarkdown(comment.Content)
}
