package handlers

import (
	"fmt"
	"net/http"

	"promptdir/internal/logger"
	"promptdir/internal/middleware"
	"promptdir/internal/models"
	"promptdir/internal/services"
	"promptdir/internal/utils"

	"github.com/gin-gonic/gin"
)

type PromptHandler struct {
	prompts *services.PromptService
	log     *logger.Logger
}

func NewPromptHandler(prompts *services.PromptService, log *logger.Logger) *PromptHandler {
	return &PromptHandler{prompts: prompts, log: log.With("handler", "PromptHandler")}
}

var errTooManyCategories = fmt.Errorf("at most %d categories are allowed", models.MaxCategories)

type createPromptRequest struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	Prompt        string   `json:"prompt" binding:"required"`
	Categories    []string `json:"categories" binding:"max=4"`
	GithubProfile string   `json:"githubProfile"`
	IsPublic      *bool    `json:"isPublic"` // defaults to true
	Slug          string   `json:"slug"`
}

type updatePromptRequest struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	Prompt        *string   `json:"prompt"`
	Categories    *[]string `json:"categories"`
	GithubProfile *string   `json:"githubProfile"`
	IsPublic      *bool     `json:"isPublic"`
}

// Search lists visible prompts.
// Query: q, category (repeatable or comma separated), stars.
func (h *PromptHandler) Search(c *gin.Context) {
	stars, err := utils.OptionalInt(c.Query("stars"))
	if err != nil {
		RespondBindError(c, err)
		return
	}
	filter := services.SearchFilter{
		Query:      c.Query("q"),
		Categories: utils.SplitList(c.QueryArray("category")),
		Stars:      stars,
	}

	prompts, err := h.prompts.SearchPrompts(c.Request.Context(), middleware.CurrentIdentity(c), filter)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"prompts": prompts})
}

func (h *PromptHandler) Create(c *gin.Context) {
	var req createPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	prompt, err := h.prompts.CreatePrompt(c.Request.Context(), middleware.CurrentIdentity(c), services.CreatePromptInput{
		Title:         req.Title,
		Description:   req.Description,
		Prompt:        req.Prompt,
		Categories:    req.Categories,
		GithubProfile: req.GithubProfile,
		IsPublic:      isPublic,
		Slug:          req.Slug,
	})
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": prompt.ID, "slug": prompt.Slug})
}

// Private lists the caller's private prompts; anonymous callers get an empty list.
func (h *PromptHandler) Private(c *gin.Context) {
	prompts, err := h.prompts.GetPrivatePrompts(c.Request.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"prompts": prompts})
}

func (h *PromptHandler) BySlug(c *gin.Context) {
	prompt, err := h.prompts.GetPromptBySlug(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("slug"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	if prompt == nil {
		RespondError(c, h.log, services.ErrNotFound)
		return
	}
	RespondOK(c, prompt)
}

func (h *PromptHandler) Get(c *gin.Context) {
	prompt, err := h.prompts.GetPrompt(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, prompt)
}

func (h *PromptHandler) Update(c *gin.Context) {
	var req updatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	if req.Categories != nil && len(*req.Categories) > models.MaxCategories {
		RespondBindError(c, errTooManyCategories)
		return
	}

	prompt, err := h.prompts.UpdatePrompt(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), services.UpdatePromptInput{
		Title:         req.Title,
		Description:   req.Description,
		Prompt:        req.Prompt,
		Categories:    req.Categories,
		GithubProfile: req.GithubProfile,
		IsPublic:      req.IsPublic,
	})
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, prompt)
}

func (h *PromptHandler) Delete(c *gin.Context) {
	if err := h.prompts.DeletePrompt(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id")); err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Categories returns the catalog offered to submitters.
func (h *PromptHandler) Categories(c *gin.Context) {
	RespondOK(c, gin.H{"categories": models.Categories, "max": models.MaxCategories})
}
