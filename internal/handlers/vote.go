package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"promptdir/internal/logger"
	"promptdir/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	likedPromptsKey = "liked_prompts"
	// 36 字符的 uuid 经 gob、两次 base64 和 HMAC 之后约 65 字节，
	// 40 条约 2.6KB，留在 securecookie 的 4096 字节上限以内
	maxLikedPrompts = 40
)

// VoteHandler serves star ratings and likes. Neither needs a login; likes are
// de-duplicated per browser session.
type VoteHandler struct {
	prompts *services.PromptService
	log     *logger.Logger
}

func NewVoteHandler(prompts *services.PromptService, log *logger.Logger) *VoteHandler {
	return &VoteHandler{prompts: prompts, log: log.With("handler", "VoteHandler")}
}

type rateRequest struct {
	Rating *int `json:"rating" binding:"required"`
}

func (h *VoteHandler) Rate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	stars, err := h.prompts.RatePrompt(c.Request.Context(), c.Param("id"), *req.Rating)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	RespondOK(c, gin.H{"stars": stars})
}

func (h *VoteHandler) Like(c *gin.Context) {
	h.toggle(c, true)
}

func (h *VoteHandler) Unlike(c *gin.Context) {
	h.toggle(c, false)
}

// toggle 把当前会话对该提示词的点赞状态切换为 want；已处于该状态时只返回当前计数。
func (h *VoteHandler) toggle(c *gin.Context, want bool) {
	ctx := c.Request.Context()
	id := c.Param("id")
	session := sessions.Default(c)
	liked := loadLiked(session)

	if liked.has(id) == want {
		likes, err := h.prompts.LikeCount(ctx, id)
		if err != nil {
			RespondError(c, h.log, err)
			return
		}
		RespondOK(c, gin.H{"likes": likes, "liked": want})
		return
	}

	var likes int
	var err error
	if want {
		likes, err = h.prompts.LikePrompt(ctx, id)
	} else {
		likes, err = h.prompts.UnlikePrompt(ctx, id)
	}
	if err != nil {
		RespondError(c, h.log, err)
		return
	}

	if want {
		liked = liked.with(id)
	} else {
		liked = liked.without(id)
	}
	session.Set(likedPromptsKey, liked.String())
	if err := session.Save(); err != nil {
		// 会话没记住这次操作，撤销计数，否则同一浏览器可以重复点赞
		if want {
			_, _ = h.prompts.UnlikePrompt(ctx, id)
		} else {
			_, _ = h.prompts.LikePrompt(ctx, id)
		}
		RespondError(c, h.log, fmt.Errorf("save session: %w", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes, "liked": want})
}

// likedPrompts 是会话里记录的已点赞 id，按时间先后排列，最新的在末尾
type likedPrompts []string

func loadLiked(session sessions.Session) likedPrompts {
	raw, _ := session.Get(likedPromptsKey).(string)
	var out likedPrompts
	for _, id := range strings.Split(raw, ",") {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (l likedPrompts) has(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// with 把 id 追加到末尾；超过 maxLikedPrompts 时丢弃最早的记录，保证 cookie 不超过 4KB
func (l likedPrompts) with(id string) likedPrompts {
	out := append(l.without(id), id)
	if len(out) > maxLikedPrompts {
		out = out[len(out)-maxLikedPrompts:]
	}
	return out
}

func (l likedPrompts) without(id string) likedPrompts {
	out := make(likedPrompts, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (l likedPrompts) String() string {
	return strings.Join(l, ",")
}
