package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

type AttemptHandler struct {
	play *app.PlayService
}

func NewAttemptHandler(play *app.PlayService) *AttemptHandler {
	return &AttemptHandler{play: play}
}

func (h *AttemptHandler) Start(c *gin.Context) {
	var req struct {
		QuizID string `json:"quizId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.QuizID == "" {
		RespondError(c, domain.Invalid("quizId", "quizId is required"))
		return
	}
	snap, err := h.play.Start(c.Request.Context(), principalFrom(c), req.QuizID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *AttemptHandler) Get(c *gin.Context) {
	snap, err := h.play.Get(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *AttemptHandler) Select(c *gin.Context) {
	var req selectPayload
	if err := c.ShouldBindJSON(&req); err != nil || req.Option == nil {
		RespondError(c, domain.Invalid("option", "option is required"))
		return
	}
	snap, err := h.play.Select(c.Request.Context(), principalFrom(c), c.Param("id"), *req.Option)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *AttemptHandler) Advance(c *gin.Context) {
	snap, err := h.play.Advance(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Submit retries the submission of a finished attempt.
func (h *AttemptHandler) Submit(c *gin.Context) {
	snap, err := h.play.RetrySubmit(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *AttemptHandler) Abandon(c *gin.Context) {
	if err := h.play.Abandon(c.Request.Context(), principalFrom(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
