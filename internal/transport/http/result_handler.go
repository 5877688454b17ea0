package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

type ResultHandler struct {
	submissions *app.SubmissionService
	leaderboard *app.LeaderboardService
}

func NewResultHandler(submissions *app.SubmissionService, leaderboard *app.LeaderboardService) *ResultHandler {
	return &ResultHandler{submissions: submissions, leaderboard: leaderboard}
}

type submitRequest struct {
	QuizID           string `json:"quizId"`
	AttemptID        string `json:"attemptId"`
	Answers          []int  `json:"answers"`
	TimeTakenSeconds int    `json:"timeTakenSeconds"`
}

// Submit scores a complete answer list for the session user.
// Without an attemptId every call records a new result.
func (h *ResultHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid submission")
		return
	}
	if req.QuizID == "" {
		RespondError(c, domain.Invalid("quizId", "quizId is required"))
		return
	}
	if req.TimeTakenSeconds < 0 {
		RespondError(c, domain.Invalid("timeTakenSeconds", "must not be negative"))
		return
	}
	result, err := h.submissions.Submit(c.Request.Context(), principalFrom(c), domain.Submission{
		AttemptID:        req.AttemptID,
		QuizID:           req.QuizID,
		Answers:          req.Answers,
		TimeTakenSeconds: req.TimeTakenSeconds,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *ResultHandler) MyResults(c *gin.Context) {
	results, err := h.submissions.ListResults(c.Request.Context(), principalFrom(c).User.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Leaderboard serves the top entries; a missing limit selects the configured size.
func (h *ResultHandler) Leaderboard(c *gin.Context) {
	limit := h.leaderboard.DefaultSize()
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondError(c, domain.Invalid("limit", "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	entries, err := h.leaderboard.TopN(c.Request.Context(), limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
