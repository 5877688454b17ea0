package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

type QuizHandler struct {
	quizzes *app.QuizService
}

func NewQuizHandler(quizzes *app.QuizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

// List returns every quiz, newest first.
func (h *QuizHandler) List(c *gin.Context) {
	quizzes, err := h.quizzes.ListQuizzes(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *QuizHandler) Get(c *gin.Context) {
	quiz, err := h.quizzes.GetQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *QuizHandler) Create(c *gin.Context) {
	var quiz domain.Quiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		respondBadRequest(c, "invalid quiz payload")
		return
	}
	created, err := h.quizzes.CreateQuiz(c.Request.Context(), principalFrom(c), quiz)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *QuizHandler) Update(c *gin.Context) {
	var quiz domain.Quiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		respondBadRequest(c, "invalid quiz payload")
		return
	}
	saved, err := h.quizzes.SaveQuiz(c.Request.Context(), principalFrom(c), c.Param("id"), quiz)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// Generate drafts a quiz with the configured generator; drafts are only stored when save is set.
func (h *QuizHandler) Generate(c *gin.Context) {
	var req app.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid generate request")
		return
	}
	quiz, err := h.quizzes.GenerateQuiz(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	status := http.StatusOK
	if req.Save {
		status = http.StatusCreated
	}
	c.JSON(status, quiz)
}
