package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quizhub-service/internal/app"
	"quizhub-service/internal/logger"
)

// Dependencies bundles the use cases served over HTTP.
type Dependencies struct {
	Auth           *app.AuthService
	Quizzes        *app.QuizService
	Submissions    *app.SubmissionService
	Leaderboard    *app.LeaderboardService
	Play           *app.PlayService
	Log            *logger.Logger
	AllowedOrigins []string
}

func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log.With("component", "http")), corsMiddleware(deps.AllowedOrigins))

	authHandler := NewAuthHandler(deps.Auth)
	quizHandler := NewQuizHandler(deps.Quizzes)
	resultHandler := NewResultHandler(deps.Submissions, deps.Leaderboard)
	attemptHandler := NewAttemptHandler(deps.Play)
	wsHandler := NewWSHandler(deps.Play, log)

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	auth := requireAuth(deps.Auth)

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/guest", authHandler.Guest)
		api.GET("/quizzes", quizHandler.List)
		api.GET("/quizzes/:id", quizHandler.Get)
		api.GET("/leaderboard", resultHandler.Leaderboard)
	}

	protected := api.Group("")
	protected.Use(auth)
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)
		protected.PATCH("/auth/me", authHandler.UpdateMe)

		protected.POST("/quizzes", quizHandler.Create)
		protected.PUT("/quizzes/:id", quizHandler.Update)
		protected.POST("/quizzes/generate", quizHandler.Generate)

		protected.POST("/results", resultHandler.Submit)
		protected.GET("/me/results", resultHandler.MyResults)

		protected.POST("/attempts", attemptHandler.Start)
		protected.GET("/attempts/:id", attemptHandler.Get)
		protected.POST("/attempts/:id/select", attemptHandler.Select)
		protected.POST("/attempts/:id/advance", attemptHandler.Advance)
		protected.POST("/attempts/:id/submit", attemptHandler.Submit)
		protected.DELETE("/attempts/:id", attemptHandler.Abandon)
	}

	router.GET("/ws/attempts/:id", auth, wsHandler.ServeWS)
	return router
}
