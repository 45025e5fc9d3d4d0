package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"axs-learn/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	tokens *service.TokenService,
	authH *AuthHandler,
	settingsH *SettingsHandler,
	notesH *NotesHandler,
	quizH *QuizHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	authRequired := AuthRequired(tokens)

	auth := api.Group("/auth")
	auth.POST("/signup", authH.Signup)
	auth.POST("/verify-otp", authH.VerifyOTP)
	auth.POST("/resend-otp", authH.ResendOTP)
	auth.POST("/login", authH.Login)
	auth.GET("/google", authH.GoogleLogin)
	auth.GET("/google/callback", authH.GoogleCallback)
	auth.POST("/firebase-login", authH.FirebaseLogin)
	auth.POST("/forgot-password", authH.ForgotPassword)
	auth.POST("/reset-password", authH.ResetPassword)
	auth.POST("/logout", authRequired, authH.Logout)
	auth.GET("/me", authRequired, authH.Me)
	auth.PUT("/update-profile", authRequired, authH.UpdateProfile)

	settings := api.Group("/settings", authRequired)
	settings.GET("", settingsH.Get)
	settings.PUT("", settingsH.Update)
	settings.POST("/usage/:feature", settingsH.IncrementUsage)

	notes := api.Group("/notes", authRequired)
	notes.GET("", notesH.List)
	notes.POST("", notesH.Create)
	notes.PUT("/:id", notesH.Update)
	notes.DELETE("/:id", notesH.Delete)

	quiz := api.Group("/quiz", authRequired)
	quiz.GET("/results", quizH.ListResults)
	quiz.POST("/results", quizH.SaveResult)
	quiz.GET("/stats", quizH.Stats)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
