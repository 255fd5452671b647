package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tailortalk/internal/service"
)

// NewRouter configura el router de Gin con middlewares y las rutas del chat.
func NewRouter(
	logger *zap.Logger,
	convH *ConversationHandler,
	limiter service.MessageRateLimiter,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery, CORS y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(allowedOrigins), jsonContentTypeMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	limit := RateLimitMiddleware(logger, limiter)

	conversations := r.Group("/conversations")
	conversations.POST("", limit, convH.Create)
	conversations.GET("/:id", convH.Get)
	conversations.DELETE("/:id", convH.Delete)
	conversations.GET("/:id/events", convH.Events)
	conversations.PUT("/:id/draft", convH.UpdateDraft)
	conversations.POST("/:id/messages", limit, convH.PostMessage)
	conversations.POST("/:id/slots", limit, convH.ClickSlot)
	conversations.POST("/:id/confirmation", limit, convH.Accept)
	conversations.DELETE("/:id/confirmation", convH.Decline)

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
// El stream SSE lo pisa con text/event-stream.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

// corsMiddleware habilita el widget embebido en otros origenes. "*" o lista vacia abre a todos.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}
