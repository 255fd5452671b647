package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tailortalk/internal/config"
	apihttp "tailortalk/internal/http"
	"tailortalk/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	policy, err := service.ParseDeliveryPolicy(cfg.DeliveryPolicy)
	if err != nil {
		logger.Fatal("delivery policy", zap.Error(err))
	}

	conversationSvc := service.NewConversationService(logger, service.ConversationOptions{
		Delays: service.Delays{
			Thinking: cfg.ThinkingDelay,
			Calendar: cfg.CalendarDelay,
			SlotAck:  cfg.SlotAckDelay,
			Booking:  cfg.BookingDelay,
		},
		Policy:    policy,
		Scheduler: service.NewRealScheduler(),
	}, cfg.ConversationTTL)
	defer conversationSvc.Close()

	go sweepConversations(ctx, logger, conversationSvc, cfg.ConversationTTL)

	limiter := service.NewMemoryRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory rate limiter", zap.Error(err))
		} else {
			limiter = service.NewRedisRateLimiter(redisClient, cfg.RateLimitWindow, cfg.RateLimitMax)
		}
		cancel()
	}

	conversationHandler := apihttp.NewConversationHandler(logger, conversationSvc)
	router := apihttp.NewRouter(logger, conversationHandler, limiter, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Cerrar las conversaciones primero corta los streams SSE abiertos.
		conversationSvc.Close()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("delivery_policy", string(policy)),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

// sweepConversations expulsa las conversaciones inactivas cada ttl/2.
func sweepConversations(ctx context.Context, logger *zap.Logger, svc *service.ConversationService, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.Sweep()
			logger.Debug("conversations active", zap.Int("count", svc.Len()))
		}
	}
}
