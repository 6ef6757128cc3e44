package app

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"roombooking/internal/clock"
	"roombooking/internal/config"
	"roombooking/internal/domain/catalog"
	"roombooking/internal/domain/eligibility"
	"roombooking/internal/domain/notification"
	"roombooking/internal/domain/rating"
	"roombooking/internal/domain/reservation"
	"roombooking/internal/domain/violation"
	"roombooking/internal/jobs"
	"roombooking/internal/mail"
	"roombooking/internal/middleware"
	jwtsvc "roombooking/internal/pkg/jwt"
)

// App holds the wired services and the HTTP router.
type App struct {
	Router        *gin.Engine
	Tokens        *jwtsvc.Service
	Engine        *reservation.Engine
	Notifications *notification.Service
	Hub           *notification.Hub
	Fanout        *notification.RedisFanout
	Mailer        *mail.Client
	Scheduler     *jobs.Scheduler

	redis *redis.Client
}

// New wires every component over db. Redis fan-out is enabled when
// cfg.RedisAddr is set.
func New(cfg *config.Config, db *gorm.DB, clk clock.Clock, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := cfg.Policy
	a := &App{Tokens: jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)}

	catalogRepo := catalog.NewRepository(db)
	catalogService := catalog.NewService(catalogRepo, p.MinOccupancyRatio, log.Named("catalog"))

	violationService := violation.NewService(
		violation.NewRepository(db), clk, p.ViolationWindowMonths, p.ViolationThreshold, log.Named("violation"),
	)
	gate := eligibility.NewGate(catalogRepo, violationService, eligibility.Policy{
		ViolationWindowMonths: p.ViolationWindowMonths,
		ViolationThreshold:    p.ViolationThreshold,
		MinOccupancyRatio:     p.MinOccupancyRatio,
	}, log.Named("eligibility"))

	ratingService := rating.NewService(rating.NewRepository(db), clk, p.RatingWindow, log.Named("rating"))

	a.Hub = notification.NewHub(log.Named("ws"))
	var registry notification.Registry = a.Hub
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		a.Fanout = notification.NewRedisFanout(a.redis, a.Hub, notification.DefaultChannel, log.Named("fanout"))
		registry = a.Fanout
	}
	a.Notifications = notification.NewService(notification.NewRepository(db), registry, clk, p.RatingWindow, log.Named("notification"))

	a.Mailer = mail.New(mail.Config{
		APIURL:       cfg.MailAPIURL,
		APIKey:       cfg.MailAPIKey,
		From:         cfg.MailFrom,
		ReviewLink:   cfg.ReviewLinkBaseURL,
		RatingWindow: p.RatingWindow,
	}, log.Named("mail"))

	a.Engine = reservation.NewEngine(
		reservation.NewStore(db),
		gate,
		a.Notifications,
		a.Mailer,
		clk,
		PolicyFromConfig(p),
		log.Named("reservation"),
	)

	var err error
	a.Scheduler, err = jobs.New(a.Engine, a.Notifications, jobs.Config{SweepSpec: p.PendingSweepSpec}, clk.Location(), log.Named("jobs"))
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(log.Named("http")), middleware.CORS(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "online": a.Hub.OnlineCount()})
	})

	notificationHandler := notification.NewHandler(a.Notifications, a.Hub, a.Tokens, cfg.CORSOrigins, log.Named("ws"))
	notificationHandler.RegisterWS(r)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(a.Tokens))
	{
		catalog.NewHandler(catalogService).RegisterRoutes(v1)
		reservation.NewHandler(a.Engine).RegisterRoutes(v1)
		violation.NewHandler(violationService).RegisterRoutes(v1)
		rating.NewHandler(ratingService).RegisterRoutes(v1)
		notificationHandler.RegisterRoutes(v1)
	}
	a.Router = r
	return a, nil
}

// Start launches the background workers.
func (a *App) Start(ctx context.Context, log *zap.Logger) {
	a.Scheduler.Start()
	if a.Fanout != nil {
		go func() {
			if err := a.Fanout.Run(ctx); err != nil {
				log.Error("redis fan-out stopped", zap.Error(err))
			}
		}()
	}
}

// Close stops the workers and waits for in-flight mail.
func (a *App) Close(ctx context.Context) {
	a.Hub.Close()
	a.Scheduler.Stop(ctx)
	a.Mailer.Wait()
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func PolicyFromConfig(p config.BookingPolicy) reservation.Policy {
	return reservation.Policy{
		CheckInEarly:       p.CheckInEarly,
		CheckInLate:        p.CheckInLate,
		ExtendMinRemaining: p.ExtendMinRemaining,
		ExtendMax:          p.ExtendMax,
		CancelCutoff:       p.CancelCutoff,
		DefaultSession:     p.DefaultSession,
		MaxSession:         p.MaxSession,
		TxMaxAttempts:      p.TxMaxAttempts,
		OpenTime:           p.OpenTime,
		CloseTime:          p.CloseTime,
	}
}
