package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	api_middleware "github.com/thesrcielos/TopCodeBattle/api/middleware"
	v1 "github.com/thesrcielos/TopCodeBattle/api/v1"
	"github.com/thesrcielos/TopCodeBattle/internal/battle"
	"github.com/thesrcielos/TopCodeBattle/internal/chat"
	"github.com/thesrcielos/TopCodeBattle/internal/config"
	"github.com/thesrcielos/TopCodeBattle/internal/evaluator"
	"github.com/thesrcielos/TopCodeBattle/internal/evaluator/advisor"
	"github.com/thesrcielos/TopCodeBattle/internal/evaluator/sandbox"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"github.com/thesrcielos/TopCodeBattle/internal/problem"
	"github.com/thesrcielos/TopCodeBattle/internal/rating"
	"github.com/thesrcielos/TopCodeBattle/internal/session"
	"github.com/thesrcielos/TopCodeBattle/internal/state"
	"github.com/thesrcielos/TopCodeBattle/internal/submission"
	"github.com/thesrcielos/TopCodeBattle/internal/user"
	"github.com/thesrcielos/TopCodeBattle/pkg/db"
	"github.com/thesrcielos/TopCodeBattle/pkg/queue"
	"github.com/thesrcielos/TopCodeBattle/websocket"
	"go.uber.org/zap"
)

const (
	problemCacheTTL = 10 * time.Minute
	queuePrefetch   = 4
	shutdownTimeout = 10 * time.Second
)

func main() {
	log := logger.NewNamedLogger("main")
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := db.Migrate(database); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	rdb, err := db.ConnectRedis(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer rdb.Close()

	tokens := user.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp)
	users := user.NewUserService(user.NewUserRepository(database), tokens)
	sessions := session.NewManager(users, session.NewRedisRevocationStore(rdb))

	policy, err := rating.PolicyByName(cfg.RatingPolicy, cfg.EloKFactor)
	if err != nil {
		log.Fatalf("%v", err)
	}
	ratings := rating.NewRatingService(rating.NewRatingRepository(database), policy)
	log.Infof("Rating policy: %s", policy.Name())

	problems := problem.NewProblemService(problem.NewProblemRepository(database), problem.NewCache(problemCacheTTL), cfg.ProblemWindow)
	if err := problems.SeedDefaults(ctx); err != nil {
		log.Fatalf("Seeding problems failed: %v", err)
	}

	hub := chat.NewHub(chat.NewRedisBroker(rdb), state.NewRegistry())
	if err := hub.Run(ctx); err != nil {
		log.Fatalf("Subscribing to battle channels failed: %v", err)
	}
	battles := battle.NewBattleService(battle.NewBattleRepository(database), problems, ratings, chat.NewBattleNotifier(hub))

	runner, closeRunner := newRunner(ctx, cfg, log)
	defer closeRunner()
	var estimator evaluator.Estimator
	if cfg.AdvisorAPIKey != "" {
		estimator = advisor.NewClient(cfg.AdvisorAPIURL, cfg.AdvisorAPIKey, cfg.AdvisorModel, cfg.AdvisorTimeout)
	}
	grader := evaluator.New(runner, estimator)
	submissions := submission.NewSubmissionService(submission.NewSubmissionRepository(database), battles, problems, grader)

	if cfg.RabbitMQURL != "" {
		q, err := queue.Dial(cfg.RabbitMQURL, cfg.EvaluationQueue, queuePrefetch)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer q.Close()
		submissions.SetDispatcher(submission.NewQueueDispatcher(q.Channel, q.Queue))
		consumer := submission.NewConsumer(q.Channel, q.Queue, submissions)
		go func() {
			if err := consumer.Listen(ctx); err != nil {
				log.Errorf("Submission consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api_middleware.ErrorHandler

	e.Use(api_middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	v1.RegisterRoutes(e, v1.Handlers{
		Users:    v1.NewUserHandler(users, ratings, sessions),
		Battles:  v1.NewBattleHandler(battles, submissions),
		Problems: v1.NewProblemHandler(problems, grader),
	}, cfg.JWTKey, sessions)
	websocket.NewHandler(tokens, sessions, battles, hub).Register(e)

	go func() {
		if err := e.Start(":" + cfg.APIPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Shutdown error: %v", err)
	}
}

// newRunner connects to Docker for local execution. Without Docker every
// submission goes through advisory estimation.
func newRunner(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (evaluator.Runner, func()) {
	engine, err := sandbox.NewDockerEngine()
	if err != nil {
		log.Warnf("Docker unavailable, local execution disabled: %v", err)
		return nil, func() {}
	}
	if err := engine.Ping(ctx); err != nil {
		log.Warnf("Docker daemon not reachable, local execution disabled: %v", err)
		engine.Close()
		return nil, func() {}
	}
	runner := sandbox.NewRunner(engine, cfg.SandboxTimeout, cfg.SandboxMemoryMB)
	if err := runner.Prepare(ctx); err != nil {
		log.Warnf("Sandbox images not ready: %v", err)
	}
	return runner, func() { engine.Close() }
}
