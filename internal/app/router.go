package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/alerts"
	"github.com/atheneum-portal/atheneum-portal/internal/auth"
	"github.com/atheneum-portal/atheneum-portal/internal/courses"
	"github.com/atheneum-portal/atheneum-portal/internal/files"
	"github.com/atheneum-portal/atheneum-portal/internal/forum"
	"github.com/atheneum-portal/atheneum-portal/internal/observability"
	"github.com/atheneum-portal/atheneum-portal/internal/platform/httpx"
	"github.com/atheneum-portal/atheneum-portal/internal/shared"
	"github.com/atheneum-portal/atheneum-portal/internal/users"
	"github.com/atheneum-portal/atheneum-portal/jobs"
)

// RouterDeps collects everything the HTTP surface needs.
type RouterDeps struct {
	Logger     *slog.Logger
	Config     *Config
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Sessions   *shared.SessionManager
	CSRF       *shared.CSRFManager
	Metrics    *observability.Metrics
	JobsClient *jobs.Client
	Inspector  *asynq.Inspector
}

// NewRouter wires repositories, services and handlers into the API router.
func NewRouter(deps RouterDeps) (chi.Router, error) {
	cfg := deps.Config
	accessCfg := access.Config{
		GuestViewEnabled: cfg.ForumGuestView,
		GuestPostEnabled: cfg.ForumGuestPost,
	}
	engine := access.NewEngine(accessCfg)
	access.ObserveDenials(func(reason access.Reason) {
		deps.Metrics.CountDenial(string(reason))
	})

	usersRepo := users.NewRepository(deps.Pool)
	gate := access.Middleware{
		Resolver: access.NewResolver(usersRepo),
		Engine:   engine,
		Config:   accessCfg,
		Logger:   deps.Logger,
	}

	coursesRepo := courses.NewRepository(deps.Pool)
	forumRepo := forum.NewRepository(deps.Pool)
	filesRepo := files.NewRepository(deps.Pool)
	alertsRepo := alerts.NewRepository(deps.Pool)

	storage, err := files.NewDiskStorage(cfg.FileStorageDir)
	if err != nil {
		return nil, err
	}

	usersService := users.NewService(usersRepo, engine, deps.Logger)
	coursesService := courses.NewService(coursesRepo, usersRepo, engine, deps.Logger)
	forumService := forum.NewService(forumRepo, coursesRepo, engine, deps.JobsClient, deps.Logger)
	filesService := files.NewService(filesRepo, storage, coursesRepo, engine, deps.Logger)
	alertsService := alerts.NewService(alertsRepo, engine, deps.Logger)
	authService := auth.NewService(usersRepo, deps.Redis, deps.JobsClient, deps.Logger, cfg.LockThreshold, cfg.LockDuration)

	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         deps.Logger,
		Config:         cfg,
		SessionManager: deps.Sessions,
		CSRFManager:    deps.CSRF,
		Metrics:        deps.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/csrf", func(w http.ResponseWriter, req *http.Request) {
			sess := shared.SessionFromContext(req.Context())
			token, err := deps.CSRF.EnsureToken(req.Context(), sess)
			if err != nil {
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			httpx.JSON(w, http.StatusOK, map[string]string{"token": token})
		})

		auth.NewHandler(deps.Logger, authService, deps.Sessions, auth.NewAuditLog(deps.Pool)).MountRoutes(r)
		users.NewHandler(deps.Logger, usersService, gate).MountRoutes(r)
		courses.NewHandler(deps.Logger, coursesService, gate).MountRoutes(r)
		forum.NewHandler(deps.Logger, forumService, gate).MountRoutes(r)
		files.NewHandler(deps.Logger, filesService, gate, cfg.UploadMaxBytes).MountRoutes(r)
		alerts.NewHandler(deps.Logger, alertsService, gate).MountRoutes(r)

		r.Route("/jobs", func(r chi.Router) {
			jobs.NewHandler(deps.Inspector, deps.Logger).MountRoutes(r)
		})
	})

	return r, nil
}
