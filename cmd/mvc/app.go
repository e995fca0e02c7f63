package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/coderi421/mvc"
	"github.com/coderi421/mvc/internal/config"
	"github.com/coderi421/mvc/orm"
	"github.com/coderi421/mvc/session"
	"github.com/coderi421/mvc/session/cookie"
	"github.com/coderi421/mvc/session/memory"
	sessredis "github.com/coderi421/mvc/session/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redis "github.com/redis/go-redis/v9"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

var (
	//go:embed views
	viewsFS embed.FS
	//go:embed resources
	resourcesFS embed.FS
)

// 静态资源缓存：单个文件不超过 1M，最多 128 个
const (
	maxCachedFileSize = 1 << 20
	maxCachedFiles    = 128
)

type app struct {
	cfg    config.Config
	logger *slog.Logger

	sqlDB *sql.DB
	db    *orm.DB
	redis *redis.Client

	reg            *prometheus.Registry
	server         *mvc.HTTPServer
	sessions       *session.Manager
	shutdownTracer func(ctx context.Context) error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (res *app, err error) {
	a := &app{
		cfg:            cfg,
		logger:         logger,
		reg:            prometheus.NewRegistry(),
		shutdownTracer: func(context.Context) error { return nil },
	}
	defer func() {
		if err != nil {
			a.close()
		}
	}()
	a.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a.shutdownTracer, err = setupTracing(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}

	if err = a.openDB(); err != nil {
		return nil, err
	}
	a.sessions = a.newSessionManager()

	tplEngine, err := a.newTemplateEngine()
	if err != nil {
		return nil, err
	}
	a.server = mvc.NewHTTPServer(
		mvc.ServerWithBaseURL(cfg.App.BaseURL),
		mvc.ServerWithNotFoundPath(cfg.App.NotFoundPath),
		mvc.ServerWithErrorPath(cfg.App.ErrorPath),
		mvc.ServerWithTemplateEngine(tplEngine),
		mvc.ServerWithLogger(logger),
		mvc.ServerWithRegisterer(a.reg),
	)
	if err = a.registerRoutes(); err != nil {
		return nil, err
	}
	logger.Info("mvc: 应用初始化完成", slog.String("db", cfg.Database.String()),
		slog.String("session_store", cfg.Session.Store), slog.String("tracing", cfg.Tracing.Exporter))
	return a, nil
}

func (a *app) openDB() error {
	dialect, err := orm.DialectOf(a.cfg.Database.Driver)
	if err != nil {
		return err
	}
	a.sqlDB, err = sql.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		return err
	}
	a.db, err = orm.OpenDB(a.sqlDB, orm.DBWithDialect(dialect), orm.DBWithLogger(a.logger))
	return err
}

func (a *app) newSessionManager() *session.Manager {
	var store session.Store
	switch a.cfg.Session.Store {
	case "redis":
		a.redis = redis.NewClient(&redis.Options{Addr: a.cfg.Session.RedisAddr})
		store = sessredis.NewStore(a.redis, sessredis.WithExpiration(a.cfg.Session.TTL))
	default:
		store = memory.NewStore(a.cfg.Session.TTL)
	}
	return &session.Manager{
		Store:      store,
		Propagator: cookie.NewPropagator(a.cfg.Session.Cookie),
		SessCtxKey: "_session",
	}
}

// newTemplateEngine 配置了 views_dir 就从磁盘加载，方便修改视图
func (a *app) newTemplateEngine() (*mvc.GoTemplateEngine, error) {
	var views fs.FS
	if a.cfg.App.ViewsDir != "" {
		views = os.DirFS(a.cfg.App.ViewsDir)
	} else {
		sub, err := fs.Sub(viewsFS, "views")
		if err != nil {
			return nil, err
		}
		views = sub
	}
	baseURL := strings.TrimSuffix(a.cfg.App.BaseURL, "/")
	return mvc.NewGoTemplateEngine(views, template.FuncMap{
		"url": func(path string) string {
			return baseURL + "/" + strings.TrimPrefix(path, "/")
		},
		"resource": func(path string) string {
			return baseURL + "/resources/" + strings.TrimPrefix(path, "/")
		},
		"add": func(a, b int) int {
			return a + b
		},
	})
}

func (a *app) resources() (fs.FS, error) {
	if a.cfg.App.ResourcesDir != "" {
		return os.DirFS(a.cfg.App.ResourcesDir), nil
	}
	return fs.Sub(resourcesFS, "resources")
}

func (a *app) registerRoutes() error {
	users, err := newUserController(a.db, a.sessions, a.logger, a.cfg.App.ErrorPath)
	if err != nil {
		return err
	}
	res, err := a.resources()
	if err != nil {
		return err
	}
	static := mvc.NewStaticResourceHandler("", mvc.StaticWithFS(res),
		mvc.WithFileCache(maxCachedFileSize, maxCachedFiles))

	s := a.server
	s.Get("/", func(ctx *mvc.Context) {
		ctx.Redirect("/users")
	})
	s.Get("/users", users.Index)
	s.Get("/users/{id}", users.Show)
	s.Get("/api/users", users.APIIndex)
	s.Get("/api/users/{id}", users.APIShow)
	s.Get("/resources/{file}", static.Handle)
	s.Get(a.cfg.App.NotFoundPath, pageWithStatus(a.logger, "miscellaneous/404", 404))
	s.Get(a.cfg.App.ErrorPath, pageWithStatus(a.logger, "error/500", 500))
	return nil
}

// pageWithStatus 渲染一个固定的页面
func pageWithStatus(logger *slog.Logger, view string, code int) mvc.HandleFunc {
	return func(ctx *mvc.Context) {
		if err := ctx.Render(view, nil); err != nil {
			logger.Error("mvc: 渲染页面失败", slog.String("view", view), slog.Any("err", err))
			return
		}
		ctx.RespStatusCode = code
	}
}

func (a *app) close() {
	var err error
	if a.db != nil {
		err = errors.Join(err, a.db.Close())
	}
	if a.redis != nil {
		err = errors.Join(err, a.redis.Close())
	}
	err = errors.Join(err, a.shutdownTracer(context.Background()))
	if err != nil {
		a.logger.Error("mvc: 释放资源失败", slog.Any("err", err))
	}
}
