package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/aloisiojr22/op-track-cycle/config"
	"github.com/aloisiojr22/op-track-cycle/internal/api/handler"
	"github.com/aloisiojr22/op-track-cycle/internal/api/middleware"
	"github.com/aloisiojr22/op-track-cycle/internal/api/router"
	"github.com/aloisiojr22/op-track-cycle/internal/realtime"
	"github.com/aloisiojr22/op-track-cycle/internal/repository"
	"github.com/aloisiojr22/op-track-cycle/internal/scheduler"
	"github.com/aloisiojr22/op-track-cycle/internal/service"
	"github.com/aloisiojr22/op-track-cycle/pkg/database"
	"github.com/aloisiojr22/op-track-cycle/pkg/jwt"
	applogger "github.com/aloisiojr22/op-track-cycle/pkg/logger"
	"github.com/aloisiojr22/op-track-cycle/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Server.Timezone),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 后台协程（Redis 中继、调度器）随 rootCtx 结束
	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// 4. 实时推送：单实例直接写 Hub，启用 Redis 时经频道中继
	hub := realtime.NewHub(logger)
	var publisher realtime.Publisher = realtime.NewHubPublisher(hub)

	// 5. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	deps := service.Deps{
		Listeners: hub,
		Clock:     service.NewClock(cfg.Server.Location()),
		Logger:    logger,
	}
	var limiter middleware.RateLimiter
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，限流、工作日锁与多实例推送将不可用", zap.Error(err))
			rdb = nil
		}
	}
	if rdb != nil {
		relay := realtime.NewRedisRelay(rdb, hub, logger)
		go relay.Run(rootCtx)
		publisher = relay

		deps.Locker = service.NewRedisDayLocker(rdb, logger)
		deps.Cache = service.NewRedisProfileCache(rdb, logger)
		limiter = rdb
	}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	deps.Repo = repo
	deps.Publisher = publisher
	svc := service.NewService(deps)
	h := handler.NewHandler(svc, hub, sqlDB)

	// 7. 初始化路由
	jwtMgr := jwt.NewManager(&cfg.Auth)
	engine, err := router.Setup(cfg, h, router.Deps{
		Tokens:   jwtMgr,
		Profiles: svc.User,
		Limiter:  limiter,
	}, logger)
	if err != nil {
		logger.Fatal("初始化路由失败", zap.Error(err))
	}

	// 8. 定时任务
	sched, err := scheduler.New(&cfg.Scheduler, cfg.Server.Location(), repo.PendingItem, publisher, logger)
	if err != nil {
		logger.Fatal("初始化定时任务失败", zap.Error(err))
	}
	if sched != nil {
		sched.Start()
	}

	// 9. 启动 HTTP 服务器（优雅关闭）
	// SSE 连接是长连接，不设置 WriteTimeout
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv.RegisterOnShutdown(hub.CloseAll)

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 先停后台任务；Shutdown 时 Hub 关闭全部 SSE 连接
	stopBackground()
	if sched != nil {
		sched.Stop(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
