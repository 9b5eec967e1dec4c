package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/hakoniwa-games/questforge/api/rest"
	"github.com/hakoniwa-games/questforge/api/sse"
	"github.com/hakoniwa-games/questforge/audit"
	"github.com/hakoniwa-games/questforge/cache"
	"github.com/hakoniwa-games/questforge/config"
	dbadapter "github.com/hakoniwa-games/questforge/db"
	"github.com/hakoniwa-games/questforge/events"
	"github.com/hakoniwa-games/questforge/game/flags"
	"github.com/hakoniwa-games/questforge/game/save"
	"github.com/hakoniwa-games/questforge/game/session"
	mw "github.com/hakoniwa-games/questforge/middleware"
	"github.com/hakoniwa-games/questforge/model"
	"github.com/hakoniwa-games/questforge/resource"
	"github.com/hakoniwa-games/questforge/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		logger.Warn("security.jwt_secret is not set; tokens are signed with an empty key")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache ----
	c, err := cache.New(cache.Config{
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		LocalGC:       cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Static game data ----
	res := resource.NewLoader(cfg.Game.DataPath)
	if err := res.Load(); err != nil {
		logger.Warn("resource load warning", zap.Error(err))
	} else {
		logger.Info("game data loaded",
			zap.Int("items", len(res.ItemDefs)),
			zap.Int("enemies", len(res.EnemyDefs)),
			zap.Int("dialogues", len(res.Dialogues)))
	}

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Events ----
	hub := events.NewHub()

	// ---- Save coordinator ----
	store, err := newSaveStore(cfg.Game, db)
	if err != nil {
		log.Fatalf("save store: %v", err)
	}
	coord := save.NewCoordinator(store, c, hub, logger)
	coord.SaveOnSceneChange = cfg.Game.SaveOnSceneChange

	worldFlags := flags.New()
	coord.Register(worldFlags)

	// ---- Sessions ----
	registry := session.NewRegistry(logger)

	// ---- Periodic jobs ----
	if cfg.Game.AutosaveInterval > 0 {
		sched.RunEvery("autosave", cfg.Game.AutosaveInterval, func() {
			coord.AutoSave(context.Background())
		})
	}
	sched.RunEvery("session_reap", cfg.Game.SessionIdleLimit, func() {
		for _, rt := range registry.ReapIdle(cfg.Game.SessionIdleLimit) {
			persistRuntime(db, rt, logger)
			coord.Unregister(fmt.Sprintf("character:%d", rt.CharID))
		}
	})

	// ---- HTTP server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	authH := apirest.NewAuthHandler(db, c, cfg.Security)
	charH := apirest.NewCharacterHandler(db, registry, res, c, hub, coord, cfg.Game)
	invH := apirest.NewInventoryHandler(charH, res, hub)
	dlgH := apirest.NewDialogueHandler(charH, res, hub)
	saveH := apirest.NewSaveHandler(coord)
	lbH := apirest.NewLeaderboardHandler(db, c, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		charsG := api.Group("/characters")
		charsG.Use(mw.Auth(cfg.Security, c))
		charsG.GET("", charH.List)
		charsG.POST("", charH.Create)
		charsG.GET("/:id", charH.Get)
		charsG.DELETE("/:id", charH.Delete)
		charsG.POST("/:id/activate", charH.Activate)
		charsG.POST("/:id/deactivate", charH.Deactivate)
		charsG.GET("/:id/stats", charH.Stats)
		charsG.POST("/:id/experience", charH.GainExperience)
		charsG.POST("/:id/damage", charH.TakeDamage)
		charsG.POST("/:id/heal", charH.Heal)
		charsG.POST("/:id/scene", charH.ChangeScene)

		charsG.GET("/:id/inventory", invH.List)
		charsG.POST("/:id/inventory/add", invH.Add)
		charsG.POST("/:id/inventory/remove", invH.Remove)
		charsG.POST("/:id/inventory/use", invH.Use)
		charsG.POST("/:id/equipment/equip", invH.Equip)
		charsG.POST("/:id/equipment/unequip", invH.Unequip)

		charsG.POST("/:id/dialogue/start", dlgH.Start)
		charsG.GET("/:id/dialogue", dlgH.Current)
		charsG.POST("/:id/dialogue/advance", dlgH.Advance)
		charsG.POST("/:id/dialogue/choose", dlgH.Choose)
		charsG.POST("/:id/dialogue/skip", dlgH.Skip)

		savesG := api.Group("/saves")
		savesG.Use(mw.Auth(cfg.Security, c))
		savesG.GET("", saveH.List)
		savesG.GET("/:slot", saveH.Info)
		savesG.POST("/:slot", saveH.Save)
		savesG.POST("/:slot/load", saveH.Load)

		api.GET("/leaderboard", mw.Auth(cfg.Security, c), lbH.Top)
	}

	// Hourly leaderboard rebuild keeps the sorted set honest even when
	// cache entries expire or the process restarts.
	sched.RunEvery("leaderboard_rebuild", time.Hour, func() {
		lbH.Rebuild(context.Background())
	})

	// Audit every level-up through the events hub.
	hub.Subscribe(events.LevelUp, 50, "audit", func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		if charID, ok := data.(int64); ok {
			auditSvc.Log(audit.Entry{CharID: &charID, Action: "level_up"})
		}
		return data, nil
	})

	// ---- SSE ----
	sseH := sse.NewHandler(hub, c, cfg.Security, logger)
	r.GET("/sse", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// newSaveStore picks the snapshot backend from config.
func newSaveStore(game config.GameConfig, db *gorm.DB) (save.Store, error) {
	switch game.SaveBackend {
	case "db":
		return save.NewDBStore(db), nil
	default:
		return save.NewFileStore(game.SaveDir, []byte(game.SaveKey))
	}
}

// persistRuntime writes a reaped runtime back to its character row.
func persistRuntime(db *gorm.DB, rt *session.Runtime, logger *zap.Logger) {
	var row model.Character
	if err := db.First(&row, rt.CharID).Error; err != nil {
		logger.Warn("reaped character row missing", zap.Int64("char_id", rt.CharID))
		return
	}
	rt.WriteBack(&row)
	if err := db.Save(&row).Error; err != nil {
		logger.Error("reaped character write-back failed",
			zap.Int64("char_id", rt.CharID), zap.Error(err))
	}
}
