package main

import (
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/aloisiojr22/op-track-cycle/pkg/database"
	applogger "github.com/aloisiojr22/op-track-cycle/pkg/logger"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "执行内嵌的数据库迁移",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "应用全部未执行的迁移",
				Action: func(c *cli.Context) error {
					return withDB(c, func(db *sql.DB, logger *zap.Logger) error {
						return database.RunMigrations(db, logger)
					})
				},
			},
			{
				Name:  "version",
				Usage: "查看当前迁移版本",
				Action: func(c *cli.Context) error {
					return withDB(c, func(db *sql.DB, _ *zap.Logger) error {
						version, dirty, err := database.MigrationVersion(db)
						if err != nil {
							return fmt.Errorf("读取迁移版本失败: %w", err)
						}
						fmt.Fprintf(c.App.Writer, "version=%d dirty=%t\n", version, dirty)
						return nil
					})
				},
			},
		},
	}
}

func withDB(c *cli.Context, fn func(db *sql.DB, logger *zap.Logger) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer logger.Sync()

	gdb, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()

	return fn(sqlDB, logger)
}
