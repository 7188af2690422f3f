// dayctl 运维命令行：数据库迁移、结束工作日模拟、调试令牌。
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/aloisiojr22/op-track-cycle/config"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dayctl: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "dayctl",
		Usage: "op-track-cycle 运维工具",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（缺省时只读环境变量）",
				EnvVars: []string{"OPTRACK_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			simulateCommand(),
			tokenCommand(),
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	return cfg, nil
}
