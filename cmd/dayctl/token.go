package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/aloisiojr22/op-track-cycle/pkg/jwt"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "使用配置的密钥签发开发调试令牌",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "用户 ID（令牌 sub）", Required: true},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "邮箱"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			token, err := jwt.NewManager(&cfg.Auth).GenerateAccessToken(c.String("user"), c.String("email"))
			if err != nil {
				return fmt.Errorf("签发令牌失败: %w", err)
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}
