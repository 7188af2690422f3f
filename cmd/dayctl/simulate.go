package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/aloisiojr22/op-track-cycle/internal/model"
	"github.com/aloisiojr22/op-track-cycle/internal/service"
)

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate-end-day",
		Usage: "根据记录文件打印结束工作日将执行的写入，不访问数据库",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "每日记录 JSON 数组文件（- 表示标准输入）", Required: true},
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "用户 ID", Required: true},
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "日期 YYYY-MM-DD", Required: true},
		},
		Action: func(c *cli.Context) error {
			date, err := model.ParseDate(c.String("date"))
			if err != nil {
				return err
			}

			in := io.Reader(os.Stdin)
			if path := c.String("file"); path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("打开记录文件失败: %w", err)
				}
				defer f.Close()
				in = f
			}

			return simulateEndDay(in, c.App.Writer, c.String("user"), date)
		},
	}
}

// simulatePlan 模拟输出
type simulatePlan struct {
	UserID string               `json:"user_id"`
	Date   model.Date           `json:"date"`
	Steps  []service.EndDayStep `json:"steps"`
}

// simulateEndDay 读取记录并输出规划结果；同一活动出现多条记录时以最后一条为准
func simulateEndDay(in io.Reader, out io.Writer, userID string, date model.Date) error {
	var records []model.DailyRecord
	if err := json.NewDecoder(in).Decode(&records); err != nil {
		return fmt.Errorf("解析记录文件失败: %w", err)
	}

	byActivity := make(map[string]model.DailyRecord, len(records))
	for _, rec := range records {
		if rec.ActivityID == "" {
			return fmt.Errorf("记录 %q 缺少 activity_id", rec.ID)
		}
		byActivity[rec.ActivityID] = rec
	}

	plan := simulatePlan{
		UserID: userID,
		Date:   date,
		Steps:  service.PlanEndDay(byActivity, userID, date),
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}
