/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eslsoft/clozegen/internal/app"
	"github.com/eslsoft/clozegen/internal/entity"
	"github.com/eslsoft/clozegen/internal/repository"
	"github.com/eslsoft/clozegen/internal/usecase/quality"
)

// validateCmd replays quality validation over stored exercises.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "校验已生成练习的质量并输出报告",
	Long: `对数据库中已生成的填空练习重新执行全部质量校验, 输出整体质量得分、
档位与词性分布, 以及未通过校验的练习明细。

--filter 支持 CEL 表达式, 可用字段: difficulty, song_id, gap_count,
avg_difficulty_score, create_time。例如:

  clozegen validate --filter 'difficulty == "hard" && gap_count >= 15'
  clozegen validate --filter 'create_time >= timestamp("2025-06-01T00:00:00Z")'
  clozegen validate --order-by 'avg_difficulty_score desc'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		orderBy, _ := cmd.Flags().GetString("order-by")
		showFindings, _ := cmd.Flags().GetInt("show-findings")

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("初始化失败: %w", err)
		}
		defer cleanup()

		query := &repository.ListExerciseQuery{}
		query.Filter = filter
		query.OrderBy = orderBy

		report, err := container.Auditor.Run(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("校验失败: %w", err)
		}
		printReport(cmd, report, showFindings)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().String("filter", "", "CEL 过滤表达式, 限定要校验的练习")
	validateCmd.Flags().String("order-by", "", "排序表达式, 如 'created_at desc'")
	validateCmd.Flags().Int("show-findings", 20, "最多输出的问题明细条数 (0 表示不输出)")
}

func printReport(cmd *cobra.Command, report *quality.Report, showFindings int) {
	cmd.Printf("校验完成: 共 %d 条练习, 有效 %d, 无效 %d, 警告 %d\n",
		report.Checked, report.Valid, report.Invalid, report.WarningCount)
	cmd.Printf("质量得分: %.2f / 100, 平均难度: %.2f\n", report.QualityScore, report.AvgDifficulty)

	if len(report.TierCounts) > 0 {
		parts := make([]string, 0, len(report.TierCounts))
		for _, tier := range entity.AllDifficulties {
			if n, ok := report.TierCounts[tier]; ok {
				parts = append(parts, fmt.Sprintf("%s=%d", tier, n))
			}
		}
		cmd.Printf("档位分布: %s\n", strings.Join(parts, ", "))
	}

	if len(report.POSDistribution) > 0 {
		tags := make([]string, 0, len(report.POSDistribution))
		for tag := range report.POSDistribution {
			tags = append(tags, string(tag))
		}
		sort.Strings(tags)
		parts := make([]string, 0, len(tags))
		for _, tag := range tags {
			parts = append(parts, fmt.Sprintf("%s=%d", tag, report.POSDistribution[entity.POSTag(tag)]))
		}
		cmd.Printf("词性分布: %s\n", strings.Join(parts, ", "))
	}

	if showFindings <= 0 || len(report.Findings) == 0 {
		return
	}
	limit := showFindings
	if limit > len(report.Findings) {
		limit = len(report.Findings)
	}
	cmd.Printf("问题明细 (%d/%d):\n", limit, len(report.Findings))
	for _, f := range report.Findings[:limit] {
		cmd.Printf("- 练习 %s (歌曲 %d, %s)\n", f.ExerciseID, f.SongID, f.Difficulty)
		for _, msg := range f.Errors {
			cmd.Printf("    错误: %s\n", msg)
		}
		for _, msg := range f.Warnings {
			cmd.Printf("    警告: %s\n", msg)
		}
	}
}
