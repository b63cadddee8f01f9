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
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eslsoft/clozegen/internal/app"
	"github.com/eslsoft/clozegen/internal/entity"
	"github.com/eslsoft/clozegen/internal/usecase/batch"
)

const (
	generateWorkersKey  = "generate.workers"
	generatePageSizeKey = "generate.page_size"
)

// generateCmd runs the batch exercise generator.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "为待处理歌曲批量生成填空练习",
	Long: "扫描数据库中尚未生成全部难度档位的歌曲, 为每首歌生成 easy/medium/hard 填空练习。" +
		"重复执行时只补齐缺失的档位; --include-processed 会重新生成已有练习。",
	RunE: func(cmd *cobra.Command, args []string) error {
		songID, _ := cmd.Flags().GetInt64("song-id")
		includeProcessed, _ := cmd.Flags().GetBool("include-processed")
		tierFlags, _ := cmd.Flags().GetStringSlice("difficulty")

		var difficulties []entity.Difficulty
		for _, v := range tierFlags {
			d := entity.ParseDifficulty(v)
			if d == entity.DifficultyUnspecified {
				return fmt.Errorf("不支持的难度档位: %q", v)
			}
			difficulties = append(difficulties, d)
		}

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("初始化失败: %w", err)
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		start := time.Now()
		summary, err := container.Runner.Run(ctx, batch.Options{
			SongID:           songID,
			Difficulties:     difficulties,
			IncludeProcessed: includeProcessed,
		})
		if err != nil {
			return fmt.Errorf("批量生成失败: %w", err)
		}
		cmd.Printf("生成完成: 处理歌曲 %d 首, 新增练习 %d, 跳过档位 %d, 失败档位 %d, 耗时 %s\n",
			summary.SongsProcessed, summary.ExercisesCreated, summary.TiersSkipped, summary.TiersFailed,
			time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().Int64("song-id", 0, "只处理指定 ID 的歌曲")
	generateCmd.Flags().Bool("include-processed", false, "重新生成已有练习的歌曲")
	generateCmd.Flags().StringSlice("difficulty", nil, "只生成指定难度档位 (easy/medium/hard, 可多选)")
	generateCmd.Flags().Int("workers", 0, "并发 worker 数量 (默认取配置 generate.workers)")
	generateCmd.Flags().Int("page-size", 0, "每批拉取的歌曲数量 (默认取配置 generate.page_size)")

	bindFlagToViper(generateWorkersKey, generateCmd.Flags().Lookup("workers"))
	bindFlagToViper(generatePageSizeKey, generateCmd.Flags().Lookup("page-size"))
}
