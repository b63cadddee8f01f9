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
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/clozegen/internal/infrastructure/config"
	"github.com/eslsoft/clozegen/internal/usecase/backup"
)

const (
	exportOutputKey = "backup.export.output"
	exportGzipKey   = "backup.export.gzip"
	exportTablesKey = "backup.export.tables"
	exportBatchKey  = "backup.export.batch_size"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "导出歌曲与练习数据为 NDJSON 备份",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		output := viper.GetString(exportOutputKey)
		gzipped := wantsGzip(output, viper.GetBool(exportGzipKey))
		if output == "" {
			output = defaultExportFilename(gzipped)
		}

		service, err := backup.NewService(
			cfg.DatabaseDriver(),
			cfg.DatabaseURL(),
			backup.WithBatchSize(viper.GetInt(exportBatchKey)),
		)
		if err != nil {
			return fmt.Errorf("创建备份服务失败: %w", err)
		}

		sink, closeSink, err := openArchiveSink(cmd, output, gzipped)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closeSink(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		opts := []backup.ExportOption{
			backup.WithProgressReporter(newExportProgress(cmd.ErrOrStderr())),
		}
		if tables := tableFilter(exportTablesKey); len(tables) > 0 {
			opts = append(opts, backup.WithTables(tables))
		}
		if err := service.Export(cmd.Context(), sink, opts...); err != nil {
			return fmt.Errorf("导出备份失败: %w", err)
		}

		if output == "-" {
			cmd.Println("导出完成: 输出到标准输出")
		} else {
			cmd.Printf("导出完成: %s\n", output)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "备份输出文件路径，使用 - 表示标准输出")
	exportCmd.Flags().Bool("gzip", false, "使用 gzip 压缩输出")
	exportCmd.Flags().StringSlice("tables", nil, "仅导出指定表，逗号分隔或重复指定")
	exportCmd.Flags().Int("batch-size", 0, "导出批处理大小 (默认 512)")

	bindFlagToViper(exportOutputKey, exportCmd.Flags().Lookup("output"))
	bindFlagToViper(exportGzipKey, exportCmd.Flags().Lookup("gzip"))
	bindFlagToViper(exportTablesKey, exportCmd.Flags().Lookup("tables"))
	bindFlagToViper(exportBatchKey, exportCmd.Flags().Lookup("batch-size"))
}

func defaultExportFilename(gzipped bool) string {
	name := fmt.Sprintf("clozegen-backup-%s.jsonl", time.Now().UTC().Format("20060102-150405"))
	if gzipped {
		name += ".gz"
	}
	return name
}
