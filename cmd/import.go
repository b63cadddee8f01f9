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
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/clozegen/internal/infrastructure/config"
	"github.com/eslsoft/clozegen/internal/usecase/backup"
)

const (
	importInputKey  = "backup.import.input"
	importGzipKey   = "backup.import.gzip"
	importTablesKey = "backup.import.tables"
	importBatchKey  = "backup.import.batch_size"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "从 NDJSON 备份恢复歌曲与练习数据",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		input := viper.GetString(importInputKey)
		if input == "" {
			return errors.New("请通过 --input 指定备份文件，使用 - 表示标准输入")
		}
		gzipped := wantsGzip(input, viper.GetBool(importGzipKey))

		// Make sure the target schema exists before rows stream in.
		if err := runMigrations(); err != nil {
			return err
		}

		service, err := backup.NewService(
			cfg.DatabaseDriver(),
			cfg.DatabaseURL(),
			backup.WithBatchSize(viper.GetInt(importBatchKey)),
		)
		if err != nil {
			return fmt.Errorf("创建备份服务失败: %w", err)
		}

		source, closeSource, err := openArchiveSource(cmd, input, gzipped)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closeSource(); cerr != nil && err == nil {
				err = cerr
			}
		}()

		var opts []backup.ImportOption
		if tables := tableFilter(importTablesKey); len(tables) > 0 {
			opts = append(opts, backup.WithImportTables(tables))
		}
		if err := service.Import(cmd.Context(), source, opts...); err != nil {
			return fmt.Errorf("导入备份失败: %w", err)
		}

		if input == "-" {
			cmd.Println("导入完成: 数据来源于标准输入")
		} else {
			cmd.Printf("导入完成: %s\n", input)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("input", "i", "", "备份文件路径，使用 - 表示标准输入")
	importCmd.Flags().Bool("gzip", false, "输入为 gzip 压缩格式")
	importCmd.Flags().StringSlice("tables", nil, "仅导入指定表，逗号分隔或重复指定")
	importCmd.Flags().Int("batch-size", 0, "导入批处理大小 (默认 512)")

	bindFlagToViper(importInputKey, importCmd.Flags().Lookup("input"))
	bindFlagToViper(importGzipKey, importCmd.Flags().Lookup("gzip"))
	bindFlagToViper(importTablesKey, importCmd.Flags().Lookup("tables"))
	bindFlagToViper(importBatchKey, importCmd.Flags().Lookup("batch-size"))
}
