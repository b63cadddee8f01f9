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
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/eslsoft/clozegen/internal/infrastructure/config"
	"github.com/eslsoft/clozegen/internal/infrastructure/database"
	"github.com/eslsoft/clozegen/internal/infrastructure/database/migrate"
)

// dbInitCmd applies the schema migrations to the configured database.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "初始化数据库 (执行 schema 迁移)",
	Long:  "在配置的数据库上执行 schema 迁移。注意: sqlite 目标依赖 go-sqlite3, 需要 CGO_ENABLED=1 构建。",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations()
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
}

// runMigrations applies the declared schema to the target database.
func runMigrations() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	drv, cleanup, err := database.NewSQLDriver(cfg)
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := migrate.NewSchema(drv).Create(ctx); err != nil {
		return fmt.Errorf("执行数据库迁移失败: %w", err)
	}

	log.Println("数据库迁移完成")
	return nil
}
