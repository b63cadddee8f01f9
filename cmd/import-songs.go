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
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/clozegen/internal/app"
	"github.com/eslsoft/clozegen/internal/entity"
)

const (
	importSongsInputKey    = "catalog.import.input"
	importSongsCacheDirKey = "catalog.import.cache_dir"
)

// importSongsCmd loads a song catalog into the database.
var importSongsCmd = &cobra.Command{
	Use:   "import-songs",
	Short: "导入歌曲目录 (SQLite 文件、zip 包或下载地址)",
	Long: "从本地 SQLite 文件、包含 SQLite 的 zip 压缩包或 HTTP(S) 下载地址导入歌曲目录。" +
		"下载内容会缓存到本地, 重复执行时直接复用。目录文件需要包含 songs(title, artist, language, lyrics) 表。",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		input := viper.GetString(importSongsInputKey)
		cacheDir := viper.GetString(importSongsCacheDirKey)
		noCache, _ := cmd.Flags().GetBool("no-cache")
		langFlag, _ := cmd.Flags().GetString("language")

		if input == "" {
			return errors.New("请通过 --input 指定歌曲目录文件或下载地址")
		}
		lang := entity.ParseLanguage(langFlag)
		if lang == entity.LanguageUnspecified {
			return fmt.Errorf("不支持的语言代码: %q", langFlag)
		}

		if err := runMigrations(); err != nil {
			return err
		}

		start := time.Now()
		log.SetFlags(log.LstdFlags | log.Lshortfile)

		path, cleanupSource, err := resolveCatalogSource(ctx, input, cacheDir, noCache)
		if err != nil {
			return err
		}
		defer cleanupSource()

		container, cleanup, err := app.Initialize()
		if err != nil {
			return fmt.Errorf("初始化失败: %w", err)
		}
		defer cleanup()

		report, err := container.Importer.Import(ctx, path, lang)
		if err != nil {
			return fmt.Errorf("导入歌曲目录失败: %w", err)
		}
		cmd.Printf("导入完成: 读取 %d 行, 新增 %d, 跳过重复 %d, 无效 %d, 耗时 %s\n",
			report.Read, report.Inserted, report.Skipped, report.Invalid, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importSongsCmd)

	importSongsCmd.Flags().StringP("input", "i", "", "歌曲目录文件路径、zip 包或 HTTP(S) 下载地址")
	importSongsCmd.Flags().String("language", "en", "缺少语言标记的行使用的语言代码")
	importSongsCmd.Flags().String("cache-dir", "", "下载缓存目录 (默认: 用户缓存目录/clozegen)")
	importSongsCmd.Flags().Bool("no-cache", false, "忽略本地缓存, 强制重新下载")

	bindFlagToViper(importSongsInputKey, importSongsCmd.Flags().Lookup("input"))
	bindFlagToViper(importSongsCacheDirKey, importSongsCmd.Flags().Lookup("cache-dir"))
}

// resolveCatalogSource turns the import input into a local SQLite file path.
// URLs download into the cache directory; zip archives are extracted to a
// temporary directory removed by the returned cleanup.
func resolveCatalogSource(ctx context.Context, input, cacheDirFlag string, noCache bool) (string, func(), error) {
	cleanup := func() {}
	path := input

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		cacheDir, cachedPath, fromCache, err := prepareCachePath(input, cacheDirFlag, noCache)
		if err != nil {
			return "", cleanup, err
		}
		if fromCache {
			log.Printf("使用缓存文件: %s", cachedPath)
		} else {
			if err := os.MkdirAll(cacheDir, 0o755); err != nil {
				return "", cleanup, fmt.Errorf("创建缓存目录失败: %w", err)
			}
			log.Printf("下载歌曲目录到缓存: %s", cachedPath)
			if err := downloadFile(ctx, input, cachedPath); err != nil {
				return "", cleanup, err
			}
		}
		path = cachedPath
	}

	if strings.HasSuffix(strings.ToLower(path), ".zip") {
		tmpDir, err := os.MkdirTemp("", "clozegen-catalog-*")
		if err != nil {
			return "", cleanup, err
		}
		extracted, err := unzipSingle(func(name string) bool {
			return strings.HasSuffix(name, ".db") || strings.HasSuffix(name, ".sqlite")
		}, path, tmpDir)
		if err != nil {
			os.RemoveAll(tmpDir)
			return "", cleanup, err
		}
		log.Printf("已解压 sqlite: %s", extracted)
		return extracted, func() { os.RemoveAll(tmpDir) }, nil
	}

	if _, err := os.Stat(path); err != nil {
		return "", cleanup, fmt.Errorf("歌曲目录文件不可用: %w", err)
	}
	return path, cleanup, nil
}

// prepareCachePath decides cache location and returns (cacheDir, filePath, fromCache, error)
func prepareCachePath(url, cacheDirFlag string, noCache bool) (string, string, bool, error) {
	var base string
	if cacheDirFlag != "" {
		base = cacheDirFlag
	} else {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return "", "", false, fmt.Errorf("获取用户缓存目录失败: %w", err)
		}
		base = filepath.Join(userCache, "clozegen")
	}
	// stable filename from URL hash
	h := crc32.ChecksumIEEE([]byte(url))
	name := fmt.Sprintf("catalog-%08x%s", h, cacheExt(url))
	path := filepath.Join(base, name)
	if !noCache {
		if st, err := os.Stat(path); err == nil && st.Size() > 0 {
			return base, path, true, nil
		}
	}
	return base, path, false, nil
}

// cacheExt keeps the source extension so zip archives survive the cache round trip.
func cacheExt(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return ".zip"
	case strings.HasSuffix(lower, ".sqlite"):
		return ".sqlite"
	default:
		return ".db"
	}
}

func downloadFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("下载失败: %s", resp.Status)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return err
	}
	return nil
}

func unzipSingle(match func(string) bool, zipPath, dstDir string) (string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", err
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if match(f.Name) {
			rc, err := f.Open()
			if err != nil {
				return "", err
			}
			defer rc.Close()
			outPath := filepath.Join(dstDir, filepath.Base(f.Name))
			out, err := os.Create(outPath)
			if err != nil {
				return "", err
			}
			if _, err := io.Copy(out, rc); err != nil {
				out.Close()
				return "", err
			}
			out.Close()
			return outPath, nil
		}
	}
	return "", errors.New("zip 中未找到 sqlite 文件")
}
