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
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// wantsGzip enables compression when the flag is set or the path ends in .gz.
func wantsGzip(path string, flag bool) bool {
	if flag || path == "-" {
		return flag
	}
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

// openArchiveSink returns the writer a backup archive is streamed into.
// Path "-" means the command's stdout. The returned close function
// flushes and closes the layers in reverse order of wrapping.
func openArchiveSink(cmd *cobra.Command, path string, gzipped bool) (io.Writer, func() error, error) {
	var (
		w       io.Writer = cmd.OutOrStdout()
		closers []func() error
	)
	if path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("创建输出目录失败: %w", err)
		}
		file, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("创建备份文件失败: %w", err)
		}
		w = file
		closers = append(closers, file.Close)
	}
	if gzipped {
		gz := gzip.NewWriter(w)
		w = gz
		closers = append([]func() error{gz.Close}, closers...)
	}
	return w, closeAll(closers), nil
}

// openArchiveSource returns the reader a backup archive is restored from.
// Path "-" means the command's stdin.
func openArchiveSource(cmd *cobra.Command, path string, gzipped bool) (io.Reader, func() error, error) {
	var (
		r       io.Reader = cmd.InOrStdin()
		closers []func() error
	)
	if path != "-" {
		file, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, nil, fmt.Errorf("打开备份文件失败: %w", err)
		}
		r = file
		closers = append(closers, file.Close)
	}
	if gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			for _, closer := range closers {
				_ = closer()
			}
			return nil, nil, fmt.Errorf("创建 gzip 读取器失败: %w", err)
		}
		r = gz
		closers = append([]func() error{gz.Close}, closers...)
	}
	return r, closeAll(closers), nil
}

func closeAll(closers []func() error) func() error {
	return func() error {
		var first error
		for _, closer := range closers {
			if err := closer(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
}

// exportProgress prints per-table progress lines to stderr, roughly one
// line per 5% of rows so huge tables do not flood the terminal.
type exportProgress struct {
	out    io.Writer
	tables map[string]*tableTally
}

type tableTally struct {
	total int
	done  int
	mark  int
	step  int
}

func newExportProgress(out io.Writer) *exportProgress {
	return &exportProgress{out: out, tables: make(map[string]*tableTally)}
}

func (p *exportProgress) StartTable(table string, total int) {
	if total < 0 {
		total = 0
	}
	p.tables[table] = &tableTally{total: total, step: tallyStep(total)}
	fmt.Fprintf(p.out, "开始导出 %s (共 %d 行)\n", table, total)
}

func (p *exportProgress) Increment(table string, delta int) {
	tally := p.tables[table]
	if tally == nil || delta <= 0 {
		return
	}
	tally.done += delta
	if tally.done == tally.total || tally.mark == 0 || tally.done-tally.mark >= tally.step {
		p.report(table, tally)
		tally.mark = tally.done
	}
}

func (p *exportProgress) FinishTable(table string) {
	tally := p.tables[table]
	if tally == nil {
		return
	}
	if tally.done != tally.mark {
		p.report(table, tally)
	}
	if tally.total > 0 {
		fmt.Fprintf(p.out, "完成导出 %s: %d/%d 行\n", table, tally.done, tally.total)
	} else {
		fmt.Fprintf(p.out, "完成导出 %s: %d 行\n", table, tally.done)
	}
	delete(p.tables, table)
}

func (p *exportProgress) report(table string, tally *tableTally) {
	if tally.total > 0 {
		fmt.Fprintf(p.out, "导出进度 %s: %d/%d\n", table, tally.done, tally.total)
	} else {
		fmt.Fprintf(p.out, "导出进度 %s: 已写出 %d 行\n", table, tally.done)
	}
}

// tallyStep aims for about twenty progress lines per table.
func tallyStep(total int) int {
	if total <= 0 {
		return 1000
	}
	step := total / 20
	if step < 1 {
		step = 1
	}
	if step > 1000 {
		step = 1000
	}
	return step
}
