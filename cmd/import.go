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
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/studyhub/internal/infrastructure/config"
	"github.com/eslsoft/studyhub/internal/infrastructure/database"
	"github.com/eslsoft/studyhub/internal/infrastructure/server"
)

const (
	importInputKey  = "backup.import.input"
	importGzipKey   = "backup.import.gzip"
	importTablesKey = "backup.import.tables"
	importBatchKey  = "backup.import.batch_size"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "从备份文件导入学习数据",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		logger, err := server.NewLogger(cfg)
		if err != nil {
			return err
		}
		pool, cleanup, err := database.NewConnection(cfg, logger)
		if err != nil {
			return fmt.Errorf("连接数据库失败: %w", err)
		}
		defer cleanup()

		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("执行数据库迁移失败: %w", err)
		}

		inputPath := viper.GetString(importInputKey)
		gzipEnabled := viper.GetBool(importGzipKey)
		tableList := tablesFromConfig(importTablesKey)
		batchSize := viper.GetInt(importBatchKey)
		if batchSize <= 0 {
			batchSize = 512
		}

		if inputPath == "" {
			return fmt.Errorf("请通过 --input 指定备份文件或使用 - 表示标准输入")
		}
		if !gzipEnabled && inputPath != "-" && strings.HasSuffix(strings.ToLower(inputPath), ".gz") {
			gzipEnabled = true
		}

		var (
			reader  = cmd.InOrStdin()
			closers []func() error
		)

		if inputPath != "-" {
			file, openErr := os.Open(filepath.Clean(inputPath))
			if openErr != nil {
				return fmt.Errorf("打开备份文件失败: %w", openErr)
			}
			reader = file
			closers = append(closers, file.Close)
		}

		if gzipEnabled {
			gzr, gzErr := gzip.NewReader(reader)
			if gzErr != nil {
				return fmt.Errorf("创建 gzip 读取器失败: %w", gzErr)
			}
			reader = gzr
			closers = append([]func() error{gzr.Close}, closers...)
		}

		defer func() {
			for _, closer := range closers {
				if cerr := closer(); cerr != nil && err == nil {
					err = cerr
				}
			}
		}()

		imported, err := importBackup(ctx, pool, reader, tableList, batchSize)
		if err != nil {
			return fmt.Errorf("导入备份失败: %w", err)
		}

		if inputPath == "-" {
			cmd.Printf("导入完成: 数据来源于标准输入, 共 %d 行\n", imported)
		} else {
			cmd.Printf("导入完成: %s, 共 %d 行\n", inputPath, imported)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("input", "i", "", "备份文件路径，使用 - 表示标准输入")
	importCmd.Flags().Bool("gzip", false, "输入为 gzip 压缩格式")
	importCmd.Flags().StringSlice("tables", nil, "仅导入指定表，逗号分隔或重复指定")
	importCmd.Flags().Int("batch-size", 0, "每个事务提交的行数 (默认 512)")

	bindImportConfig()
}

// importBackup replays an NDJSON backup stream. Rows are materialized through
// jsonb_populate_record so column order in the file does not matter; existing
// rows are left untouched.
func importBackup(ctx context.Context, pool *pgxpool.Pool, r io.Reader, tableList []string, batchSize int) (int, error) {
	wanted := func(string) bool { return true }
	if len(tableList) > 0 {
		allowed := make(map[string]bool, len(tableList))
		for _, table := range tableList {
			if !isLearnerTable(table) {
				return 0, fmt.Errorf("未知的备份表: %s", table)
			}
			allowed[table] = true
		}
		wanted = func(name string) bool { return allowed[name] }
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		tx       pgx.Tx
		pending  int
		imported int
		lineNo   int
	)
	defer func() {
		if tx != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record backupLine
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return imported, fmt.Errorf("第 %d 行解析失败: %w", lineNo, err)
		}
		if !isLearnerTable(record.Table) {
			return imported, fmt.Errorf("第 %d 行包含未知表 %s", lineNo, record.Table)
		}
		if !wanted(record.Table) {
			continue
		}

		if tx == nil {
			var err error
			tx, err = pool.BeginTx(ctx, pgx.TxOptions{})
			if err != nil {
				return imported, err
			}
		}
		query := fmt.Sprintf(
			`INSERT INTO %s SELECT * FROM jsonb_populate_record(NULL::%s, $1::jsonb) ON CONFLICT DO NOTHING`,
			record.Table, record.Table)
		if _, err := tx.Exec(ctx, query, string(record.Row)); err != nil {
			return imported, fmt.Errorf("第 %d 行写入 %s 失败: %w", lineNo, record.Table, err)
		}
		pending++
		imported++

		if pending >= batchSize {
			if err := tx.Commit(ctx); err != nil {
				return imported, err
			}
			tx = nil
			pending = 0
		}
	}
	if err := scanner.Err(); err != nil {
		return imported, err
	}
	if tx != nil {
		if err := tx.Commit(ctx); err != nil {
			return imported, err
		}
		tx = nil
	}
	return imported, nil
}

func bindImportConfig() {
	bindFlagToViper(importInputKey, importCmd.Flags().Lookup("input"))
	bindFlagToViper(importGzipKey, importCmd.Flags().Lookup("gzip"))
	bindFlagToViper(importTablesKey, importCmd.Flags().Lookup("tables"))
	bindFlagToViper(importBatchKey, importCmd.Flags().Lookup("batch-size"))
}
