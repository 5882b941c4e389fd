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
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/eslsoft/studyhub/internal/adapter/repository"
	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/infrastructure/config"
	"github.com/eslsoft/studyhub/internal/infrastructure/database"
	"github.com/eslsoft/studyhub/internal/infrastructure/server"
)

// dbInitCmd initializes the database schema, seeds the badge and reward
// catalogs and optionally imports curriculum content from a JSON file.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "初始化数据库并导入课程内容",
	Long:  "执行数据库迁移、写入默认徽章与奖励目录，并可通过 --content 从 JSON 文件导入科目、课程与测验。如需仅迁移不导入，可使用 --schema-only。",
	RunE: func(cmd *cobra.Command, args []string) error {
		contentPath, _ := cmd.Flags().GetString("content")
		schemaOnly, _ := cmd.Flags().GetBool("schema-only")

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
		log.Println("数据库迁移完成")
		if schemaOnly {
			return nil
		}

		if err := seedCatalogs(ctx, pool); err != nil {
			return fmt.Errorf("写入徽章与奖励目录失败: %w", err)
		}
		log.Println("徽章与奖励目录写入完成")

		if contentPath == "" {
			return nil
		}
		return importContent(ctx, pool, contentPath)
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().String("content", "", "课程内容 JSON 文件路径")
	dbInitCmd.Flags().Bool("schema-only", false, "仅执行数据库迁移，不写入目录与内容")
}

func seedCatalogs(ctx context.Context, pool *pgxpool.Pool) error {
	awards := repository.NewAwardRepository(pool)
	for _, badge := range entity.DefaultBadgeCatalog() {
		b := badge
		if err := awards.UpsertBadge(ctx, &b); err != nil {
			return fmt.Errorf("upsert badge %s: %w", b.Code, err)
		}
	}
	for _, reward := range entity.DefaultRewardCatalog() {
		r := reward
		if err := awards.UpsertReward(ctx, &r); err != nil {
			return fmt.Errorf("upsert reward %s: %w", r.Code, err)
		}
	}
	return nil
}

// contentFile is the on-disk curriculum format consumed by db-init.
type contentFile struct {
	Subjects []subjectRecord `json:"subjects"`
	Paths    []pathRecord    `json:"paths"`
}

type subjectRecord struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Lessons     []lessonRecord `json:"lessons"`
}

type lessonRecord struct {
	Slug       string       `json:"slug"`
	Title      string       `json:"title"`
	Excerpt    string       `json:"excerpt"`
	Content    string       `json:"content"`
	Difficulty string       `json:"difficulty"`
	Date       string       `json:"date"`
	XPReward   int          `json:"xp_reward"`
	Tests      []testRecord `json:"tests"`
}

type testRecord struct {
	Question           string   `json:"question"`
	CorrectAnswer      string   `json:"correct_answer"`
	WrongAnswers       []string `json:"wrong_answers"`
	Explanation        string   `json:"explanation"`
	Points             int      `json:"points"`
	BonusTimeThreshold int      `json:"bonus_time_threshold"`
}

type pathRecord struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Theme       string   `json:"theme"`
	Audience    string   `json:"audience"`
	Difficulty  string   `json:"difficulty"`
	Lessons     []string `json:"lessons"`
}

func importContent(ctx context.Context, pool *pgxpool.Pool, path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("读取内容文件失败: %w", err)
	}
	var content contentFile
	if err := json.Unmarshal(data, &content); err != nil {
		return fmt.Errorf("解析内容文件失败: %w", err)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lessonIDs := make(map[string]int64)
	lessonTotal := 0
	for _, subject := range content.Subjects {
		subjectID, err := upsertSubject(ctx, tx, subject)
		if err != nil {
			return err
		}
		for _, lesson := range subject.Lessons {
			id, err := upsertLesson(ctx, tx, subjectID, lesson)
			if err != nil {
				return err
			}
			lessonIDs[lessonSlug(lesson)] = id
			lessonTotal++
		}
	}

	for _, p := range content.Paths {
		if err := upsertPath(ctx, tx, p, lessonIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	log.Printf("内容导入完成: %d 个科目, %d 节课程, %d 条学习路径",
		len(content.Subjects), lessonTotal, len(content.Paths))
	return nil
}

func upsertSubject(ctx context.Context, tx pgx.Tx, record subjectRecord) (int64, error) {
	name := strings.TrimSpace(record.Name)
	if name == "" {
		return 0, fmt.Errorf("科目缺少名称")
	}
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM subjects WHERE name = $1`, name).Scan(&id)
	if err == nil {
		_, err = tx.Exec(ctx,
			`UPDATE subjects SET description = $2, updated_at = NOW() WHERE id = $1`,
			id, record.Description)
		return id, err
	}
	if err != pgx.ErrNoRows {
		return 0, fmt.Errorf("查询科目 %s 失败: %w", name, err)
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO subjects (name, description) VALUES ($1, $2) RETURNING id`,
		name, record.Description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("插入科目 %s 失败: %w", name, err)
	}
	return id, nil
}

func upsertLesson(ctx context.Context, tx pgx.Tx, subjectID int64, record lessonRecord) (int64, error) {
	slug := lessonSlug(record)
	if slug == "" {
		return 0, fmt.Errorf("课程缺少 slug 且无法从标题推导: %+v", record)
	}
	date, err := parseLessonDate(record.Date)
	if err != nil {
		return 0, fmt.Errorf("课程 %s 日期非法: %w", slug, err)
	}
	xp := record.XPReward
	if xp <= 0 {
		xp = 50
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO lessons (subject_id, slug, title, excerpt, content, difficulty, date, xp_reward)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (slug) DO UPDATE SET
			subject_id = EXCLUDED.subject_id,
			title = EXCLUDED.title,
			excerpt = EXCLUDED.excerpt,
			content = EXCLUDED.content,
			difficulty = EXCLUDED.difficulty,
			date = EXCLUDED.date,
			xp_reward = EXCLUDED.xp_reward,
			updated_at = NOW()
		RETURNING id`,
		subjectID, slug, record.Title, record.Excerpt, record.Content,
		record.Difficulty, date, xp).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("写入课程 %s 失败: %w", slug, err)
	}

	// Tests carry no natural key, so re-import replaces a lesson's set.
	if len(record.Tests) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM tests WHERE lesson_id = $1`, id); err != nil {
			return 0, fmt.Errorf("清理课程 %s 的测验失败: %w", slug, err)
		}
		batch := &pgx.Batch{}
		for _, test := range record.Tests {
			points := test.Points
			if points <= 0 {
				points = 10
			}
			wrong := test.WrongAnswers
			if wrong == nil {
				wrong = []string{}
			}
			batch.Queue(`
				INSERT INTO tests (lesson_id, question, correct_answer, wrong_answers, explanation, points, bonus_time_threshold)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				id, test.Question, test.CorrectAnswer, wrong,
				test.Explanation, points, test.BonusTimeThreshold)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, fmt.Errorf("写入课程 %s 的测验失败: %w", slug, err)
		}
	}
	return id, nil
}

func upsertPath(ctx context.Context, tx pgx.Tx, record pathRecord, lessonIDs map[string]int64) error {
	slug := normalizeSlug(record.Slug)
	if slug == "" {
		slug = normalizeSlug(record.Title)
	}
	if slug == "" {
		return fmt.Errorf("学习路径缺少 slug")
	}
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO learning_paths (slug, title, description, theme, audience, difficulty)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			theme = EXCLUDED.theme,
			audience = EXCLUDED.audience,
			difficulty = EXCLUDED.difficulty
		RETURNING id`,
		slug, record.Title, record.Description, record.Theme,
		record.Audience, record.Difficulty).Scan(&id)
	if err != nil {
		return fmt.Errorf("写入学习路径 %s 失败: %w", slug, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM learning_path_lessons WHERE path_id = $1`, id); err != nil {
		return fmt.Errorf("清理学习路径 %s 失败: %w", slug, err)
	}
	for i, ref := range record.Lessons {
		lessonID, ok := lessonIDs[ref]
		if !ok {
			err := tx.QueryRow(ctx, `SELECT id FROM lessons WHERE slug = $1`, ref).Scan(&lessonID)
			if err != nil {
				return fmt.Errorf("学习路径 %s 引用了未知课程 %s", slug, ref)
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO learning_path_lessons (path_id, lesson_id, position)
			VALUES ($1, $2, $3)`,
			id, lessonID, i+1)
		if err != nil {
			return fmt.Errorf("写入学习路径 %s 的课程失败: %w", slug, err)
		}
	}
	return nil
}

func lessonSlug(record lessonRecord) string {
	if slug := normalizeSlug(record.Slug); slug != "" {
		return slug
	}
	return normalizeSlug(record.Title)
}

// normalizeSlug lowercases s and collapses every non-alphanumeric run into a
// single hyphen. Leading and trailing hyphens are dropped.
func normalizeSlug(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// parseLessonDate accepts a plain date or a full RFC3339 timestamp.
func parseLessonDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("日期为空")
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
