package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslsoft/studyhub/internal/entity"
	"github.com/eslsoft/studyhub/internal/repository"
	"github.com/eslsoft/studyhub/pkg/filterexpr"
)

const lessonColumns = "id, subject_id, slug, title, excerpt, content, difficulty, date, xp_reward, created_at, updated_at"

type lessonRepository struct {
	pool *pgxpool.Pool
}

// NewLessonRepository constructs a pgx-backed lesson catalog repository.
func NewLessonRepository(pool *pgxpool.Pool) repository.LessonRepository {
	return &lessonRepository{pool: pool}
}

func scanLesson(row interface{ Scan(...any) error }) (*entity.Lesson, error) {
	var lesson entity.Lesson
	err := row.Scan(
		&lesson.ID,
		&lesson.SubjectID,
		&lesson.Slug,
		&lesson.Title,
		&lesson.Excerpt,
		&lesson.Content,
		&lesson.Difficulty,
		&lesson.Date,
		&lesson.XPReward,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepository) GetByID(ctx context.Context, id int64) (*entity.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, "SELECT "+lessonColumns+" FROM lessons WHERE id = $1", id)
	lesson, err := scanLesson(row)
	if err != nil {
		if isNoRows(err) {
			return nil, entity.ErrLessonNotFound
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return lesson, nil
}

func (r *lessonRepository) GetBySlug(ctx context.Context, slug string) (*entity.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, "SELECT "+lessonColumns+" FROM lessons WHERE slug = $1", slug)
	lesson, err := scanLesson(row)
	if err != nil {
		if isNoRows(err) {
			return nil, entity.ErrLessonNotFound
		}
		return nil, fmt.Errorf("get lesson by slug: %w", err)
	}
	return lesson, nil
}

func (r *lessonRepository) List(ctx context.Context, query *repository.ListLessonQuery) ([]entity.Lesson, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var binding listLessonBindings
	if err := filterexpr.Bind(query, &binding, listLessonsSchema); err != nil {
		return nil, 0, err
	}

	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if binding.Slug != "" {
		conds = append(conds, "slug = "+arg(binding.Slug))
	}
	if len(binding.Slugs) > 0 {
		conds = append(conds, "slug = ANY("+arg(binding.Slugs)+")")
	}
	if binding.Difficulty != "" {
		conds = append(conds, "difficulty = "+arg(binding.Difficulty))
	}
	if binding.SubjectID != 0 {
		conds = append(conds, "subject_id = "+arg(binding.SubjectID))
	}
	if binding.MinXP != 0 {
		conds = append(conds, "xp_reward >= "+arg(binding.MinXP))
	}
	if !binding.DateFrom.IsZero() {
		conds = append(conds, "date >= "+arg(binding.DateFrom))
	}
	if !binding.DateTo.IsZero() {
		conds = append(conds, "date <= "+arg(binding.DateTo))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	orderBy := listLessonsSchema.Order.SQLExpr(
		binding.PrimaryKey, binding.PrimaryDesc,
		binding.SecondaryKey, binding.SecondaryDesc,
	)

	sql := "SELECT " + lessonColumns + ", COUNT(*) OVER() AS total_count FROM lessons" + where +
		" ORDER BY " + orderBy +
		" LIMIT " + arg(query.Limit()) + " OFFSET " + arg(query.Offset())

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []entity.Lesson
	var total int64
	for rows.Next() {
		var lesson entity.Lesson
		if err := rows.Scan(
			&lesson.ID,
			&lesson.SubjectID,
			&lesson.Slug,
			&lesson.Title,
			&lesson.Excerpt,
			&lesson.Content,
			&lesson.Difficulty,
			&lesson.Date,
			&lesson.XPReward,
			&lesson.CreatedAt,
			&lesson.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, total, nil
}

func (r *lessonRepository) ListSubjects(ctx context.Context) ([]entity.Subject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		"SELECT id, name, description, created_at, updated_at FROM subjects ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []entity.Subject
	index := map[int64]int{}
	for rows.Next() {
		var subject entity.Subject
		if err := rows.Scan(&subject.ID, &subject.Name, &subject.Description, &subject.CreatedAt, &subject.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		index[subject.ID] = len(subjects)
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}

	lessonRows, err := r.pool.Query(ctx,
		"SELECT "+lessonColumns+" FROM lessons ORDER BY subject_id, date, id")
	if err != nil {
		return nil, fmt.Errorf("list subject lessons: %w", err)
	}
	defer lessonRows.Close()

	for lessonRows.Next() {
		lesson, err := scanLesson(lessonRows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		if i, ok := index[lesson.SubjectID]; ok {
			subjects[i].Lessons = append(subjects[i].Lessons, *lesson)
		}
	}
	if err := lessonRows.Err(); err != nil {
		return nil, fmt.Errorf("list subject lessons: %w", err)
	}
	return subjects, nil
}

func (r *lessonRepository) ListBySubject(ctx context.Context, subjectID int64) ([]entity.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		"SELECT "+lessonColumns+" FROM lessons WHERE subject_id = $1 ORDER BY date, id", subjectID)
	if err != nil {
		return nil, fmt.Errorf("list lessons by subject: %w", err)
	}
	defer rows.Close()

	var lessons []entity.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, *lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lessons by subject: %w", err)
	}
	return lessons, nil
}

func (r *lessonRepository) CountAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM lessons").Scan(&count); err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	return count, nil
}

func (r *lessonRepository) ListUncompleted(ctx context.Context, userID int64, limit int32) ([]entity.Lesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+lessonColumns+`
		FROM lessons l
		WHERE NOT EXISTS (
			SELECT 1 FROM lesson_progress p
			WHERE p.lesson_id = l.id AND p.user_id = $1 AND p.completed
		)
		ORDER BY date, id
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list uncompleted lessons: %w", err)
	}
	defer rows.Close()

	var lessons []entity.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, *lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list uncompleted lessons: %w", err)
	}
	return lessons, nil
}

func (r *lessonRepository) ListPaths(ctx context.Context) ([]entity.LearningPath, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		"SELECT id, slug, title, description, theme, audience, difficulty FROM learning_paths ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list learning paths: %w", err)
	}
	defer rows.Close()

	var paths []entity.LearningPath
	for rows.Next() {
		var path entity.LearningPath
		if err := rows.Scan(&path.ID, &path.Slug, &path.Title, &path.Description, &path.Theme, &path.Audience, &path.Difficulty); err != nil {
			return nil, fmt.Errorf("scan learning path: %w", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list learning paths: %w", err)
	}
	return paths, nil
}

func (r *lessonRepository) ListPathLessons(ctx context.Context, pathID int64) ([]entity.LearningPathLesson, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		"SELECT path_id, lesson_id, position FROM learning_path_lessons WHERE path_id = $1 ORDER BY position", pathID)
	if err != nil {
		return nil, fmt.Errorf("list path lessons: %w", err)
	}
	defer rows.Close()

	var items []entity.LearningPathLesson
	for rows.Next() {
		var item entity.LearningPathLesson
		if err := rows.Scan(&item.PathID, &item.LessonID, &item.Order); err != nil {
			return nil, fmt.Errorf("scan path lesson: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list path lessons: %w", err)
	}
	return items, nil
}

type testRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository constructs a pgx-backed test repository.
func NewTestRepository(pool *pgxpool.Pool) repository.TestRepository {
	return &testRepository{pool: pool}
}

const testColumns = "id, lesson_id, question, correct_answer, wrong_answers, explanation, points, bonus_time_threshold"

func scanTest(row interface{ Scan(...any) error }) (*entity.Test, error) {
	var test entity.Test
	err := row.Scan(
		&test.ID,
		&test.LessonID,
		&test.Question,
		&test.CorrectAnswer,
		&test.WrongAnswers,
		&test.Explanation,
		&test.Points,
		&test.BonusTimeThreshold,
	)
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) GetByID(ctx context.Context, id int64) (*entity.Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, "SELECT "+testColumns+" FROM tests WHERE id = $1", id)
	test, err := scanTest(row)
	if err != nil {
		if isNoRows(err) {
			return nil, entity.ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	return test, nil
}

func (r *testRepository) ListByLesson(ctx context.Context, lessonID int64) ([]entity.Test, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, "SELECT "+testColumns+" FROM tests WHERE lesson_id = $1 ORDER BY id", lessonID)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	var tests []entity.Test
	for rows.Next() {
		test, err := scanTest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan test: %w", err)
		}
		tests = append(tests, *test)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return tests, nil
}
