package repository

import (
	"time"

	"github.com/eslsoft/studyhub/pkg/filterexpr"
)

// listLessonBindings receives the whitelisted filter values and resolved order
// keys for the lesson list query.
type listLessonBindings struct {
	Slug          string
	Slugs         []string
	Difficulty    string
	SubjectID     int64
	MinXP         int64
	DateFrom      time.Time
	DateTo        time.Time
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

var listLessonsSchema = filterexpr.Schema{
	Filter: map[string]filterexpr.Field{
		"slug": {
			Kind: filterexpr.KindString,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpEQ: "Slug",
				filterexpr.OpIN: "Slugs",
			},
		},
		"difficulty": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Difficulty"},
		},
		"subject_id": {
			Kind: filterexpr.KindNumber,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "SubjectID"},
		},
		"xp_reward": {
			Kind: filterexpr.KindNumber,
			Ops:  map[filterexpr.Op]string{filterexpr.OpGTE: "MinXP"},
		},
		"date": {
			Kind: filterexpr.KindTimestamp,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpGTE: "DateFrom",
				filterexpr.OpLTE: "DateTo",
			},
		},
	},
	Order: filterexpr.Ordering{
		Default:  "date",
		Fallback: "id",
		Keys: map[string]filterexpr.OrderKey{
			"date":       {Expr: "date"},
			"title":      {Expr: "title"},
			"xp_reward":  {Expr: "xp_reward"},
			"created_at": {Expr: "created_at"},
			"id":         {Expr: "id"},
		},
	},
}
