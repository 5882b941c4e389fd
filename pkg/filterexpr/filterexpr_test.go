package filterexpr

import (
	"testing"
	"time"
)

type listInput struct {
	filter  string
	orderBy string
}

func (i listInput) GetFilter() string  { return i.filter }
func (i listInput) GetOrderBy() string { return i.orderBy }

type lessonBindings struct {
	Slug          string
	Slugs         []string
	Difficulty    string
	MinXP         int64
	DateFrom      time.Time
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

var lessonSchema = Schema{
	Filter: map[string]Field{
		"slug": {
			Kind: KindString,
			Ops: map[Op]string{
				OpEQ: "Slug",
				OpIN: "Slugs",
			},
		},
		"difficulty": {
			Kind: KindString,
			Ops:  map[Op]string{OpEQ: "Difficulty"},
		},
		"xp_reward": {
			Kind: KindNumber,
			Ops:  map[Op]string{OpGTE: "MinXP"},
		},
		"date": {
			Kind: KindTimestamp,
			Ops:  map[Op]string{OpGTE: "DateFrom"},
		},
	},
	Order: Ordering{
		Default:  "date",
		Fallback: "id",
		Keys: map[string]OrderKey{
			"date":  {Expr: "l.date"},
			"title": {Expr: "l.title"},
			"id":    {Expr: "l.id"},
		},
	},
}

func TestBindFilterPredicates(t *testing.T) {
	var binding lessonBindings
	input := listInput{filter: `difficulty == "easy" && xp_reward >= 50 && date >= timestamp("2025-03-01T00:00:00Z")`}

	if err := Bind(input, &binding, lessonSchema); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if binding.Difficulty != "easy" {
		t.Fatalf("difficulty = %q", binding.Difficulty)
	}
	if binding.MinXP != 50 {
		t.Fatalf("min xp = %d", binding.MinXP)
	}
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !binding.DateFrom.Equal(want) {
		t.Fatalf("date from = %v, want %v", binding.DateFrom, want)
	}
}

func TestBindInList(t *testing.T) {
	var binding lessonBindings
	input := listInput{filter: `slug in ["intro", "basics"]`}

	if err := Bind(input, &binding, lessonSchema); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if len(binding.Slugs) != 2 || binding.Slugs[0] != "intro" {
		t.Fatalf("slugs = %v", binding.Slugs)
	}
}

func TestBindRejectsUnknownField(t *testing.T) {
	var binding lessonBindings
	if err := Bind(listInput{filter: `secret == "x"`}, &binding, lessonSchema); err == nil {
		t.Fatalf("unknown field must be rejected")
	}
}

func TestBindRejectsDisallowedOperator(t *testing.T) {
	var binding lessonBindings
	if err := Bind(listInput{filter: `difficulty >= "easy"`}, &binding, lessonSchema); err == nil {
		t.Fatalf("operator not in whitelist must be rejected")
	}
}

func TestBindRejectsOr(t *testing.T) {
	var binding lessonBindings
	if err := Bind(listInput{filter: `difficulty == "easy" || difficulty == "hard"`}, &binding, lessonSchema); err == nil {
		t.Fatalf("OR must be rejected")
	}
}

func TestBindOrderDefaults(t *testing.T) {
	var binding lessonBindings
	if err := Bind(listInput{}, &binding, lessonSchema); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if binding.PrimaryKey != "date" || binding.PrimaryDesc {
		t.Fatalf("primary = %s desc=%v, want date asc", binding.PrimaryKey, binding.PrimaryDesc)
	}
	if binding.SecondaryKey != "id" {
		t.Fatalf("secondary = %s, want id tiebreaker", binding.SecondaryKey)
	}
}

func TestBindOrderExplicit(t *testing.T) {
	var binding lessonBindings
	if err := Bind(listInput{orderBy: "title desc, date"}, &binding, lessonSchema); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if binding.PrimaryKey != "title" || !binding.PrimaryDesc {
		t.Fatalf("primary = %s desc=%v", binding.PrimaryKey, binding.PrimaryDesc)
	}
	if binding.SecondaryKey != "date" || binding.SecondaryDesc {
		t.Fatalf("secondary = %s desc=%v", binding.SecondaryKey, binding.SecondaryDesc)
	}
}

func TestBindOrderRejectsUnknownKey(t *testing.T) {
	var binding lessonBindings
	if err := Bind(listInput{orderBy: "secret"}, &binding, lessonSchema); err == nil {
		t.Fatalf("unknown order key must be rejected")
	}
}

func TestOrderingSQLExpr(t *testing.T) {
	got := lessonSchema.Order.SQLExpr("date", false, "id", false)
	if got != "l.date ASC, l.id ASC" {
		t.Fatalf("sql = %q", got)
	}
}
