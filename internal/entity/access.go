package entity

// LessonRef identifies a lesson in projections without dragging the full row.
type LessonRef struct {
	ID    int64  `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// Ref returns the lightweight reference for a lesson.
func (l Lesson) Ref() LessonRef {
	return LessonRef{ID: l.ID, Slug: l.Slug, Title: l.Title}
}

// AccessView is the accessibility projection for one user: which lessons are
// completed, which are reachable, and why the rest are locked. It is a
// read-time view, distinct from the persisted progress rows.
type AccessView struct {
	CompletedIDs  map[int64]bool
	AccessibleIDs map[int64]bool
	// LockedReasons maps a locked lesson to the subject's frontier lesson
	// blocking it (not necessarily the immediately preceding lesson).
	LockedReasons map[int64]LessonRef
}

// NewAccessView returns an empty view with initialised sets.
func NewAccessView() *AccessView {
	return &AccessView{
		CompletedIDs:  make(map[int64]bool),
		AccessibleIDs: make(map[int64]bool),
		LockedReasons: make(map[int64]LessonRef),
	}
}

// SequenceItem is one position in a subject's ordered lesson sequence, with
// per-user flags resolved.
type SequenceItem struct {
	Lesson       Lesson     `json:"lesson"`
	Index        int        `json:"index"`
	Completed    bool       `json:"completed"`
	Accessible   bool       `json:"accessible"`
	IsCurrent    bool       `json:"is_current"`
	LockedReason *LessonRef `json:"locked_reason,omitempty"`
}
