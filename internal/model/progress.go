package model

import (
	"database/sql/driver"
	"time"
)

type ProgressMode string

const (
	TrainerMode    ProgressMode = "trainer"
	SimulationMode ProgressMode = "simulation"
)

// AnswerSet holds the options picked for one question. A nil set means the
// question has not been answered yet.
type AnswerSet []string

type AnswerSets []AnswerSet

func (a AnswerSets) Value() (driver.Value, error) {
	return valueJSON(a)
}

func (a *AnswerSets) Scan(src interface{}) error {
	return scanJSON(src, a)
}

// Progress is the cursor into a trainer session or an in-flight simulation
// for one block.
type Progress struct {
	Block     string     `json:"block"`
	Answers   AnswerSets `json:"answers"`
	Cursor    int        `json:"cursor"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewProgress returns an empty progress with one unanswered slot per question.
func NewProgress(block string, questionCount int) Progress {
	p := Progress{Block: block, Answers: AnswerSets{}}
	p.Normalize(questionCount)
	return p
}

// Normalize resizes Answers to questionCount, padding with unanswered slots.
// A non-positive count leaves Answers as is.
func (p *Progress) Normalize(questionCount int) {
	if p.Answers == nil {
		p.Answers = AnswerSets{}
	}
	if questionCount <= 0 {
		return
	}
	if len(p.Answers) > questionCount {
		p.Answers = p.Answers[:questionCount]
	}
	for len(p.Answers) < questionCount {
		p.Answers = append(p.Answers, nil)
	}
	if p.Cursor < 0 {
		p.Cursor = 0
	}
	if p.Cursor >= questionCount {
		p.Cursor = questionCount - 1
	}
}

// SetAnswer records the answer for question i and moves the cursor there.
func (p *Progress) SetAnswer(i int, set AnswerSet) {
	if i < 0 {
		return
	}
	for len(p.Answers) <= i {
		p.Answers = append(p.Answers, nil)
	}
	p.Answers[i] = set
	p.Cursor = i
}

func (p Progress) AnsweredCount() int {
	n := 0
	for _, a := range p.Answers {
		if a != nil {
			n++
		}
	}
	return n
}

// ProgressRecord is the server row for both trainer and simulation progress,
// unique per (user, mode, block).
type ProgressRecord struct {
	ID        uint         `gorm:"primaryKey;autoIncrement" json:"-"`
	UserID    uint         `gorm:"uniqueIndex:idx_progress_user_mode_block;type:bigint unsigned" json:"userId"`
	Mode      ProgressMode `gorm:"uniqueIndex:idx_progress_user_mode_block;size:20" json:"mode"`
	Block     string       `gorm:"uniqueIndex:idx_progress_user_mode_block;size:191" json:"block"`
	Answers   AnswerSets   `gorm:"type:json" json:"answers"`
	Cursor    int          `json:"cursor"`
	SavedAt   time.Time    `gorm:"index" json:"updatedAt"`
	CreatedAt time.Time    `json:"-"`
	UpdatedAt time.Time    `json:"-"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}

func (r *ProgressRecord) ToProgress() Progress {
	answers := r.Answers
	if answers == nil {
		answers = AnswerSets{}
	}
	return Progress{
		Block:     r.Block,
		Answers:   answers,
		Cursor:    r.Cursor,
		UpdatedAt: r.SavedAt,
	}
}

// SaveProgressRequest is the body of POST /trainer-progress and
// POST /simulation-progress.
type SaveProgressRequest struct {
	UserID    string     `json:"userId" binding:"required"`
	Block     string     `json:"block" binding:"required"`
	Answers   AnswerSets `json:"answers"`
	Cursor    int        `json:"cursor"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
