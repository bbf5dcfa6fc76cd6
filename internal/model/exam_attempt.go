package model

import (
	"database/sql/driver"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// PassThreshold is inclusive: 80.0 passes.
	PassThreshold = 80.0

	LocalIDPrefix = "local_"

	GradePassed = "ЗАЧЕТ"
	GradeFailed = "НЕЗАЧЕТ"
)

// QuestionSnapshot is a copy of a question as it was shown during an exam,
// kept so the attempt can be reviewed after the question bank changes.
type QuestionSnapshot struct {
	Number  int      `json:"number,omitempty"`
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
	Correct []string `json:"correct,omitempty"`
}

type QuestionSnapshots []QuestionSnapshot

func (q QuestionSnapshots) Value() (driver.Value, error) {
	return valueJSON(q)
}

func (q *QuestionSnapshots) Scan(src interface{}) error {
	return scanJSON(src, q)
}

// ExamAttempt is an immutable record of a completed simulation. Only ID may
// change, when a locally created attempt gets its server id.
type ExamAttempt struct {
	ID string `json:"id"`
	// ClientID is the local id an uploaded attempt was created under. The
	// service echoes it so a client can recognise its own pending copy.
	ClientID          string            `json:"clientId,omitempty"`
	Block             string            `json:"block"`
	Date              time.Time         `json:"date"`
	CorrectCount      int               `json:"correctCount"`
	TotalCount        int               `json:"totalCount"`
	Percentage        float64           `json:"percentage"`
	Passed            bool              `json:"passed"`
	TimeSpentSeconds  int               `json:"timeSpentSeconds"`
	Answers           AnswerSets        `json:"answers"`
	QuestionsSnapshot QuestionSnapshots `json:"questionsSnapshot"`
}

// NewExamAttempt grades a finished simulation and stamps it with a local id.
func NewExamAttempt(block string, correct, total, timeSpentSeconds int, answers AnswerSets, snapshot QuestionSnapshots, now time.Time) ExamAttempt {
	pct := Percentage(correct, total)
	return ExamAttempt{
		ID:                NewLocalID(),
		Block:             block,
		Date:              now,
		CorrectCount:      correct,
		TotalCount:        total,
		Percentage:        pct,
		Passed:            pct >= PassThreshold,
		TimeSpentSeconds:  timeSpentSeconds,
		Answers:           answers,
		QuestionsSnapshot: snapshot,
	}
}

// Percentage is correct/total*100 rounded to one decimal place.
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}

func (a ExamAttempt) Grade() string {
	if a.Passed {
		return GradePassed
	}
	return GradeFailed
}

func (a ExamAttempt) IsLocal() bool {
	return IsLocalID(a.ID)
}

// Matches reports whether id names a, either as its own id or as the local
// id it was uploaded under.
func (a ExamAttempt) Matches(id string) bool {
	return id != "" && (a.ID == id || a.ClientID == id)
}

func NewLocalID() string {
	return LocalIDPrefix + uuid.New().String()
}

func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// ExamAttemptRecord is the server row of an exam attempt.
type ExamAttemptRecord struct {
	BaseModel
	UserID            uint              `gorm:"index;uniqueIndex:idx_attempt_user_client;type:bigint unsigned"`
	ClientID          *string           `gorm:"uniqueIndex:idx_attempt_user_client;size:64"`
	Block             string            `gorm:"size:191;index"`
	Date              time.Time         `gorm:"index"`
	CorrectCount      int
	TotalCount        int
	Percentage        float64
	Passed            bool
	TimeSpentSeconds  int
	Answers           AnswerSets        `gorm:"type:json"`
	QuestionsSnapshot QuestionSnapshots `gorm:"type:json"`
}

func (ExamAttemptRecord) TableName() string {
	return "exam_attempts"
}

// NewExamAttemptRecord builds a row from a client attempt. A local id is kept
// as ClientID so a retried upload resolves to the same row.
func NewExamAttemptRecord(userID uint, a ExamAttempt) *ExamAttemptRecord {
	rec := &ExamAttemptRecord{
		UserID:            userID,
		Block:             a.Block,
		Date:              a.Date,
		CorrectCount:      a.CorrectCount,
		TotalCount:        a.TotalCount,
		Percentage:        a.Percentage,
		Passed:            a.Passed,
		TimeSpentSeconds:  a.TimeSpentSeconds,
		Answers:           a.Answers,
		QuestionsSnapshot: a.QuestionsSnapshot,
	}
	if IsLocalID(a.ID) {
		id := a.ID
		rec.ClientID = &id
	}
	return rec
}

func (r *ExamAttemptRecord) ToAttempt() ExamAttempt {
	var clientID string
	if r.ClientID != nil {
		clientID = *r.ClientID
	}
	return ExamAttempt{
		ID:                strconv.FormatUint(uint64(r.ID), 10),
		ClientID:          clientID,
		Block:             r.Block,
		Date:              r.Date,
		CorrectCount:      r.CorrectCount,
		TotalCount:        r.TotalCount,
		Percentage:        r.Percentage,
		Passed:            r.Passed,
		TimeSpentSeconds:  r.TimeSpentSeconds,
		Answers:           r.Answers,
		QuestionsSnapshot: r.QuestionsSnapshot,
	}
}

// SaveAttemptRequest is the body of POST /exam-attempts.
type SaveAttemptRequest struct {
	UserID  string      `json:"userId" binding:"required"`
	Attempt ExamAttempt `json:"attempt"`
}
