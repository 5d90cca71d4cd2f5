package models

import (
	"time"

	"gorm.io/datatypes"
)

// InterviewReport archives a completed interview. Reports are read-only once written.
type InterviewReport struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	SessionID           string         `gorm:"size:64;uniqueIndex;not null" json:"session_id"`
	Topic               string         `gorm:"size:128" json:"topic"`
	Provider            string         `gorm:"size:32" json:"provider"`
	IntroMessage        string         `gorm:"type:text" json:"intro_message"`
	Transcript          datatypes.JSON `json:"transcript"`
	QuestionCount       int            `gorm:"not null" json:"question_count"`
	AverageScore        float64        `gorm:"default:0" json:"average_score"`
	FinalFeedback       string         `gorm:"type:text" json:"final_feedback"`
	FinalScore          int            `gorm:"not null" json:"final_score"`
	FinalRecommendation string         `gorm:"size:32;not null" json:"final_recommendation"`
	FallbackUsed        bool           `gorm:"default:false" json:"fallback_used"`
	CreatedAt           time.Time      `json:"created_at"`
}
