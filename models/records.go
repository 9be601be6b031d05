package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Owned is embedded by every per-user record.
type Owned struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (o *Owned) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

type Quiz struct {
	Owned
	Title string                             `json:"title"`
	Data  datatypes.JSONType[[]QuizQuestion] `json:"questions"`
}

func (Quiz) TableName() string { return "quizzes" }

func (q Quiz) Questions() []QuizQuestion { return q.Data.Data() }

type Flashcard struct {
	Owned
	Front string `json:"front"`
	Back  string `json:"back"`
}

func (Flashcard) TableName() string { return "flashcards" }

type CheckIn struct {
	Owned
	Date  string  `json:"date"`
	Mood  string  `json:"mood"`
	Focus int     `json:"focus"`
	Hours float64 `json:"hours"`
	Notes string  `json:"notes"`
}

func (CheckIn) TableName() string { return "checkins" }

type CheckInStats struct {
	Count        int            `json:"count"`
	AverageFocus float64        `json:"average_focus"`
	TotalHours   float64        `json:"total_hours"`
	Moods        map[string]int `json:"moods"`
}

type Quote struct {
	Owned
	Quote  string `json:"quote"`
	Author string `json:"author,omitempty"`
}

func (Quote) TableName() string { return "quotes" }

type Reminder struct {
	Owned
	Title    string    `json:"title"`
	RemindAt time.Time `json:"remind_at"`
	Notes    string    `json:"notes"`
}

func (Reminder) TableName() string { return "reminders" }

type Mnemonic struct {
	Owned
	Course  string `json:"course"`
	Topic   string `json:"topic"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (Mnemonic) TableName() string { return "mnemonics" }

// VaultNote.Content holds base64 ciphertext when Encrypted is set.
type VaultNote struct {
	Owned
	Subject   string `json:"subject"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Encrypted bool   `json:"encrypted"`
}

func (VaultNote) TableName() string { return "vault_notes" }
