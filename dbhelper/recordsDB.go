package dbhelper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clinicalai/apiv1/models"
	"gorm.io/gorm"
)

const insertionOrder = "created_at ASC, rowid ASC"

func create[T any](ctx context.Context, db *gorm.DB, rec *T) error {
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrNotFound
		}
		return fmt.Errorf("creating %T: %w", rec, err)
	}
	return nil
}

func list[T any](ctx context.Context, db *gorm.DB, ownerID, order string, scopes ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	out := []T{}
	err := db.WithContext(ctx).
		Scopes(scopes...).
		Where("user_id = ?", ownerID).
		Order(order).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing %T: %w", out, err)
	}
	return out, nil
}

// remove deletes only when the record belongs to ownerID; anything else is ErrNotFound.
func remove[T any](ctx context.Context, db *gorm.DB, id, ownerID string) error {
	result := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(new(T))
	if result.Error != nil {
		return fmt.Errorf("deleting %T: %w", new(T), result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func where(query string, args ...any) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Where(query, args...) }
}

// Quizzes

func (s *Store) CreateQuiz(ctx context.Context, q *models.Quiz) error {
	return create(ctx, s.DB, q)
}

func (s *Store) ListQuizzes(ctx context.Context, ownerID string) ([]models.Quiz, error) {
	return list[models.Quiz](ctx, s.DB, ownerID, insertionOrder)
}

func (s *Store) GetQuiz(ctx context.Context, id, ownerID string) (*models.Quiz, error) {
	var quiz models.Quiz
	result := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Limit(1).Find(&quiz)
	if result.Error != nil {
		return nil, fmt.Errorf("loading quiz: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &quiz, nil
}

func (s *Store) DeleteQuiz(ctx context.Context, id, ownerID string) error {
	return remove[models.Quiz](ctx, s.DB, id, ownerID)
}

// Flashcards

func (s *Store) CreateFlashcard(ctx context.Context, f *models.Flashcard) error {
	return create(ctx, s.DB, f)
}

func (s *Store) ListFlashcards(ctx context.Context, ownerID string) ([]models.Flashcard, error) {
	return list[models.Flashcard](ctx, s.DB, ownerID, insertionOrder)
}

func (s *Store) DeleteFlashcard(ctx context.Context, id, ownerID string) error {
	return remove[models.Flashcard](ctx, s.DB, id, ownerID)
}

// Check-ins

func (s *Store) CreateCheckIn(ctx context.Context, c *models.CheckIn) error {
	return create(ctx, s.DB, c)
}

func (s *Store) ListCheckIns(ctx context.Context, ownerID string) ([]models.CheckIn, error) {
	return list[models.CheckIn](ctx, s.DB, ownerID, "date ASC, "+insertionOrder)
}

func (s *Store) DeleteCheckIn(ctx context.Context, id, ownerID string) error {
	return remove[models.CheckIn](ctx, s.DB, id, ownerID)
}

func (s *Store) CheckInStats(ctx context.Context, ownerID string) (models.CheckInStats, error) {
	stats := models.CheckInStats{Moods: map[string]int{}}
	db := s.DB.WithContext(ctx).Model(&models.CheckIn{}).Where("user_id = ?", ownerID)

	var totals struct {
		Count      int
		AvgFocus   float64
		TotalHours float64
	}
	err := db.Session(&gorm.Session{}).
		Select("COUNT(*) AS count, COALESCE(AVG(focus), 0.0) AS avg_focus, COALESCE(SUM(hours), 0.0) AS total_hours").
		Scan(&totals).Error
	if err != nil {
		return stats, fmt.Errorf("summing check-ins: %w", err)
	}

	var moods []struct {
		Mood string
		N    int
	}
	err = db.Session(&gorm.Session{}).Select("mood, COUNT(*) AS n").Group("mood").Scan(&moods).Error
	if err != nil {
		return stats, fmt.Errorf("counting moods: %w", err)
	}

	stats.Count = totals.Count
	stats.AverageFocus = totals.AvgFocus
	stats.TotalHours = totals.TotalHours
	for _, m := range moods {
		stats.Moods[m.Mood] = m.N
	}
	return stats, nil
}

// Quotes

func (s *Store) CreateQuote(ctx context.Context, q *models.Quote) error {
	return create(ctx, s.DB, q)
}

func (s *Store) ListQuotes(ctx context.Context, ownerID string) ([]models.Quote, error) {
	return list[models.Quote](ctx, s.DB, ownerID, insertionOrder)
}

func (s *Store) DeleteQuote(ctx context.Context, id, ownerID string) error {
	return remove[models.Quote](ctx, s.DB, id, ownerID)
}

// Reminders

type ReminderFilter struct {
	UpcomingOnly bool
}

func (s *Store) CreateReminder(ctx context.Context, r *models.Reminder) error {
	r.RemindAt = r.RemindAt.UTC()
	return create(ctx, s.DB, r)
}

func (s *Store) ListReminders(ctx context.Context, ownerID string, filter ReminderFilter) ([]models.Reminder, error) {
	var scopes []func(*gorm.DB) *gorm.DB
	if filter.UpcomingOnly {
		scopes = append(scopes, where("remind_at >= ?", s.Now()))
	}
	return list[models.Reminder](ctx, s.DB, ownerID, "remind_at ASC, "+insertionOrder, scopes...)
}

func (s *Store) DeleteReminder(ctx context.Context, id, ownerID string) error {
	return remove[models.Reminder](ctx, s.DB, id, ownerID)
}

// Mnemonics

func (s *Store) CreateMnemonic(ctx context.Context, m *models.Mnemonic) error {
	if !models.IsSubject(m.Course) {
		return models.Invalid("%q is not a known course", m.Course)
	}
	return create(ctx, s.DB, m)
}

func (s *Store) ListMnemonics(ctx context.Context, ownerID, course string) ([]models.Mnemonic, error) {
	var scopes []func(*gorm.DB) *gorm.DB
	if course != "" {
		scopes = append(scopes, where("course = ?", course))
	}
	return list[models.Mnemonic](ctx, s.DB, ownerID, insertionOrder, scopes...)
}

func (s *Store) DeleteMnemonic(ctx context.Context, id, ownerID string) error {
	return remove[models.Mnemonic](ctx, s.DB, id, ownerID)
}

// Vault notes

func (s *Store) CreateVaultNote(ctx context.Context, n *models.VaultNote) error {
	if !models.IsSubject(n.Subject) {
		return models.Invalid("%q is not a known subject", n.Subject)
	}
	return create(ctx, s.DB, n)
}

func (s *Store) ListVaultNotes(ctx context.Context, ownerID, subject string) ([]models.VaultNote, error) {
	var scopes []func(*gorm.DB) *gorm.DB
	if subject != "" {
		scopes = append(scopes, where("subject = ?", subject))
	}
	return list[models.VaultNote](ctx, s.DB, ownerID, insertionOrder, scopes...)
}

func (s *Store) DeleteVaultNote(ctx context.Context, id, ownerID string) error {
	return remove[models.VaultNote](ctx, s.DB, id, ownerID)
}

// SearchVaultNotes does a case-insensitive substring match over the owner's
// unencrypted notes. Encrypted notes are never searched.
func (s *Store) SearchVaultNotes(ctx context.Context, ownerID, query string) ([]models.VaultNote, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []models.VaultNote{}, nil
	}
	notes, err := list[models.VaultNote](ctx, s.DB, ownerID, insertionOrder, where("encrypted = ?", false))
	if err != nil {
		return nil, err
	}
	matches := []models.VaultNote{}
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), query) || strings.Contains(strings.ToLower(n.Content), query) {
			matches = append(matches, n)
		}
	}
	return matches, nil
}
