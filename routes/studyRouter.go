package routes

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clinicalai/apiv1/dbhelper"
	"github.com/clinicalai/apiv1/models"
	"github.com/gorilla/mux"
)

const remindAtLayout = "2006-01-02 15:04"

type FlashcardInput struct {
	Front string `json:"front" validate:"required,max=2000"`
	Back  string `json:"back" validate:"required,max=2000"`
}

type CheckInInput struct {
	Date  string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Mood  string  `json:"mood" validate:"required,mood"`
	Focus int     `json:"focus" validate:"min=1,max=10"`
	Hours float64 `json:"hours" validate:"min=0,max=24"`
	Notes string  `json:"notes" validate:"max=5000"`
}

type QuoteInput struct {
	Quote  string `json:"quote" validate:"required,max=1000"`
	Author string `json:"author" validate:"max=200"`
}

type ReminderInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	RemindAt string `json:"remind_at" validate:"required"`
	Notes    string `json:"notes" validate:"max=5000"`
}

type MnemonicInput struct {
	Course  string `json:"course" validate:"required,subject"`
	Topic   string `json:"topic" validate:"required,max=200"`
	Name    string `json:"name" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=5000"`
}

func StudyRouter(s *mux.Router, a *api) {
	s.HandleFunc("/flashcards", a.ListFlashcards).Methods(http.MethodGet)
	s.HandleFunc("/flashcards", a.CreateFlashcard).Methods(http.MethodPost)
	s.HandleFunc("/flashcards/{id}", a.DeleteFlashcard).Methods(http.MethodDelete)

	s.HandleFunc("/checkins", a.ListCheckIns).Methods(http.MethodGet)
	s.HandleFunc("/checkins", a.CreateCheckIn).Methods(http.MethodPost)
	s.HandleFunc("/checkins/stats", a.CheckInStats).Methods(http.MethodGet)
	s.HandleFunc("/checkins/{id}", a.DeleteCheckIn).Methods(http.MethodDelete)

	s.HandleFunc("/quotes", a.ListQuotes).Methods(http.MethodGet)
	s.HandleFunc("/quotes", a.CreateQuote).Methods(http.MethodPost)
	s.HandleFunc("/quotes/{id}", a.DeleteQuote).Methods(http.MethodDelete)

	s.HandleFunc("/reminders", a.ListReminders).Methods(http.MethodGet)
	s.HandleFunc("/reminders", a.CreateReminder).Methods(http.MethodPost)
	s.HandleFunc("/reminders/{id}", a.DeleteReminder).Methods(http.MethodDelete)

	s.HandleFunc("/mnemonics", a.ListMnemonics).Methods(http.MethodGet)
	s.HandleFunc("/mnemonics", a.CreateMnemonic).Methods(http.MethodPost)
	s.HandleFunc("/mnemonics/{id}", a.DeleteMnemonic).Methods(http.MethodDelete)
}

// ParseRemindAt accepts "YYYY-MM-DD HH:MM" (read as UTC) or RFC 3339.
func ParseRemindAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(remindAtLayout, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, models.Invalid("remind_at must look like YYYY-MM-DD HH:MM or RFC 3339, got %q", s)
}

func (a *api) deleted(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

func (a *api) listed(w http.ResponseWriter, r *http.Request, records any, err error) {
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *api) created(w http.ResponseWriter, r *http.Request, record any, err error) {
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Flashcards

func (a *api) ListFlashcards(w http.ResponseWriter, r *http.Request) {
	cards, err := a.Store.ListFlashcards(r.Context(), identity(r).UserID)
	a.listed(w, r, cards, err)
}

func (a *api) CreateFlashcard(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeValidBody[FlashcardInput](w, r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	card := &models.Flashcard{Owned: models.Owned{UserID: identity(r).UserID}, Front: input.Front, Back: input.Back}
	a.created(w, r, card, a.Store.CreateFlashcard(r.Context(), card))
}

func (a *api) DeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	a.deleted(w, r, a.Store.DeleteFlashcard(r.Context(), mux.Vars(r)["id"], identity(r).UserID))
}

// Check-ins

func (a *api) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	checkins, err := a.Store.ListCheckIns(r.Context(), identity(r).UserID)
	a.listed(w, r, checkins, err)
}

func (a *api) CreateCheckIn(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeValidBody[CheckInInput](w, r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	date := input.Date
	if date == "" {
		date = a.Store.Now().Format(time.DateOnly)
	}
	checkin := &models.CheckIn{
		Owned: models.Owned{UserID: identity(r).UserID},
		Date:  date,
		Mood:  input.Mood,
		Focus: input.Focus,
		Hours: input.Hours,
		Notes: input.Notes,
	}
	a.created(w, r, checkin, a.Store.CreateCheckIn(r.Context(), checkin))
}

func (a *api) CheckInStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Store.CheckInStats(r.Context(), identity(r).UserID)
	a.listed(w, r, stats, err)
}

func (a *api) DeleteCheckIn(w http.ResponseWriter, r *http.Request) {
	a.deleted(w, r, a.Store.DeleteCheckIn(r.Context(), mux.Vars(r)["id"], identity(r).UserID))
}

// Quotes

func (a *api) ListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := a.Store.ListQuotes(r.Context(), identity(r).UserID)
	a.listed(w, r, quotes, err)
}

func (a *api) CreateQuote(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeValidBody[QuoteInput](w, r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	quote := &models.Quote{Owned: models.Owned{UserID: identity(r).UserID}, Quote: input.Quote, Author: input.Author}
	a.created(w, r, quote, a.Store.CreateQuote(r.Context(), quote))
}

func (a *api) DeleteQuote(w http.ResponseWriter, r *http.Request) {
	a.deleted(w, r, a.Store.DeleteQuote(r.Context(), mux.Vars(r)["id"], identity(r).UserID))
}

// Reminders

func (a *api) ListReminders(w http.ResponseWriter, r *http.Request) {
	upcoming, _ := strconv.ParseBool(r.URL.Query().Get("upcoming"))
	reminders, err := a.Store.ListReminders(r.Context(), identity(r).UserID, dbhelper.ReminderFilter{UpcomingOnly: upcoming})
	a.listed(w, r, reminders, err)
}

func (a *api) CreateReminder(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeValidBody[ReminderInput](w, r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	remindAt, err := ParseRemindAt(input.RemindAt)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	reminder := &models.Reminder{
		Owned:    models.Owned{UserID: identity(r).UserID},
		Title:    input.Title,
		RemindAt: remindAt,
		Notes:    input.Notes,
	}
	a.created(w, r, reminder, a.Store.CreateReminder(r.Context(), reminder))
}

func (a *api) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	a.deleted(w, r, a.Store.DeleteReminder(r.Context(), mux.Vars(r)["id"], identity(r).UserID))
}

// Mnemonics

func (a *api) ListMnemonics(w http.ResponseWriter, r *http.Request) {
	course := r.URL.Query().Get("course")
	if course != "" && !models.IsSubject(course) {
		a.respondError(w, r, models.Invalid("%q is not a known course", course))
		return
	}
	mnemonics, err := a.Store.ListMnemonics(r.Context(), identity(r).UserID, course)
	a.listed(w, r, mnemonics, err)
}

func (a *api) CreateMnemonic(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeValidBody[MnemonicInput](w, r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	mnemonic := &models.Mnemonic{
		Owned:   models.Owned{UserID: identity(r).UserID},
		Course:  input.Course,
		Topic:   input.Topic,
		Name:    input.Name,
		Content: input.Content,
	}
	a.created(w, r, mnemonic, a.Store.CreateMnemonic(r.Context(), mnemonic))
}

func (a *api) DeleteMnemonic(w http.ResponseWriter, r *http.Request) {
	a.deleted(w, r, a.Store.DeleteMnemonic(r.Context(), mux.Vars(r)["id"], identity(r).UserID))
}
