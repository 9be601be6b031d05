package routes

import (
	"net/http"
	"time"

	"github.com/clinicalai/apiv1/models"
	"github.com/clinicalai/apiv1/utils"
	"github.com/clinicalai/apiv1/vault"
	"github.com/gorilla/mux"
)

type VaultNoteInput struct {
	Subject string `json:"subject" validate:"required,subject"`
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=20000"`
	Encrypt bool   `json:"encrypt"`
}

type VaultUnlock struct {
	Password string `json:"password" validate:"required,min=1,max=256"`
}

// NoteView is a vault note as the caller may see it: decrypted when the vault
// is unlocked, blanked and flagged otherwise.
type NoteView struct {
	models.VaultNote
	Locked bool   `json:"locked,omitempty"`
	Error  string `json:"error,omitempty"`
}

type UnlockResponse struct {
	Unlocked  bool      `json:"unlocked"`
	ExpiresAt time.Time `json:"expires_at"`
}

func VaultRouter(s *mux.Router, a *api) {
	s.HandleFunc("/notes", a.ListVaultNotes).Methods(http.MethodGet)
	s.HandleFunc("/notes", a.CreateVaultNote).Methods(http.MethodPost)
	s.HandleFunc("/notes/{id}", a.DeleteVaultNote).Methods(http.MethodDelete)
	s.HandleFunc("/search", a.SearchVaultNotes).Methods(http.MethodGet)
	s.HandleFunc("/unlock", a.UnlockVault).Methods(http.MethodPost)
	s.HandleFunc("/lock", a.LockVault).Methods(http.MethodPost)
}

func (a *api) viewNotes(r *http.Request, notes []models.VaultNote) []NoteView {
	key, unlocked := a.Sessions.VaultKey(identity(r).SessionID)
	views := make([]NoteView, 0, len(notes))
	for _, n := range notes {
		view := NoteView{VaultNote: n}
		if n.Encrypted {
			view.Content = ""
			if !unlocked {
				view.Locked = true
			} else if plaintext, err := vault.Decrypt(key, n.Content); err != nil {
				view.Error = utils.VAULT_DECRYPT_ERROR
			} else {
				view.Content = plaintext
			}
		}
		views = append(views, view)
	}
	return views
}

func (a *api) ListVaultNotes(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject != "" && !models.IsSubject(subject) {
		a.respondError(w, r, models.Invalid("%q is not a known subject", subject))
		return
	}
	notes, err := a.Store.ListVaultNotes(r.Context(), identity(r).UserID, subject)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.viewNotes(r, notes))
}

func (a *api) CreateVaultNote(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeValidBody[VaultNoteInput](w, r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	id := identity(r)
	note := &models.VaultNote{
		Owned:   models.Owned{UserID: id.UserID},
		Subject: input.Subject,
		Title:   input.Title,
		Content: input.Content,
	}
	if input.Encrypt {
		key, ok := a.Sessions.VaultKey(id.SessionID)
		if !ok {
			http.Error(w, utils.VAULT_LOCKED_ERROR, http.StatusLocked)
			return
		}
		ciphertext, err := vault.Encrypt(key, input.Content)
		if err != nil {
			a.respondError(w, r, err)
			return
		}
		note.Content = ciphertext
		note.Encrypted = true
	}
	if err := a.Store.CreateVaultNote(r.Context(), note); err != nil {
		a.respondError(w, r, err)
		return
	}
	view := NoteView{VaultNote: *note}
	view.Content = input.Content
	writeJSON(w, http.StatusCreated, view)
}

func (a *api) DeleteVaultNote(w http.ResponseWriter, r *http.Request) {
	a.deleted(w, r, a.Store.DeleteVaultNote(r.Context(), mux.Vars(r)["id"], identity(r).UserID))
}

func (a *api) SearchVaultNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := a.Store.SearchVaultNotes(r.Context(), identity(r).UserID, r.URL.Query().Get("q"))
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.viewNotes(r, notes))
}

// UnlockVault derives the vault key from the password and keeps it for this session only.
// A password that differs from the first one ever used is rejected with 403.
func (a *api) UnlockVault(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeValidBody[VaultUnlock](w, r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	id := identity(r)
	salt, err := a.Store.EnsureVaultSalt(r.Context(), id.UserID)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	key := vault.DeriveKey(input.Password, salt)
	if err := a.Store.CheckVaultKey(r.Context(), id.UserID, key); err != nil {
		a.respondError(w, r, err)
		return
	}
	a.Sessions.SetVaultKey(id.SessionID, key)
	writeJSON(w, http.StatusOK, UnlockResponse{Unlocked: true, ExpiresAt: time.Now().Add(a.Sessions.TTL())})
}

func (a *api) LockVault(w http.ResponseWriter, r *http.Request) {
	a.Sessions.Lock(identity(r).SessionID)
	writeJSON(w, http.StatusOK, StatusResponse{Status: "Vault locked."})
}
