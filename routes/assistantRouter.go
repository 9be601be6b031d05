package routes

import (
	"net/http"

	"github.com/clinicalai/apiv1/assistant"
	"github.com/gorilla/mux"
)

type AskInput struct {
	Prompt string `json:"prompt" validate:"required,max=2000"`
}

func AssistantRouter(s *mux.Router, a *api) {
	s.HandleFunc("/assistant/ask", a.Ask).Methods(http.MethodPost)
}

func (a *api) Ask(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeValidBody[AskInput](w, r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	answer := a.Assistant.Ask(r.Context(), assistant.Query{
		Prompt: input.Prompt,
		UserID: identity(r).UserID,
	})
	writeJSON(w, http.StatusOK, answer)
}
