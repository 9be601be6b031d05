package routes

import (
	"net/http"

	"github.com/clinicalai/apiv1/models"
	"github.com/gorilla/mux"
	"gorm.io/datatypes"
)

type QuizInput struct {
	Title     string                `json:"title" validate:"required,max=200"`
	Questions []models.QuizQuestion `json:"questions" validate:"required,min=1,max=200"`
}

type ScoreInput struct {
	Answers []int `json:"answers" validate:"required"`
}

type ScoreResponse struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

func QuizRouter(s *mux.Router, a *api) {
	s.HandleFunc("", a.ListQuizzes).Methods(http.MethodGet)
	s.HandleFunc("", a.CreateQuiz).Methods(http.MethodPost)
	s.HandleFunc("/{id}", a.DeleteQuiz).Methods(http.MethodDelete)
	s.HandleFunc("/{id}/score", a.ScoreQuiz).Methods(http.MethodPost)
}

func (a *api) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.Store.ListQuizzes(r.Context(), identity(r).UserID)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (a *api) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeValidBody[QuizInput](w, r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	if err := models.ValidateQuestions(input.Questions); err != nil {
		a.respondError(w, r, err)
		return
	}
	quiz := &models.Quiz{
		Owned: models.Owned{UserID: identity(r).UserID},
		Title: input.Title,
		Data:  datatypes.NewJSONType(input.Questions),
	}
	if err := a.Store.CreateQuiz(r.Context(), quiz); err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (a *api) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.DeleteQuiz(r.Context(), mux.Vars(r)["id"], identity(r).UserID); err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

func (a *api) ScoreQuiz(w http.ResponseWriter, r *http.Request) {
	input, err := DecodeValidBody[ScoreInput](w, r)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	quiz, err := a.Store.GetQuiz(r.Context(), mux.Vars(r)["id"], identity(r).UserID)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	score, err := quiz.Score(input.Answers)
	if err != nil {
		a.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ScoreResponse{Score: score, Total: len(quiz.Questions())})
}
