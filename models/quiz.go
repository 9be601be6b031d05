package models

import (
	"errors"
	"fmt"
	"strings"
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func ValidateQuestions(questions []QuizQuestion) error {
	if len(questions) == 0 {
		return Invalid("a quiz needs at least one question")
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return Invalid("question %d has no text", i+1)
		}
		if len(q.Options) < 2 {
			return Invalid("question %d needs at least two options", i+1)
		}
		for j, o := range q.Options {
			if strings.TrimSpace(o) == "" {
				return Invalid("question %d option %d is empty", i+1, j+1)
			}
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			return Invalid("question %d answer %d is not one of its options", i+1, q.Answer)
		}
	}
	return nil
}

// Score counts answers that match the correct option index, one answer per question in order.
func (q Quiz) Score(answers []int) (int, error) {
	questions := q.Questions()
	if len(answers) != len(questions) {
		return 0, Invalid("expected %d answers, got %d", len(questions), len(answers))
	}
	correct := 0
	for i, a := range answers {
		if a < 0 || a >= len(questions[i].Options) {
			return 0, Invalid("answer %d is out of range for question %d", a, i+1)
		}
		if a == questions[i].Answer {
			correct++
		}
	}
	return correct, nil
}
