package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func threeQuestionQuiz() Quiz {
	return Quiz{
		Title: "Antibiotics",
		Data: datatypes.NewJSONType([]QuizQuestion{
			{Question: "Penicillin class?", Options: []string{"Beta-lactam", "Macrolide"}, Answer: 0},
			{Question: "Vancomycin covers?", Options: []string{"Gram negative", "Gram positive", "Fungi"}, Answer: 1},
			{Question: "Doxycycline class?", Options: []string{"Tetracycline", "Aminoglycoside"}, Answer: 0},
		}),
	}
}

func TestQuiz_Score(t *testing.T) {
	quiz := threeQuestionQuiz()

	tests := []struct {
		name    string
		answers []int
		want    int
		wantErr bool
	}{
		{name: "two of three", answers: []int{0, 1, 1}, want: 2},
		{name: "all correct", answers: []int{0, 1, 0}, want: 3},
		{name: "none correct", answers: []int{1, 0, 1}, want: 0},
		{name: "too few answers", answers: []int{0, 1}, wantErr: true},
		{name: "out of range", answers: []int{0, 3, 0}, wantErr: true},
		{name: "negative index", answers: []int{-1, 1, 0}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := quiz.Score(tt.answers)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateQuestions(t *testing.T) {
	assert.NoError(t, ValidateQuestions(threeQuestionQuiz().Questions()))

	assert.Error(t, ValidateQuestions(nil))
	assert.Error(t, ValidateQuestions([]QuizQuestion{{Question: "", Options: []string{"a", "b"}}}))
	assert.Error(t, ValidateQuestions([]QuizQuestion{{Question: "q", Options: []string{"a"}}}))
	assert.Error(t, ValidateQuestions([]QuizQuestion{{Question: "q", Options: []string{"a", " "}}}))
	assert.Error(t, ValidateQuestions([]QuizQuestion{{Question: "q", Options: []string{"a", "b"}, Answer: 2}}))
}

func TestIsSubject(t *testing.T) {
	assert.True(t, IsSubject("Forensic Medicine"))
	assert.False(t, IsSubject("Astrology"))
	assert.True(t, IsMood("Tired"))
	assert.False(t, IsMood("Elated"))
}
