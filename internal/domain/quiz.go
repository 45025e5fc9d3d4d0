package domain

import "time"

// QuizAnswer registra la respuesta a una pregunta individual.
type QuizAnswer struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedAnswer int  `json:"selectedAnswer"`
	IsCorrect      bool `json:"isCorrect"`
	TimeSpent      int  `json:"timeSpent"`
}

// QuizResult es el resultado de un intento de quiz de un usuario.
type QuizResult struct {
	ID             string       `json:"id"`
	UserID         string       `json:"userId"`
	QuizID         string       `json:"quizId"`
	Score          float64      `json:"score"`
	TotalQuestions int          `json:"totalQuestions"`
	CorrectAnswers int          `json:"correctAnswers"`
	TimeSpent      int          `json:"timeSpent"`
	Answers        []QuizAnswer `json:"answers"`
	CreatedAt      time.Time    `json:"created_at"`
}

// QuizStats resume el desempeno historico de un usuario.
type QuizStats struct {
	TotalQuizzes   int          `json:"totalQuizzes"`
	AverageScore   float64      `json:"averageScore"`
	BestScore      float64      `json:"bestScore"`
	TotalTimeSpent int          `json:"totalTimeSpent"`
	RecentResults  []QuizResult `json:"recentResults"`
}
