package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"axs-learn/internal/domain"
)

// QuizResultRepository define el contrato de persistencia para resultados.
type QuizResultRepository interface {
	Create(ctx context.Context, result domain.QuizResult) error
	ListByUser(ctx context.Context, userID string) ([]domain.QuizResult, error)
}

// PgQuizResultRepository implementa QuizResultRepository usando pgxpool.
type PgQuizResultRepository struct {
	pool *pgxpool.Pool
}

func NewPgQuizResultRepository(pool *pgxpool.Pool) *PgQuizResultRepository {
	return &PgQuizResultRepository{pool: pool}
}

func (r *PgQuizResultRepository) Create(ctx context.Context, result domain.QuizResult) error {
	answers, err := json.Marshal(result.Answers)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO quiz_results (id, user_id, quiz_id, score, total_questions, correct_answers, time_spent, answers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.pool.Exec(ctx, query,
		result.ID,
		result.UserID,
		result.QuizID,
		result.Score,
		result.TotalQuestions,
		result.CorrectAnswers,
		result.TimeSpent,
		answers,
		result.CreatedAt,
	)
	return err
}

func (r *PgQuizResultRepository) ListByUser(ctx context.Context, userID string) ([]domain.QuizResult, error) {
	const query = `
		SELECT id, user_id, quiz_id, score, total_questions, correct_answers, time_spent, answers, created_at
		FROM quiz_results
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.QuizResult, 0)
	for rows.Next() {
		var (
			q   domain.QuizResult
			raw []byte
		)
		if err := rows.Scan(
			&q.ID, &q.UserID, &q.QuizID, &q.Score, &q.TotalQuestions,
			&q.CorrectAnswers, &q.TimeSpent, &raw, &q.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &q.Answers); err != nil {
			return nil, err
		}
		results = append(results, q)
	}
	return results, rows.Err()
}
