package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"axs-learn/internal/domain"
)

// NoteRepository define el contrato de persistencia para notas.
// Toda consulta filtra por user_id; la propiedad se verifica en el motor.
type NoteRepository interface {
	Create(ctx context.Context, note domain.Note) error
	ListByUser(ctx context.Context, userID string) ([]domain.Note, error)
	Update(ctx context.Context, note domain.Note) (domain.Note, error)
	Delete(ctx context.Context, userID, noteID string) error
}

// PgNoteRepository implementa NoteRepository usando pgxpool.
type PgNoteRepository struct {
	pool *pgxpool.Pool
}

func NewPgNoteRepository(pool *pgxpool.Pool) *PgNoteRepository {
	return &PgNoteRepository{pool: pool}
}

func (r *PgNoteRepository) Create(ctx context.Context, note domain.Note) error {
	const query = `
		INSERT INTO notes (id, user_id, title, content, type, audio_url, tags, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		note.ID,
		note.UserID,
		note.Title,
		note.Content,
		note.Type,
		note.AudioURL,
		note.Tags,
		note.IsPublic,
		note.CreatedAt,
	)
	return err
}

func (r *PgNoteRepository) ListByUser(ctx context.Context, userID string) ([]domain.Note, error) {
	const query = `
		SELECT id, user_id, title, content, type, audio_url, tags, is_public, created_at, updated_at
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]domain.Note, 0)
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Title, &n.Content, &n.Type,
			&n.AudioURL, &n.Tags, &n.IsPublic, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *PgNoteRepository) Update(ctx context.Context, note domain.Note) (domain.Note, error) {
	const query = `
		UPDATE notes
		SET title = $3, content = $4, type = $5, audio_url = $6, tags = $7, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, content, type, audio_url, tags, is_public, created_at, updated_at
	`
	var n domain.Note
	err := r.pool.QueryRow(ctx, query,
		note.ID,
		note.UserID,
		note.Title,
		note.Content,
		note.Type,
		note.AudioURL,
		note.Tags,
	).Scan(
		&n.ID, &n.UserID, &n.Title, &n.Content, &n.Type,
		&n.AudioURL, &n.Tags, &n.IsPublic, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return domain.Note{}, err
	}
	return n, nil
}

func (r *PgNoteRepository) Delete(ctx context.Context, userID, noteID string) error {
	const query = `DELETE FROM notes WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, noteID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
