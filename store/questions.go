// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/danielhkuo/quickpoll/auth"
	"github.com/danielhkuo/quickpoll/models"
)

func newQuestion(surveyID string, position int, req models.CreateQuestionRequest) models.Question {
	q := models.Question{
		ID:          auth.GenerateID(),
		SurveyID:    surveyID,
		Title:       req.Title,
		Type:        req.Type,
		Options:     req.Options,
		Required:    req.Required == nil || *req.Required,
		Description: req.Description,
		Position:    position,
	}
	if q.Options == nil {
		q.Options = []string{}
	}
	return q
}

func (s *Store) insertQuestion(ctx context.Context, tx *sql.Tx, q models.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encoding options: %w", err)
	}
	query, args, err := s.qb.Insert("question").Columns(questionColumns...).Values(
		q.ID, q.SurveyID, q.Title, q.Type, string(options), q.Required, q.Description, q.Position,
	).ToSql()
	if err != nil {
		return fmt.Errorf("building question insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting question: %w", err)
	}
	return nil
}

func scanQuestion(row scanner) (models.Question, error) {
	var q models.Question
	var options string
	err := row.Scan(&q.ID, &q.SurveyID, &q.Title, &q.Type, &options, &q.Required, &q.Description, &q.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Question{}, err
	}
	if err != nil {
		return models.Question{}, fmt.Errorf("scanning question: %w", err)
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return models.Question{}, fmt.Errorf("decoding options for question %s: %w", q.ID, err)
	}
	return q, nil
}

// requireEditable fails unless the survey exists and has not been started.
func (s *Store) requireEditable(ctx context.Context, tx *sql.Tx, surveyID string) error {
	status, err := s.status(ctx, tx, surveyID)
	if err != nil {
		return err
	}
	if status != models.StatusReady {
		return ErrSurveyNotEditable
	}
	return nil
}

// AddQuestion appends a question to a ready survey.
func (s *Store) AddQuestion(ctx context.Context, surveyID string, req models.CreateQuestionRequest) (models.Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Question{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.requireEditable(ctx, tx, surveyID); err != nil {
		return models.Question{}, err
	}

	query, args, err := s.qb.Select("COALESCE(MAX(position), -1) + 1").From("question").
		Where(sq.Eq{"survey_id": surveyID}).ToSql()
	if err != nil {
		return models.Question{}, fmt.Errorf("building position query: %w", err)
	}
	var position int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&position); err != nil {
		return models.Question{}, fmt.Errorf("querying next position: %w", err)
	}

	q := newQuestion(surveyID, position, req)
	if err := s.insertQuestion(ctx, tx, q); err != nil {
		return models.Question{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Question{}, fmt.Errorf("committing question: %w", err)
	}
	return q, nil
}

// UpdateQuestion replaces a question of a ready survey, keeping its position.
func (s *Store) UpdateQuestion(ctx context.Context, surveyID, questionID string, req models.CreateQuestionRequest) (models.Question, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Question{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.requireEditable(ctx, tx, surveyID); err != nil {
		return models.Question{}, err
	}

	q := newQuestion(surveyID, 0, req)
	options, err := json.Marshal(q.Options)
	if err != nil {
		return models.Question{}, fmt.Errorf("encoding options: %w", err)
	}
	where := sq.Eq{"id": questionID, "survey_id": surveyID}

	query, args, err := s.qb.Update("question").SetMap(map[string]any{
		"title":       q.Title,
		"type":        q.Type,
		"options":     string(options),
		"required":    q.Required,
		"description": q.Description,
	}).Where(where).ToSql()
	if err != nil {
		return models.Question{}, fmt.Errorf("building question update: %w", err)
	}
	if err := s.execOne(ctx, tx, query, args, ErrQuestionNotFound); err != nil {
		return models.Question{}, fmt.Errorf("updating question: %w", err)
	}

	query, args, err = s.qb.Select(questionColumns...).From("question").Where(where).ToSql()
	if err != nil {
		return models.Question{}, fmt.Errorf("building question query: %w", err)
	}
	updated, err := scanQuestion(tx.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.Question{}, fmt.Errorf("reading updated question: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Question{}, fmt.Errorf("committing question: %w", err)
	}
	return updated, nil
}

// DeleteQuestion removes a question from a ready survey. Remaining questions
// keep their relative order.
func (s *Store) DeleteQuestion(ctx context.Context, surveyID, questionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.requireEditable(ctx, tx, surveyID); err != nil {
		return err
	}

	query, args, err := s.qb.Delete("question").Where(sq.Eq{"id": questionID, "survey_id": surveyID}).ToSql()
	if err != nil {
		return fmt.Errorf("building question delete: %w", err)
	}
	if err := s.execOne(ctx, tx, query, args, ErrQuestionNotFound); err != nil {
		return fmt.Errorf("deleting question: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing question delete: %w", err)
	}
	return nil
}
