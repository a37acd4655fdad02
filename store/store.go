// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/danielhkuo/quickpoll/auth"
	"github.com/danielhkuo/quickpoll/cliparse"
	"github.com/danielhkuo/quickpoll/models"
)

var (
	ErrSurveyNotFound    = errors.New("survey not found")
	ErrSurveyNotActive   = errors.New("survey is not active")
	ErrSurveyNotEditable = errors.New("survey questions can only change while it is ready")
	ErrMissingAnswers    = errors.New("required questions not answered")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrResponseNotFound  = errors.New("response not found")
)

const joinCodeAttempts = 5

var surveyColumns = []string{
	"id", "title", "description", "join_code", "status", "response_count", "created_at",
}

var questionColumns = []string{
	"id", "survey_id", "title", "type", "options", "required", "description", "position",
}

var responseColumns = []string{
	"id", "survey_id", "session_id", "participant_name", "answers", "submitted_at",
}

type scanner interface {
	Scan(dest ...any) error
}

// Store persists surveys, questions and responses.
type Store struct {
	db *sql.DB
	qb sq.StatementBuilderType
}

// New creates a store for the given database type; the type decides the
// placeholder style.
func New(db *sql.DB, dbType string) *Store {
	var format sq.PlaceholderFormat = sq.Question
	if dbType == cliparse.DatabasePostgres {
		format = sq.Dollar
	}
	return &Store{db: db, qb: sq.StatementBuilder.PlaceholderFormat(format)}
}

// CreateSurvey stores a new survey in ready status together with its
// questions, in request order.
func (s *Store) CreateSurvey(ctx context.Context, req models.CreateSurveyRequest) (models.SurveyWithQuestions, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.SurveyWithQuestions{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	code, err := s.uniqueJoinCode(ctx, tx)
	if err != nil {
		return models.SurveyWithQuestions{}, err
	}

	survey := models.Survey{
		ID:          auth.GenerateID(),
		Title:       req.Title,
		Description: req.Description,
		JoinCode:    code,
		Status:      models.StatusReady,
		CreatedAt:   time.Now().UTC(),
	}

	query, args, err := s.qb.Insert("survey").Columns(surveyColumns...).Values(
		survey.ID, survey.Title, survey.Description, survey.JoinCode,
		string(survey.Status), survey.ResponseCount, survey.CreatedAt,
	).ToSql()
	if err != nil {
		return models.SurveyWithQuestions{}, fmt.Errorf("building survey insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return models.SurveyWithQuestions{}, fmt.Errorf("inserting survey: %w", err)
	}

	questions := make([]models.Question, 0, len(req.Questions))
	for i, qr := range req.Questions {
		q := newQuestion(survey.ID, i, qr)
		if err := s.insertQuestion(ctx, tx, q); err != nil {
			return models.SurveyWithQuestions{}, err
		}
		questions = append(questions, q)
	}

	if err := tx.Commit(); err != nil {
		return models.SurveyWithQuestions{}, fmt.Errorf("committing survey: %w", err)
	}
	return models.SurveyWithQuestions{Survey: survey, Questions: questions}, nil
}

func (s *Store) uniqueJoinCode(ctx context.Context, tx *sql.Tx) (string, error) {
	for i := 0; i < joinCodeAttempts; i++ {
		code, err := auth.GenerateJoinCode()
		if err != nil {
			return "", err
		}
		query, args, err := s.qb.Select("COUNT(*)").From("survey").Where(sq.Eq{"join_code": code}).ToSql()
		if err != nil {
			return "", fmt.Errorf("building join code lookup: %w", err)
		}
		var n int
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			return "", fmt.Errorf("checking join code: %w", err)
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("no free join code after %d attempts", joinCodeAttempts)
}

// GetSurvey returns a survey and its questions.
func (s *Store) GetSurvey(ctx context.Context, id string) (models.SurveyWithQuestions, error) {
	return s.getSurvey(ctx, sq.Eq{"id": id})
}

// GetSurveyByCode looks a survey up by join code, case-insensitively.
func (s *Store) GetSurveyByCode(ctx context.Context, code string) (models.SurveyWithQuestions, error) {
	return s.getSurvey(ctx, sq.Eq{"join_code": strings.ToUpper(strings.TrimSpace(code))})
}

func (s *Store) getSurvey(ctx context.Context, where sq.Eq) (models.SurveyWithQuestions, error) {
	query, args, err := s.qb.Select(surveyColumns...).From("survey").Where(where).ToSql()
	if err != nil {
		return models.SurveyWithQuestions{}, fmt.Errorf("building survey query: %w", err)
	}

	survey, err := scanSurvey(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.SurveyWithQuestions{}, ErrSurveyNotFound
	}
	if err != nil {
		return models.SurveyWithQuestions{}, err
	}

	questions, err := s.questions(ctx, survey.ID)
	if err != nil {
		return models.SurveyWithQuestions{}, err
	}
	return models.SurveyWithQuestions{Survey: survey, Questions: questions}, nil
}

func scanSurvey(row scanner) (models.Survey, error) {
	var survey models.Survey
	var status string
	err := row.Scan(
		&survey.ID, &survey.Title, &survey.Description, &survey.JoinCode,
		&status, &survey.ResponseCount, &survey.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Survey{}, err
	}
	if err != nil {
		return models.Survey{}, fmt.Errorf("scanning survey: %w", err)
	}
	if survey.Status, err = models.ParseSurveyStatus(status); err != nil {
		return models.Survey{}, err
	}
	return survey, nil
}

// ListSurveys returns every survey with its questions, newest first.
func (s *Store) ListSurveys(ctx context.Context) ([]models.SurveyWithQuestions, error) {
	surveys, err := s.surveyRows(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.SurveyWithQuestions, 0, len(surveys))
	for _, survey := range surveys {
		questions, err := s.questions(ctx, survey.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.SurveyWithQuestions{Survey: survey, Questions: questions})
	}
	return out, nil
}

// surveyRows reads the survey table completely before any question query runs.
func (s *Store) surveyRows(ctx context.Context) ([]models.Survey, error) {
	query, args, err := s.qb.Select(surveyColumns...).From("survey").OrderBy("created_at DESC", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building survey list: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing surveys: %w", err)
	}
	defer rows.Close()

	var surveys []models.Survey
	for rows.Next() {
		survey, err := scanSurvey(rows)
		if err != nil {
			return nil, err
		}
		surveys = append(surveys, survey)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating surveys: %w", err)
	}
	return surveys, nil
}

// UpdateSurvey replaces a survey's title and description. Status and
// questions are left alone.
func (s *Store) UpdateSurvey(ctx context.Context, id string, req models.UpdateSurveyRequest) (models.SurveyWithQuestions, error) {
	query, args, err := s.qb.Update("survey").
		SetMap(map[string]any{"title": req.Title, "description": req.Description}).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return models.SurveyWithQuestions{}, fmt.Errorf("building survey update: %w", err)
	}
	if err := s.execOne(ctx, s.db, query, args, ErrSurveyNotFound); err != nil {
		return models.SurveyWithQuestions{}, fmt.Errorf("updating survey: %w", err)
	}
	return s.GetSurvey(ctx, id)
}

// DeleteSurvey removes a survey with its questions and responses.
func (s *Store) DeleteSurvey(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"response", "question"} {
		query, args, err := s.qb.Delete(table).Where(sq.Eq{"survey_id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("building %s delete: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("deleting %s rows: %w", table, err)
		}
	}

	query, args, err := s.qb.Delete("survey").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building survey delete: %w", err)
	}
	if err := s.execOne(ctx, tx, query, args, ErrSurveyNotFound); err != nil {
		return fmt.Errorf("deleting survey: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execOne runs a statement that must touch at least one row; notFound is
// returned when it touches none.
func (s *Store) execOne(ctx context.Context, e execer, query string, args []any, notFound error) error {
	res, err := e.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func (s *Store) questions(ctx context.Context, surveyID string) ([]models.Question, error) {
	query, args, err := s.qb.Select(questionColumns...).From("question").
		Where(sq.Eq{"survey_id": surveyID}).OrderBy("position").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building question query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating questions: %w", err)
	}
	return questions, nil
}

// SurveyStatus returns the persisted status of a survey.
func (s *Store) SurveyStatus(ctx context.Context, id string) (models.SurveyStatus, error) {
	return s.status(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) status(ctx context.Context, q queryRower, id string) (models.SurveyStatus, error) {
	query, args, err := s.qb.Select("status").From("survey").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return "", fmt.Errorf("building status query: %w", err)
	}
	var status string
	err = q.QueryRowContext(ctx, query, args...).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSurveyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying status: %w", err)
	}
	return models.ParseSurveyStatus(status)
}

// SetSurveyStatus overwrites the persisted status of a survey.
func (s *Store) SetSurveyStatus(ctx context.Context, id string, status models.SurveyStatus) error {
	query, args, err := s.qb.Update("survey").Set("status", string(status)).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building status update: %w", err)
	}
	if err := s.execOne(ctx, s.db, query, args, ErrSurveyNotFound); err != nil {
		if errors.Is(err, ErrSurveyNotFound) {
			return err
		}
		return fmt.Errorf("updating status: %w", err)
	}
	return nil
}

// SubmitResponse stores a response to an active survey and increments its
// response count. It returns the stored response and the new count.
func (s *Store) SubmitResponse(ctx context.Context, surveyID string, req models.SubmitResponseRequest) (models.Response, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Response{}, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	status, err := s.status(ctx, tx, surveyID)
	if err != nil {
		return models.Response{}, 0, err
	}
	if status != models.StatusActive {
		return models.Response{}, 0, ErrSurveyNotActive
	}

	if err := s.checkRequired(ctx, tx, surveyID, req.Answers); err != nil {
		return models.Response{}, 0, err
	}

	answers := req.Answers
	if answers == nil {
		answers = []models.Answer{}
	}
	encoded, err := json.Marshal(answers)
	if err != nil {
		return models.Response{}, 0, fmt.Errorf("encoding answers: %w", err)
	}

	resp := models.Response{
		ID:              auth.GenerateID(),
		SurveyID:        surveyID,
		SessionID:       req.SessionID,
		ParticipantName: req.ParticipantName,
		Answers:         answers,
		SubmittedAt:     time.Now().UTC(),
	}

	query, args, err := s.qb.Insert("response").
		Columns(responseColumns...).
		Values(resp.ID, resp.SurveyID, resp.SessionID, resp.ParticipantName, string(encoded), resp.SubmittedAt).
		ToSql()
	if err != nil {
		return models.Response{}, 0, fmt.Errorf("building response insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return models.Response{}, 0, fmt.Errorf("inserting response: %w", err)
	}

	query, args, err = s.qb.Update("survey").
		Set("response_count", sq.Expr("response_count + 1")).
		Where(sq.Eq{"id": surveyID}).ToSql()
	if err != nil {
		return models.Response{}, 0, fmt.Errorf("building count update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return models.Response{}, 0, fmt.Errorf("incrementing response count: %w", err)
	}

	count, err := s.responseCount(ctx, tx, surveyID)
	if err != nil {
		return models.Response{}, 0, err
	}

	if err := tx.Commit(); err != nil {
		return models.Response{}, 0, fmt.Errorf("committing response: %w", err)
	}
	return resp, count, nil
}

func (s *Store) checkRequired(ctx context.Context, tx *sql.Tx, surveyID string, answers []models.Answer) error {
	query, args, err := s.qb.Select("id").From("question").
		Where(sq.Eq{"survey_id": surveyID, "required": true}).OrderBy("position").ToSql()
	if err != nil {
		return fmt.Errorf("building required query: %w", err)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying required questions: %w", err)
	}
	defer rows.Close()

	var required []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning required question: %w", err)
		}
		required = append(required, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating required questions: %w", err)
	}

	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		if len(a.Answer) > 0 && string(a.Answer) != "null" {
			answered[a.QuestionID] = true
		}
	}
	var missing []string
	for _, id := range required {
		if !answered[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingAnswers, strings.Join(missing, ", "))
	}
	return nil
}

// ListResponses returns a survey's responses, oldest first.
func (s *Store) ListResponses(ctx context.Context, surveyID string) ([]models.Response, error) {
	if _, err := s.status(ctx, s.db, surveyID); err != nil {
		return nil, err
	}

	query, args, err := s.qb.Select(responseColumns...).
		From("response").Where(sq.Eq{"survey_id": surveyID}).OrderBy("submitted_at", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building response query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying responses: %w", err)
	}
	defer rows.Close()

	responses := []models.Response{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating responses: %w", err)
	}
	return slices.Clip(responses), nil
}

// GetResponse returns a single stored response.
func (s *Store) GetResponse(ctx context.Context, id string) (models.Response, error) {
	query, args, err := s.qb.Select(responseColumns...).From("response").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return models.Response{}, fmt.Errorf("building response query: %w", err)
	}
	r, err := scanResponse(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Response{}, ErrResponseNotFound
	}
	return r, err
}

func scanResponse(row scanner) (models.Response, error) {
	var r models.Response
	var answers string
	err := row.Scan(&r.ID, &r.SurveyID, &r.SessionID, &r.ParticipantName, &answers, &r.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Response{}, err
	}
	if err != nil {
		return models.Response{}, fmt.Errorf("scanning response: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return models.Response{}, fmt.Errorf("decoding answers for response %s: %w", r.ID, err)
	}
	return r, nil
}

// ResponseCount returns the stored response count of a survey.
func (s *Store) ResponseCount(ctx context.Context, surveyID string) (int, error) {
	return s.responseCount(ctx, s.db, surveyID)
}

func (s *Store) responseCount(ctx context.Context, q queryRower, surveyID string) (int, error) {
	query, args, err := s.qb.Select("response_count").From("survey").Where(sq.Eq{"id": surveyID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var n int
	err = q.QueryRowContext(ctx, query, args...).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSurveyNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("querying response count: %w", err)
	}
	return n, nil
}

// CountSurveys returns the number of stored surveys.
func (s *Store) CountSurveys(ctx context.Context) (int, error) {
	return s.count(ctx, "survey")
}

// CountResponses returns the number of stored responses.
func (s *Store) CountResponses(ctx context.Context) (int, error) {
	return s.count(ctx, "response")
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	query, args, err := s.qb.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}
