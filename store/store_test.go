// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickpoll/auth"
	"github.com/danielhkuo/quickpoll/models"
	"github.com/danielhkuo/quickpoll/store"
	"github.com/danielhkuo/quickpoll/testutil"
)

func TestCreateSurvey(t *testing.T) {
	st := testutil.SetupTestStore(t)
	ctx := context.Background()

	created, err := st.CreateSurvey(ctx, testutil.TestSurveyRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, created.Survey.ID)
	assert.Equal(t, "Test Survey", created.Survey.Title)
	assert.Equal(t, models.StatusReady, created.Survey.Status)
	assert.Len(t, created.Survey.JoinCode, auth.JoinCodeLen)
	assert.Zero(t, created.Survey.ResponseCount)

	require.Len(t, created.Questions, 2)
	assert.Equal(t, 0, created.Questions[0].Position)
	assert.True(t, created.Questions[0].Required, "required defaults to true")
	assert.Equal(t, []string{"Red", "Blue"}, created.Questions[0].Options)
	assert.Equal(t, 1, created.Questions[1].Position)
	assert.False(t, created.Questions[1].Required)
	assert.Equal(t, []string{}, created.Questions[1].Options)

	got, err := st.GetSurvey(ctx, created.Survey.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Survey.JoinCode, got.Survey.JoinCode)
	assert.Equal(t, models.StatusReady, got.Survey.Status)
	assert.WithinDuration(t, created.Survey.CreatedAt, got.Survey.CreatedAt, time.Second)
	assert.Equal(t, created.Questions, got.Questions)
}

func TestCreateSurvey_UniqueJoinCodes(t *testing.T) {
	st := testutil.SetupTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		s := testutil.CreateTestSurvey(t, st, models.StatusReady)
		assert.False(t, seen[s.Survey.JoinCode], "join code %s reused", s.Survey.JoinCode)
		seen[s.Survey.JoinCode] = true
	}

	n, err := st.CountSurveys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestGetSurveyByCode(t *testing.T) {
	st := testutil.SetupTestStore(t)
	created := testutil.CreateTestSurvey(t, st, models.StatusReady)

	tests := []struct {
		name string
		code string
	}{
		{"exact", created.Survey.JoinCode},
		{"lowercase", strings.ToLower(created.Survey.JoinCode)},
		{"padded", "  " + created.Survey.JoinCode + " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.GetSurveyByCode(context.Background(), tt.code)
			require.NoError(t, err)
			assert.Equal(t, created.Survey.ID, got.Survey.ID)
		})
	}
}

func TestGetSurvey_NotFound(t *testing.T) {
	st := testutil.SetupTestStore(t)
	ctx := context.Background()

	_, err := st.GetSurvey(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrSurveyNotFound)

	_, err = st.GetSurveyByCode(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, store.ErrSurveyNotFound)

	_, err = st.SurveyStatus(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrSurveyNotFound)

	err = st.SetSurveyStatus(ctx, "missing", models.StatusActive)
	assert.ErrorIs(t, err, store.ErrSurveyNotFound)

	_, err = st.ResponseCount(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrSurveyNotFound)
}

func TestSetSurveyStatus(t *testing.T) {
	st := testutil.SetupTestStore(t)
	ctx := context.Background()
	created := testutil.CreateTestSurvey(t, st, models.StatusReady)

	for _, status := range []models.SurveyStatus{models.StatusActive, models.StatusFinished} {
		require.NoError(t, st.SetSurveyStatus(ctx, created.Survey.ID, status))
		got, err := st.SurveyStatus(ctx, created.Survey.ID)
		require.NoError(t, err)
		assert.Equal(t, status, got)
	}
}

func TestSubmitResponse(t *testing.T) {
	st := testutil.SetupTestStore(t)
	ctx := context.Background()
	survey := testutil.CreateTestSurvey(t, st, models.StatusActive)

	first, count, err := st.SubmitResponse(ctx, survey.Survey.ID, testutil.AnswerAll(survey, "sess-1", "Ada"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Ada", first.ParticipantName)

	_, count, err = st.SubmitResponse(ctx, survey.Survey.ID, testutil.AnswerAll(survey, "sess-2", "Grace"))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stored, err := st.ResponseCount(ctx, survey.Survey.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	responses, err := st.ListResponses(ctx, survey.Survey.ID)
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Equal(t, first.ID, responses[0].ID)
	assert.Equal(t, "sess-1", responses[0].SessionID)
	require.Len(t, responses[0].Answers, 2)
	assert.JSONEq(t, `"ok"`, string(responses[0].Answers[0].Answer))

	total, err := st.CountResponses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestSubmitResponse_OptionalMayBeOmitted(t *testing.T) {
	st := testutil.SetupTestStore(t)
	survey := testutil.CreateTestSurvey(t, st, models.StatusActive)

	req := models.SubmitResponseRequest{
		Answers: []models.Answer{
			{QuestionID: survey.Questions[0].ID, Answer: json.RawMessage(`"Red"`)},
		},
	}
	_, count, err := st.SubmitResponse(context.Background(), survey.Survey.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSubmitResponse_Rejected(t *testing.T) {
	st := testutil.SetupTestStore(t)
	ctx := context.Background()

	ready := testutil.CreateTestSurvey(t, st, models.StatusReady)
	finished := testutil.CreateTestSurvey(t, st, models.StatusFinished)
	active := testutil.CreateTestSurvey(t, st, models.StatusActive)

	tests := []struct {
		name     string
		surveyID string
		req      models.SubmitResponseRequest
		wantErr  error
	}{
		{"unknown survey", "missing", models.SubmitResponseRequest{}, store.ErrSurveyNotFound},
		{"ready survey", ready.Survey.ID, testutil.AnswerAll(ready, "s", "n"), store.ErrSurveyNotActive},
		{"finished survey", finished.Survey.ID, testutil.AnswerAll(finished, "s", "n"), store.ErrSurveyNotActive},
		{"no answers", active.Survey.ID, models.SubmitResponseRequest{}, store.ErrMissingAnswers},
		{
			"null required answer",
			active.Survey.ID,
			models.SubmitResponseRequest{Answers: []models.Answer{
				{QuestionID: active.Questions[0].ID, Answer: json.RawMessage(`null`)},
				{QuestionID: active.Questions[1].ID, Answer: json.RawMessage(`"x"`)},
			}},
			store.ErrMissingAnswers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := st.SubmitResponse(ctx, tt.surveyID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	count, err := st.ResponseCount(ctx, active.Survey.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "rejected submissions must not count")
}

func TestListResponses_UnknownSurvey(t *testing.T) {
	st := testutil.SetupTestStore(t)

	_, err := st.ListResponses(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrSurveyNotFound)
}

func TestListResponses_Empty(t *testing.T) {
	st := testutil.SetupTestStore(t)
	survey := testutil.CreateTestSurvey(t, st, models.StatusActive)

	responses, err := st.ListResponses(context.Background(), survey.Survey.ID)
	require.NoError(t, err)
	assert.NotNil(t, responses)
	assert.Empty(t, responses)
}
