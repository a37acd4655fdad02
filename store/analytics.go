// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/danielhkuo/quickpoll/models"
)

// Analytics summarises a survey's responses per question.
func (s *Store) Analytics(ctx context.Context, surveyID string) (models.SurveyAnalytics, error) {
	survey, err := s.GetSurvey(ctx, surveyID)
	if err != nil {
		return models.SurveyAnalytics{}, err
	}
	responses, err := s.ListResponses(ctx, surveyID)
	if err != nil {
		return models.SurveyAnalytics{}, err
	}
	return summarize(survey, responses), nil
}

func summarize(survey models.SurveyWithQuestions, responses []models.Response) models.SurveyAnalytics {
	// question id -> answers in submission order
	byQuestion := make(map[string][][]string)
	for _, r := range responses {
		for _, a := range r.Answers {
			if values := a.Values(); len(values) > 0 {
				byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], values)
			}
		}
	}

	out := models.SurveyAnalytics{
		SurveyID:       survey.Survey.ID,
		TotalResponses: len(responses),
		Questions:      make([]models.QuestionAnalytics, 0, len(survey.Questions)),
	}
	for _, q := range survey.Questions {
		answers := byQuestion[q.ID]
		qa := models.QuestionAnalytics{
			QuestionID:    q.ID,
			QuestionTitle: q.Title,
			QuestionType:  q.Type,
			TotalAnswers:  len(answers),
		}

		switch q.Type {
		case models.QuestionSingleChoice, models.QuestionMultipleChoice, models.QuestionYesNo:
			qa.AnswerDistribution = make(map[string]int)
			for _, values := range answers {
				for _, v := range values {
					qa.AnswerDistribution[v]++
				}
			}
		case models.QuestionRating:
			qa.RatingDistribution = make(map[string]int, models.MaxRating)
			for i := 1; i <= models.MaxRating; i++ {
				qa.RatingDistribution[strconv.Itoa(i)] = 0
			}
			sum, n := 0, 0
			for _, values := range answers {
				rating, ok := parseRating(values[0])
				if !ok {
					continue
				}
				qa.RatingDistribution[strconv.Itoa(rating)]++
				sum += rating
				n++
			}
			avg := 0.0
			if n > 0 {
				avg = math.Round(float64(sum)/float64(n)*100) / 100
			}
			qa.AverageRating = &avg
			qa.TotalAnswers = n
		}
		out.Questions = append(out.Questions, qa)
	}
	return out
}

// parseRating accepts whole numbers on the rating scale.
func parseRating(v string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 || n > models.MaxRating {
		return 0, false
	}
	return n, true
}
