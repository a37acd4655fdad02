// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/danielhkuo/quickpoll/models"
)

// StatusStore is the slice of persistence the lifecycle controller needs.
type StatusStore interface {
	SurveyStatus(ctx context.Context, surveyID string) (models.SurveyStatus, error)
	SetSurveyStatus(ctx context.Context, surveyID string, status models.SurveyStatus) error
}

var ErrInvalidTransition = errors.New("invalid status transition")

const (
	startedMessage  = "The survey has started"
	finishedMessage = "The survey has ended"
)

// Lifecycle applies host start/end commands to persisted survey status and
// announces the result. It is the only writer of status on the real-time
// path.
type Lifecycle struct {
	store       StatusStore
	broadcaster *Broadcaster

	// serialises check-then-set per survey
	locks surveyLocks
}

func NewLifecycle(store StatusStore, broadcaster *Broadcaster) *Lifecycle {
	return &Lifecycle{
		store:       store,
		broadcaster: broadcaster,
		locks:       surveyLocks{held: make(map[string]*surveyLock)},
	}
}

// surveyLocks hands out one mutex per survey id, dropping it once no caller
// holds or waits on it.
type surveyLocks struct {
	mu   sync.Mutex
	held map[string]*surveyLock
}

type surveyLock struct {
	sync.Mutex
	refs int
}

func (l *surveyLocks) lock(surveyID string) (unlock func()) {
	l.mu.Lock()
	sl, ok := l.held[surveyID]
	if !ok {
		sl = &surveyLock{}
		l.held[surveyID] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.Lock()
	return func() {
		sl.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.held, surveyID)
		}
		l.mu.Unlock()
	}
}

func (l *surveyLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}

// Start moves a ready survey to active, tells its participants, and confirms
// to origin only. Starting an already active survey re-confirms to origin
// without a second broadcast.
func (l *Lifecycle) Start(ctx context.Context, surveyID string, origin Conn) error {
	return l.transition(ctx, surveyID, origin,
		models.StatusReady, models.StatusActive,
		SurveyStarted{SurveyID: surveyID, Message: startedMessage},
		SurveyStartConfirmed{SurveyID: surveyID},
	)
}

// End moves an active survey to finished. See Start.
func (l *Lifecycle) End(ctx context.Context, surveyID string, origin Conn) error {
	return l.transition(ctx, surveyID, origin,
		models.StatusActive, models.StatusFinished,
		SurveyFinished{SurveyID: surveyID, Message: finishedMessage},
		SurveyEndConfirmed{SurveyID: surveyID},
	)
}

func (l *Lifecycle) transition(ctx context.Context, surveyID string, origin Conn,
	from, to models.SurveyStatus, announce, ack Event) error {

	changed, err := l.apply(ctx, surveyID, from, to)
	if err != nil {
		slog.Warn("survey transition failed", "survey_id", surveyID, "to", to, "error", err)
		return err
	}

	if changed {
		n := l.broadcaster.ToParticipants(surveyID, announce)
		slog.Info("survey status changed", "survey_id", surveyID, "from", from, "to", to, "participants_notified", n)
	} else {
		slog.Info("survey already in requested status", "survey_id", surveyID, "status", to)
	}
	if origin != nil {
		l.broadcaster.ToConn(origin, ack)
	}
	return nil
}

func (l *Lifecycle) apply(ctx context.Context, surveyID string, from, to models.SurveyStatus) (bool, error) {
	unlock := l.locks.lock(surveyID)
	defer unlock()

	current, err := l.store.SurveyStatus(ctx, surveyID)
	if err != nil {
		return false, fmt.Errorf("read status: %w", err)
	}
	switch current {
	case to:
		return false, nil
	case from:
	default:
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, to)
	}

	if err := l.store.SetSurveyStatus(ctx, surveyID, to); err != nil {
		return false, fmt.Errorf("write status: %w", err)
	}
	return true, nil
}
