// Package services defines the business logic for coaching sessions, the
// progress dashboard and persona memory. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

var (
	// ErrPersonaNotFound indicates that the persona id is not in the catalog.
	ErrPersonaNotFound = errors.New("persona not found")

	// ErrSessionNotFound indicates that the session does not exist for the
	// current user.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionEnded is returned when a turn or an end request targets a
	// session that has already ended.
	ErrSessionEnded = errors.New("session already ended")

	// ErrSessionFull is returned when a session reached its message cap.
	ErrSessionFull = errors.New("session message limit reached")

	// ErrTurnPending is returned when a coach message arrives while the
	// previous turn on the same session is still waiting for its reply.
	ErrTurnPending = errors.New("previous turn still pending")

	// ErrEmptyMessage is returned when a coach message is blank.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when a coach message exceeds the configured
	// maximum length.
	ErrTooLong = errors.New("message too long")

	// ErrEmptyText is returned when an insight or goal is blank.
	ErrEmptyText = errors.New("text is empty")

	// ErrGeneration wraps a failed client reply. The coach message stays in
	// the session.
	ErrGeneration = errors.New("client reply generation failed")

	// ErrMessageNotFound is returned by Replay when the recorded client
	// message is no longer in the session.
	ErrMessageNotFound = errors.New("message not found")

	// ErrConnection wraps dashboard read failures.
	ErrConnection = errors.New("connection error")
)
