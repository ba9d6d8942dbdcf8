// game/errors.go
package game

import (
	"errors"
	"fmt"
)

// ruleError is a rule violation whose text is shown to the player as is.
type ruleError string

func (e ruleError) Error() string { return string(e) }

func rulef(format string, args ...any) error {
	return ruleError(fmt.Sprintf(format, args...))
}

const (
	ErrGameComplete    = ruleError("Game already complete")
	ErrPlayerNotFound  = ruleError("Player not found")
	ErrNoActiveCard    = ruleError("No active card")
	ErrCardAlreadyLive = ruleError("A card is already active")
	ErrCardNotInHand   = ruleError("Card not found in drawn cards")
	ErrDeckEmpty       = ruleError("No cards left in deck")
	ErrNotYourTurn     = ruleError("Action not allowed in current turn state")
	ErrMonsterNotFound = ruleError("Monster not found")
	ErrRoomNotFound    = ruleError("Room not found")
	ErrGameFull        = ruleError("Game is full")
	ErrPlayerExists    = ruleError("Player already joined")
	ErrUnknownCommand  = ruleError("Unknown command")
)

// SquareError rejects a single square selection. The client uses it to
// flag the square rather than the whole action.
type SquareError struct {
	Message string
}

func (e *SquareError) Error() string { return e.Message }

func squaref(format string, args ...any) error {
	return &SquareError{Message: fmt.Sprintf(format, args...)}
}

// IsSquareError reports whether err rejects a square selection.
func IsSquareError(err error) bool {
	var se *SquareError
	return errors.As(err, &se)
}

// Result is the reply to every command.
type Result struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	Completed     bool   `json:"completed,omitempty"`
	InvalidSquare bool   `json:"invalidSquare,omitempty"`
	Selections    int    `json:"selections,omitempty"`

	err error
}

// Err returns the underlying error of a failed result.
func (r Result) Err() error { return r.err }

func ok(message string) Result {
	return Result{Success: true, Message: message}
}

func fail(err error) Result {
	return Result{
		Success:       false,
		Error:         err.Error(),
		InvalidSquare: IsSquareError(err),
		err:           err,
	}
}
