// game/turns.go
package game

import (
	"fmt"

	"github.com/wfunc/dungeonserver/logger"
)

// Action is a turn-gated player action.
type Action string

const (
	ActionDrawCard Action = "drawCard"
	ActionPlayCard Action = "playCard"
	ActionEndTurn  Action = "endTurn"
)

// TurnAdvanced is emitted once per successful turn advance.
type TurnAdvanced struct {
	NewTurn int    `json:"newTurn"`
	Message string `json:"message"`
}

var statusTransitions = map[TurnStatus][]TurnStatus{
	TurnNotStarted: {TurnPlaying},
	TurnPlaying:    {TurnComplete},
	TurnComplete:   {TurnNotStarted},
}

// TurnManager drives the per-player turn FSM and the round/day counters.
type TurnManager struct {
	s        *sessionContext
	attacks  *AttackResolver
	advanced *TurnAdvanced
}

// passing reports whether p may end a turn without drawing.
func (t *TurnManager) passing(p *Player) bool {
	return p.TurnStatus == TurnNotStarted && len(p.Deck) == 0
}

// CanPlayerPerformAction gates draw, play and end turn by turn status.
func (t *TurnManager) CanPlayerPerformAction(sessionID string, action Action) error {
	if t.s.terminal() {
		return ErrGameComplete
	}
	p, err := t.s.player(sessionID)
	if err != nil {
		return err
	}
	if p.TurnStatus == TurnComplete {
		return ErrNotYourTurn
	}
	switch action {
	case ActionDrawCard:
		if p.TurnStatus != TurnNotStarted || p.HasDrawnCard {
			return ruleError("Already drew a card this turn")
		}
	case ActionPlayCard:
		if p.TurnStatus != TurnPlaying || !p.HasDrawnCard {
			return ruleError("Draw a card before playing one")
		}
	case ActionEndTurn:
		if t.s.selection(sessionID).ActiveCardID != "" {
			return ruleError("Resolve or cancel the active card first")
		}
		if p.TurnStatus != TurnPlaying && !t.passing(p) {
			return ruleError("Draw a card before ending the turn")
		}
	default:
		return ErrUnknownCommand
	}
	return nil
}

// DrawCard moves the top deck card to the player's drawn cards and starts
// their turn.
func (t *TurnManager) DrawCard(sessionID string) Result {
	if err := t.CanPlayerPerformAction(sessionID, ActionDrawCard); err != nil {
		return fail(err)
	}
	p := t.s.players[sessionID]
	card, drawn := p.drawTop()
	if !drawn {
		return fail(ErrDeckEmpty)
	}
	p.HasDrawnCard = true
	if err := t.UpdatePlayerTurnStatus(sessionID, TurnPlaying); err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("Drew %s", card.Name))
}

// EndTurn finishes the player's turn. The last player to finish advances
// the round.
func (t *TurnManager) EndTurn(sessionID string) Result {
	if err := t.CanPlayerPerformAction(sessionID, ActionEndTurn); err != nil {
		return fail(err)
	}
	p := t.s.players[sessionID]
	if t.passing(p) {
		p.TurnStatus = TurnPlaying
	}
	turn := t.s.turn.CurrentTurn
	if err := t.UpdatePlayerTurnStatus(sessionID, TurnComplete); err != nil {
		return fail(err)
	}
	if t.s.turn.CurrentTurn == turn {
		return ok("Turn ended, waiting for other players")
	}
	return ok("Turn ended")
}

// UpdatePlayerTurnStatus applies one FSM transition and advances the turn
// when everyone is done.
func (t *TurnManager) UpdatePlayerTurnStatus(sessionID string, to TurnStatus) error {
	p, err := t.s.player(sessionID)
	if err != nil {
		logger.Log.Errorf("update turn status: %v (%s)", err, sessionID)
		return err
	}
	allowed := false
	for _, next := range statusTransitions[p.TurnStatus] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return rulef("Cannot go from %s to %s", p.TurnStatus, to)
	}
	p.TurnStatus = to
	if to == TurnComplete && t.AreAllPlayersReady() {
		t.AdvanceTurn()
	}
	return nil
}

// AreAllPlayersReady reports whether every player in turn order has
// completed the turn.
func (t *TurnManager) AreAllPlayersReady() bool {
	if len(t.s.turnOrder) == 0 {
		return false
	}
	for _, id := range t.s.turnOrder {
		p, found := t.s.players[id]
		if !found || p.TurnStatus != TurnComplete {
			return false
		}
	}
	return true
}

func (t *TurnManager) dayCompleted() bool {
	for _, id := range t.s.turnOrder {
		if p, found := t.s.players[id]; found && len(p.Deck) > 0 {
			return false
		}
	}
	return true
}

// AdvanceTurn closes the round: monsters attack, then the day either goes
// on, rolls over, or ends the game.
func (t *TurnManager) AdvanceTurn() bool {
	if t.s.terminal() || !t.AreAllPlayersReady() {
		return false
	}
	dayDone := t.dayCompleted()
	t.attacks.Resolve()

	if t.s.checkBossDefeat() {
		t.s.turn.CurrentTurn++
		t.announce("The boss has been defeated, the party wins")
		return true
	}

	t.resetPlayers()
	t.s.turn.CurrentTurn++

	switch {
	case dayDone && t.s.turn.CurrentDay >= t.s.turn.MaxDays:
		t.s.turn.GameStatus = StatusLost
		t.s.turn.TurnInProgress = false
		logger.Log.Infof("game lost at end of day %d", t.s.turn.CurrentDay)
		t.announce(fmt.Sprintf("Day %d is over and the boss still lives, the party is defeated", t.s.turn.CurrentDay))
	case dayDone:
		t.StartNextDay()
		t.announce(fmt.Sprintf("Day %d begins", t.s.turn.CurrentDay))
	default:
		t.announce(fmt.Sprintf("Turn %d begins", t.s.turn.CurrentTurn))
	}
	return true
}

func (t *TurnManager) announce(msg string) {
	t.advanced = &TurnAdvanced{NewTurn: t.s.turn.CurrentTurn, Message: msg}
}

func (t *TurnManager) resetPlayers() {
	for _, p := range t.s.players {
		p.resetTurn()
	}
}

// StartNextDay reshuffles every player's piles into a new deck.
func (t *TurnManager) StartNextDay() {
	t.s.turn.CurrentDay++
	for _, id := range t.s.turnOrder {
		p, found := t.s.players[id]
		if !found {
			continue
		}
		p.reshuffle(t.s.roller)
		p.resetTurn()
	}
	for _, st := range t.s.selections {
		st.reset()
	}
	t.s.turn.TurnInProgress = true
	logger.Log.Infof("day %d started", t.s.turn.CurrentDay)
}

// ConsumeAdvance hands out the last turn advance once.
func (t *TurnManager) ConsumeAdvance() *TurnAdvanced {
	a := t.advanced
	t.advanced = nil
	return a
}

// syncRoomDeck resizes the room deck to the party while nothing has been
// explored yet.
func (t *TurnManager) syncRoomDeck() {
	if t.s.turn.CurrentDay != 1 || t.s.turn.CurrentTurn != 1 || len(t.s.dungeon.Rooms) > 1 {
		return
	}
	t.s.dungeon.SizeDeck(len(t.s.players))
}
