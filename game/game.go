// game/game.go
package game

import (
	"encoding/json"
	"fmt"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/wfunc/dungeonserver/cards"
	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/monster"
)

// Command verbs accepted by Handle.
const (
	VerbDrawCard           = "drawCard"
	VerbPlayCard           = "playCard"
	VerbCrossSquare        = "crossSquare"
	VerbCrossMonsterSquare = "crossMonsterSquare"
	VerbConfirmCardAction  = "confirmCardAction"
	VerbCancelCardAction   = "cancelCardAction"
	VerbEndTurn            = "endTurn"
	VerbClaimMonster       = "claimMonster"
)

// Event types pushed to every player.
const (
	EventTurnAdvanced       = "turnAdvanced"
	EventMonsterAttackPhase = "monsterAttackPhase"
)

// Config tunes a game.
type Config struct {
	MaxPlayers      int
	MaxDays         int
	StarterDeckSize int
	Registry        *cards.Registry
	Patterns        []monster.Pattern
	Boss            monster.Pattern
}

// DefaultConfig returns the stock rules.
func DefaultConfig() Config {
	return Config{
		MaxPlayers:      4,
		MaxDays:         3,
		StarterDeckSize: cards.DefaultStarterDeckSize,
		Registry:        cards.DefaultRegistry(),
		Patterns:        monster.DefaultPatterns,
		Boss:            monster.BossPattern,
	}
}

// Command is one inbound player command.
type Command struct {
	Verb    string          `json:"verb"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is an outbound broadcast.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Outcome is the reply to the acting player plus events for everyone.
type Outcome struct {
	Result Result  `json:"result"`
	Events []Event `json:"events,omitempty"`
}

// PlayCardPayload is the playCard payload.
type PlayCardPayload struct {
	CardID string `json:"cardId"`
}

// CrossSquarePayload is the crossSquare payload.
type CrossSquarePayload struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	RoomIndex *int `json:"roomIndex,omitempty"`
}

// ClaimMonsterPayload is the claimMonster payload.
type ClaimMonsterPayload struct {
	MonsterID string `json:"monsterId"`
}

// Game is one dungeon run. It is not safe for concurrent use; the host
// runs every call on a single goroutine.
type Game struct {
	s *sessionContext

	Selection *SelectionEngine
	Turns     *TurnManager
	Attacks   *AttackResolver
}

// New builds a game with its starting room.
func New(cfg Config, roller dice.Roller) *Game {
	def := DefaultConfig()
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = def.MaxPlayers
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = def.MaxDays
	}
	if cfg.StarterDeckSize <= 0 {
		cfg.StarterDeckSize = def.StarterDeckSize
	}
	if cfg.Registry == nil {
		cfg.Registry = def.Registry
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = def.Patterns
	}
	if len(cfg.Boss.Rows) == 0 {
		cfg.Boss = def.Boss
	}

	s := &sessionContext{
		cfg:        cfg,
		roller:     roller,
		registry:   cfg.Registry,
		dungeon:    dungeon.NewGraph(roller),
		monsters:   monster.NewDeck(roller, cfg.Patterns, cfg.Boss),
		players:    make(map[string]*Player),
		selections: make(map[string]*selectionState),
		turn: TurnState{
			CurrentTurn:    1,
			CurrentDay:     1,
			MaxDays:        cfg.MaxDays,
			TurnInProgress: true,
			GameStatus:     StatusInProgress,
		},
	}
	s.dungeon.OnSpawn(s.spawnMonster)
	s.dungeon.AddStartingRoom()

	attacks := &AttackResolver{s: s}
	return &Game{
		s:         s,
		Selection: &SelectionEngine{s: s},
		Turns:     &TurnManager{s: s, attacks: attacks},
		Attacks:   attacks,
	}
}

// Dungeon exposes the room graph.
func (g *Game) Dungeon() *dungeon.Graph { return g.s.dungeon }

// Turn returns the round and day counters.
func (g *Game) Turn() TurnState { return g.s.turn }

// Status returns the overall outcome.
func (g *Game) Status() Status { return g.s.turn.GameStatus }

// Player returns a player by session id.
func (g *Game) Player(sessionID string) (*Player, bool) {
	p, found := g.s.players[sessionID]
	return p, found
}

// PlayerCount is the number of players in turn order.
func (g *Game) PlayerCount() int { return len(g.s.turnOrder) }

// Monster returns an active monster by id.
func (g *Game) Monster(id string) (*monster.Card, bool) {
	m := g.s.monster(id)
	return m, m != nil
}

// ActiveMonsters lists every monster drawn so far.
func (g *Game) ActiveMonsters() []*monster.Card { return g.s.activeMonsters }

// AddPlayer deals a starter deck to a new player.
func (g *Game) AddPlayer(sessionID, name string) error {
	if g.s.terminal() {
		return ErrGameComplete
	}
	if _, exists := g.s.players[sessionID]; exists {
		return ErrPlayerExists
	}
	if len(g.s.players) >= g.s.cfg.MaxPlayers {
		return ErrGameFull
	}
	deck := g.s.registry.CreateStarterDeck(g.s.roller, g.s.cfg.StarterDeckSize)
	g.s.players[sessionID] = NewPlayer(sessionID, name, deck)
	g.s.turnOrder = append(g.s.turnOrder, sessionID)
	g.Turns.syncRoomDeck()
	logger.Log.Infof("player %s (%s) joined, %d in game", name, sessionID, len(g.s.players))
	return nil
}

// RemovePlayer drops a player. If everyone left is already done with the
// turn the round advances; the events describe that advance.
func (g *Game) RemovePlayer(sessionID string) []Event {
	if _, exists := g.s.players[sessionID]; !exists {
		logger.Log.Warnf("remove player: %s not in game", sessionID)
		return nil
	}
	delete(g.s.players, sessionID)
	delete(g.s.selections, sessionID)
	for i, id := range g.s.turnOrder {
		if id == sessionID {
			g.s.turnOrder = append(g.s.turnOrder[:i], g.s.turnOrder[i+1:]...)
			break
		}
	}
	g.Turns.syncRoomDeck()
	logger.Log.Infof("player %s left, %d in game", sessionID, len(g.s.players))

	if !g.s.terminal() && g.Turns.AreAllPlayersReady() {
		g.Turns.AdvanceTurn()
	}
	return g.drainEvents()
}

// ClaimMonster moves an unowned monster from its room to the player.
func (g *Game) ClaimMonster(sessionID, monsterID string) Result {
	if g.s.terminal() {
		return fail(ErrGameComplete)
	}
	p, err := g.s.player(sessionID)
	if err != nil {
		return fail(err)
	}
	m := g.s.monster(monsterID)
	if m == nil {
		return fail(ErrMonsterNotFound)
	}
	if !m.Claim(sessionID) {
		return fail(ruleError("Monster cannot be claimed"))
	}
	logger.Log.Infof("%s claimed %s", p.Name, m.Name)
	return ok(fmt.Sprintf("Claimed %s", m.Name))
}

// Handle decodes and runs one command for the acting session.
func (g *Game) Handle(sessionID string, cmd Command) Outcome {
	res := g.dispatch(sessionID, cmd)
	return Outcome{Result: res, Events: g.drainEvents()}
}

func (g *Game) dispatch(sessionID string, cmd Command) Result {
	switch cmd.Verb {
	case VerbDrawCard:
		return g.Turns.DrawCard(sessionID)
	case VerbPlayCard:
		var p PlayCardPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return fail(err)
		}
		return g.Selection.PlayCard(sessionID, p.CardID)
	case VerbCrossSquare:
		var p CrossSquarePayload
		if err := decode(cmd.Payload, &p); err != nil {
			return fail(err)
		}
		roomIndex := g.s.dungeon.CurrentRoomIndex
		if p.RoomIndex != nil {
			roomIndex = *p.RoomIndex
		}
		return g.Selection.SelectSquareForCard(sessionID, roomIndex, p.X, p.Y)
	case VerbCrossMonsterSquare:
		var p MonsterSquarePayload
		if err := decode(cmd.Payload, &p); err != nil {
			return fail(err)
		}
		return g.Selection.SelectMonsterSquare(sessionID, p.MonsterID, p.X, p.Y)
	case VerbConfirmCardAction:
		var p ConfirmPayload
		if len(cmd.Payload) > 0 {
			if err := decode(cmd.Payload, &p); err != nil {
				return fail(err)
			}
		}
		return g.Selection.ConfirmCardAction(sessionID, &p)
	case VerbCancelCardAction:
		return g.Selection.CancelCardAction(sessionID)
	case VerbEndTurn:
		return g.Turns.EndTurn(sessionID)
	case VerbClaimMonster:
		var p ClaimMonsterPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return fail(err)
		}
		return g.ClaimMonster(sessionID, p.MonsterID)
	default:
		return fail(rulef("Unknown command %q", cmd.Verb))
	}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return ruleError("Missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return rulef("Invalid payload: %v", err)
	}
	return nil
}

// drainEvents collects the turn advance and attack phase produced by the
// last call. Each is handed out once.
func (g *Game) drainEvents() []Event {
	var events []Event
	if adv := g.Turns.ConsumeAdvance(); adv != nil {
		events = append(events, Event{Type: EventTurnAdvanced, Payload: adv})
	}
	if phase := g.Attacks.ConsumePending(); phase != nil {
		events = append(events, Event{Type: EventMonsterAttackPhase, Payload: phase})
	}
	return events
}
