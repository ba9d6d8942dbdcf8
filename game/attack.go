// game/attack.go
package game

import (
	"github.com/wfunc/dungeonserver/cards"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/monster"
	"github.com/wfunc/dungeonserver/roll"
)

// AttackOutcome is what one monster attack did to its owner's deck.
type AttackOutcome string

const (
	OutcomeNoCard         AttackOutcome = "no_card_available"
	OutcomeReturnedToDeck AttackOutcome = "returned_to_deck"
	OutcomeCounterAttack  AttackOutcome = "counter_attack"
	OutcomeDiscarded      AttackOutcome = "discarded"
)

const (
	minAttacks = 1
	maxAttacks = 3
)

// CardSnapshot is the card revealed by an attack.
type CardSnapshot struct {
	ID            string              `json:"id"`
	Type          string              `json:"type"`
	Name          string              `json:"name"`
	DefenseSymbol cards.DefenseSymbol `json:"defenseSymbol"`
	Color         string              `json:"color"`
}

// CounterSquare is the monster square crossed by a counter attack.
type CounterSquare struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Attack is one attack event.
type Attack struct {
	PlayerSessionID string         `json:"playerSessionId"`
	MonsterID       string         `json:"monsterId"`
	MonsterName     string         `json:"monsterName"`
	MonsterAttack   int            `json:"monsterAttack"`
	AttackNumber    int            `json:"attackNumber"`
	Outcome         AttackOutcome  `json:"outcome"`
	Card            *CardSnapshot  `json:"card,omitempty"`
	CounterSquare   *CounterSquare `json:"counterSquare,omitempty"`
}

// AttackPhase collects every attack of one round.
type AttackPhase struct {
	Turn         int      `json:"turn"`
	TotalAttacks int      `json:"totalAttacks"`
	Attacks      []Attack `json:"attacks"`
}

// AttackResolver runs the monster attack phase at each turn advance.
type AttackResolver struct {
	s       *sessionContext
	pending *AttackPhase
}

// Resolve lets every owned, unfinished monster attack its owner's deck.
// A phase with at least one attack is held until ConsumePending.
func (a *AttackResolver) Resolve() *AttackPhase {
	phase := &AttackPhase{Turn: a.s.turn.CurrentTurn}
	for _, m := range a.s.activeMonsters {
		if !m.Owned() || m.ConnectedToRoomIndex >= 0 || m.Completed() {
			continue
		}
		owner, ok := a.s.players[m.PlayerOwnerID]
		if !ok {
			logger.Log.Warnf("monster %s owner %s has left, skipping its attacks", m.ID, m.PlayerOwnerID)
			continue
		}
		phase.Attacks = append(phase.Attacks, a.attack(m, owner)...)
	}
	phase.TotalAttacks = len(phase.Attacks)
	if phase.TotalAttacks == 0 {
		return nil
	}
	a.pending = phase
	return phase
}

func (a *AttackResolver) attack(m *monster.Card, owner *Player) []Attack {
	count := m.AttackRating
	if count < minAttacks {
		count = minAttacks
	}
	if count > maxAttacks {
		count = maxAttacks
	}

	var out []Attack
	for n := 1; n <= count; n++ {
		ev := Attack{
			PlayerSessionID: owner.SessionID,
			MonsterID:       m.ID,
			MonsterName:     m.Name,
			MonsterAttack:   m.AttackRating,
			AttackNumber:    n,
		}
		card, ok := owner.popDeck()
		if !ok {
			ev.Outcome = OutcomeNoCard
			out = append(out, ev)
			continue
		}
		ev.Card = &CardSnapshot{
			ID:            card.ID,
			Type:          card.Type,
			Name:          card.Name,
			DefenseSymbol: card.DefenseSymbol,
			Color:         card.Color,
		}

		switch card.DefenseSymbol {
		case cards.DefenseBlock:
			owner.pushDeckTop(card)
			ev.Outcome = OutcomeReturnedToDeck
		case cards.DefenseCounter:
			owner.pushDeckTop(card)
			ev.Outcome = OutcomeCounterAttack
			if open := m.Uncrossed(); len(open) > 0 {
				sq := open[roll.Intn(a.s.roller, len(open))]
				m.Cross(sq.X, sq.Y)
				ev.CounterSquare = &CounterSquare{X: sq.X, Y: sq.Y}
				a.s.checkBossDefeat()
			}
		default:
			owner.DiscardPile = append(owner.DiscardPile, card)
			ev.Outcome = OutcomeDiscarded
		}
		out = append(out, ev)

		if m.Completed() {
			logger.Log.Infof("%s was finished off by a counter attack", m.Name)
			break
		}
	}
	return out
}

// ConsumePending hands out the last attack phase once.
func (a *AttackResolver) ConsumePending() *AttackPhase {
	p := a.pending
	a.pending = nil
	return p
}
