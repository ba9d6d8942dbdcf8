// game/selection.go
package game

import (
	"fmt"

	"github.com/wfunc/dungeonserver/cards"
	"github.com/wfunc/dungeonserver/dungeon"
	"github.com/wfunc/dungeonserver/logger"
)

// SelectionKind tags a Selection.
type SelectionKind string

const (
	KindRoom    SelectionKind = "room"
	KindMonster SelectionKind = "monster"
)

// Selection is either a room square or a monster square.
type Selection struct {
	Kind      SelectionKind `json:"kind"`
	RoomIndex int           `json:"roomIndex,omitempty"`
	MonsterID string        `json:"monsterId,omitempty"`
	X         int           `json:"x"`
	Y         int           `json:"y"`
}

// RoomSquare selects (x,y) in a room.
func RoomSquare(roomIndex, x, y int) Selection {
	return Selection{Kind: KindRoom, RoomIndex: roomIndex, X: x, Y: y}
}

// MonsterSquare selects (x,y) on a monster.
func MonsterSquare(monsterID string, x, y int) Selection {
	return Selection{Kind: KindMonster, MonsterID: monsterID, X: x, Y: y}
}

func (s Selection) same(o Selection) bool {
	return s.Kind == o.Kind && s.X == o.X && s.Y == o.Y &&
		s.RoomIndex == o.RoomIndex && s.MonsterID == o.MonsterID
}

type exitRef struct {
	room int
	exit int
}

// selectionState is the transient per-session cache for the active card.
type selectionState struct {
	ActiveCardID string      `json:"activeCardId,omitempty"`
	Selections   []Selection `json:"selections,omitempty"`

	pairsCrossed int
	pendingExits []exitRef
}

func (st *selectionState) reset() {
	*st = selectionState{}
}

func (st *selectionState) has(sel Selection) bool {
	for _, s := range st.Selections {
		if s.same(sel) {
			return true
		}
	}
	return false
}

func (st *selectionState) count(kind SelectionKind) int {
	n := 0
	for _, s := range st.Selections {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

func (st *selectionState) addPendingExit(ref exitRef) {
	for _, e := range st.pendingExits {
		if e == ref {
			return
		}
	}
	st.pendingExits = append(st.pendingExits, ref)
}

// ConfirmPayload lets a client resend its selection at confirm time.
type ConfirmPayload struct {
	RoomSquares    []RoomSquarePayload    `json:"roomSquares,omitempty"`
	MonsterSquares []MonsterSquarePayload `json:"monsterSquares,omitempty"`
}

// RoomSquarePayload is one room square; RoomIndex defaults to the current room.
type RoomSquarePayload struct {
	RoomIndex *int `json:"roomIndex,omitempty"`
	X         int  `json:"x"`
	Y         int  `json:"y"`
}

// MonsterSquarePayload is one monster square.
type MonsterSquarePayload struct {
	MonsterID string `json:"monsterId"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

func (p *ConfirmPayload) empty() bool {
	return p == nil || (len(p.RoomSquares) == 0 && len(p.MonsterSquares) == 0)
}

// SelectionEngine accumulates and resolves square selections under an
// active card.
type SelectionEngine struct {
	s *sessionContext
}

// activeCard returns the player's active card definition.
func (e *SelectionEngine) activeCard(p *Player, st *selectionState) (cards.Card, error) {
	if st.ActiveCardID == "" {
		return cards.Card{}, ErrNoActiveCard
	}
	i := p.drawnIndex(st.ActiveCardID)
	if i < 0 {
		logger.Log.Errorf("active card %s of %s missing from drawn cards", st.ActiveCardID, p.SessionID)
		st.reset()
		return cards.Card{}, ErrNoActiveCard
	}
	return p.DrawnCards[i], nil
}

// PlayCard activates a drawn card.
func (e *SelectionEngine) PlayCard(sessionID, cardID string) Result {
	if e.s.terminal() {
		return fail(ErrGameComplete)
	}
	p, err := e.s.player(sessionID)
	if err != nil {
		return fail(err)
	}
	if p.TurnStatus == TurnComplete {
		return fail(ErrNotYourTurn)
	}
	if p.TurnStatus != TurnPlaying || !p.HasDrawnCard {
		return fail(ruleError("Draw a card before playing one"))
	}
	st := e.s.selection(sessionID)
	if st.ActiveCardID != "" {
		return fail(ErrCardAlreadyLive)
	}
	i := p.drawnIndex(cardID)
	if i < 0 {
		return fail(ErrCardNotInHand)
	}
	card := p.DrawnCards[i]

	st.reset()
	st.ActiveCardID = card.ID
	p.setActive(card.ID, true)

	if card.SelectionTarget == cards.TargetMonsterEach && len(e.s.ownedIncomplete(sessionID)) == 0 {
		res := e.completeCardAction(p, st)
		res.Message = fmt.Sprintf("%s had no monster to hit and was discarded", card.Name)
		return res
	}
	return ok(fmt.Sprintf("Playing %s", card.Name))
}

// SelectSquareForCard adds a room square to the active card's selection.
func (e *SelectionEngine) SelectSquareForCard(sessionID string, roomIndex, x, y int) Result {
	if e.s.terminal() {
		return fail(ErrGameComplete)
	}
	p, err := e.s.player(sessionID)
	if err != nil {
		return fail(err)
	}
	st := e.s.selection(sessionID)
	card, err := e.activeCard(p, st)
	if err != nil {
		return fail(err)
	}
	done, err := e.selectRoom(card, st, roomIndex, x, y)
	if err != nil {
		return fail(err)
	}
	if done {
		return e.completeCardAction(p, st)
	}
	return progress(st)
}

// SelectMonsterSquare adds a monster square to the active card's selection.
func (e *SelectionEngine) SelectMonsterSquare(sessionID, monsterID string, x, y int) Result {
	if e.s.terminal() {
		return fail(ErrGameComplete)
	}
	p, err := e.s.player(sessionID)
	if err != nil {
		return fail(err)
	}
	st := e.s.selection(sessionID)
	card, err := e.activeCard(p, st)
	if err != nil {
		return fail(err)
	}
	if err := e.selectMonster(card, st, sessionID, monsterID, x, y); err != nil {
		return fail(err)
	}
	return progress(st)
}

func progress(st *selectionState) Result {
	r := ok(fmt.Sprintf("%d square(s) selected", len(st.Selections)))
	r.Selections = len(st.Selections)
	return r
}

// selectRoom validates and records a room selection. done is true when the
// selection mode completes the action on its own.
func (e *SelectionEngine) selectRoom(card cards.Card, st *selectionState, roomIndex, x, y int) (done bool, err error) {
	if !card.SelectionTarget.AllowsRoom() {
		return false, squaref("%s cannot target room squares", card.Name)
	}
	if st.count(KindMonster) > 0 && !card.AllowMixed {
		return false, squaref("Cannot mix room and monster squares")
	}
	room, found := e.s.dungeon.Room(roomIndex)
	if !found {
		logger.Log.Warnf("select square: room %d out of range", roomIndex)
		return false, ErrRoomNotFound
	}
	for _, sel := range st.Selections {
		if sel.Kind == KindRoom && sel.RoomIndex != roomIndex {
			return false, squaref("All squares must be in the same room")
		}
	}
	sq := room.At(x, y)
	if sq == nil {
		return false, squaref("Square (%d,%d) is out of bounds", x, y)
	}
	if sq.Wall {
		return false, squaref("Square (%d,%d) is a wall", x, y)
	}
	if sq.Checked {
		return false, squaref("Square (%d,%d) is already crossed", x, y)
	}
	if st.has(RoomSquare(roomIndex, x, y)) {
		return false, squaref("Square (%d,%d) is already selected", x, y)
	}

	switch card.SelectionMode {
	case cards.ModeRow:
		return false, e.selectRow(card, st, room, roomIndex, x, y)
	case cards.ModeHorizontalPairTwice:
		return e.selectPair(card, st, room, roomIndex, x, y)
	default:
		return false, e.selectSquares(card, st, roomIndex, x, y, room.IsStartAdjacent)
	}
}

func (e *SelectionEngine) selectSquares(card cards.Card, st *selectionState, roomIndex, x, y int, startAdjacent func(x, y int) bool) error {
	if card.MaxSelections > 0 && len(st.Selections) >= card.MaxSelections {
		return squaref("%s allows at most %d square(s)", card.Name, card.MaxSelections)
	}
	if st.count(KindRoom) == 0 {
		if card.RequiresRoomStartAdjacency && !startAdjacent(x, y) {
			return squaref("Square (%d,%d) must touch the entrance or a crossed square", x, y)
		}
	} else if card.RequiresConnected && !touchesAny(st.Selections, KindRoom, x, y, card.DiagonalConnectivity) {
		return squaref("Square (%d,%d) must connect to the selected squares", x, y)
	}
	st.Selections = append(st.Selections, RoomSquare(roomIndex, x, y))
	return nil
}

// selectRow takes the anchor's whole wall-bounded run at once.
func (e *SelectionEngine) selectRow(card cards.Card, st *selectionState, room *dungeon.Room, roomIndex, x, y int) error {
	if len(st.Selections) > 0 {
		return squaref("A row is already selected")
	}
	if card.RequiresRoomStartAdjacency && !room.IsStartAdjacent(x, y) {
		return squaref("Square (%d,%d) must touch the entrance or a crossed square", x, y)
	}
	xs := room.RowRun(x, y)
	if card.MaxSelections > 0 && len(xs) > card.MaxSelections {
		return squaref("%s allows at most %d square(s)", card.Name, card.MaxSelections)
	}
	for _, rx := range xs {
		st.Selections = append(st.Selections, RoomSquare(roomIndex, rx, y))
	}
	return nil
}

// selectPair crosses (x,y) and (x+1,y) immediately.
func (e *SelectionEngine) selectPair(card cards.Card, st *selectionState, room *dungeon.Room, roomIndex, x, y int) (bool, error) {
	if st.pairsCrossed >= 2 {
		return false, squaref("Both pairs are already crossed")
	}
	right := room.At(x+1, y)
	if right == nil || right.Wall || right.Checked || st.has(RoomSquare(roomIndex, x+1, y)) {
		return false, squaref("Square (%d,%d) cannot complete a horizontal pair", x+1, y)
	}
	if !room.IsStartAdjacent(x, y) && !room.IsStartAdjacent(x+1, y) {
		return false, squaref("Pair at (%d,%d) must touch the entrance or a crossed square", x, y)
	}

	for _, px := range []int{x, x + 1} {
		room.Cross(px, y)
		st.Selections = append(st.Selections, RoomSquare(roomIndex, px, y))
		if ex := room.ExitIndexAt(px, y); ex >= 0 {
			st.addPendingExit(exitRef{room: roomIndex, exit: ex})
		}
	}
	st.pairsCrossed++
	return st.pairsCrossed == 2, nil
}

func (e *SelectionEngine) selectMonster(card cards.Card, st *selectionState, sessionID, monsterID string, x, y int) error {
	if !card.SelectionTarget.AllowsMonster() {
		return squaref("%s cannot target monster squares", card.Name)
	}
	if card.SelectionMode != cards.ModeSquares {
		return squaref("%s cannot target monster squares", card.Name)
	}
	if st.count(KindRoom) > 0 && !card.AllowMixed {
		return squaref("Cannot mix room and monster squares")
	}
	m := e.s.monster(monsterID)
	if m == nil {
		return ErrMonsterNotFound
	}
	if m.PlayerOwnerID != sessionID {
		return squaref("%s is not your monster", m.Name)
	}
	if m.Completed() {
		return squaref("%s is already defeated", m.Name)
	}
	sq := m.At(x, y)
	if sq == nil {
		return squaref("Square (%d,%d) is out of bounds", x, y)
	}
	if !sq.Filled {
		return squaref("Square (%d,%d) is empty", x, y)
	}
	if sq.Checked {
		return squaref("Square (%d,%d) is already crossed", x, y)
	}
	sel := MonsterSquare(monsterID, x, y)
	if st.has(sel) {
		return squaref("Square (%d,%d) is already selected", x, y)
	}

	if card.SelectionTarget == cards.TargetMonsterEach {
		for _, s := range st.Selections {
			if s.Kind == KindMonster && s.MonsterID == monsterID {
				return squaref("%s already has a selected square", m.Name)
			}
		}
		st.Selections = append(st.Selections, sel)
		return nil
	}

	for _, s := range st.Selections {
		if s.Kind == KindMonster && s.MonsterID != monsterID {
			return squaref("All squares must be on the same monster")
		}
	}
	if card.MaxSelections > 0 && len(st.Selections) >= card.MaxSelections {
		return squaref("%s allows at most %d square(s)", card.Name, card.MaxSelections)
	}
	if st.count(KindMonster) == 0 {
		if card.RequiresMonsterStartAdjacency && !m.IsStartAdjacent(x, y) {
			return squaref("Square (%d,%d) must start from the edge or a crossed square", x, y)
		}
	} else if card.RequiresConnected && !touchesAny(st.Selections, KindMonster, x, y, card.DiagonalConnectivity) {
		return squaref("Square (%d,%d) must connect to the selected squares", x, y)
	}
	st.Selections = append(st.Selections, sel)
	return nil
}

func touchesAny(sels []Selection, kind SelectionKind, x, y int, diagonal bool) bool {
	for _, s := range sels {
		if s.Kind == kind && dungeon.Adjacent(s.X, s.Y, x, y, diagonal) {
			return true
		}
	}
	return false
}

// ConfirmCardAction resolves the active card. A non-empty payload replaces
// the cached selection; any replay failure clears the selection and
// rejects the whole confirm.
func (e *SelectionEngine) ConfirmCardAction(sessionID string, payload *ConfirmPayload) Result {
	if e.s.terminal() {
		return fail(ErrGameComplete)
	}
	p, err := e.s.player(sessionID)
	if err != nil {
		return fail(err)
	}
	st := e.s.selection(sessionID)
	card, err := e.activeCard(p, st)
	if err != nil {
		return fail(err)
	}

	replayed := !payload.empty() && st.pairsCrossed == 0
	if replayed {
		if err := e.replay(card, st, sessionID, payload); err != nil {
			st.Selections = nil
			return fail(err)
		}
	}
	if err := validateSelection(card, st); err != nil {
		if replayed {
			st.Selections = nil
		}
		return fail(err)
	}
	return e.completeCardAction(p, st)
}

func (e *SelectionEngine) replay(card cards.Card, st *selectionState, sessionID string, payload *ConfirmPayload) error {
	st.Selections = nil
	for _, rs := range payload.RoomSquares {
		roomIndex := e.s.dungeon.CurrentRoomIndex
		if rs.RoomIndex != nil {
			roomIndex = *rs.RoomIndex
		}
		// A row anchor already pulled in the rest of its run.
		if st.has(RoomSquare(roomIndex, rs.X, rs.Y)) && card.SelectionMode == cards.ModeRow {
			continue
		}
		if card.SelectionMode == cards.ModeHorizontalPairTwice {
			return squaref("%s crosses squares as they are selected", card.Name)
		}
		if _, err := e.selectRoom(card, st, roomIndex, rs.X, rs.Y); err != nil {
			return err
		}
	}
	for _, ms := range payload.MonsterSquares {
		if err := e.selectMonster(card, st, sessionID, ms.MonsterID, ms.X, ms.Y); err != nil {
			return err
		}
	}
	return nil
}

func validateSelection(card cards.Card, st *selectionState) error {
	n := len(st.Selections)
	if n == 0 {
		return squaref("Select at least one square")
	}
	if n < card.MinSelections {
		return squaref("%s needs at least %d square(s)", card.Name, card.MinSelections)
	}
	if card.MaxSelections > 0 && n > card.MaxSelections {
		return squaref("%s allows at most %d square(s)", card.Name, card.MaxSelections)
	}
	if st.count(KindRoom) > 0 && st.count(KindMonster) > 0 && !card.AllowMixed {
		return squaref("Cannot mix room and monster squares")
	}
	return nil
}

// completeCardAction crosses every selection, then opens any exit crossed
// along the way, then discards the card.
func (e *SelectionEngine) completeCardAction(p *Player, st *selectionState) Result {
	card, _ := e.activeCard(p, st)

	if st.pairsCrossed == 0 {
		for _, sel := range st.Selections {
			switch sel.Kind {
			case KindRoom:
				room, found := e.s.dungeon.Room(sel.RoomIndex)
				if !found || !room.Cross(sel.X, sel.Y) {
					continue
				}
				if ex := room.ExitIndexAt(sel.X, sel.Y); ex >= 0 {
					st.addPendingExit(exitRef{room: sel.RoomIndex, exit: ex})
				}
			case KindMonster:
				if m := e.s.monster(sel.MonsterID); m != nil && m.Cross(sel.X, sel.Y) && m.Completed() {
					logger.Log.Infof("%s completed monster %s", p.Name, m.Name)
				}
			}
		}
	}

	for _, ref := range st.pendingExits {
		e.openExit(ref)
	}
	e.s.checkBossDefeat()

	crossed := len(st.Selections)
	p.discardDrawn(card.ID)
	st.reset()

	res := ok(fmt.Sprintf("%s resolved, %d square(s) crossed", card.Name, crossed))
	res.Completed = true
	if card.DrawCardsOnResolve > 0 {
		drawn := 0
		for drawn < card.DrawCardsOnResolve {
			if _, more := p.drawTop(); !more {
				break
			}
			drawn++
		}
		if drawn < card.DrawCardsOnResolve {
			res.Message += fmt.Sprintf(", drew %d of %d bonus card(s)", drawn, card.DrawCardsOnResolve)
		} else {
			res.Message += fmt.Sprintf(", drew %d bonus card(s)", drawn)
		}
	}
	return res
}

func (e *SelectionEngine) openExit(ref exitRef) {
	room, found := e.s.dungeon.Room(ref.room)
	if !found || ref.exit >= len(room.Exits) {
		logger.Log.Errorf("open exit: room %d exit %d out of range", ref.room, ref.exit)
		return
	}
	ex := room.Exits[ref.exit]
	if ex.Connected {
		// The way back in shares the entrance cell; crossing it explores
		// this room rather than leaving it.
		if sq := room.At(ex.X, ex.Y); sq != nil && sq.Entrance {
			return
		}
		e.s.dungeon.CurrentRoomIndex = ex.ConnectedRoomIndex
		return
	}
	e.s.dungeon.AddNewRoomFromExit(ref.room, string(ex.Direction), ref.exit)
}

// CancelCardAction returns the active card to the drawn cards unplayed.
func (e *SelectionEngine) CancelCardAction(sessionID string) Result {
	if e.s.terminal() {
		return fail(ErrGameComplete)
	}
	p, err := e.s.player(sessionID)
	if err != nil {
		return fail(err)
	}
	st := e.s.selection(sessionID)
	card, err := e.activeCard(p, st)
	if err != nil {
		return fail(err)
	}
	if st.pairsCrossed > 0 {
		return fail(ruleError("Squares already crossed, confirm the card instead"))
	}
	p.setActive(card.ID, false)
	st.reset()
	return ok(fmt.Sprintf("%s returned to hand", card.Name))
}

