// Package game drives one Yacht session: up to three rolls per turn, one
// category claim per turn, twelve rounds in join order.
//
// Every operation is a read-modify-write cycle against the shared game
// document: snapshot-read the latest state, validate locally, then write a
// bounded set of whole fields. The store applies writes unconditionally, so
// turn ownership is a soft invariant checked here before writing, not one
// the store enforces.
package game

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yachtlive/yacht/internal/models"
	"github.com/yachtlive/yacht/internal/scoring"
	"github.com/yachtlive/yacht/internal/store"
)

// GamePath is the document path for a room's game in the games collection.
func GamePath(roomID uuid.UUID) string {
	return "games/" + roomID.String()
}

// Service mediates all game mutations against the document store.
type Service struct {
	store store.Store
	log   *logrus.Logger

	// RollDie returns a uniform face in 1..6. Swappable in tests.
	RollDie func() int

	// Archive, when non-nil, receives every finished game (best effort).
	Archive func(ctx context.Context, g *models.GameState)
}

// NewService builds a Service over the given store.
func NewService(st store.Store, logger *logrus.Logger) *Service {
	return &Service{
		store:   st,
		log:     logger,
		RollDie: func() int { return rand.Intn(6) + 1 },
	}
}

// CreateForRoom seeds the game document for a room transitioning to playing.
// Seats follow the room's join order and the first joined player opens.
func (s *Service) CreateForRoom(ctx context.Context, room *models.Room) error {
	if len(room.Players) == 0 {
		return fmt.Errorf("room %s has no players", room.ID)
	}
	players := make([]models.GamePlayer, len(room.Players))
	for i, p := range room.Players {
		players[i] = models.GamePlayer{
			ID:       p.ID,
			Nickname: p.Nickname,
			Scores:   map[models.Category]int{},
		}
	}
	state := &models.GameState{
		RoomID:              room.ID,
		Players:             players,
		CurrentTurnPlayerID: room.Players[0].ID,
		Dice:                make([]int, models.NumDice),
		HeldDice:            make([]bool, models.NumDice),
		RollsLeft:           models.MaxRolls,
		Round:               1,
		Status:              models.GamePlaying,
	}
	if err := s.store.PutDocument(ctx, GamePath(room.ID), stateFields(state)); err != nil {
		return fmt.Errorf("create game for room %s: %w", room.ID, err)
	}
	s.log.WithFields(logrus.Fields{"room": room.ID, "players": len(players)}).Info("game created")
	return nil
}

// State snapshot-reads the latest game document.
func (s *Service) State(ctx context.Context, roomID uuid.UUID) (*models.GameState, error) {
	var g models.GameState
	if err := s.store.GetDocument(ctx, GamePath(roomID), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Subscribe pushes every subsequent state of the game document.
func (s *Service) Subscribe(ctx context.Context, roomID uuid.UUID) (<-chan store.Snapshot, func(), error) {
	return s.store.Subscribe(ctx, GamePath(roomID))
}

// Roll rerolls every unheld die for the acting player and spends one roll.
func (s *Service) Roll(ctx context.Context, roomID, playerID uuid.UUID) ([]int, error) {
	g, err := s.State(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if g.Status == models.GameFinished {
		return nil, ErrSessionFinished
	}
	if g.CurrentTurnPlayerID != playerID {
		return nil, ErrNotYourTurn
	}
	if g.RollsLeft <= 0 {
		return nil, ErrNoRollsLeft
	}

	dice := make([]int, models.NumDice)
	for i := 0; i < models.NumDice; i++ {
		if i < len(g.Dice) && i < len(g.HeldDice) && g.HeldDice[i] {
			dice[i] = g.Dice[i]
		} else {
			dice[i] = s.RollDie()
		}
	}

	err = s.store.UpdateFields(ctx, GamePath(roomID), store.Fields{
		"dice":      dice,
		"rollsLeft": g.RollsLeft - 1,
	})
	if err != nil {
		return nil, fmt.Errorf("roll in game %s: %w", roomID, err)
	}
	return dice, nil
}

// ToggleHold flips the hold flag on one die. Out-of-turn, pre-first-roll and
// out-of-range toggles are ignored rather than rejected; only a finished
// session is a hard error.
func (s *Service) ToggleHold(ctx context.Context, roomID, playerID uuid.UUID, index int) error {
	g, err := s.State(ctx, roomID)
	if err != nil {
		return err
	}
	if g.Status == models.GameFinished {
		return ErrSessionFinished
	}
	if g.CurrentTurnPlayerID != playerID || g.RollsLeft >= models.MaxRolls {
		return nil
	}
	if index < 0 || index >= len(g.HeldDice) {
		return nil
	}

	held := append([]bool(nil), g.HeldDice...)
	held[index] = !held[index]
	if err := s.store.UpdateFields(ctx, GamePath(roomID), store.Fields{"heldDice": held}); err != nil {
		return fmt.Errorf("toggle hold in game %s: %w", roomID, err)
	}
	return nil
}

// SelectCategory scores the current dice into category for the acting
// player, recomputes their totals, and hands the turn to the next seat.
// When the rotation wraps past the final round the session finishes and the
// winner is fixed. Returns the points the claim was worth.
func (s *Service) SelectCategory(ctx context.Context, roomID, playerID uuid.UUID, category models.Category) (int, error) {
	g, err := s.State(ctx, roomID)
	if err != nil {
		return 0, err
	}
	if g.Status == models.GameFinished {
		return 0, ErrSessionFinished
	}
	if g.CurrentTurnPlayerID != playerID {
		return 0, ErrNotYourTurn
	}
	if g.RollsLeft >= models.MaxRolls {
		return 0, ErrTooEarlyToScore
	}
	if !category.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	idx := g.PlayerIndex(playerID)
	if idx < 0 {
		return 0, ErrNotYourTurn
	}
	if _, claimed := g.Players[idx].Scores[category]; claimed {
		return 0, ErrCategoryAlreadyScored
	}

	score := scoring.Score(g.Dice, category)

	// Categories are never overwritten; totals and the bonus flag are pure
	// recomputations from the scores map.
	players := clonePlayers(g.Players)
	p := &players[idx]
	p.Scores[category] = score
	p.UpperBonus = p.UpperBonus || scoring.UpperSum(p.Scores) >= models.UpperBonusThreshold
	p.TotalScore = scoring.Total(p.Scores, p.UpperBonus)

	nextIdx := (idx + 1) % len(players)
	round := g.Round
	if nextIdx == 0 {
		round++
	}
	finished := round > models.NumRounds

	fields := store.Fields{
		"players":             players,
		"currentTurnPlayerId": players[nextIdx].ID,
		"dice":                make([]int, models.NumDice),
		"heldDice":            make([]bool, models.NumDice),
		"rollsLeft":           models.MaxRolls,
		"round":               round,
	}
	var winner uuid.UUID
	if finished {
		winner = pickWinner(players)
		fields["status"] = models.GameFinished
		fields["winnerId"] = winner
	} else {
		fields["status"] = models.GamePlaying
	}

	if err := s.store.UpdateFields(ctx, GamePath(roomID), fields); err != nil {
		return 0, fmt.Errorf("select category in game %s: %w", roomID, err)
	}

	if finished {
		s.log.WithFields(logrus.Fields{"room": roomID, "winner": winner}).Info("game finished")
		s.finishRoom(ctx, roomID)
		if s.Archive != nil {
			final := *g
			final.Players = players
			final.Round = round
			final.Status = models.GameFinished
			final.WinnerID = winner
			s.Archive(ctx, &final)
		}
	}
	return score, nil
}

// finishRoom flips the room document to finished so the lobby list stops
// offering it. Best effort: the game document is already authoritative.
func (s *Service) finishRoom(ctx context.Context, roomID uuid.UUID) {
	err := s.store.UpdateFields(ctx, "rooms/"+roomID.String(), store.Fields{"status": models.RoomFinished})
	if err != nil {
		s.log.WithError(err).WithField("room", roomID).Warn("could not mark room finished")
	}
}

// pickWinner returns the player with the strictly greatest total. Ties go to
// the earliest-joined player.
func pickWinner(players []models.GamePlayer) uuid.UUID {
	best := players[0]
	for _, p := range players[1:] {
		if p.TotalScore > best.TotalScore {
			best = p
		}
	}
	return best.ID
}

func clonePlayers(players []models.GamePlayer) []models.GamePlayer {
	out := make([]models.GamePlayer, len(players))
	for i, p := range players {
		out[i] = p
		out[i].Scores = make(map[models.Category]int, len(p.Scores))
		for k, v := range p.Scores {
			out[i].Scores[k] = v
		}
	}
	return out
}

func stateFields(g *models.GameState) store.Fields {
	return store.Fields{
		"roomId":              g.RoomID,
		"players":             g.Players,
		"currentTurnPlayerId": g.CurrentTurnPlayerID,
		"dice":                g.Dice,
		"heldDice":            g.HeldDice,
		"rollsLeft":           g.RollsLeft,
		"round":               g.Round,
		"status":              g.Status,
		"winnerId":            g.WinnerID,
	}
}
