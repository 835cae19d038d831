package models

import "github.com/google/uuid"

// Category is one of the 12 scoring rules a player may claim once per game.
type Category string

const (
	Ones   Category = "ones"
	Twos   Category = "twos"
	Threes Category = "threes"
	Fours  Category = "fours"
	Fives  Category = "fives"
	Sixes  Category = "sixes"

	Choice        Category = "choice"
	FourOfAKind   Category = "fourOfAKind"
	FullHouse     Category = "fullHouse"
	SmallStraight Category = "smallStraight"
	LargeStraight Category = "largeStraight"
	Yacht         Category = "yacht"
)

// Categories lists every category in scorecard order.
var Categories = []Category{
	Ones, Twos, Threes, Fours, Fives, Sixes,
	Choice, FourOfAKind, FullHouse, SmallStraight, LargeStraight, Yacht,
}

// UpperCategories are the six face-count categories that feed the upper bonus.
var UpperCategories = []Category{Ones, Twos, Threes, Fours, Fives, Sixes}

// IsUpper reports whether c counts toward the 63-point upper bonus.
func (c Category) IsUpper() bool {
	switch c {
	case Ones, Twos, Threes, Fours, Fives, Sixes:
		return true
	}
	return false
}

// Valid reports whether c names a known category.
func (c Category) Valid() bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// GameStatus mirrors RoomStatus for the game document.
type GameStatus string

const (
	GameWaiting  GameStatus = "waiting"
	GamePlaying  GameStatus = "playing"
	GameFinished GameStatus = "finished"
)

const (
	// NumDice is the number of dice rolled each turn.
	NumDice = 5
	// MaxRolls is how many times a player may roll per turn.
	MaxRolls = 3
	// NumRounds is how many full rotations make up a game.
	NumRounds = 12
	// UpperBonusThreshold is the upper-section sum needed for the bonus.
	UpperBonusThreshold = 63
	// UpperBonusPoints is awarded once when the threshold is reached.
	UpperBonusPoints = 35
)

// GamePlayer is one player's scorecard inside a game document. Scores holds
// only the categories already claimed; TotalScore and UpperBonus are derived
// from it and recomputed on every selection.
type GamePlayer struct {
	ID         uuid.UUID        `json:"id"`
	Nickname   string           `json:"nickname"`
	Scores     map[Category]int `json:"scores"`
	TotalScore int              `json:"totalScore"`
	UpperBonus bool             `json:"upperBonus"`
}

// GameState is the authoritative shared document for one game, keyed in the
// games collection by the id of the room that spawned it. Dice value 0 means
// the die has not been rolled this turn.
type GameState struct {
	RoomID              uuid.UUID    `json:"roomId"`
	Players             []GamePlayer `json:"players"`
	CurrentTurnPlayerID uuid.UUID    `json:"currentTurnPlayerId"`
	Dice                []int        `json:"dice"`
	HeldDice            []bool       `json:"heldDice"`
	RollsLeft           int          `json:"rollsLeft"`
	Round               int          `json:"round"`
	Status              GameStatus   `json:"status"`
	WinnerID            uuid.UUID    `json:"winnerId,omitempty"`
}

// PlayerIndex returns the turn-order index of id, or -1 if not present.
func (g *GameState) PlayerIndex(id uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
