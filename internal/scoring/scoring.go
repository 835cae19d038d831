// Package scoring computes Yacht category scores. Everything here is a pure
// function of the five dice; nothing touches shared game state.
package scoring

import (
	"github.com/yachtlive/yacht/internal/models"
)

// Score returns the points the given dice are worth in category. Dice are
// face values 1..6; order is irrelevant. Unknown categories score 0.
func Score(dice []int, category models.Category) int {
	counts := faceCounts(dice)
	sum := 0
	for _, d := range dice {
		sum += d
	}

	switch category {
	case models.Ones:
		return counts[1] * 1
	case models.Twos:
		return counts[2] * 2
	case models.Threes:
		return counts[3] * 3
	case models.Fours:
		return counts[4] * 4
	case models.Fives:
		return counts[5] * 5
	case models.Sixes:
		return counts[6] * 6
	case models.Choice:
		return sum
	case models.FourOfAKind:
		for _, c := range counts {
			if c >= 4 {
				return sum
			}
		}
		return 0
	case models.FullHouse:
		// Exactly a 3-of-a-kind plus a 2-of-a-kind. Five of a kind is not
		// a full house.
		hasThree, hasTwo := false, false
		for _, c := range counts {
			if c == 3 {
				hasThree = true
			}
			if c == 2 {
				hasTwo = true
			}
		}
		if hasThree && hasTwo {
			return sum
		}
		return 0
	case models.SmallStraight:
		if hasRun(counts, 1, 4) || hasRun(counts, 2, 4) || hasRun(counts, 3, 4) {
			return 15
		}
		return 0
	case models.LargeStraight:
		if distinctFaces(counts) == 5 && (hasRun(counts, 1, 5) || hasRun(counts, 2, 5)) {
			return 30
		}
		return 0
	case models.Yacht:
		for _, c := range counts {
			if c == 5 {
				return 50
			}
		}
		return 0
	}
	return 0
}

// PreviewAll returns the score every category would yield for the given dice.
// Used for scorecard hints; claimed categories are the caller's concern.
func PreviewAll(dice []int) map[models.Category]int {
	preview := make(map[models.Category]int, len(models.Categories))
	for _, cat := range models.Categories {
		preview[cat] = Score(dice, cat)
	}
	return preview
}

// UpperSum totals the claimed upper-section categories in scores.
func UpperSum(scores map[models.Category]int) int {
	sum := 0
	for _, cat := range models.UpperCategories {
		sum += scores[cat]
	}
	return sum
}

// Total recomputes a player's total from the authoritative scores map.
// The 35-point upper bonus is included exactly once when bonus is true.
func Total(scores map[models.Category]int, bonus bool) int {
	total := 0
	for _, s := range scores {
		total += s
	}
	if bonus {
		total += models.UpperBonusPoints
	}
	return total
}

func faceCounts(dice []int) [7]int {
	var counts [7]int
	for _, d := range dice {
		if d >= 1 && d <= 6 {
			counts[d]++
		}
	}
	return counts
}

func distinctFaces(counts [7]int) int {
	n := 0
	for _, c := range counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// hasRun reports whether every face in [start, start+length) appears.
func hasRun(counts [7]int, start, length int) bool {
	for f := start; f < start+length; f++ {
		if f > 6 || counts[f] == 0 {
			return false
		}
	}
	return true
}
