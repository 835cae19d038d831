package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yachtlive/yacht/internal/models"
)

func TestScoreVectors(t *testing.T) {
	tests := []struct {
		name     string
		dice     []int
		category models.Category
		want     int
	}{
		{"all ones", []int{1, 1, 1, 1, 1}, models.Ones, 5},
		{"two threes", []int{3, 3, 1, 2, 6}, models.Threes, 6},
		{"no sixes", []int{1, 2, 3, 4, 5}, models.Sixes, 0},
		{"choice sums everything", []int{6, 6, 5, 4, 2}, models.Choice, 23},
		{"four of a kind", []int{4, 4, 4, 4, 2}, models.FourOfAKind, 18},
		{"five counts as four of a kind", []int{4, 4, 4, 4, 4}, models.FourOfAKind, 20},
		{"no four of a kind", []int{4, 4, 4, 3, 2}, models.FourOfAKind, 0},
		{"full house", []int{3, 3, 3, 2, 2}, models.FullHouse, 13},
		{"five of a kind is not a full house", []int{5, 5, 5, 5, 5}, models.FullHouse, 0},
		{"no full house", []int{3, 3, 2, 2, 1}, models.FullHouse, 0},
		{"small straight low", []int{2, 2, 3, 4, 5}, models.SmallStraight, 15},
		{"small straight high", []int{3, 4, 5, 6, 6}, models.SmallStraight, 15},
		{"small straight inside large", []int{1, 2, 3, 4, 5}, models.SmallStraight, 15},
		{"no small straight", []int{1, 2, 3, 5, 6}, models.SmallStraight, 0},
		{"large straight low", []int{1, 2, 3, 4, 5}, models.LargeStraight, 30},
		{"large straight high", []int{2, 3, 4, 5, 6}, models.LargeStraight, 30},
		{"no large straight", []int{1, 2, 3, 4, 4}, models.LargeStraight, 0},
		{"yacht", []int{6, 6, 6, 6, 6}, models.Yacht, 50},
		{"no yacht", []int{6, 6, 6, 6, 5}, models.Yacht, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.dice, tt.category))
		})
	}
}

// Score must not depend on dice order.
func TestScorePermutationInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		dice := make([]int, models.NumDice)
		for j := range dice {
			dice[j] = r.Intn(6) + 1
		}
		for _, cat := range models.Categories {
			want := Score(dice, cat)
			shuffled := append([]int(nil), dice...)
			r.Shuffle(len(shuffled), func(a, b int) {
				shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
			})
			assert.Equal(t, want, Score(shuffled, cat), "category %s dice %v", cat, dice)
		}
	}
}

func TestPreviewAll(t *testing.T) {
	preview := PreviewAll([]int{2, 2, 3, 4, 5})
	assert.Len(t, preview, len(models.Categories))
	assert.Equal(t, 4, preview[models.Twos])
	assert.Equal(t, 15, preview[models.SmallStraight])
	assert.Equal(t, 0, preview[models.Yacht])
	assert.Equal(t, 16, preview[models.Choice])
}

func TestUpperSumAndTotal(t *testing.T) {
	scores := map[models.Category]int{
		models.Ones:   3,
		models.Sixes:  24,
		models.Choice: 20,
	}
	assert.Equal(t, 27, UpperSum(scores))
	assert.Equal(t, 47, Total(scores, false))
	assert.Equal(t, 82, Total(scores, true))
}
