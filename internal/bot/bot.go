package bot

import (
	"ctchen222/tictactoe-solo/internal/game"
	"fmt"
	"math/rand/v2"
	"strings"
)

// Difficulty selects the rule set the bot plays with.
type Difficulty string

const (
	Easy    Difficulty = "easy"
	Medium  Difficulty = "medium"
	Classic Difficulty = "classic"
	Hard    Difficulty = "hard"
)

// ParseDifficulty maps a config value onto a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case Easy, Medium, Classic, Hard:
		return d, nil
	case "":
		return Classic, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Calculator picks moves for one session. It is not safe for concurrent use
// when built with a private rng.
type Calculator struct {
	difficulty Difficulty
	rng        *rand.Rand
}

// NewCalculator creates a move calculator. A nil rng uses the global source.
func NewCalculator(difficulty Difficulty, rng *rand.Rand) *Calculator {
	return &Calculator{
		difficulty: difficulty,
		rng:        rng,
	}
}

// NextMove returns the cell the bot places mark on.
func (c *Calculator) NextMove(board game.Board, mark game.Mark) (int, bool) {
	return CalculateNextMove(board, mark, c.difficulty, c.rng)
}

// Difficulty reports the configured rule set.
func (c *Calculator) Difficulty() Difficulty {
	return c.difficulty
}
