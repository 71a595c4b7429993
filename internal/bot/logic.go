package bot

import (
	"ctchen222/tictactoe-solo/internal/game"
	"math/rand/v2"
)

var (
	corners = []int{0, 2, 6, 8}
	sides   = []int{1, 3, 5, 7}
)

// CalculateNextMove determines the bot's next move based on the specified difficulty.
// ok is false only when the board has no empty cell.
func CalculateNextMove(board game.Board, botMark game.Mark, difficulty Difficulty, rng *rand.Rand) (index int, ok bool) {
	switch difficulty {
	case Easy:
		return easyMove(board, rng)
	case Medium:
		return mediumMove(board, botMark, rng)
	case Hard:
		return hardMove(board, botMark, rng)
	default:
		return classicMove(board, botMark, rng)
	}
}

// easyMove makes a completely random move.
func easyMove(board game.Board, rng *rand.Rand) (int, bool) {
	return pick(board.EmptyCells(), rng)
}

// mediumMove will win if it can, block if it must, otherwise move randomly.
func mediumMove(board game.Board, botMark game.Mark, rng *rand.Rand) (int, bool) {
	if index, ok := winOrBlock(board, botMark); ok {
		return index, true
	}
	return easyMove(board, rng)
}

// classicMove wins, blocks, takes the center, or falls back to a random cell.
func classicMove(board game.Board, botMark game.Mark, rng *rand.Rand) (int, bool) {
	if index, ok := winOrBlock(board, botMark); ok {
		return index, true
	}
	if board[game.Center] == game.Empty {
		return game.Center, true
	}
	return easyMove(board, rng)
}

// hardMove prefers corners over sides once the center is gone.
func hardMove(board game.Board, botMark game.Mark, rng *rand.Rand) (int, bool) {
	if index, ok := winOrBlock(board, botMark); ok {
		return index, true
	}
	if board[game.Center] == game.Empty {
		return game.Center, true
	}
	if index, ok := pick(emptyAmong(board, corners), rng); ok {
		return index, true
	}
	return pick(emptyAmong(board, sides), rng)
}

func winOrBlock(board game.Board, botMark game.Mark) (int, bool) {
	// 1. Win: Check if the bot can win in the next move
	if index, ok := findWinningMove(board, botMark); ok {
		return index, true
	}
	// 2. Block: Check if the opponent is about to win and block them
	return findWinningMove(board, botMark.Other())
}

// findWinningMove returns the empty cell of the first pattern in which mark
// holds the other two cells.
func findWinningMove(board game.Board, mark game.Mark) (int, bool) {
	for _, pattern := range game.WinPatterns {
		count, empty := 0, -1
		for _, idx := range pattern {
			switch board[idx] {
			case mark:
				count++
			case game.Empty:
				empty = idx
			}
		}
		if count == 2 && empty != -1 {
			return empty, true
		}
	}
	return -1, false
}

func emptyAmong(board game.Board, cells []int) []int {
	var available []int
	for _, idx := range cells {
		if board[idx] == game.Empty {
			available = append(available, idx)
		}
	}
	return available
}

func pick(cells []int, rng *rand.Rand) (int, bool) {
	if len(cells) == 0 {
		return -1, false
	}
	if rng == nil {
		return cells[rand.IntN(len(cells))], true
	}
	return cells[rng.IntN(len(cells))], true
}
