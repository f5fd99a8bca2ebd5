package domain

import (
	"math"
	"sort"
)

// Winner is the outcome of a duel as far as the client can tell.
type Winner string

const (
	WinnerPending Winner = "PENDING"
	WinnerPlayer1 Winner = "P1"
	WinnerPlayer2 Winner = "P2"
	WinnerDraw    Winner = "DRAW"
)

// DuelWinner decides a duel from both players' scores and elapsed times.
// A missing score means the other player has not submitted yet.
func DuelWinner(p1Score, p2Score, p1Time, p2Time *int) Winner {
	if p1Score == nil || p2Score == nil {
		return WinnerPending
	}
	if *p1Score > *p2Score {
		return WinnerPlayer1
	}
	if *p2Score > *p1Score {
		return WinnerPlayer2
	}
	if p1Time != nil && p2Time != nil {
		if *p1Time < *p2Time {
			return WinnerPlayer1
		}
		if *p2Time < *p1Time {
			return WinnerPlayer2
		}
	}
	return WinnerDraw
}

// Winner is DuelWinner applied to the game's fields.
func (g Game) Winner() Winner {
	return DuelWinner(g.Player1Score, g.Player2Score, g.Player1Time, g.Player2Time)
}

// Seat reports which side of the duel userID plays: 1, 2, or 0 when not a player.
func (g Game) Seat(userID string) int {
	switch {
	case userID == "":
		return 0
	case g.Player1ID == userID:
		return 1
	case g.Player2ID == userID:
		return 2
	default:
		return 0
	}
}

// RankPlayers returns a copy of players ordered by score descending, then elapsed
// time ascending. Missing scores and times sort last; equal entries fall back to
// player id so the order is total.
func RankPlayers(players []Player) []Player {
	ranked := make([]Player, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := scoreKey(ranked[i].Score), scoreKey(ranked[j].Score)
		if si != sj {
			return si > sj
		}
		ti, tj := timeKey(ranked[i].Time), timeKey(ranked[j].Time)
		if ti != tj {
			return ti < tj
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

func scoreKey(v *int) int {
	if v == nil {
		return math.MinInt
	}
	return *v
}

func timeKey(v *int) int {
	if v == nil {
		return math.MaxInt
	}
	return *v
}

// TotalPoints sums the points of score records.
func TotalPoints(scores []Score) int {
	total := 0
	for _, s := range scores {
		total += int(s.Points)
	}
	return total
}
