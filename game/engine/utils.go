package engine

import (
	"math"
	"sort"

	"github.com/wricardo/arena-io/protocol"
)

// Distance returns the euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x1-x2, y1-y2)
}

// Leaderboard ranks players by score, highest first, and keeps the top n.
func Leaderboard(players []*Player, n int) []protocol.LeaderboardEntry {
	ranked := make([]*Player, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}

	out := make([]protocol.LeaderboardEntry, len(ranked))
	for i, p := range ranked {
		out[i] = protocol.LeaderboardEntry{Username: p.Name, Score: int(math.Round(p.Score))}
	}
	return out
}
