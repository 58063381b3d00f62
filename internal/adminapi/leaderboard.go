package adminapi

import (
	"sync"

	"mobacore/internal/spatial"
)

// Leaderboard ranks hero players by kills/deaths for the admin stats
// endpoint. Ops tooling only; the simulation core never reads it.
type Leaderboard struct {
	skipList *spatial.SkipList
	mu       sync.RWMutex // guards the kills/deaths side-table below
	kills    map[string]int
	deaths   map[string]int
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	PlayerID string
	Kills    int
	Deaths   int
	Score    float64
	Rank     int
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		skipList: spatial.NewSkipList(),
		kills:    make(map[string]int),
		deaths:   make(map[string]int),
	}
}

// RecordKill credits playerID with a kill and recomputes its score.
func (lb *Leaderboard) RecordKill(playerID string) {
	lb.mu.Lock()
	lb.kills[playerID]++
	k, d := lb.kills[playerID], lb.deaths[playerID]
	lb.mu.Unlock()
	lb.skipList.Insert(playerID, score(k, d))
}

// RecordDeath credits playerID with a death and recomputes its score.
func (lb *Leaderboard) RecordDeath(playerID string) {
	lb.mu.Lock()
	lb.deaths[playerID]++
	k, d := lb.kills[playerID], lb.deaths[playerID]
	lb.mu.Unlock()
	lb.skipList.Insert(playerID, score(k, d))
}

func score(kills, deaths int) float64 {
	return float64(kills)*100.0 - float64(deaths)*10.0
}

// RemovePlayer drops playerID from the leaderboard (on disconnect).
func (lb *Leaderboard) RemovePlayer(playerID string) {
	lb.skipList.Remove(playerID)
	lb.mu.Lock()
	delete(lb.kills, playerID)
	delete(lb.deaths, playerID)
	lb.mu.Unlock()
}

// GetTop returns the top n ranked players.
func (lb *Leaderboard) GetTop(n int) []LeaderboardEntry {
	return lb.entries(lb.skipList.GetRange(1, n), 1)
}

func (lb *Leaderboard) entries(raw []spatial.SkipListEntry, startRank int) []LeaderboardEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	result := make([]LeaderboardEntry, len(raw))
	for i, e := range raw {
		result[i] = LeaderboardEntry{
			PlayerID: e.Key,
			Kills:    lb.kills[e.Key],
			Deaths:   lb.deaths[e.Key],
			Score:    e.Score,
			Rank:     startRank + i,
		}
	}
	return result
}

// Length returns the number of ranked players.
func (lb *Leaderboard) Length() int {
	return lb.skipList.Length()
}
