package services

import (
	"math"
	"strings"

	"github.com/anonto42/nano-social/backend/internal/models"
)

// Suggestion weights
const (
	baseScore          = 1
	mutualWeight       = 20
	interestWeight     = 10
	nearbyBonus        = 15
	regionBonus        = 5
	culturalMatchBonus = 10

	nearbyDistance = 0.1
	regionDistance = 0.5
)

// Score ranks candidate for viewer. It is pure: the same snapshots always
// produce the same score.
func Score(viewer, candidate *models.UserNode) int {
	score := baseScore
	score += mutualWeight * intersectCount(viewer.Following, candidate.Followers)
	score += interestWeight * sharedInterests(viewer.User.Interests, candidate.User.Interests)
	score += proximityBonus(viewer.User.Coordinates(), candidate.User.Coordinates())

	vb, cb := viewer.User.CulturalBackground, candidate.User.CulturalBackground
	if vb != "" && vb != models.CulturalBackgroundUndisclosed && vb == cb {
		score += culturalMatchBonus
	}
	return score
}

func intersectCount(a, b map[uint]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for id := range a {
		if _, ok := b[id]; ok {
			n++
		}
	}
	return n
}

// sharedInterests counts distinct interests present in both lists,
// case-sensitive after trimming.
func sharedInterests(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = struct{}{}
		}
	}
	n := 0
	for _, s := range b {
		s = strings.TrimSpace(s)
		if _, ok := set[s]; ok {
			n++
			delete(set, s)
		}
	}
	return n
}

// proximityBonus uses plain Euclidean distance over (lon, lat).
func proximityBonus(a, b *models.Coordinates) int {
	if a == nil || b == nil {
		return 0
	}
	d := math.Hypot(a.Lon-b.Lon, a.Lat-b.Lat)
	switch {
	case d < nearbyDistance:
		return nearbyBonus
	case d < regionDistance:
		return regionBonus
	default:
		return 0
	}
}
