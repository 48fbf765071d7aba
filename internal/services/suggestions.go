package services

import (
	"context"
	"sort"

	"github.com/anonto42/nano-social/backend/internal/logger"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
)

type SuggestionOptions struct {
	// ExcludePrivate drops private profiles from the candidate pool.
	ExcludePrivate bool
}

type SuggestionQuery struct {
	Page     int
	Limit    int
	ClientIP string
}

type Suggestion struct {
	User          models.UserCompact `json:"user"`
	Interests     []string           `json:"interests"`
	City          string             `json:"city,omitempty"`
	Country       string             `json:"country,omitempty"`
	Score         int                `json:"score"`
	FollowsViewer bool               `json:"follows_viewer"`
}

type SuggestionPage struct {
	Items []Suggestion `json:"items"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// SuggestionEngine ranks users the viewer might want to follow. It reads the
// stores on every call and keeps no snapshot of its own.
type SuggestionEngine struct {
	users         repositories.UserRepository
	relationships repositories.RelationshipRepository
	geo           GeoResolver
	log           *logger.Logger
	opts          SuggestionOptions
}

func NewSuggestionEngine(
	users repositories.UserRepository,
	relationships repositories.RelationshipRepository,
	geo GeoResolver,
	log *logger.Logger,
	opts SuggestionOptions,
) *SuggestionEngine {
	return &SuggestionEngine{
		users:         users,
		relationships: relationships,
		geo:           geo,
		log:           log.With("component", "suggestions"),
		opts:          opts,
	}
}

type scored struct {
	user  *models.User
	score int
}

func (e *SuggestionEngine) Suggest(ctx context.Context, viewerID uint, q SuggestionQuery) (*SuggestionPage, error) {
	viewer, err := e.users.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer.IsDeleted {
		return nil, models.ErrUserNotFound
	}

	rel, err := e.relationships.GetRelationships(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	users, err := e.users.ListActiveUsers(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]*models.User, 0, len(users))
	ids := make([]uint, 0, len(users))
	for i := range users {
		u := &users[i]
		if e.excluded(u, rel) {
			continue
		}
		candidates = append(candidates, u)
		ids = append(ids, u.ID)
	}

	followers, err := e.relationships.GetFollowerIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	viewerNode := &models.UserNode{
		User:      e.locate(ctx, viewer, q.ClientIP),
		Following: rel.Following,
		Followers: rel.Followers,
	}

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		node := &models.UserNode{User: c, Followers: followers[c.ID]}
		ranked = append(ranked, scored{user: c, score: Score(viewerNode, node)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].user.ID < ranked[j].user.ID
	})

	page, limit := repositories.NormalizePage(q.Page, q.Limit)
	start, end := len(ranked), len(ranked)
	if page-1 <= len(ranked)/limit {
		start = min((page-1)*limit, len(ranked))
		end = min(start+limit, len(ranked))
	}

	items := make([]Suggestion, 0, end-start)
	for _, s := range ranked[start:end] {
		_, followsViewer := rel.Followers[s.user.ID]
		item := Suggestion{
			User:          s.user.ToCompact(),
			Interests:     s.user.Interests,
			Score:         s.score,
			FollowsViewer: followsViewer,
		}
		if s.user.ShowLocation {
			item.City = s.user.City
			item.Country = s.user.Country
		}
		items = append(items, item)
	}

	return &SuggestionPage{Items: items, Total: len(ranked), Page: page, Limit: limit}, nil
}

func (e *SuggestionEngine) excluded(u *models.User, rel *models.Relationships) bool {
	if u.ID == rel.UserID || u.IsDeleted {
		return true
	}
	if _, ok := rel.Following[u.ID]; ok {
		return true
	}
	if _, ok := rel.Blocked[u.ID]; ok {
		return true
	}
	if _, ok := rel.BlockedBy[u.ID]; ok {
		return true
	}
	return e.opts.ExcludePrivate && u.IsPrivate()
}

// locate fills missing viewer coordinates from the client IP. Lookup
// failures leave the viewer without a location.
func (e *SuggestionEngine) locate(ctx context.Context, viewer *models.User, clientIP string) *models.User {
	if viewer.Coordinates() != nil || clientIP == "" || e.geo == nil {
		return viewer
	}
	coords, err := e.geo.Resolve(ctx, clientIP)
	if err != nil {
		e.log.Debug("geo lookup failed", "user_id", viewer.ID, "error", err)
		return viewer
	}
	if coords == nil {
		return viewer
	}
	located := *viewer
	located.Longitude = &coords.Lon
	located.Latitude = &coords.Lat
	return &located
}
