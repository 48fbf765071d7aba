package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/nano-social/backend/internal/logger"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
)

// Profiles edits the caller's own account and audits every changed field.
type Profiles struct {
	users   repositories.UserRepository
	history HistoryRecorder
	log     *logger.Logger
	now     func() time.Time
}

func NewProfiles(users repositories.UserRepository, history HistoryRecorder, log *logger.Logger) *Profiles {
	return &Profiles{
		users:   users,
		history: history,
		log:     log.With("component", "profiles"),
		now:     time.Now,
	}
}

type fieldChange struct {
	field    string
	old, new string
}

type changeSet []fieldChange

func (cs *changeSet) setString(field string, dst *string, v string) {
	if v == "" || v == *dst {
		return
	}
	*cs = append(*cs, fieldChange{field: field, old: *dst, new: v})
	*dst = v
}

func (cs *changeSet) setBool(field string, dst *bool, v *bool) {
	if v == nil || *v == *dst {
		return
	}
	*cs = append(*cs, fieldChange{field: field, old: strconv.FormatBool(*dst), new: strconv.FormatBool(*v)})
	*dst = *v
}

// Get returns an active account.
func (p *Profiles) Get(ctx context.Context, id uint) (*models.User, error) {
	u, err := p.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, models.ErrUserNotFound
	}
	return u, nil
}

// Update applies the non-empty fields of req.
func (p *Profiles) Update(ctx context.Context, id uint, req models.UpdateUserRequest) (*models.User, error) {
	u, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var cs changeSet
	cs.setString("display_name", &u.DisplayName, req.DisplayName)
	cs.setString("bio", &u.Bio, req.Bio)
	cs.setString("avatar", &u.Avatar, req.Avatar)
	cs.setString("city", &u.City, req.City)
	cs.setString("country", &u.Country, req.Country)
	cs.setString("cultural_background", &u.CulturalBackground, req.CulturalBackground)

	if req.Interests != nil {
		interests := models.NormalizeInterests(req.Interests)
		if !slices.Equal(interests, u.Interests) {
			cs = append(cs, fieldChange{
				field: "interests",
				old:   strings.Join(u.Interests, ","),
				new:   strings.Join(interests, ","),
			})
			u.Interests = interests
		}
	}

	// a location is only meaningful with both axes
	if req.Longitude != nil && req.Latitude != nil {
		old := formatCoordinates(u.Coordinates())
		u.Longitude, u.Latitude = req.Longitude, req.Latitude
		if next := formatCoordinates(u.Coordinates()); next != old {
			cs = append(cs, fieldChange{field: "location", old: old, new: next})
		}
	}

	return u, p.save(ctx, u, cs)
}

// UpdatePrivacy changes profile visibility, what other users may see and the
// follow notification setting.
func (p *Profiles) UpdatePrivacy(ctx context.Context, id uint, req models.UpdatePrivacyRequest) (*models.User, error) {
	u, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var cs changeSet
	cs.setString("profile_visibility", &u.ProfileVisibility, req.ProfileVisibility)
	cs.setBool("notify_on_follow", &u.NotifyOnFollow, req.NotifyOnFollow)
	cs.setBool("show_location", &u.ShowLocation, req.ShowLocation)
	cs.setBool("show_email", &u.ShowEmail, req.ShowEmail)

	return u, p.save(ctx, u, cs)
}

// Delete soft-deletes the account. The permanent deletion job purges it
// once the grace period has passed.
func (p *Profiles) Delete(ctx context.Context, id uint) error {
	if _, err := p.Get(ctx, id); err != nil {
		return err
	}
	if err := p.users.SoftDelete(ctx, id, p.now()); err != nil {
		return err
	}
	p.log.Info("account scheduled for deletion", "user_id", id)
	p.record(ctx, id, fieldChange{field: "account", old: "active", new: "deleted"})
	return nil
}

func (p *Profiles) save(ctx context.Context, u *models.User, cs changeSet) error {
	if len(cs) == 0 {
		return nil
	}
	if err := p.users.UpdateUser(ctx, u); err != nil {
		return err
	}
	for _, c := range cs {
		p.record(ctx, u.ID, c)
	}
	return nil
}

func (p *Profiles) record(ctx context.Context, userID uint, c fieldChange) {
	if p.history == nil {
		return
	}
	info := ClientInfoFrom(ctx)
	err := p.history.Append(ctx, &models.UserHistory{
		UserID:    userID,
		Field:     c.field,
		OldValue:  c.old,
		NewValue:  c.new,
		IPAddress: info.IP,
		Device:    info.UserAgent,
	})
	if err != nil {
		p.log.Warn("failed to record user history", "user_id", userID, "field", c.field, "error", err)
	}
}

func formatCoordinates(c *models.Coordinates) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g", c.Lon, c.Lat)
}
