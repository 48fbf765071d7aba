package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Profile visibility values
const (
	VisibilityPublic    = "public"
	VisibilityFollowers = "followers"
	VisibilityPrivate   = "private"
)

// CulturalBackgroundUndisclosed never counts as a shared background when ranking suggestions.
const CulturalBackgroundUndisclosed = "Prefer not to say"

// User is the account row. Relationship sets live in their own tables.
type User struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	Username           string     `json:"username" gorm:"size:30;uniqueIndex"`
	Email              string     `json:"email" gorm:"uniqueIndex"`
	DisplayName        string     `json:"display_name"`
	Bio                string     `json:"bio" gorm:"size:500"`
	Avatar             string     `json:"avatar"`
	FirebaseUID        *string    `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
	Interests          []string   `json:"interests" gorm:"serializer:json"`
	City               string     `json:"city"`
	Country            string     `json:"country"`
	Longitude          *float64   `json:"longitude,omitempty"`
	Latitude           *float64   `json:"latitude,omitempty"`
	CulturalBackground string     `json:"cultural_background" gorm:"size:30;default:'Prefer not to say'"`
	ProfileVisibility  string     `json:"profile_visibility" gorm:"size:20;default:'public'"`
	NotifyOnFollow     bool       `json:"notify_on_follow" gorm:"not null"`
	ShowLocation       bool       `json:"show_location" gorm:"not null"`
	ShowEmail          bool       `json:"show_email" gorm:"not null"`
	IsDeleted          bool       `json:"-" gorm:"default:false;index"`
	DeletedAt          *time.Time `json:"-" gorm:"index"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewUser returns an active public account with follow notifications on.
// Boolean settings are stored as given, so callers building a User by hand
// must set NotifyOnFollow themselves.
func NewUser(username, email string) *User {
	return &User{
		Username:           username,
		Email:              email,
		CulturalBackground: CulturalBackgroundUndisclosed,
		ProfileVisibility:  VisibilityPublic,
		NotifyOnFollow:     true,
	}
}

// Coordinates returns the stored location, or nil when either axis is missing.
func (u *User) Coordinates() *Coordinates {
	if u.Longitude == nil || u.Latitude == nil {
		return nil
	}
	return &Coordinates{Lon: *u.Longitude, Lat: *u.Latitude}
}

// IsPrivate reports whether follows toward this user need approval.
func (u *User) IsPrivate() bool {
	return u.ProfileVisibility == VisibilityPrivate
}

// Handle is the name used in notification messages.
func (u *User) Handle() string {
	if u.Username != "" {
		return u.Username
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return "Someone"
}

// ToCompact returns the public card shown in lists
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
	}
}

// UserCompact is the minimal user card embedded in lists and notifications.
type UserCompact struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
}

// Coordinates is a (longitude, latitude) pair.
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type UpdateUserRequest struct {
	DisplayName        string   `json:"display_name,omitempty" validate:"omitempty,min=2,max=50"`
	Bio                string   `json:"bio,omitempty" validate:"omitempty,max=500"`
	Avatar             string   `json:"avatar,omitempty" validate:"omitempty,url"`
	Interests          []string `json:"interests,omitempty" validate:"omitempty,max=30,dive,min=1,max=40"`
	City               string   `json:"city,omitempty" validate:"omitempty,max=80"`
	Country            string   `json:"country,omitempty" validate:"omitempty,max=80"`
	Longitude          *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	Latitude           *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	CulturalBackground string   `json:"cultural_background,omitempty" validate:"omitempty,oneof=African African-American Caribbean Other 'Prefer not to say'"`
}

type UpdatePrivacyRequest struct {
	ProfileVisibility string `json:"profile_visibility,omitempty" validate:"omitempty,oneof=public followers private"`
	NotifyOnFollow    *bool  `json:"notify_on_follow,omitempty"`
	ShowLocation      *bool  `json:"show_location,omitempty"`
	ShowEmail         *bool  `json:"show_email,omitempty"`
}

// NormalizeInterests trims and de-duplicates interests, keeping first-seen order.
func NormalizeInterests(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, interest := range in {
		interest = strings.TrimSpace(interest)
		if interest == "" {
			continue
		}
		if _, ok := seen[interest]; ok {
			continue
		}
		seen[interest] = struct{}{}
		out = append(out, interest)
	}
	return out
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
