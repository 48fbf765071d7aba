package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairState_Status(t *testing.T) {
	tests := []struct {
		name  string
		state PairState
		want  RelationStatus
	}{
		{name: "empty", state: PairState{}, want: StatusNone},
		{name: "following", state: PairState{Following: true, FollowedBy: true}, want: StatusFollowing},
		{name: "requested", state: PairState{Requested: true}, want: StatusRequested},
		{name: "only followed by", state: PairState{FollowedBy: true}, want: StatusNone},
		{name: "blocking", state: PairState{Blocking: true}, want: StatusBlocked},
		{name: "blocked by", state: PairState{BlockedBy: true}, want: StatusBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Status())
		})
	}
}

func TestPairState_Reverse(t *testing.T) {
	p := PairState{Following: true, Requested: false, RequestedBy: false, Blocking: false}
	assert.Equal(t, PairState{FollowedBy: true}, p.Reverse())

	q := PairState{Requested: true, BlockedBy: false, FollowedBy: true}
	assert.Equal(t, q, q.Reverse().Reverse())
	assert.Equal(t, PairState{RequestedBy: true, Following: true}, q.Reverse())
}

func TestPairState_Valid(t *testing.T) {
	assert.True(t, PairState{}.Valid())
	assert.True(t, PairState{Following: true, FollowedBy: true}.Valid())
	assert.True(t, PairState{Following: true, RequestedBy: true}.Valid())
	assert.True(t, PairState{Blocking: true, BlockedBy: true}.Valid())

	assert.False(t, PairState{Blocking: true, Following: true}.Valid())
	assert.False(t, PairState{BlockedBy: true, RequestedBy: true}.Valid())
	assert.False(t, PairState{Following: true, Requested: true}.Valid())
	assert.False(t, PairState{FollowedBy: true, RequestedBy: true}.Valid())
}

func TestNormalizeInterests(t *testing.T) {
	got := NormalizeInterests([]string{" music", "art", "", "music ", "  ", "chess"})
	assert.Equal(t, []string{"music", "art", "chess"}, got)
	assert.Empty(t, NormalizeInterests(nil))
}

func TestNotificationJob_ToNotification(t *testing.T) {
	job := NotificationJob{RecipientID: 2, ActorID: 1, Type: NotificationFollow, Message: "x started following you"}
	n := job.ToNotification()
	assert.Equal(t, uint(2), n.RecipientID)
	assert.Equal(t, uint(1), n.ActorID)
	assert.Equal(t, NotificationFollow, n.Type)
	assert.False(t, n.IsRead)
}

func TestUser_Helpers(t *testing.T) {
	lon, lat := 3.4, 6.5
	u := &User{ID: 7, Username: "ada", ProfileVisibility: VisibilityPrivate, Longitude: &lon}
	assert.Nil(t, u.Coordinates())
	u.Latitude = &lat
	assert.Equal(t, &Coordinates{Lon: 3.4, Lat: 6.5}, u.Coordinates())
	assert.True(t, u.IsPrivate())
	assert.Equal(t, "ada", u.Handle())
	assert.Equal(t, "Someone", (&User{}).Handle())
	assert.Equal(t, UserCompact{ID: 7, Username: "ada"}, u.ToCompact())
}
