package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProjectStatus_CanTransition(t *testing.T) {
	all := []ProjectStatus{ProjectActive, ProjectInProgress, ProjectCompleted, ProjectClosed}
	allowed := map[[2]ProjectStatus]bool{
		{ProjectActive, ProjectInProgress}:    true,
		{ProjectInProgress, ProjectCompleted}: true,
		{ProjectActive, ProjectClosed}:        true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]ProjectStatus{from, to}], from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestProposalStatus_Terminal(t *testing.T) {
	assert.False(t, ProposalPending.Terminal())
	assert.True(t, ProposalAccepted.Terminal())
	assert.True(t, ProposalRejected.Terminal())
}

func TestOrderedPair_IsSymmetric(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	lo1, hi1 := OrderedPair(a, b)
	lo2, hi2 := OrderedPair(b, a)

	assert.Equal(t, lo1, lo2)
	assert.Equal(t, hi1, hi2)
	assert.LessOrEqual(t, lo1.String(), hi1.String())
}

func TestConversation_Other(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	lo, hi := OrderedPair(a, b)
	c := Conversation{ParticipantLow: lo, ParticipantHigh: hi}

	assert.Equal(t, b, c.Other(a))
	assert.Equal(t, a, c.Other(b))
	assert.True(t, c.HasParticipant(a))
	assert.False(t, c.HasParticipant(uuid.New()))
}

func TestConversation_JSONListsParticipants(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	lo, hi := OrderedPair(a, b)
	c := Conversation{ID: uuid.New(), ParticipantLow: lo, ParticipantHigh: hi, LastMessage: "hi"}

	for _, v := range []interface{}{c, &c, []Conversation{c}} {
		raw, err := json.Marshal(v)
		assert.NoError(t, err)

		var got []struct {
			ID           uuid.UUID   `json:"id"`
			Participants []uuid.UUID `json:"participants"`
			LastMessage  string      `json:"last_message"`
		}
		if raw[0] != '[' {
			raw = append(append([]byte("["), raw...), ']')
		}
		assert.NoError(t, json.Unmarshal(raw, &got))
		assert.Len(t, got, 1)
		assert.Equal(t, c.ID, got[0].ID)
		assert.Equal(t, "hi", got[0].LastMessage)
		assert.ElementsMatch(t, []uuid.UUID{a, b}, got[0].Participants)
	}
}

func TestUser_VisibleTo(t *testing.T) {
	u := &User{ID: uuid.New(), Name: "Bea", Email: "bea@example.com", Type: RoleCreator, Status: UserActive}
	other := &User{ID: uuid.New(), Type: RoleFreelancer}
	admin := &User{ID: uuid.New(), Type: RoleAdmin}

	assert.Empty(t, u.VisibleTo(nil).Email)
	assert.Empty(t, u.VisibleTo(other).Email)
	assert.Empty(t, u.VisibleTo(other).Status)
	assert.Equal(t, "bea@example.com", u.VisibleTo(u).Email)
	assert.Equal(t, UserActive, u.VisibleTo(admin).Status)
	assert.Equal(t, "Bea", u.Public().Name)
}

func TestEnums(t *testing.T) {
	assert.True(t, Delivery1w.Valid())
	assert.False(t, DeliveryTime("2d").Valid())
	assert.True(t, CategoryThumbnail.Valid())
	assert.False(t, ProjectCategory("music").Valid())
	assert.True(t, ExperienceExpert.Valid())
	assert.False(t, Role("owner").Valid())
	assert.True(t, BlockH2.IsHeading())
	assert.False(t, BlockQuote.IsHeading())
}
