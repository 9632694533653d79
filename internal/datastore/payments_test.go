package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velopreem/backend/internal/models"
	"github.com/velopreem/backend/internal/paths"
)

func TestProcessContributionRecordsPayment(t *testing.T) {
	f := newFixture(t)

	// the fixture already settled pi_fixture_1 for $25
	c := f.get(t, f.contribution.Path)
	assert.Equal(t, models.ContributionStatusConfirmed, c["status"])
	assert.Equal(t, float64(25), c["amount"])
	assert.Equal(t, "pi_fixture_1", briefAt(t, c, "stripe")["paymentIntentId"])
	assert.Equal(t, stranger.UID, briefAt(t, c, "contributor")["id"])

	pb := briefAt(t, c, "preemBrief")
	assert.Equal(t, f.preem.Name, pb["name"])
	assert.Equal(t, f.race.Name, briefAt(t, c, "preemBrief", "raceBrief")["name"])

	preem := f.get(t, f.preem.Path)
	assert.Equal(t, float64(25), preem["prizePool"])
	assert.Equal(t, models.PreemStatusOpen, preem["status"])
}

func TestProcessContributionRedeliveryIsNoOp(t *testing.T) {
	f := newFixture(t)

	again, err := f.repo.ProcessContribution(context.Background(), ConfirmedPayment{
		IntentID:  "pi_fixture_1",
		PreemPath: f.preem.Path,
		UserID:    stranger.UID,
		Amount:    25,
	})
	require.NoError(t, err)

	assert.Equal(t, f.contribution.Amount, again.Amount)
	assert.Equal(t, float64(25), f.get(t, f.preem.Path)["prizePool"], "pool must not double count")
}

func TestProcessContributionCrossesThreshold(t *testing.T) {
	f := newFixture(t)

	// fixture pool is 25 against a minimum of 100; 80 more crosses it
	_, err := f.repo.ProcessContribution(context.Background(), ConfirmedPayment{
		IntentID:  "pi_big_one",
		PreemPath: f.preem.Path,
		UserID:    organizer.UID,
		Amount:    80,
	})
	require.NoError(t, err)

	preem := f.get(t, f.preem.Path)
	assert.Equal(t, float64(105), preem["prizePool"])
	assert.Equal(t, models.PreemStatusMinimumMet, preem["status"])
}

func TestProcessContributionAnonymous(t *testing.T) {
	f := newFixture(t)

	c, err := f.repo.ProcessContribution(context.Background(), ConfirmedPayment{
		IntentID:    "pi_anon",
		PreemPath:   f.preem.Path,
		UserID:      stranger.UID,
		Amount:      10,
		IsAnonymous: true,
		Message:     "go go go",
	})
	require.NoError(t, err)

	assert.True(t, c.IsAnonymous)
	assert.Nil(t, c.Contributor)
	assert.Equal(t, "go go go", c.Message)
}

func TestProcessContributionRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.ProcessContribution(ctx, ConfirmedPayment{
		IntentID:  "pi_x",
		PreemPath: f.race.Path,
		Amount:    5,
	})
	assert.ErrorIs(t, err, paths.ErrInvalidPath)

	_, err = f.repo.ProcessContribution(ctx, ConfirmedPayment{
		PreemPath: f.preem.Path,
		Amount:    5,
	})
	assert.ErrorIs(t, err, paths.ErrInvalidPath)
}
