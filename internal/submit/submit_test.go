package submit

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pefman/w40k-cheatsheet/internal/models"
	"github.com/pefman/w40k-cheatsheet/internal/roster"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPayload_OmitsUnattached(t *testing.T) {
	r := roster.Resolve([]models.AvailableUnit{{Name: "Mortarion"}, {Name: "Plague Marines"}, {Name: "Plague Marines"}})

	got := Payload(r, map[string]roster.UnitID{"A": {Name: "Mortarion", Ordinal: 1}})
	assert.Equal(t, map[string]string{"A": "Mortarion"}, got)
	_, hasB := got["B"]
	assert.False(t, hasB)

	got = Payload(r, map[string]roster.UnitID{
		"Typhus":       {Name: "Plague Marines", Ordinal: 2},
		"Plaguecaster": {Name: "Plague Marines", Ordinal: 1},
	})
	assert.Equal(t, map[string]string{"Typhus": "Plague Marines #2", "Plaguecaster": "Plague Marines #1"}, got)

	assert.Empty(t, Payload(r, nil))
}

func TestBuild_CarriesOriginalRequest(t *testing.T) {
	r := roster.Resolve([]models.AvailableUnit{{Name: "Mortarion"}})
	req := Build(
		models.GenerateRequest{ArmyList: "DG MORTAL WOUNDS (2000 Points)", Format: models.FormatMarkdown},
		r,
		map[string]roster.UnitID{"A": {Name: "Mortarion", Ordinal: 1}},
	)
	assert.Equal(t, "DG MORTAL WOUNDS (2000 Points)", req.ArmyList)
	assert.Equal(t, models.FormatMarkdown, req.Format)
	assert.Equal(t, map[string]string{"A": "Mortarion"}, req.Attachments)
}

type blockingFinalizer struct {
	calls   chan models.FinalizeRequest
	release chan struct{}
	err     error
}

func (f *blockingFinalizer) Finalize(ctx context.Context, req models.FinalizeRequest) (*models.GenerateResponse, error) {
	f.calls <- req
	<-f.release
	if f.err != nil {
		return nil, f.err
	}
	return &models.GenerateResponse{Success: true, ArmyName: "DG", Faction: "Death Guard", Format: req.Format, Content: "sheet"}, nil
}

type result struct {
	art *models.Artifact
	err error
}

func TestSubmitter_RejectsSecondSubmitWhilePending(t *testing.T) {
	f := &blockingFinalizer{calls: make(chan models.FinalizeRequest, 2), release: make(chan struct{})}
	s := NewSubmitter(f)
	results := make(chan result, 2)
	done := func(a *models.Artifact, err error) { results <- result{a, err} }

	req := models.FinalizeRequest{ArmyList: "x", Format: models.FormatHTML}
	require.NoError(t, s.Start(context.Background(), req, done))
	<-f.calls
	assert.True(t, s.busy())

	err := s.Start(context.Background(), req, done)
	assert.True(t, errors.Is(err, ErrInFlight))

	close(f.release)
	select {
	case res := <-results:
		require.NoError(t, res.err)
		assert.Equal(t, "DG (Death Guard)", res.art.DisplayName)
		assert.Equal(t, "dg_cheatsheet.html", res.art.Filename)
	case <-time.After(2 * time.Second):
		t.Fatal("submission never completed")
	}
	assert.False(t, s.busy())
	assert.Len(t, f.calls, 0, "second submit must not reach the service")
}

func TestSubmitter_PropagatesFailureAndFreesSlot(t *testing.T) {
	f := &blockingFinalizer{calls: make(chan models.FinalizeRequest, 2), release: make(chan struct{}), err: errors.New("boom")}
	close(f.release)
	s := NewSubmitter(f)
	results := make(chan result, 1)

	require.NoError(t, s.Start(context.Background(), models.FinalizeRequest{}, func(a *models.Artifact, err error) { results <- result{a, err} }))
	res := <-results
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "boom")
	assert.Nil(t, res.art)

	require.NoError(t, s.Start(context.Background(), models.FinalizeRequest{}, func(a *models.Artifact, err error) { results <- result{a, err} }))
	<-results
}
