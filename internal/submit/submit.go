// Package submit turns the final attachment board into the finalizing request
// and sends it, one request at a time.
package submit

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/pefman/w40k-cheatsheet/internal/models"
	"github.com/pefman/w40k-cheatsheet/internal/roster"
)

var ErrInFlight = errors.New("a submission is already in progress")

// Payload maps each attached leader to the label of its unit. Unattached
// leaders are left out.
func Payload(r *roster.Roster, attachments map[string]roster.UnitID) map[string]string {
	out := make(map[string]string, len(attachments))
	for leader, id := range attachments {
		if label, ok := r.Label(id); ok {
			out[leader] = label
		}
	}
	return out
}

// Build combines the original request with the chosen attachments.
func Build(orig models.GenerateRequest, r *roster.Roster, attachments map[string]roster.UnitID) models.FinalizeRequest {
	return models.FinalizeRequest{
		ArmyList:    orig.ArmyList,
		Format:      orig.Format,
		Attachments: Payload(r, attachments),
	}
}

// Finalizer is the generation service side of a submission.
type Finalizer interface {
	Finalize(ctx context.Context, req models.FinalizeRequest) (*models.GenerateResponse, error)
}

// Submitter allows a single outstanding submission.
type Submitter struct {
	svc  Finalizer
	slot *semaphore.Weighted
}

func NewSubmitter(svc Finalizer) *Submitter {
	return &Submitter{svc: svc, slot: semaphore.NewWeighted(1)}
}

// Start sends req in the background and calls done with the outcome. It
// returns ErrInFlight without sending when a previous submission is pending.
func (s *Submitter) Start(ctx context.Context, req models.FinalizeRequest, done func(*models.Artifact, error)) error {
	if !s.slot.TryAcquire(1) {
		return ErrInFlight
	}
	go func() {
		art, err := s.send(ctx, req)
		s.slot.Release(1)
		done(art, err)
	}()
	return nil
}

// busy reports whether a submission is pending.
func (s *Submitter) busy() bool {
	if s.slot.TryAcquire(1) {
		s.slot.Release(1)
		return false
	}
	return true
}

func (s *Submitter) send(ctx context.Context, req models.FinalizeRequest) (*models.Artifact, error) {
	resp, err := s.svc.Finalize(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "finalize attachments")
	}
	return models.ArtifactFrom(resp), nil
}
