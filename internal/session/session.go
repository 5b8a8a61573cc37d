// Package session runs one user's round-trip: form, generation, attachment
// selection and final submission. Every event is handled on the Run loop, so
// the selection state never sees concurrent changes.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pefman/w40k-cheatsheet/internal/api"
	"github.com/pefman/w40k-cheatsheet/internal/attach"
	"github.com/pefman/w40k-cheatsheet/internal/models"
	"github.com/pefman/w40k-cheatsheet/internal/selection"
	"github.com/pefman/w40k-cheatsheet/internal/stats"
	"github.com/pefman/w40k-cheatsheet/internal/submit"
)

type Phase string

const (
	PhaseForm       Phase = "form"
	PhaseLoading    Phase = "loading"
	PhaseSelecting  Phase = "selecting"
	PhaseSubmitting Phase = "submitting"
	PhaseResult     Phase = "result"
)

const (
	MsgState    = "state"
	MsgRejected = "rejected"
	MsgExample  = "example"

	defaultGenerateError = "An error occurred while generating the cheat sheet"
	defaultFinalizeError = "Error generating cheat sheet with attachments"
)

var ErrClosed = errors.New("session closed")

// Service is the generation service as seen by a session.
type Service interface {
	Generate(ctx context.Context, req models.GenerateRequest) (*models.GenerateResponse, error)
	submit.Finalizer
}

// Snapshot is everything the client needs to draw the current screen.
type Snapshot struct {
	Phase     Phase                   `json:"phase"`
	Request   *models.GenerateRequest `json:"request,omitempty"`
	Selectors []selection.Selector    `json:"selectors,omitempty"`
	Result    *models.Artifact        `json:"result,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

type Rejection struct {
	Message string `json:"message"`
}

// Emitter delivers messages to the client. It is only called from Run.
type Emitter func(models.WsMsg)

type Options struct {
	MaxListBytes int64
}

type Session struct {
	ID string

	svc       Service
	submitter *submit.Submitter
	validate  *validator.Validate
	emit      Emitter
	log       *logrus.Entry
	opts      Options

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup

	// owned by the Run loop
	phase   Phase
	seq     int
	request *models.GenerateRequest
	picker  *selection.Synchronizer
	result  *models.Artifact
	errMsg  string
}

func New(svc Service, emit Emitter, logger logrus.FieldLogger, opts Options) *Session {
	id := uuid.NewString()
	return &Session{
		ID:        id,
		svc:       svc,
		submitter: submit.NewSubmitter(svc),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		emit:      emit,
		log:       logger.WithField("session", id),
		opts:      opts,
		events:    make(chan Event, 16),
		done:      make(chan struct{}),
		phase:     PhaseForm,
	}
}

// Dispatch queues ev for the loop. It fails once Run has returned.
func (s *Session) Dispatch(ev Event) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// Run handles events until ctx is cancelled. Pending network calls are
// cancelled and waited for before Run returns.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.wg.Wait()
		close(s.done)
	}()
	s.emitState()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.events:
			s.handle(ctx, ev)
		}
	}
}

func (s *Session) handle(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case Generate:
		s.onGenerate(ctx, e)
	case generated:
		s.onGenerated(e)
	case Select:
		s.onSelect(selection.Change(e))
	case Cancel:
		s.onCancel()
	case Submit:
		s.onSubmit(ctx)
	case finalized:
		s.onFinalized(e)
	case Reset:
		s.onReset()
	case Example:
		s.emit(models.WsMsg{Type: MsgExample, Data: models.GenerateRequest{ArmyList: ExampleArmyList, Format: models.FormatHTML}})
	case Malformed:
		s.reject(e.Message)
	default:
		s.log.Warnf("session: unhandled event %T", ev)
	}
}

func (s *Session) onGenerate(ctx context.Context, e Generate) {
	if s.phase == PhaseSubmitting {
		s.reject("Please wait for the current submission to finish")
		return
	}
	req, problem := s.parseRequest(e)
	if problem != "" {
		s.reject(problem)
		return
	}
	// a new top-level request drops the attachment UI and any pending answer
	s.seq++
	s.phase = PhaseLoading
	s.request = &req
	s.picker = nil
	s.result = nil
	s.errMsg = ""
	s.emitState()

	seq := s.seq
	s.log.WithFields(logrus.Fields{"format": req.Format, "bytes": len(req.ArmyList)}).Info("generate requested")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		resp, err := s.svc.Generate(ctx, req)
		s.post(ctx, generated{seq: seq, resp: resp, err: err})
	}()
}

// parseRequest returns the request or a message for the user.
func (s *Session) parseRequest(e Generate) (models.GenerateRequest, string) {
	format, ok := models.ParseFormat(e.Format)
	if !ok {
		return models.GenerateRequest{}, fmt.Sprintf("Unsupported format %q", e.Format)
	}
	if strings.TrimSpace(e.ArmyList) == "" {
		return models.GenerateRequest{}, "Please provide an army list"
	}
	if s.opts.MaxListBytes > 0 && int64(len(e.ArmyList)) > s.opts.MaxListBytes {
		return models.GenerateRequest{}, "Army list is too large"
	}
	req := models.GenerateRequest{ArmyList: e.ArmyList, Format: format}
	if err := s.validate.Struct(req); err != nil {
		return models.GenerateRequest{}, "Invalid request: " + err.Error()
	}
	return req, ""
}

func (s *Session) onGenerated(e generated) {
	if e.seq != s.seq || s.phase != PhaseLoading {
		s.log.Debug("dropping stale generate response")
		return
	}
	switch {
	case e.err != nil:
		stats.RecordGenerate("initial", "error")
		s.log.WithError(e.err).Warn("generate failed")
		s.phase = PhaseForm
		s.errMsg = userMessage(e.err, defaultGenerateError)
	case e.resp.RequiresAttachmentSelection:
		stats.RecordGenerate("initial", "prompt")
		s.picker = selection.New(e.resp.AvailableUnits, e.resp.LeadersData)
		s.phase = PhaseSelecting
		s.log.WithFields(logrus.Fields{"units": len(e.resp.AvailableUnits), "leaders": len(e.resp.LeadersData)}).Info("attachment selection required")
	default:
		stats.RecordGenerate("initial", "sheet")
		s.result = models.ArtifactFrom(e.resp)
		s.phase = PhaseResult
	}
	s.emitState()
}

func (s *Session) onSelect(ch selection.Change) {
	if s.phase != PhaseSelecting {
		s.reject("No attachment selection in progress")
		return
	}
	if _, err := s.picker.Apply(ch); err != nil {
		var conflict *attach.ConflictError
		if errors.As(err, &conflict) {
			stats.RecordSelection("conflict")
		} else {
			stats.RecordSelection("invalid")
		}
		s.log.WithError(err).Debug("selection rejected")
		s.reject(userMessage(err, "Invalid selection"))
		return
	}
	stats.RecordSelection("applied")
	s.emitState()
}

func (s *Session) onCancel() {
	switch s.phase {
	case PhaseSelecting, PhaseLoading:
		s.seq++
		s.picker = nil
		s.phase = PhaseForm
		s.errMsg = ""
		s.emitState()
	case PhaseSubmitting:
		s.reject("A submitted request cannot be cancelled")
	default:
		s.reject("Nothing to cancel")
	}
}

func (s *Session) onSubmit(ctx context.Context) {
	if s.phase == PhaseSubmitting {
		s.reject(submit.ErrInFlight.Error())
		return
	}
	if s.phase != PhaseSelecting {
		s.reject("No attachment selection in progress")
		return
	}
	board := s.picker.Board()
	req := submit.Build(*s.request, board.Roster(), board.Attachments())
	seq := s.seq
	s.wg.Add(1)
	err := s.submitter.Start(ctx, req, func(a *models.Artifact, err error) {
		defer s.wg.Done()
		s.post(ctx, finalized{seq: seq, artifact: a, err: err})
	})
	if err != nil {
		s.wg.Done()
		s.reject(err.Error())
		return
	}
	stats.RecordSubmit(len(req.Attachments))
	s.log.WithField("attachments", req.Attachments).Info("attachments submitted")
	s.picker = nil
	s.phase = PhaseSubmitting
	s.emitState()
}

func (s *Session) onFinalized(e finalized) {
	if e.seq != s.seq || s.phase != PhaseSubmitting {
		s.log.Debug("dropping stale finalize response")
		return
	}
	if e.err != nil {
		stats.RecordGenerate("finalize", "error")
		s.log.WithError(e.err).Warn("finalize failed")
		s.phase = PhaseForm
		s.errMsg = userMessage(e.err, defaultFinalizeError)
	} else {
		stats.RecordGenerate("finalize", "sheet")
		s.result = e.artifact
		s.phase = PhaseResult
	}
	s.emitState()
}

func (s *Session) onReset() {
	if s.phase == PhaseSubmitting {
		s.reject("Please wait for the current submission to finish")
		return
	}
	s.seq++
	s.phase = PhaseForm
	s.request = nil
	s.picker = nil
	s.result = nil
	s.errMsg = ""
	s.emitState()
}

// snapshot describes the current screen. Only call it from the loop.
func (s *Session) snapshot() Snapshot {
	snap := Snapshot{Phase: s.phase, Error: s.errMsg}
	// the list can be large and only the form shows it
	if s.phase == PhaseForm {
		snap.Request = s.request
	}
	if s.phase == PhaseSelecting && s.picker != nil {
		snap.Selectors = s.picker.View().Selectors
	}
	if s.phase == PhaseResult {
		snap.Result = s.result
	}
	return snap
}

func (s *Session) emitState() {
	s.emit(models.WsMsg{Type: MsgState, Data: s.snapshot()})
}

func (s *Session) reject(msg string) {
	s.emit(models.WsMsg{Type: MsgRejected, Data: Rejection{Message: msg}})
}

func (s *Session) post(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

// userMessage renders transport and service failures the same way the
// browser used to show them.
func userMessage(err error, fallback string) string {
	var te *api.TransportError
	if errors.As(err, &te) {
		return "Network error: " + te.Err.Error()
	}
	var se *api.ServiceError
	if errors.As(err, &se) {
		if se.Message != "" {
			return se.Message
		}
		return fallback
	}
	var conflict *attach.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Error()
	}
	if errors.Is(err, attach.ErrIncompatible) {
		return "That unit cannot be joined by this leader"
	}
	return fallback
}
