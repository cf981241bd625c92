package directors

import (
	"context"
	"errors"
	"sync"

	"manara-client/domain/directors"
)

// Form session errors.
var (
	ErrFormClosed     = errors.New("form is not open")
	ErrSubmitInFlight = errors.New("a submit is already in flight")
)

// FormState is the create/edit form's lifecycle state.
type FormState int

const (
	FormClosed FormState = iota
	FormCreating
	FormEditing
)

// FormFields are the editable fields of the form. ImagePreview carries
// the existing image reference when editing; it is display-only and the
// image is not re-uploaded unless Image is set.
type FormFields struct {
	Name         string
	Position     string
	ParentID     *int64
	MakeRoot     bool
	Image        *Upload
	ImagePreview string
}

// FormSession is the state machine behind the create/edit modal:
// closed -> open(create) | open(edit) -> closed on cancel or successful
// submit. At most one submit may be in flight per session.
type FormSession struct {
	svc *Service

	mu       sync.Mutex
	state    FormState
	nodeID   int64
	fields   FormFields
	inFlight bool
}

// NewFormSession creates a closed session bound to the service.
func NewFormSession(svc *Service) *FormSession {
	return &FormSession{svc: svc}
}

// State returns the current lifecycle state.
func (f *FormSession) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// OpenCreate opens the form with an empty field set.
func (f *FormSession) OpenCreate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = FormCreating
	f.nodeID = 0
	f.fields = FormFields{}
}

// OpenEdit opens the form pre-filled from the selected node, including
// the existing image as a preview.
func (f *FormSession) OpenEdit(node *directors.Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = FormEditing
	f.nodeID = node.ID
	f.fields = FormFields{
		Name:         node.Name,
		Position:     node.Position,
		ParentID:     node.ParentID,
		MakeRoot:     node.ParentID == nil,
		ImagePreview: node.Image,
	}
}

// Fields returns a copy of the current field values.
func (f *FormSession) Fields() FormFields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// SetFields replaces the editable field values.
func (f *FormSession) SetFields(fields FormFields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fields.ImagePreview = f.fields.ImagePreview
	f.fields = fields
}

// Cancel closes the form, discarding nothing server-side.
func (f *FormSession) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = FormClosed
	f.fields = FormFields{}
	f.nodeID = 0
}

// Submit runs the create or update for the open form. A second submit
// while one is in flight is rejected, and a failed submit keeps the form
// open with the user's input intact.
func (f *FormSession) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.state == FormClosed {
		f.mu.Unlock()
		return ErrFormClosed
	}
	if f.inFlight {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.inFlight = true
	state := f.state
	nodeID := f.nodeID
	fields := f.fields
	f.mu.Unlock()

	var err error
	switch state {
	case FormCreating:
		err = f.svc.Create(ctx, CreateInput{
			Name:     fields.Name,
			Position: fields.Position,
			ParentID: fields.ParentID,
			Image:    fields.Image,
		})
	case FormEditing:
		input := UpdateInput{
			Name:     &fields.Name,
			Position: &fields.Position,
			MakeRoot: fields.MakeRoot,
			Image:    fields.Image,
		}
		if !fields.MakeRoot {
			input.ParentID = fields.ParentID
		}
		err = f.svc.Update(ctx, nodeID, input)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false
	if err != nil {
		return err
	}
	f.state = FormClosed
	f.fields = FormFields{}
	f.nodeID = 0
	return nil
}
