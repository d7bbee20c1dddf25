package adapter

import (
	"github.com/and161185/autofill-glue/internal/model"
	"github.com/and161185/autofill-glue/internal/signin"
)

// Kind tags an Event variant.
type Kind int

// Event kinds, in no particular order.
const (
	KindItemSelected Kind = iota + 1
	KindAccountSelected
	KindEditingStart
	KindEditingComplete
	KindEditingCancel
	KindDialogSubmit
	KindDialogCancel
	KindSignInContinued
)

func (k Kind) String() string {
	switch k {
	case KindItemSelected:
		return "item_selected"
	case KindAccountSelected:
		return "account_selected"
	case KindEditingStart:
		return "editing_start"
	case KindEditingComplete:
		return "editing_complete"
	case KindEditingCancel:
		return "editing_cancel"
	case KindDialogSubmit:
		return "dialog_submit"
	case KindDialogCancel:
		return "dialog_cancel"
	case KindSignInContinued:
		return "signin_continued"
	default:
		return "unknown"
	}
}

// Event is a presentation→controller interaction. The set of variants is closed.
type Event interface {
	Kind() Kind
	sealed()
}

// ItemSelected reports a menu row choice.
type ItemSelected struct {
	Section model.SectionID
	Index   int
}

// AccountSelected reports an account chooser choice.
type AccountSelected struct{ Index int }

// EditingStart reports that the user began editing a section.
type EditingStart struct{ Section model.SectionID }

// EditingComplete reports that the user committed edits to a section.
type EditingComplete struct{ Section model.SectionID }

// EditingCancel reports that the user abandoned edits to a section.
type EditingCancel struct{ Section model.SectionID }

// DialogSubmit reports the submit action.
type DialogSubmit struct{}

// DialogCancel reports the cancel action.
type DialogCancel struct{}

// SignInContinued carries the terminal result of a sign-in generation.
// Empty Credentials mean the attempt failed.
type SignInContinued struct {
	Generation  signin.Generation
	Credentials model.Credentials
}

func (ItemSelected) Kind() Kind    { return KindItemSelected }
func (AccountSelected) Kind() Kind { return KindAccountSelected }
func (EditingStart) Kind() Kind    { return KindEditingStart }
func (EditingComplete) Kind() Kind { return KindEditingComplete }
func (EditingCancel) Kind() Kind   { return KindEditingCancel }
func (DialogSubmit) Kind() Kind    { return KindDialogSubmit }
func (DialogCancel) Kind() Kind    { return KindDialogCancel }
func (SignInContinued) Kind() Kind { return KindSignInContinued }

func (ItemSelected) sealed()    {}
func (AccountSelected) sealed() {}
func (EditingStart) sealed()    {}
func (EditingComplete) sealed() {}
func (EditingCancel) sealed()   {}
func (DialogSubmit) sealed()    {}
func (DialogCancel) sealed()    {}
func (SignInContinued) sealed() {}
