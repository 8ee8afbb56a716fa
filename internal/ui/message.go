package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jukebox/internal/listing"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
//
// Messages that belong to one screen carry its entity name so the [Model] can route them even when that screen
// is not shown.
type Msg struct {
	kind   MsgKind
	entity string
	data   any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgActivated MsgKind = iota
	MsgStateChanged
	MsgActionDone
	MsgDetailsFetched
	MsgToast
	MsgToastExpired
)

// activatedMsg is the constructor for [MsgActivated]
func activatedMsg(entity string, err error) Msg {
	return Msg{kind: MsgActivated, entity: entity, data: err}
}

// stateChangedMsg is the constructor for [MsgStateChanged]; state is a listing.State of the screen's entity.
// ok is false once the subscription has ended.
func stateChangedMsg(entity string, state any, ok bool) Msg {
	return Msg{
		kind:   MsgStateChanged,
		entity: entity,
		data: struct {
			state any
			ok    bool
		}{state, ok},
	}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(entity, action string, err error) Msg {
	return Msg{
		kind:   MsgActionDone,
		entity: entity,
		data: struct {
			action string
			err    error
		}{action, err},
	}
}

// detailsFetchedMsg is the constructor for [MsgDetailsFetched]
func detailsFetchedMsg(entity string, id int64, record any, err error) Msg {
	return Msg{
		kind:   MsgDetailsFetched,
		entity: entity,
		data: struct {
			id     int64
			record any
			err    error
		}{id, record, err},
	}
}

// toastMsg is the constructor for [MsgToast]
func toastMsg(n listing.Notification) Msg {
	return Msg{kind: MsgToast, data: n}
}

// toastExpiredMsg is the constructor for [MsgToastExpired]
func toastExpiredMsg(id int) Msg {
	return Msg{kind: MsgToastExpired, data: id}
}
