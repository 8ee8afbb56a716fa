package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jukebox/internal/listing"
)

const (
	toastTTL   = 4 * time.Second
	maxToasts  = 3
	queueDepth = 16
)

// ToastQueue is the [listing.Notifier] given to every controller the TUI drives. Notify never blocks: when the
// queue is full the notification is dropped.
type ToastQueue struct {
	ch chan listing.Notification
}

var _ listing.Notifier = (*ToastQueue)(nil)

func NewToastQueue() *ToastQueue {
	return &ToastQueue{ch: make(chan listing.Notification, queueDepth)}
}

func (q *ToastQueue) Notify(n listing.Notification) {
	select {
	case q.ch <- n:
	default:
	}
}

// wait delivers the next notification as a [MsgToast].
func (q *ToastQueue) wait() tea.Cmd {
	return func() tea.Msg {
		return toastMsg(<-q.ch)
	}
}

type toast struct {
	id int
	listing.Notification
}

func expireToast(id int) tea.Cmd {
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg(id) })
}
