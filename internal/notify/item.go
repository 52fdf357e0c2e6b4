// Package notify marks dashboard notifications as read. A trigger issues one
// CSRF-protected POST to the server and only changes the notification's
// visual state once the server has confirmed the transition.
package notify

import "errors"

// State is a notification's read state.
type State int

const (
	Unread State = iota
	Read
)

func (s State) String() string {
	if s == Read {
		return "read"
	}
	return "unread"
}

// Appearance is the visual change applied to a notification control.
type Appearance struct {
	// Opacity is applied to the closest .notification-item container.
	Opacity string
	// Label replaces the control's text.
	Label string
	// RemoveClass and AddClass swap the control's emphasis.
	RemoveClass string
	AddClass    string
	// Disable turns the control off so no further clicks dispatch.
	Disable bool
}

// ReadAppearance is the terminal "read" look.
var ReadAppearance = Appearance{
	Opacity:     "0.5",
	Label:       "Read",
	RemoveClass: "btn-outline-primary",
	AddClass:    "btn-outline-secondary",
	Disable:     true,
}

// Page markup the updater binds to.
const (
	ControlClass   = "mark-notification-read"
	ItemClass      = "notification-item"
	IDAttribute    = "data-notification-id"
	defaultPath    = "/notification/read/{id}/"
	idPlaceholder  = "{id}"
	defaultCookie  = "csrftoken"
	defaultHeader  = "X-CSRFToken"
	maxDrainedBody = 64 << 10
)

var (
	// ErrMissingToken means the cookie store had no anti-forgery token.
	ErrMissingToken = errors.New("csrf token cookie not present")
	// ErrMissingID means the control carried no notification id.
	ErrMissingID = errors.New("notification id is empty")
	// ErrInFlight means a request for the same id is still awaiting a response.
	ErrInFlight = errors.New("mark-read request already in flight")
)
