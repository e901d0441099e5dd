package market

import "time"

// Session reports whether the market accepts orders at t.
type Session interface {
	IsOpen(t time.Time) bool
}

// FXSession is the retail FX week: closed from Friday 22:00 UTC until
// Sunday 22:00 UTC.
type FXSession struct{}

func (FXSession) IsOpen(t time.Time) bool {
	t = t.UTC()
	switch t.Weekday() {
	case time.Saturday:
		return false
	case time.Friday:
		return t.Hour() < 22
	case time.Sunday:
		return t.Hour() >= 22
	default:
		return true
	}
}

// AlwaysOpen never closes. Useful for synthetic series.
type AlwaysOpen struct{}

func (AlwaysOpen) IsOpen(time.Time) bool { return true }

// SessionByName maps a config value to a Session.
func SessionByName(name string) Session {
	switch name {
	case "always", "24x7":
		return AlwaysOpen{}
	default:
		return FXSession{}
	}
}
