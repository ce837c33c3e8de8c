package chat

import "time"

// FormatTime renders a message time as HH:MM for today and DD/MM HH:MM for
// older days, in now's location. A zero t is a timestamp the server has not
// assigned yet and shows as now.
func FormatTime(t, now time.Time) string {
	if t.IsZero() {
		t = now
	}
	t = t.In(now.Location())

	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return t.Format("15:04")
	}
	return t.Format("02/01 15:04")
}
