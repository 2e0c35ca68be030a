package notifier

import (
	"zone_scheduler/internal/models"
)

// Notifier observes zone events. Implementations must not block for long:
// they run on the caller's goroutine.
type Notifier interface {
	Notify(e models.Event)
}

// Notifiers fans an event out to every notifier in order.
type Notifiers []Notifier

func (n Notifiers) Notify(e models.Event) {
	for _, l := range n {
		l.Notify(e)
	}
}
