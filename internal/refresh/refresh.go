// Package refresh drives periodic cache invalidation for long-running
// watch sessions. It only marks listings stale; the next read refetches.
package refresh

import (
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Invalidator is the slice of the session the refresher needs.
type Invalidator interface {
	InvalidateLists()
}

// Refresher invalidates list-kind cache entries on a cron schedule.
type Refresher struct {
	c *cron.Cron
}

// New builds a Refresher from a cron-style spec (e.g. "*/15 * * * *").
func New(spec string, inv Invalidator) (*Refresher, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		log.Debug("scheduled refresh: invalidating cached listings")
		inv.InvalidateLists()
	})
	if err != nil {
		return nil, err
	}
	return &Refresher{c: c}, nil
}

// Start begins the schedule in a background goroutine.
func (r *Refresher) Start() {
	r.c.Start()
}

// Stop halts the schedule. Running jobs finish; none are interrupted.
func (r *Refresher) Stop() {
	r.c.Stop()
}
