package jobs

import (
	"context"
	"log"
	"time"

	"ClinicLink360/services"

	"github.com/robfig/cron/v3"
)

// StartSessionSweeper schedules the nightly purge of expired session
// documents. Validation already rejects expired sessions lazily; the
// sweep only reclaims the records.
func StartSessionSweeper(sessions services.SessionStore) *cron.Cron {
	c := cron.New()

	// Runs every day at 00:05 AM
	c.AddFunc("5 0 * * *", func() {
		log.Println("Running expired session sweep...")
		PurgeExpiredSessions(sessions)
	})

	c.Start()
	return c
}

func PurgeExpiredSessions(sessions services.SessionStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := sessions.DeleteExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		log.Println("Error purging expired sessions:", err)
		return
	}
	log.Println("Purged expired sessions:", deleted)
}
