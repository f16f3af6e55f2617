package models

import (
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"
)

// JobRun records that one replica took a scheduled job for a slot, such as
// the audit cleanup for a given day. The unique (job, slot) pair is what
// keeps two replicas from both running it.
type JobRun struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Job       string    `gorm:"uniqueIndex:idx_job_run_slot;size:100;not null" json:"job"`
	Slot      string    `gorm:"uniqueIndex:idx_job_run_slot;size:100;not null" json:"slot"`
	Owner     string    `gorm:"size:100" json:"owner"`
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

func (JobRun) TableName() string { return "job_runs" }

// ClaimJobRun inserts the (job, slot) row. It reports false without error
// when another replica holds an unexpired claim. Expired claims for the job
// are purged first so a crashed replica cannot block the slot forever.
func ClaimJobRun(db *gorm.DB, job, slot string, ttl time.Duration, now time.Time) (bool, error) {
	if err := db.Where("job = ? AND expires_at < ?", job, now).Delete(&JobRun{}).Error; err != nil {
		return false, err
	}

	host, _ := os.Hostname()
	run := JobRun{
		Job:       job,
		Slot:      slot,
		Owner:     fmt.Sprintf("%s/%d", host, os.Getpid()),
		StartedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.Create(&run).Error; err != nil {
		if IsDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
