package cron

import (
	"log"

	"github.com/robfig/cron/v3"
	"github.com/ucmsdev/ucms-api/utils/storage"
	"gorm.io/gorm"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron  *cron.Cron
	db    *gorm.DB
	files *storage.Store
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, files *storage.Store) *CronManager {
	return &CronManager{
		cron:  cron.New(cron.WithSeconds()),
		db:    db,
		files: files,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	// Daily at 03:00: sweep upload files no row references anymore.
	// Unlink failures during request handling are best-effort, so files
	// can outlive their rows; this job reclaims them.
	_, err := m.cron.AddFunc("0 0 3 * * *", func() {
		log.Println("[CRON] Starting job: sweep_orphan_uploads")
		if err := m.SweepOrphanUploads(); err != nil {
			log.Printf("[CRON] sweep_orphan_uploads failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}
