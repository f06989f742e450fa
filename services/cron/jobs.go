package cron

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ucmsdev/ucms-api/model"
	"github.com/ucmsdev/ucms-api/utils/storage"
)

// orphanGracePeriod protects in-flight uploads: a file whose row has not
// been committed yet must not be swept.
const orphanGracePeriod = 24 * time.Hour

// SweepOrphanUploads removes stored files that no course image or content
// row references anymore.
func (m *CronManager) SweepOrphanUploads() error {
	referenced := make(map[string]bool)

	var imagePaths []string
	if err := m.db.Model(&model.Course{}).
		Where("image <> ''").
		Pluck("image", &imagePaths).Error; err != nil {
		return err
	}
	for _, p := range imagePaths {
		referenced[p] = true
	}

	var contentPaths []string
	if err := m.db.Model(&model.CourseContent{}).
		Pluck("path", &contentPaths).Error; err != nil {
		return err
	}
	for _, p := range contentPaths {
		referenced[p] = true
	}

	removed := 0
	cutoff := time.Now().Add(-orphanGracePeriod)

	for _, dir := range []string{storage.CourseImageDir, storage.ContentDirBase} {
		root := m.files.Abs(dir)
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if info.IsDir() || info.ModTime().After(cutoff) {
				return nil
			}

			rel, err := filepath.Rel(m.files.Root(), path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)

			if !referenced[rel] {
				if err := os.Remove(path); err != nil {
					log.Printf("[CRON] failed to remove orphan %s: %v", rel, err)
					return nil
				}
				removed++
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	log.Printf("[CRON] sweep_orphan_uploads removed %d files", removed)
	return nil
}
