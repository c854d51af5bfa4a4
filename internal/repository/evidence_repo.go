package repository

import (
	"context"
	"time"

	"leadflow/internal/model"

	"gorm.io/gorm"
)

type EvidenceRepository interface {
	RecordSighting(ctx context.Context, sighting *model.EvidenceSighting, windowStart time.Time) (bool, error)
	DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type evidenceRepository struct {
	db *gorm.DB
}

func NewEvidenceRepository(db *gorm.DB) EvidenceRepository {
	return &evidenceRepository{db: db}
}

// RecordSighting reports whether the (category, hash) key was already seen at or
// after windowStart, then records this sighting. The advisory lock makes the
// lookup and insert atomic per key, so two concurrent submissions of the same
// evidence cannot both come back as first.
func (r *evidenceRepository) RecordSighting(ctx context.Context, sighting *model.EvidenceSighting, windowStart time.Time) (bool, error) {
	var duplicate bool
	err := GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := advisoryLock(tx, "evidence:"+sighting.CategoryID.String()+":"+sighting.ContentHash); err != nil {
			return err
		}

		var prior int64
		if err := tx.Model(&model.EvidenceSighting{}).
			Where("category_id = ? AND content_hash = ? AND seen_at >= ?",
				sighting.CategoryID, sighting.ContentHash, windowStart).
			Count(&prior).Error; err != nil {
			return err
		}
		duplicate = prior > 0

		return tx.Create(sighting).Error
	})
	return duplicate, err
}

func (r *evidenceRepository) DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Where("seen_at < ?", cutoff).Delete(&model.EvidenceSighting{})
	return res.RowsAffected, res.Error
}
