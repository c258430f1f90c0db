// internal/domain/purchase/sequence.go
package purchase

import (
	"errors"
	"fmt"
	"time"

	"github.com/your-org/procurement-backend/internal/pkg/apperror"
	"github.com/your-org/procurement-backend/internal/pkg/dbutil"
	"gorm.io/gorm"
)

// AllocateCode reserves the next purchase order code in the month
// bucket of now, inside the caller's transaction. The sequence row is
// read under a row lock, so two concurrent allocations in the same
// bucket serialize instead of both reading the same last value.
func AllocateCode(tx *gorm.DB, now time.Time) (string, error) {
	bucket := now.Format("0601") // YYMM

	var seq Sequence
	err := dbutil.ForUpdate(tx).First(&seq, "month_bucket = ?", bucket).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		seq = Sequence{MonthBucket: bucket, LastValue: 0}
		// A concurrent first allocation in a fresh bucket hits the
		// primary key here and fails the whole transaction; the caller
		// resubmits.
		if err := tx.Create(&seq).Error; err != nil {
			return "", apperror.Persistence(err, "failed to initialize sequence for bucket %s", bucket)
		}
	case err != nil:
		return "", apperror.Persistence(err, "failed to read sequence for bucket %s", bucket)
	}

	seq.LastValue++
	if err := tx.Model(&Sequence{}).Where("month_bucket = ?", bucket).
		Update("last_value", seq.LastValue).Error; err != nil {
		return "", apperror.Persistence(err, "failed to advance sequence for bucket %s", bucket)
	}

	return fmt.Sprintf("PO-%s-%04d", bucket, seq.LastValue), nil
}
