package services

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inkwell/sketchblog/models"
)

// DefaultViewWindow is how long a (post, IP) pair stays deduplicated.
const DefaultViewWindow = 24 * time.Hour

// ViewCounter counts a post view at most once per (post, IP) pair within the
// dedup window. The counter increment is an SQL expression so concurrent
// increments never lose updates, and the record insert is an insert-or-ignore
// so two racing requests for the same pair cannot both count.
type ViewCounter struct {
	db     *gorm.DB
	window time.Duration
	now    func() time.Time
}

// NewViewCounter creates a counter with the given dedup window. A zero window
// means DefaultViewWindow.
func NewViewCounter(db *gorm.DB, window time.Duration) *ViewCounter {
	if window <= 0 {
		window = DefaultViewWindow
	}
	return &ViewCounter{db: db, window: window, now: time.Now}
}

// RecordView records a view of postID from clientIP. It returns true when the
// view was counted, false when an un-expired record already blocked it. The
// caller is expected to have verified that the post exists.
func (v *ViewCounter) RecordView(postID uint, clientIP string) (bool, error) {
	now := v.now()
	cutoff := now.Add(-v.window)

	// Fast path: an un-expired record blocks the count outright.
	var blocked int64
	err := v.db.Model(&models.ViewRecord{}).
		Where("post_id = ? AND ip = ? AND viewed_at > ?", postID, clientIP, cutoff).
		Count(&blocked).Error
	if err != nil {
		return false, err
	}
	if blocked > 0 {
		return false, nil
	}

	// Insert-or-ignore guards the gap between the check above and the insert:
	// of two concurrent requests for the same pair, only one adds a row.
	res := v.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "ip"}},
		DoNothing: true,
	}).Create(&models.ViewRecord{PostID: postID, IP: clientIP, ViewedAt: now})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, v.increment(postID)
	}

	// The insert conflicted with an existing row. Either it is expired and
	// should be refreshed, or a concurrent request just counted this pair.
	// The viewed_at guard lets exactly one refresher win.
	upd := v.db.Model(&models.ViewRecord{}).
		Where("post_id = ? AND ip = ? AND viewed_at <= ?", postID, clientIP, cutoff).
		Update("viewed_at", now)
	if upd.Error != nil {
		return false, upd.Error
	}
	if upd.RowsAffected > 0 {
		return true, v.increment(postID)
	}
	return false, nil
}

func (v *ViewCounter) increment(postID uint) error {
	return v.db.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

// SweepExpired deletes view records older than the retention period. It only
// bounds storage; correctness of the dedup never depends on it running.
func (v *ViewCounter) SweepExpired(retention time.Duration) (int64, error) {
	res := v.db.Where("viewed_at < ?", v.now().Add(-retention)).
		Delete(&models.ViewRecord{})
	return res.RowsAffected, res.Error
}
