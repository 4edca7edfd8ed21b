package queue

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// FailedJobRecord is a job that exhausted its attempts or could not be
// decoded.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID    string    `gorm:"size:64;index"            json:"jobId"`
	JobType  string    `gorm:"size:255;not null;index"  json:"jobType"`
	Payload  string    `gorm:"type:text;not null"       json:"payload"`
	Error    string    `gorm:"type:text"                json:"error"`
	Attempts int       `gorm:"not null;default:0"       json:"attempts"`
	FailedAt time.Time `gorm:"autoCreateTime"           json:"failedAt"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

// FailedStore persists failed jobs.
type FailedStore interface {
	Record(ctx context.Context, rec *FailedJobRecord) error
	List(ctx context.Context, limit int) ([]FailedJobRecord, error)
	Find(ctx context.Context, id uint) (*FailedJobRecord, error)
	Forget(ctx context.Context, id uint) error
}

// FailedJobStore is the gorm-backed FailedStore. The table is created by
// the failed_jobs migration.
type FailedJobStore struct {
	db *gorm.DB
}

func NewFailedJobStore(db *gorm.DB) *FailedJobStore { return &FailedJobStore{db: db} }

func (s *FailedJobStore) Record(ctx context.Context, rec *FailedJobRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// List returns the newest failures first.
func (s *FailedJobStore) List(ctx context.Context, limit int) ([]FailedJobRecord, error) {
	var out []FailedJobRecord
	q := s.db.WithContext(ctx).Order("failed_at desc, id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return out, q.Find(&out).Error
}

func (s *FailedJobStore) Find(ctx context.Context, id uint) (*FailedJobRecord, error) {
	var rec FailedJobRecord
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *FailedJobStore) Forget(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&FailedJobRecord{}, id).Error
}
