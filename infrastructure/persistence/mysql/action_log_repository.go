package mysql

import (
	"context"

	"gorm.io/gorm"

	"musicstore/domain/core/entities"
)

type ActionLogRepository struct {
	db *gorm.DB
}

func NewActionLogRepository(db *gorm.DB) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

func (r *ActionLogRepository) Append(ctx context.Context, entry *entities.ActionLog) error {
	return dbError("append action log", r.db.WithContext(ctx).Create(entry).Error)
}

func newestFirst(tx *gorm.DB) *gorm.DB {
	return tx.Order("DateTime DESC")
}

func (r *ActionLogRepository) List(ctx context.Context) ([]entities.ActionLog, error) {
	var entries []entities.ActionLog
	err := r.db.WithContext(ctx).Scopes(newestFirst).Find(&entries).Error
	return entries, dbError("list action logs", err)
}

func (r *ActionLogRepository) Truncate(ctx context.Context) error {
	err := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.ActionLog{}).Error
	return dbError("truncate action logs", err)
}
