package entities

import (
	"time"

	"github.com/google/uuid"
)

// ActionLog records one executed controller action.
type ActionLog struct {
	ActionLogID string    `json:"actionLogId" dynamodbav:"action_log_id" gorm:"column:ActionLogId;primaryKey"`
	Controller  string    `json:"controller" dynamodbav:"controller" gorm:"column:Controller"`
	Action      string    `json:"action" dynamodbav:"action" gorm:"column:Action"`
	IP          string    `json:"ip" dynamodbav:"ip" gorm:"column:IP"`
	DateTime    time.Time `json:"dateTime" dynamodbav:"date_time" gorm:"column:DateTime"`
}

func (ActionLog) TableName() string { return "ActionLogs" }

// NewActionLog stamps a new entry with a fresh ID.
func NewActionLog(controller, action, ip string, at time.Time) *ActionLog {
	return &ActionLog{
		ActionLogID: uuid.NewString(),
		Controller:  controller,
		Action:      action,
		IP:          ip,
		DateTime:    at.UTC(),
	}
}
