package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stn-picking/pkg/enums"
)

// ScanLog is an immutable record of one scan attempt.
type ScanLog struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PickListID     *uuid.UUID       `gorm:"column:pick_list_id;type:uuid"`
	PickListCode   *string          `gorm:"column:pick_list_code"`
	ScannedCode    string           `gorm:"column:scanned_code;not null"`
	ExpectedCode   *string          `gorm:"column:expected_code"`
	ProductCode    *string          `gorm:"column:product_code"`
	IsMatch        bool             `gorm:"column:is_match;not null"`
	ScanResult     enums.ScanResult `gorm:"column:scan_result;type:scan_result;not null"`
	Operator       *string          `gorm:"column:operator"`
	Branch         *string          `gorm:"column:branch"`
	DeviceType     enums.DeviceType `gorm:"column:device_type;type:device_type;not null"`
	ResponseTimeMS *int             `gorm:"column:response_time_ms"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (s *ScanLog) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.DeviceType == "" {
		s.DeviceType = enums.DeviceTypeManual
	}
	return nil
}
