package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel 软删除字段不对外输出；进度与路径重置时使用 Unscoped 硬删除
// swagger:model
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// NewEventID 服务端生成的事件 ID，与客户端上报的 eventId 同为 UUID 字符串
func NewEventID() string {
	return uuid.NewString()
}
