package domain

import "time"

// ProxyRecord is a row of the proxies table read by the database source.
type ProxyRecord struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Address   string    `gorm:"size:255;not null;default:''"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ProxyRecord) TableName() string {
	return "proxies"
}
