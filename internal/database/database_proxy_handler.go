package database

import (
	"context"
	"fmt"
	"strings"

	"proxycheck/internal/domain"
	"proxycheck/internal/support"

	"gorm.io/gorm"
)

const insertBatchSize = 500

// ProxySource reads candidate proxies from the proxies table.
type ProxySource struct {
	db *gorm.DB
}

func NewProxySource(db *gorm.DB) *ProxySource {
	return &ProxySource{db: db}
}

// Load returns every stored address in insertion order.
func (source *ProxySource) Load(ctx context.Context) ([]domain.ProxyAddress, error) {
	if source == nil || source.db == nil {
		return nil, ErrNoConnection
	}

	var records []domain.ProxyRecord
	if err := source.db.WithContext(ctx).
		Model(&domain.ProxyRecord{}).
		Select("id", "address").
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("database: load proxies: %w", err)
	}

	addresses := make([]domain.ProxyAddress, 0, len(records))
	for _, record := range records {
		line := support.NormalizeProxyLine(record.Address)
		if line == "" {
			continue
		}
		addresses = append(addresses, domain.ProxyAddress(line))
	}
	return addresses, nil
}

// InsertProxies stores addresses in the order given. Blank entries are skipped.
func InsertProxies(ctx context.Context, db *gorm.DB, addresses []domain.ProxyAddress) (int, error) {
	if db == nil {
		return 0, ErrNoConnection
	}

	records := make([]domain.ProxyRecord, 0, len(addresses))
	for _, address := range addresses {
		trimmed := strings.TrimSpace(address.String())
		if trimmed == "" {
			continue
		}
		records = append(records, domain.ProxyRecord{Address: trimmed})
	}
	if len(records) == 0 {
		return 0, nil
	}

	if err := db.WithContext(ctx).CreateInBatches(&records, insertBatchSize).Error; err != nil {
		return 0, fmt.Errorf("database: insert proxies: %w", err)
	}
	return len(records), nil
}

// CountProxies reports how many rows the proxies table holds.
func CountProxies(ctx context.Context, db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, ErrNoConnection
	}

	var count int64
	if err := db.WithContext(ctx).Model(&domain.ProxyRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("database: count proxies: %w", err)
	}
	return count, nil
}
