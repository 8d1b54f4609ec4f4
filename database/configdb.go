package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viktsys/utsref/models"
	"gorm.io/gorm"
)

// ConfigDB reads back the reference tables the way the trading system consumes them,
// and records market-data speed test results.
type ConfigDB struct {
	db *gorm.DB
}

func NewConfigDB(db *gorm.DB) *ConfigDB {
	return &ConfigDB{db: db}
}

// Contracts lists cffex_contracts in index order. An empty prefix returns every row.
func (c *ConfigDB) Contracts(ctx context.Context, prefix string) ([]models.CFFEXContract, error) {
	var contracts []models.CFFEXContract

	if err := c.db.WithContext(ctx).Order(`"index"`).Find(&contracts).Error; err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	if prefix == "" {
		return contracts, nil
	}

	// LIKE is case-insensitive on sqlite, tickers are not
	kept := contracts[:0]
	for _, contract := range contracts {
		if strings.HasPrefix(contract.Ticker, prefix) {
			kept = append(kept, contract)
		}
	}
	return kept, nil
}

func (c *ConfigDB) MDServers(ctx context.Context) ([]models.CTPMDServer, error) {
	var servers []models.CTPMDServer
	if err := c.db.WithContext(ctx).Order(`"index"`).Find(&servers).Error; err != nil {
		return nil, fmt.Errorf("failed to query md servers: %w", err)
	}
	return servers, nil
}

// BrokerInfos returns one entry per ctp_trade_server row with the address list split.
func (c *ConfigDB) BrokerInfos(ctx context.Context) ([]models.BrokerInfo, error) {
	var rows []models.CTPTradeServer
	if err := c.db.WithContext(ctx).Order(`"index"`).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query trade servers: %w", err)
	}

	infos := make([]models.BrokerInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, models.BrokerInfo{
			BrokerName:      row.Broker,
			ServerName:      row.ServerName,
			BrokerID:        row.BrokerID,
			TradeServerAddr: splitAddresses(row.TradeServer),
			AppID:           row.AppID,
			AuthCode:        row.AuthCode,
		})
	}
	return infos, nil
}

// UnSpeedTestedMDServers returns md server addresses with no latency record yet.
func (c *ConfigDB) UnSpeedTestedMDServers(ctx context.Context) ([]string, error) {
	var addrs []string
	err := c.db.WithContext(ctx).Raw(`
		SELECT address FROM ctp_md_server
		WHERE address NOT IN (SELECT address FROM ctp_md_latency)
		ORDER BY "index"
	`).Scan(&addrs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query untested md servers: %w", err)
	}
	return addrs, nil
}

// FastestMDServers returns up to n distinct addresses ordered by their best latency.
// Unreachable results are ignored.
func (c *ConfigDB) FastestMDServers(ctx context.Context, n int) ([]string, error) {
	var addrs []string
	err := c.db.WithContext(ctx).Raw(`
		SELECT address FROM ctp_md_latency
		WHERE latency IS NOT NULL
		GROUP BY address
		ORDER BY MIN(latency) ASC, address ASC
		LIMIT ?
	`, n).Scan(&addrs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query fastest md servers: %w", err)
	}
	return addrs, nil
}

// AppendSpeedTestResult stores one probe. A nil latency records an unreachable server.
func (c *ConfigDB) AppendSpeedTestResult(ctx context.Context, addr string, latency *time.Duration) error {
	row := models.CTPMDLatency{Address: addr}
	if latency != nil {
		ms := latency.Milliseconds()
		row.Latency = &ms
	}
	if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append speed test result for %s: %w", addr, err)
	}
	return nil
}

func splitAddresses(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	addrs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			addrs = append(addrs, p)
		}
	}
	return addrs
}
