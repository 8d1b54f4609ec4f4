package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/viktsys/utsref/database"
	"github.com/viktsys/utsref/logger"
	"github.com/viktsys/utsref/models"
	"gorm.io/gorm"
)

// Processor writes fetched or parsed reference data into the config database.
// Every write replaces the target tables wholesale.
type Processor struct {
	db *gorm.DB
}

func NewProcessor(db *gorm.DB) *Processor {
	if db == nil {
		db = database.DB
	}
	return &Processor{db: db}
}

// ContractRows converts contracts into cffex_contracts rows.
func ContractRows(contracts []Contract) []models.CFFEXContract {
	rows := make([]models.CFFEXContract, 0, len(contracts))
	for i, c := range contracts {
		rows = append(rows, models.CFFEXContract{
			Index:   int64(i),
			Ticker:  c.Ticker,
			EndDate: c.EndDate,
		})
	}
	return rows
}

// ReplaceContracts rewrites cffex_contracts.
func (p *Processor) ReplaceContracts(ctx context.Context, contracts []Contract) error {
	start := time.Now()

	if err := database.ReplaceTable(ctx, p.db, ContractRows(contracts)); err != nil {
		return fmt.Errorf("failed to replace cffex_contracts: %w", err)
	}

	logger.Infof("Replaced cffex_contracts with %d rows (took %v)", len(contracts), time.Since(start))
	return nil
}

// ReplaceBrokerTables rewrites ctp_md_server and ctp_trade_server in one transaction.
func (p *Processor) ReplaceBrokerTables(ctx context.Context, bf *BrokerFile) error {
	start := time.Now()
	mdRows := bf.MDServerRows()
	tradeRows := bf.TradeServerRows()

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ReplaceTable(ctx, tx, mdRows); err != nil {
			return fmt.Errorf("failed to replace ctp_md_server: %w", err)
		}
		if err := database.ReplaceTable(ctx, tx, tradeRows); err != nil {
			return fmt.Errorf("failed to replace ctp_trade_server: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Infof("Replaced ctp_md_server (%d rows) and ctp_trade_server (%d rows) from %d brokers (took %v)",
		len(mdRows), len(tradeRows), len(bf.Brokers), time.Since(start))
	return nil
}
