package ingest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viktsys/utsref/config"
	"github.com/viktsys/utsref/database"
	"github.com/viktsys/utsref/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "db.sqlite3"),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestContractRows(t *testing.T) {
	rows := ContractRows([]Contract{
		{Ticker: "IF2401", EndDate: "20240119"},
		{Ticker: "IO2401-C-3000", EndDate: "20240119"},
	})

	want := []models.CFFEXContract{
		{Index: 0, Ticker: "IF2401", EndDate: "20240119"},
		{Index: 1, Ticker: "IO2401-C-3000", EndDate: "20240119"},
	}
	assert.Equal(t, want, rows)
}

func TestReplaceContractsRerunReplaces(t *testing.T) {
	db := openTestDB(t)
	processor := NewProcessor(db)
	ctx := context.Background()

	require.NoError(t, processor.ReplaceContracts(ctx, []Contract{
		{Ticker: "IF2401", EndDate: "20240119"},
		{Ticker: "IF2402", EndDate: "20240216"},
	}))
	require.NoError(t, processor.ReplaceContracts(ctx, []Contract{
		{Ticker: "IO2403-P-3500", EndDate: "20240315"},
	}))

	var rows []models.CFFEXContract
	require.NoError(t, db.Find(&rows).Error)
	assert.Equal(t, []models.CFFEXContract{{Index: 0, Ticker: "IO2403-P-3500", EndDate: "20240315"}}, rows)
}

func TestReplaceBrokerTables(t *testing.T) {
	db := openTestDB(t)
	processor := NewProcessor(db)
	ctx := context.Background()

	bf, err := DecodeBrokerFile(strings.NewReader(gbk(t, sampleBrokerXML)))
	require.NoError(t, err)

	require.NoError(t, processor.ReplaceBrokerTables(ctx, bf))
	// second run over the same input must not duplicate rows
	require.NoError(t, processor.ReplaceBrokerTables(ctx, bf))

	var md []models.CTPMDServer
	require.NoError(t, db.Order(`"index"`).Find(&md).Error)
	assert.Len(t, md, 5)
	assert.Equal(t, "上期技术电信11", md[0].Name)
	assert.Equal(t, "180.168.146.187:10131", md[0].Address)

	var trade []models.CTPTradeServer
	require.NoError(t, db.Order(`"index"`).Find(&trade).Error)
	require.Len(t, trade, 4)
	assert.Equal(t, "180.168.146.187:10130,180.168.146.187:10101", trade[0].TradeServer)
	assert.Equal(t, "9999", trade[0].BrokerID)

	infos, err := database.NewConfigDB(db).BrokerInfos(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"180.168.146.187:10130", "180.168.146.187:10101"}, infos[0].TradeServerAddr)
}
