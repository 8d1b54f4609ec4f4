package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viktsys/utsref/config"
	"github.com/viktsys/utsref/database"
	"github.com/viktsys/utsref/models"
)

func setupRouter(t *testing.T, seed bool) *gin.Engine {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "db.sqlite3"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if seed {
		ctx := context.Background()
		require.NoError(t, database.ReplaceTable(ctx, db, []models.CFFEXContract{
			{Index: 0, Ticker: "IF2401", EndDate: "20240119"},
			{Index: 1, Ticker: "IO2401-C-3000", EndDate: "20240119"},
		}))
		require.NoError(t, database.ReplaceTable(ctx, db, []models.CTPMDServer{
			{Index: 0, Name: "上期技术电信11", Address: "tcp://1.1.1.1:10131"},
			{Index: 1, Name: "上期技术电信12", Address: "tcp://1.1.1.2:10131"},
		}))
		require.NoError(t, database.ReplaceTable(ctx, db, []models.CTPTradeServer{
			{Index: 0, Broker: "上期技术", ServerName: "电信1", TradeServer: "1.1.1.1:10130,1.1.1.2:10130", BrokerID: "9999"},
		}))
		latency := 15 * time.Millisecond
		require.NoError(t, database.NewConfigDB(db).AppendSpeedTestResult(ctx, "tcp://1.1.1.2:10131", &latency))
	}

	return SetupRoutes(NewHandler(database.NewConfigDB(db)), gin.TestMode, false)
}

func get(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := get(t, setupRouter(t, false), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetContracts(t *testing.T) {
	r := setupRouter(t, true)

	w := get(t, r, "/api/contracts?product=IO")
	require.Equal(t, http.StatusOK, w.Code)

	var contracts []models.CFFEXContract
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &contracts))
	require.Len(t, contracts, 1)
	assert.Equal(t, "IO2401-C-3000", contracts[0].Ticker)
}

func TestGetBrokers(t *testing.T) {
	w := get(t, setupRouter(t, true), "/api/brokers")
	require.Equal(t, http.StatusOK, w.Code)

	var infos []models.BrokerInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, []string{"1.1.1.1:10130", "1.1.1.2:10130"}, infos[0].TradeServerAddr)
}

func TestMDServerEndpoints(t *testing.T) {
	r := setupRouter(t, true)

	w := get(t, r, "/api/md-servers")
	require.Equal(t, http.StatusOK, w.Code)
	var servers []models.CTPMDServer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &servers))
	assert.Len(t, servers, 2)

	w = get(t, r, "/api/md-servers/untested")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"addresses":["tcp://1.1.1.1:10131"]}`, w.Body.String())

	w = get(t, r, "/api/md-servers/fastest?n=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"addresses":["tcp://1.1.1.2:10131"]}`, w.Body.String())
}

func TestFastestInvalidN(t *testing.T) {
	r := setupRouter(t, true)

	for _, path := range []string{"/api/md-servers/fastest?n=abc", "/api/md-servers/fastest?n=0"} {
		w := get(t, r, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestMissingTableIsServerError(t *testing.T) {
	w := get(t, setupRouter(t, false), "/api/brokers")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}
