package models

import (
	"time"
)

// The "index" column mirrors the positional index the trading system expects
// as the first column of each reference table.

// CFFEXContract is one row of cffex_contracts.
type CFFEXContract struct {
	Index   int64  `gorm:"column:index;index:ix_cffex_contracts_index" json:"index"`
	Ticker  string `gorm:"column:ticker" json:"ticker"`
	EndDate string `gorm:"column:end_date" json:"end_date"`
}

func (CFFEXContract) TableName() string { return "cffex_contracts" }

// CTPMDServer is one row of ctp_md_server. Name is {broker}{server}{n}.
type CTPMDServer struct {
	Index   int64  `gorm:"column:index;index:ix_ctp_md_server_index" json:"index"`
	Name    string `gorm:"column:name" json:"name"`
	Address string `gorm:"column:address" json:"address"`
}

func (CTPMDServer) TableName() string { return "ctp_md_server" }

// CTPTradeServer is one row of ctp_trade_server. AppID and AuthCode are left
// blank for manual entry.
type CTPTradeServer struct {
	Index       int64  `gorm:"column:index;index:ix_ctp_trade_server_index" json:"index"`
	Broker      string `gorm:"column:broker" json:"broker"`
	ServerName  string `gorm:"column:server_name" json:"server_name"`
	TradeServer string `gorm:"column:trade_server" json:"trade_server"`
	BrokerID    string `gorm:"column:broker_id" json:"broker_id"`
	AppID       string `gorm:"column:AppID" json:"app_id"`
	AuthCode    string `gorm:"column:AuthCode" json:"auth_code"`
}

func (CTPTradeServer) TableName() string { return "ctp_trade_server" }

// CTPMDLatency records one speed test. A nil Latency means the server was unreachable.
type CTPMDLatency struct {
	Datetime time.Time `gorm:"column:datetime;autoCreateTime" json:"datetime"`
	Address  string    `gorm:"column:address;not null" json:"address"`
	Latency  *int64    `gorm:"column:latency" json:"latency_ms"`
}

func (CTPMDLatency) TableName() string { return "ctp_md_latency" }

// BrokerInfo is the read-back view of a ctp_trade_server row.
type BrokerInfo struct {
	BrokerName      string   `json:"broker_name"`
	ServerName      string   `json:"server_name"`
	BrokerID        string   `json:"broker_id"`
	TradeServerAddr []string `json:"trade_server_addr"`
	AppID           string   `json:"app_id"`
	AuthCode        string   `json:"auth_code"`
}
