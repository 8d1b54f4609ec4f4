package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
)

const sampleCSV = `交易参数表 2024-01-15
合约代码,合约月份,挂盘基准价,上市日,最后交易日,涨停板幅度
IF2401 ,202401,3400.0,20230519,20240119,10%
IH2401,202401,2400.0,20230519,20240119,10%
IO2401-C-3000,202401,400.0,20230519,20240119,10%
`

func gbk(t *testing.T, s string) string {
	t.Helper()
	out, err := simplifiedchinese.GBK.NewEncoder().String(s)
	if err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}
	return out
}

func TestParseContractCSVFiltersByPrefix(t *testing.T) {
	contracts, err := ParseContractCSV(strings.NewReader(sampleCSV), "IF", "IO")
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	want := []Contract{
		{Ticker: "IF2401", EndDate: "20240119"},
		{Ticker: "IO2401-C-3000", EndDate: "20240119"},
	}
	if len(contracts) != len(want) {
		t.Fatalf("Expected %d contracts, got %d: %v", len(want), len(contracts), contracts)
	}
	for i := range want {
		if contracts[i] != want[i] {
			t.Errorf("contract %d = %+v, want %+v", i, contracts[i], want[i])
		}
	}

	m := ContractMap(contracts)
	if _, ok := m["IH2401"]; ok {
		t.Error("Expected IH2401 to be filtered out")
	}
	if m["IO2401-C-3000"] != "20240119" {
		t.Errorf("Expected IO expiry 20240119, got %q", m["IO2401-C-3000"])
	}
}

func TestParseContractCSVDuplicateCodeKeepsPosition(t *testing.T) {
	csv := "title\n合约代码,最后交易日\nIF2401,20240119\nIF2402,20240216\nIF2401,20240120\n"

	contracts, err := ParseContractCSV(strings.NewReader(csv), "IF")
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	if len(contracts) != 2 {
		t.Fatalf("Expected 2 contracts, got %v", contracts)
	}
	if contracts[0].Ticker != "IF2401" || contracts[0].EndDate != "20240120" {
		t.Errorf("Expected IF2401 first with later end date, got %+v", contracts[0])
	}
}

func TestParseContractCSVMissingColumn(t *testing.T) {
	csv := "title\n合约代码,合约月份\nIF2401,202401\n"

	_, err := ParseContractCSV(strings.NewReader(csv), "IF")
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("Expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), "最后交易日") {
		t.Errorf("Expected column name in error, got %v", err)
	}
}

func TestFetcherURL(t *testing.T) {
	f := NewFetcher("", time.Second)
	day := time.Date(2024, 1, 5, 9, 0, 0, 0, time.Local)

	want := "http://www.cffex.com.cn/sj/jycs/202401/05/20240105_1.csv"
	if got := f.URL(day); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestFetchCFFEXContracts(t *testing.T) {
	body := gbk(t, sampleCSV)
	var requested string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Header().Set("Content-Type", "text/csv; charset=gbk")
		w.Write([]byte(body))
	}))
	defer server.Close()

	f := NewFetcher(server.URL+"/", 5*time.Second)
	f.Now = func() time.Time { return time.Date(2024, 1, 15, 8, 30, 0, 0, time.Local) }

	contracts, err := f.FetchCFFEXContracts(context.Background(), "IF", "IO")
	if err != nil {
		t.Fatalf("Failed to fetch contracts: %v", err)
	}

	if requested != "/sj/jycs/202401/15/20240115_1.csv" {
		t.Errorf("Unexpected request path %q", requested)
	}
	if len(contracts) != 2 || contracts[0].Ticker != "IF2401" || contracts[1].Ticker != "IO2401-C-3000" {
		t.Errorf("Unexpected contracts %v", contracts)
	}
}

func TestFetchCFFEXContractsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := NewFetcher(server.URL, 5*time.Second)

	_, err := f.FetchCFFEXContracts(context.Background(), "IF")
	if err == nil {
		t.Fatal("Expected error for 404 response, got nil")
	}
	if !strings.Contains(err.Error(), "unexpected status") {
		t.Errorf("Expected status error, got %v", err)
	}
}
