package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const (
	DefaultCFFEXBaseURL = "http://www.cffex.com.cn"

	codeColumn    = "合约代码"
	endDateColumn = "最后交易日"
)

var ErrMissingColumn = errors.New("missing column")

// Contract is one listed CFFEX contract and its last trading day (YYYYMMDD).
type Contract struct {
	Ticker  string
	EndDate string
}

// Fetcher downloads the daily CFFEX trading-parameter CSV.
type Fetcher struct {
	BaseURL string
	Client  *http.Client
	Now     func() time.Time
}

func NewFetcher(baseURL string, timeout time.Duration) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultCFFEXBaseURL
	}
	return &Fetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		Now:     time.Now,
	}
}

// URL returns the CSV location published for day.
func (f *Fetcher) URL(day time.Time) string {
	return fmt.Sprintf("%s/sj/jycs/%s/%s/%s_1.csv",
		f.BaseURL, day.Format("200601"), day.Format("02"), day.Format("20060102"))
}

// FetchCFFEXContracts downloads today's contract list and keeps the codes starting
// with one of products. Failures are returned as-is, there is no retry.
func (f *Fetcher) FetchCFFEXContracts(ctx context.Context, products ...string) ([]Contract, error) {
	url := f.URL(f.Now())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %s", url, resp.Status)
	}

	body := transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder())
	return ParseContractCSV(body, products...)
}

// ParseContractCSV reads a decoded CFFEX CSV. The first line is a title, the second
// the header. Matching rows keep their file order; a repeated code keeps its first
// position and takes the later end date.
func ParseContractCSV(r io.Reader, products ...string) ([]Contract, error) {
	br := bufio.NewReader(r)
	if _, err := br.ReadString('\n'); err != nil {
		return nil, fmt.Errorf("failed to read title line: %w", err)
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	codeIdx, endIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case codeColumn:
			codeIdx = i
		case endDateColumn:
			endIdx = i
		}
	}
	if codeIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, codeColumn)
	}
	if endIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, endDateColumn)
	}

	var contracts []Contract
	position := make(map[string]int)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if codeIdx >= len(record) {
			continue
		}

		code := strings.TrimSpace(record[codeIdx])
		if code == "" || !MatchesProduct(code, products) {
			continue
		}

		endDate := ""
		if endIdx < len(record) {
			endDate = strings.TrimSpace(record[endIdx])
		}

		if i, ok := position[code]; ok {
			contracts[i].EndDate = endDate
			continue
		}
		position[code] = len(contracts)
		contracts = append(contracts, Contract{Ticker: code, EndDate: endDate})
	}

	return contracts, nil
}

// MatchesProduct reports whether one of products is a prefix of code.
func MatchesProduct(code string, products []string) bool {
	for _, product := range products {
		if strings.HasPrefix(code, product) {
			return true
		}
	}
	return false
}

// ContractMap turns contracts into ticker -> end date.
func ContractMap(contracts []Contract) map[string]string {
	m := make(map[string]string, len(contracts))
	for _, c := range contracts {
		m[c.Ticker] = c.EndDate
	}
	return m
}
