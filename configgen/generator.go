package configgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	DefaultInput  = "config.xlsx"
	DefaultOutput = "config.json"

	SheetSystem   = "UnifiedTradingSystemConfig"
	SheetMDServer = "md_server"
	SheetBrokers  = "brokers"
	SheetAccounts = "accounts"
)

// Generate reads the spreadsheet at path and builds the config document.
func Generate(path string) (*Object, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	return Build(f)
}

// Build merges the four sheets: system key/values at the top level, then
// md_server, brokers and accounts.
func Build(f *excelize.File) (*Object, error) {
	doc := NewObject()

	if err := addSystemConfig(f, doc); err != nil {
		return nil, err
	}

	md, err := mdServers(f)
	if err != nil {
		return nil, err
	}
	doc.Set("md_server", md)

	brokers, err := brokerRecords(f)
	if err != nil {
		return nil, err
	}
	doc.Set("brokers", brokers)

	accounts, err := accountRecords(f)
	if err != nil {
		return nil, err
	}
	doc.Set("accounts", accounts)

	return doc, nil
}

func addSystemConfig(f *excelize.File, doc *Object) error {
	t, err := readTable(f, SheetSystem)
	if err != nil {
		return err
	}
	if len(t.header) < 2 && len(t.rows) > 0 {
		return fmt.Errorf("sheet %s needs a key and a value column", SheetSystem)
	}

	for _, row := range t.rows {
		if row[0] == nil {
			continue
		}
		doc.Set(toString(row[0]), row[1])
	}
	return nil
}

func mdServers(f *excelize.File) (*Object, error) {
	t, err := readTable(f, SheetMDServer)
	if err != nil {
		return nil, err
	}
	nameIdx, err := t.column("broker_name")
	if err != nil {
		return nil, err
	}
	addrIdx, err := t.column("md_addr")
	if err != nil {
		return nil, err
	}

	md := NewObject()
	for _, row := range t.rows {
		md.Set(toString(row[nameIdx]), row[addrIdx])
	}
	return md, nil
}

func brokerRecords(f *excelize.File) ([]*Object, error) {
	t, err := readTable(f, SheetBrokers)
	if err != nil {
		return nil, err
	}
	if _, err := t.column("query_rate_per_second"); err != nil {
		return nil, err
	}

	records := t.records()
	for i, rec := range records {
		v, _ := rec.Get("query_rate_per_second")
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("sheet %s row %d query_rate_per_second: %w", SheetBrokers, i+2, err)
		}
		rec.Set("query_rate_per_second", n)
	}
	return records, nil
}

func accountRecords(f *excelize.File) ([]*Object, error) {
	t, err := readTable(f, SheetAccounts)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"password", "enable"} {
		if _, err := t.column(col); err != nil {
			return nil, err
		}
	}

	records := t.records()
	for _, rec := range records {
		password, _ := rec.Get("password")
		rec.Set("password", toString(password))

		enable, _ := rec.Get("enable")
		rec.Set("enable", toBool(enable))

		for pair := rec.Oldest(); pair != nil; pair = pair.Next() {
			if s, ok := pair.Value.(string); ok {
				rec.Set(pair.Key, strings.ReplaceAll(s, "'", ""))
			}
		}
	}
	return records, nil
}

// WriteJSON encodes doc with a 4-space indent, leaving non-ASCII and HTML characters as-is.
func WriteJSON(w io.Writer, doc *Object) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(doc)
}

// WriteFile replaces path with the encoded document.
func WriteFile(path string, doc *Object) error {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, doc); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
