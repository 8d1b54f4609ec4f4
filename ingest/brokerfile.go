package ingest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/viktsys/utsref/models"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ErrBrokerFileNotFound is returned when broker.xml cannot be located.
var ErrBrokerFileNotFound = errors.New("Cannot find broker.xml!")

const BrokerFileName = "broker.xml"

// BrokerFile is the parsed vendor broker list, brokers in file order.
type BrokerFile struct {
	Brokers []Broker
}

type Broker struct {
	Name    string
	ID      string
	Servers []Server
}

// Server is one named CTP front with its trading and market-data addresses.
type Server struct {
	Name       string
	Trading    []string
	MarketData []string
}

type xmlRoot struct {
	XMLName xml.Name    `xml:"root"`
	Brokers []xmlBroker `xml:"broker"`
}

type xmlBroker struct {
	ID      string      `xml:"BrokerID,attr"`
	Name    string      `xml:"BrokerName,attr"`
	Servers *xmlServers `xml:"Servers"`
}

type xmlServers struct {
	Server []xmlServer `xml:"Server"`
}

type xmlServer struct {
	Name       string        `xml:"Name"`
	Trading    *xmlAddresses `xml:"Trading"`
	MarketData *xmlAddresses `xml:"MarketData"`
	// some vendor files misspell the section
	MarKetData *xmlAddresses `xml:"MarKetData"`
}

// xmlAddresses collects one or many <item> children into a slice.
type xmlAddresses struct {
	Items []string `xml:"item"`
}

func (a *xmlAddresses) list() []string {
	if a == nil {
		return nil
	}
	items := make([]string, 0, len(a.Items))
	for _, item := range a.Items {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ParseBrokerFile reads a GB2312-encoded broker.xml.
func ParseBrokerFile(path string) (*BrokerFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open broker file: %w", err)
	}
	defer f.Close()

	return DecodeBrokerFile(f)
}

// DecodeBrokerFile parses broker XML from r, decoding it from GBK first.
func DecodeBrokerFile(r io.Reader) (*BrokerFile, error) {
	decoder := xml.NewDecoder(transform.NewReader(r, simplifiedchinese.GBK.NewDecoder()))
	// the stream is already UTF-8 whatever the prolog declares
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var root xmlRoot
	if err := decoder.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to decode broker XML: %w", err)
	}

	bf := &BrokerFile{Brokers: make([]Broker, 0, len(root.Brokers))}
	for _, xb := range root.Brokers {
		broker, err := convertBroker(xb)
		if err != nil {
			return nil, err
		}
		bf.Brokers = append(bf.Brokers, broker)
	}
	return bf, nil
}

func convertBroker(xb xmlBroker) (Broker, error) {
	name := normalizeBrokerName(xb.Name)
	if name == "" {
		return Broker{}, fmt.Errorf("broker %q has no usable BrokerName", xb.ID)
	}
	if xb.Servers == nil {
		return Broker{}, fmt.Errorf("broker %s has no Servers section", name)
	}

	broker := Broker{Name: name, ID: xb.ID}
	for _, xs := range xb.Servers.Server {
		serverName := strings.TrimSpace(xs.Name)

		if xs.Trading == nil {
			return Broker{}, fmt.Errorf("broker %s server %s has no Trading section", name, serverName)
		}

		md := xs.MarketData
		if xs.MarKetData != nil {
			md = xs.MarKetData
		}
		if md == nil {
			return Broker{}, fmt.Errorf("broker %s server %s has no MarketData section", name, serverName)
		}

		broker.Servers = append(broker.Servers, Server{
			Name:       serverName,
			Trading:    xs.Trading.list(),
			MarketData: md.list(),
		})
	}
	return broker, nil
}

// normalizeBrokerName drops a leading uppercase sort letter, e.g. "H华泰期货" -> "华泰期货".
func normalizeBrokerName(name string) string {
	name = strings.TrimSpace(name)
	r, size := utf8.DecodeRuneInString(name)
	if size > 0 && unicode.IsUpper(r) {
		return name[size:]
	}
	return name
}

type brokerTables struct {
	ids     *orderedmap.OrderedMap[string, string]
	trading *orderedmap.OrderedMap[string, *orderedmap.OrderedMap[string, string]]
	md      *orderedmap.OrderedMap[string, string]
}

// tables folds the brokers into the three keyed views. A broker name seen twice
// keeps its first position; its id and server set come from the last occurrence.
func (bf *BrokerFile) tables() brokerTables {
	t := brokerTables{
		ids:     orderedmap.New[string, string](),
		trading: orderedmap.New[string, *orderedmap.OrderedMap[string, string]](),
		md:      orderedmap.New[string, string](),
	}

	for _, broker := range bf.Brokers {
		t.ids.Set(broker.Name, broker.ID)

		servers := orderedmap.New[string, string]()
		t.trading.Set(broker.Name, servers)

		for _, server := range broker.Servers {
			servers.Set(server.Name, strings.Join(server.Trading, ","))
			for i, addr := range server.MarketData {
				t.md.Set(broker.Name+server.Name+strconv.Itoa(i+1), addr)
			}
		}
	}
	return t
}

func plain[V any](om *orderedmap.OrderedMap[string, V]) map[string]V {
	out := make(map[string]V, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// BrokerIDs maps broker name to broker id.
func (bf *BrokerFile) BrokerIDs() map[string]string {
	return plain(bf.tables().ids)
}

// TradingServers maps broker name to server name to comma-joined trading addresses.
func (bf *BrokerFile) TradingServers() map[string]map[string]string {
	t := bf.tables()
	out := make(map[string]map[string]string, t.trading.Len())
	for pair := t.trading.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = plain(pair.Value)
	}
	return out
}

// MDServers maps {broker}{server}{n} to a market-data address, n starting at 1.
func (bf *BrokerFile) MDServers() map[string]string {
	return plain(bf.tables().md)
}

// MDServerRows returns the ctp_md_server table.
func (bf *BrokerFile) MDServerRows() []models.CTPMDServer {
	t := bf.tables()
	rows := make([]models.CTPMDServer, 0, t.md.Len())
	for pair := t.md.Oldest(); pair != nil; pair = pair.Next() {
		rows = append(rows, models.CTPMDServer{
			Index:   int64(len(rows)),
			Name:    pair.Key,
			Address: pair.Value,
		})
	}
	return rows
}

// TradeServerRows returns the ctp_trade_server table: one row per broker/server,
// joined with the broker id. Within a broker, servers follow the order in which
// their names first appear anywhere in the file.
func (bf *BrokerFile) TradeServerRows() []models.CTPTradeServer {
	t := bf.tables()

	columns := orderedmap.New[string, struct{}]()
	for broker := t.trading.Oldest(); broker != nil; broker = broker.Next() {
		for server := broker.Value.Oldest(); server != nil; server = server.Next() {
			columns.Set(server.Key, struct{}{})
		}
	}

	var rows []models.CTPTradeServer
	for broker := t.trading.Oldest(); broker != nil; broker = broker.Next() {
		brokerID, ok := t.ids.Get(broker.Key)
		if !ok {
			continue
		}
		for column := columns.Oldest(); column != nil; column = column.Next() {
			addrs, ok := broker.Value.Get(column.Key)
			if !ok {
				continue
			}
			rows = append(rows, models.CTPTradeServer{
				Index:       int64(len(rows)),
				Broker:      broker.Key,
				ServerName:  column.Key,
				TradeServer: addrs,
				BrokerID:    brokerID,
			})
		}
	}
	return rows
}

// LocateBrokerFile finds broker.xml under the vendor's application-data directory:
// the last folder containing "shinny", then its last sub-folder starting with "20".
func LocateBrokerFile(appData string) (string, error) {
	if appData == "" {
		return "", ErrBrokerFileNotFound
	}

	vendorDir, err := lastDir(appData, func(name string) bool {
		return strings.Contains(name, "shinny")
	})
	if err != nil {
		return "", err
	}

	dataDir, err := lastDir(filepath.Join(appData, vendorDir), func(name string) bool {
		return strings.HasPrefix(name, "20")
	})
	if err != nil {
		return "", err
	}

	path := filepath.Join(appData, vendorDir, dataDir, BrokerFileName)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return "", ErrBrokerFileNotFound
	}
	return path, nil
}

// lastDir returns the lexicographically last sub-directory of dir accepted by match.
func lastDir(dir string, match func(string) bool) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ErrBrokerFileNotFound
	}

	last := ""
	for _, entry := range entries {
		if entry.IsDir() && match(entry.Name()) && entry.Name() > last {
			last = entry.Name()
		}
	}
	if last == "" {
		return "", ErrBrokerFileNotFound
	}
	return last, nil
}
