package probe

import (
	"context"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viktsys/utsref/logger"
)

const (
	DefaultTimeout = 3 * time.Second
	DefaultWorkers = 8
)

// Result is one probe. Latency is nil when the address could not be reached.
type Result struct {
	Address string
	Latency *time.Duration
	Err     error
}

// Prober measures TCP connect latency to CTP market-data fronts.
type Prober struct {
	Timeout time.Duration
	Workers int

	dial func(ctx context.Context, network, address string) (net.Conn, error)
}

func NewProber(timeout time.Duration, workers int) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	dialer := &net.Dialer{}
	return &Prober{
		Timeout: timeout,
		Workers: workers,
		dial:    dialer.DialContext,
	}
}

// HostPort strips the tcp:// scheme CTP addresses are usually stored with.
func HostPort(addr string) string {
	addr = strings.TrimSpace(addr)
	if i := strings.Index(addr, "://"); i >= 0 {
		return addr[i+3:]
	}
	return addr
}

// Run probes every address with at most Workers in flight and returns results in input order.
func (p *Prober) Run(ctx context.Context, addrs []string) []Result {
	results := make([]Result, len(addrs))
	semaphore := make(chan struct{}, p.Workers)
	var wg sync.WaitGroup
	var reachable int64

	for i, addr := range addrs {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[i] = p.probe(ctx, addr)
			if results[i].Latency != nil {
				atomic.AddInt64(&reachable, 1)
				logger.Debugf("Probed %s in %v", addr, *results[i].Latency)
			} else {
				logger.Debugf("Probe of %s failed: %v", addr, results[i].Err)
			}
		}(i, addr)
	}

	wg.Wait()
	logger.Infof("Probed %d md servers, %d reachable", len(addrs), atomic.LoadInt64(&reachable))
	return results
}

func (p *Prober) probe(ctx context.Context, addr string) Result {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	start := time.Now()
	conn, err := p.dial(ctx, "tcp", HostPort(addr))
	if err != nil {
		return Result{Address: addr, Err: err}
	}
	latency := time.Since(start)
	conn.Close()

	return Result{Address: addr, Latency: &latency}
}
