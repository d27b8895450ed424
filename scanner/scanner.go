package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/device"
)

// ProgressCallback is called when the scan phase changes
type ProgressCallback func(phase string)

// DeviceEventType marks if the printer was newly discovered or updated
type DeviceEventType int

const (
	EventNew DeviceEventType = iota
	EventUpdated
)

func (t DeviceEventType) String() string {
	if t == EventNew {
		return "new"
	}
	return "updated"
}

// eventBufferSize bounds undelivered discovery events; the oldest are dropped
const eventBufferSize = 100

// Printer is a discovered printer advertisement
type Printer struct {
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	RSSI        int       `json:"rssi"`
	Connectable bool      `json:"connectable"`
	Services    []string  `json:"services"`
	FirstSeen   time.Time `json:"firstSeen"`
	LastSeen    time.Time `json:"lastSeen"`
	Seen        int       `json:"seen"`
}

type DeviceEvent struct {
	Type    DeviceEventType
	Printer Printer
}

// Scanner handles printer discovery
type Scanner struct {
	source   device.Scanner
	printers *hashmap.Map[string, *Printer]
	// mu guards the fields of stored printers
	mu       sync.Mutex
	events   chan DeviceEvent
	logger   *logrus.Logger
	now      func() time.Time

	scanOptions *ScanOptions
}

// ScanOptions configures scanning behavior
type ScanOptions struct {
	Duration        time.Duration
	DuplicateFilter bool
	// NameFilter selects printer families; nil uses the default prefixes.
	NameFilter            device.NameFilter
	ServiceUUIDs          []string
	AllowList             []string
	BlockList             []string
	IncludeNonConnectable bool
}

// DefaultScanOptions returns default scanning options
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{
		Duration:        10 * time.Second,
		DuplicateFilter: true,
	}
}

// NewScanner creates a printer scanner over source
func NewScanner(source device.Scanner, logger *logrus.Logger) (*Scanner, error) {
	if source == nil {
		return nil, errors.New("scanner requires a device scanner")
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Scanner{
		source: source,
		events: make(chan DeviceEvent, eventBufferSize),
		logger: logger,
		now:    time.Now,
	}, nil
}

// Scan runs discovery for opts.Duration (until ctx ends when zero) and returns
// the printers found, strongest signal first.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions, progressCallback ProgressCallback) ([]Printer, error) {
	s.printers = hashmap.New[string, *Printer]()

	if opts == nil {
		opts = DefaultScanOptions()
	}
	if progressCallback == nil {
		progressCallback = func(string) {}
	}

	s.logger.WithField("duration", opts.Duration).Info("Starting printer scan...")
	progressCallback("Scanning")

	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	s.scanOptions = opts
	defer func() {
		s.scanOptions = nil
	}()

	// With DuplicateFilter off every advertisement is reported and refreshes RSSI.
	err := s.source.Scan(ctx, !opts.DuplicateFilter, s.handleAdvertisement)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	s.logger.WithField("printer_count", s.printers.Len()).Info("Printer scan completed")
	progressCallback("Processing results")

	return s.makePrinterList(), nil
}

// handleAdvertisement updates an existing or adds a new printer
func (s *Scanner) handleAdvertisement(adv device.Advertisement) {
	opts := s.scanOptions
	if opts == nil {
		return
	}

	id := strings.ToUpper(adv.Addr())
	now := s.now()

	prev, existing := s.printers.Get(id)
	if !existing {
		if !s.shouldInclude(adv, opts) {
			return
		}
		p := &Printer{
			Name:        adv.LocalName(),
			Address:     adv.Addr(),
			RSSI:        adv.RSSI(),
			Connectable: adv.Connectable(),
			Services:    device.NormalizeUUIDs(adv.Services()),
			FirstSeen:   now,
			LastSeen:    now,
			Seen:        1,
		}
		if prev, existing = s.printers.GetOrInsert(id, p); !existing {
			s.logger.WithFields(logrus.Fields{
				"printer": p.Name,
				"address": p.Address,
				"rssi":    p.RSSI,
			}).Info("Discovered printer")
			s.forceSend(DeviceEvent{Type: EventNew, Printer: *p})
			return
		}
	}

	s.mu.Lock()
	prev.RSSI = adv.RSSI()
	prev.LastSeen = now
	prev.Seen++
	if name := adv.LocalName(); name != "" {
		prev.Name = name
	}
	updated := *prev
	s.mu.Unlock()
	s.forceSend(DeviceEvent{Type: EventUpdated, Printer: updated})
}

// shouldInclude applies name, connectability, allow/block and service filters
func (s *Scanner) shouldInclude(adv device.Advertisement, opts *ScanOptions) bool {
	filter := opts.NameFilter
	if filter == nil {
		filter = device.NamePrefixFilter(device.DefaultNamePrefixes...)
	}
	if !filter(adv.LocalName()) {
		return false
	}
	if !adv.Connectable() && !opts.IncludeNonConnectable {
		return false
	}

	addr := adv.Addr()
	for _, blocked := range opts.BlockList {
		if strings.EqualFold(addr, blocked) {
			return false
		}
	}

	if len(opts.AllowList) > 0 {
		allowed := false
		for _, a := range opts.AllowList {
			if strings.EqualFold(addr, a) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if len(opts.ServiceUUIDs) > 0 {
		advertised := device.NormalizeUUIDs(adv.Services())
		for _, required := range device.NormalizeUUIDs(opts.ServiceUUIDs) {
			for _, uuid := range advertised {
				if uuid == required {
					return true
				}
			}
		}
		return false
	}

	return true
}

// makePrinterList returns discovered printers, strongest signal first
func (s *Scanner) makePrinterList() []Printer {
	printers := make([]Printer, 0, s.printers.Len())
	s.mu.Lock()
	s.printers.Range(func(_ string, p *Printer) bool {
		printers = append(printers, *p)
		return true
	})
	s.mu.Unlock()

	sort.Slice(printers, func(i, j int) bool {
		if printers[i].RSSI != printers[j].RSSI {
			return printers[i].RSSI > printers[j].RSSI
		}
		return printers[i].Address < printers[j].Address
	})
	return printers
}

// forceSend never blocks; a full buffer drops its oldest event
func (s *Scanner) forceSend(ev DeviceEvent) {
	for {
		select {
		case s.events <- ev:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}

// Events return a read-only channel of discovery events
func (s *Scanner) Events() <-chan DeviceEvent {
	return s.events
}
