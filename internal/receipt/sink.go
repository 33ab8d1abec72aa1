package receipt

import (
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/angelmondragon/warung-pos/pkg/config"
)

// RawBTScheme prefixes the URL handed to the RawBT print driver app.
const RawBTScheme = "rawbt:base64,"

// Delivery describes what a sink did with a receipt.
type Delivery struct {
	Sink  string `json:"sink"`
	URL   string `json:"url,omitempty"`
	Bytes int    `json:"bytes"`
}

// Sink hands rendered receipt text to a printer. Sinks do not wait for the
// paper to come out.
type Sink interface {
	Name() string
	Send(ctx context.Context, payload []byte) (Delivery, error)
}

// RawBTSink encodes the receipt as a rawbt:base64 URL for the client device
// to open.
type RawBTSink struct{}

func NewRawBTSink() *RawBTSink { return &RawBTSink{} }

func (RawBTSink) Name() string { return config.PrinterTypeRawBT }

func (s RawBTSink) Send(_ context.Context, payload []byte) (Delivery, error) {
	return Delivery{
		Sink:  s.Name(),
		URL:   RawBTURL(payload),
		Bytes: len(payload),
	}, nil
}

// RawBTURL builds the driver URL for payload.
func RawBTURL(payload []byte) string {
	return RawBTScheme + base64.StdEncoding.EncodeToString(payload)
}

// NetworkSink writes ESC/POS bytes to a TCP printer, e.g. 192.168.1.100:9100.
type NetworkSink struct {
	address string
	timeout time.Duration
}

func NewNetworkSink(address string, timeout time.Duration) *NetworkSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NetworkSink{address: address, timeout: timeout}
}

func (*NetworkSink) Name() string { return config.PrinterTypeNetwork }

func (s *NetworkSink) Send(ctx context.Context, payload []byte) (Delivery, error) {
	dialer := net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.address)
	if err != nil {
		return Delivery{Sink: s.Name()}, fmt.Errorf("printer: connect %s: %w", s.address, err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(s.timeout))
	framed := FrameESCPOS(string(payload))
	n, err := conn.Write(framed)
	if err != nil {
		return Delivery{Sink: s.Name(), Bytes: n}, fmt.Errorf("printer: write %s: %w", s.address, err)
	}
	return Delivery{Sink: s.Name(), Bytes: n}, nil
}

// DeviceSink writes ESC/POS bytes to a device file such as /dev/usb/lp0.
type DeviceSink struct {
	path string
}

func NewDeviceSink(path string) *DeviceSink {
	return &DeviceSink{path: path}
}

func (*DeviceSink) Name() string { return config.PrinterTypeUSB }

func (s *DeviceSink) Send(_ context.Context, payload []byte) (Delivery, error) {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return Delivery{Sink: s.Name()}, fmt.Errorf("printer: open device %s: %w", s.path, err)
	}
	defer f.Close()

	n, err := f.Write(FrameESCPOS(string(payload)))
	if err != nil {
		return Delivery{Sink: s.Name(), Bytes: n}, fmt.Errorf("printer: write device %s: %w", s.path, err)
	}
	return Delivery{Sink: s.Name(), Bytes: n}, nil
}

// NullSink drops receipts.
type NullSink struct{}

func (NullSink) Name() string { return config.PrinterTypeNone }

func (s NullSink) Send(context.Context, []byte) (Delivery, error) {
	return Delivery{Sink: s.Name()}, nil
}

// NewSinkFromConfig selects the sink for the configured printer type.
func NewSinkFromConfig(cfg config.PrinterConfig) (Sink, error) {
	switch cfg.Kind() {
	case config.PrinterTypeRawBT:
		return NewRawBTSink(), nil
	case config.PrinterTypeNetwork:
		if cfg.Address == "" {
			return nil, fmt.Errorf("printer: address is required for network printers")
		}
		return NewNetworkSink(cfg.Address, cfg.Timeout), nil
	case config.PrinterTypeUSB:
		if cfg.DevicePath == "" {
			return nil, fmt.Errorf("printer: device path is required for usb printers")
		}
		return NewDeviceSink(cfg.DevicePath), nil
	case config.PrinterTypeNone:
		return NullSink{}, nil
	default:
		return nil, fmt.Errorf("printer: unknown printer type %q (use rawbt, network, usb or none)", cfg.Type)
	}
}
