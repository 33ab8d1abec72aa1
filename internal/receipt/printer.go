package receipt

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/angelmondragon/warung-pos/pkg/errors"
	"github.com/angelmondragon/warung-pos/pkg/logger"
)

// Recorder receives print metrics.
type Recorder interface {
	ObserveReceiptRender(d time.Duration)
	ReceiptPrinted(sink string)
	ReceiptPrintFailed(sink string)
}

// PrintResult is returned even when the sink fails so the caller can still
// show or retry the rendered text.
type PrintResult struct {
	Document *Document `json:"document"`
	Delivery Delivery  `json:"delivery"`
}

// Printer renders receipts and sends them to a sink.
type Printer struct {
	formatter *Formatter
	sink      Sink
	metrics   Recorder
	logg      *logger.Logger
}

// NewPrinter builds a print service. metrics and logg may be nil.
func NewPrinter(formatter *Formatter, sink Sink, metrics Recorder, logg *logger.Logger) (*Printer, error) {
	if formatter == nil {
		return nil, errors.New("receipt formatter required")
	}
	if sink == nil {
		sink = NullSink{}
	}
	return &Printer{formatter: formatter, sink: sink, metrics: metrics, logg: logg}, nil
}

// SinkName reports the configured sink.
func (p *Printer) SinkName() string { return p.sink.Name() }

// Render produces the receipt document without printing it.
func (p *Printer) Render(tx *Transaction) (*Document, error) {
	start := time.Now()
	doc, err := p.formatter.Render(tx)
	if p.metrics != nil {
		p.metrics.ObserveReceiptRender(time.Since(start))
	}
	if err != nil {
		return nil, toAppError(err)
	}
	return doc, nil
}

// Print renders tx and hands it to the sink. A sink failure returns the
// rendered result together with a dependency error.
func (p *Printer) Print(ctx context.Context, tx *Transaction) (*PrintResult, error) {
	doc, err := p.Render(tx)
	if err != nil {
		return nil, err
	}

	result := &PrintResult{Document: doc}
	delivery, err := p.sink.Send(ctx, []byte(doc.Text))
	result.Delivery = delivery
	if err != nil {
		if p.metrics != nil {
			p.metrics.ReceiptPrintFailed(p.sink.Name())
		}
		if p.logg != nil {
			p.logg.Error(p.logg.WithField(ctx, "sink", p.sink.Name()), "receipt print failed", err)
		}
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "printer driver could not be opened")
	}

	if p.metrics != nil {
		p.metrics.ReceiptPrinted(p.sink.Name())
	}
	if len(doc.Warnings) > 0 && p.logg != nil {
		p.logg.Warn(p.logg.WithField(ctx, "warnings", doc.Warnings), "receipt printed with warnings")
	}
	return result, nil
}

func toAppError(err error) error {
	var fe *FormatError
	if !errors.As(err, &fe) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "receipt could not be rendered")
	}
	switch fe.Kind {
	case KindMissingData:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "transaction data not found")
	case KindEmptyCart:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "transaction has no items to print")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "receipt could not be built")
	}
}
