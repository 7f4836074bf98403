package stream

import (
	"bufio"
	"context"
	"encoding/xml"
	"io"
	"os"
	"strconv"

	"github.com/kilianp07/fleetscope/core/telemetry"
)

// Options tunes reader behaviour.
type Options struct {
	// MalformedThreshold fails the stream once more than this many
	// records have been skipped. Values <= 0 disable the limit.
	MalformedThreshold int64
}

// XMLReader decodes one simulator XML export token by token, so inputs
// of any size are consumed without being materialized. The two per-step
// streams (fcd, battery) are framed by <timestep> elements carrying the
// simulation time; trip and charging streams are flat event lists.
type XMLReader struct {
	kind      telemetry.Kind
	dec       *xml.Decoder
	src       io.Closer
	element   string
	stepped   bool
	normalize func(step float64, a attrs) (telemetry.Record, error)
	opts      Options

	stats   Stats
	step    float64
	hasStep bool
	last    float64
	started bool
	err     error
}

// NewFCDReader reads vehicle position/speed samples from r.
func NewFCDReader(r io.Reader, opts Options) *XMLReader {
	return newXMLReader(telemetry.KindVehicleSample, r, "vehicle", true, opts,
		func(step float64, a attrs) (telemetry.Record, error) {
			return normalizeSample(step, a)
		})
}

// NewBatteryReader reads battery state samples from r.
func NewBatteryReader(r io.Reader, opts Options) *XMLReader {
	return newXMLReader(telemetry.KindBatteryState, r, "vehicle", true, opts,
		func(step float64, a attrs) (telemetry.Record, error) {
			return normalizeBattery(step, a)
		})
}

// NewTripReader reads trip summaries from r, ordered by departure time.
func NewTripReader(r io.Reader, opts Options) *XMLReader {
	return newXMLReader(telemetry.KindTripSummary, r, "tripinfo", false, opts,
		func(_ float64, a attrs) (telemetry.Record, error) {
			return normalizeTrip(a)
		})
}

// NewChargingReader reads charging sessions from r, ordered by begin time.
func NewChargingReader(r io.Reader, opts Options) *XMLReader {
	return newXMLReader(telemetry.KindChargingEvent, r, "chargingEvent", false, opts,
		func(_ float64, a attrs) (telemetry.Record, error) {
			return normalizeCharging(a)
		})
}

// Open opens the file at path with the reader constructor matching kind.
func Open(kind telemetry.Kind, path string, opts Options) (*XMLReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	var r *XMLReader
	switch kind {
	case telemetry.KindVehicleSample:
		r = NewFCDReader(br, opts)
	case telemetry.KindBatteryState:
		r = NewBatteryReader(br, opts)
	case telemetry.KindTripSummary:
		r = NewTripReader(br, opts)
	case telemetry.KindChargingEvent:
		r = NewChargingReader(br, opts)
	default:
		_ = f.Close()
		return nil, corruptf(kind, "unsupported stream kind")
	}
	r.src = f
	return r, nil
}

func newXMLReader(kind telemetry.Kind, r io.Reader, element string, stepped bool, opts Options,
	normalize func(step float64, a attrs) (telemetry.Record, error)) *XMLReader {
	return &XMLReader{
		kind:      kind,
		dec:       xml.NewDecoder(r),
		element:   element,
		stepped:   stepped,
		normalize: normalize,
		opts:      opts,
	}
}

func (r *XMLReader) Kind() telemetry.Kind { return r.kind }

func (r *XMLReader) Stats() Stats { return r.stats }

// Close releases the underlying source, if the reader owns one.
func (r *XMLReader) Close() error {
	if r.src == nil {
		return nil
	}
	err := r.src.Close()
	r.src = nil
	return err
}

// Next returns the next well-formed record. Errors are sticky: once a
// stream is corrupt every subsequent call fails the same way.
func (r *XMLReader) Next(ctx context.Context) (telemetry.Record, error) {
	if r.err != nil {
		return nil, r.err
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		tok, err := r.dec.Token()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			r.err = corruptf(r.kind, "unreadable input: %v", err)
			return nil, r.err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch {
		case r.stepped && se.Name.Local == "timestep":
			if err := r.enterTimestep(se); err != nil {
				r.err = err
				return nil, r.err
			}
		case se.Name.Local == r.element:
			rec, ok, err := r.decodeRecord(se)
			if err != nil {
				r.err = err
				return nil, r.err
			}
			if ok {
				return rec, nil
			}
		}
	}
}

func (r *XMLReader) enterTimestep(se xml.StartElement) error {
	raw, ok := attrsOf(se)["time"]
	if !ok {
		r.hasStep = false
		return r.skip()
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.hasStep = false
		return r.skip()
	}
	if r.started && t < r.step {
		return corruptf(r.kind, "timestep %v is earlier than %v", t, r.step)
	}
	r.step = t
	r.hasStep = true
	r.started = true
	return nil
}

func (r *XMLReader) decodeRecord(se xml.StartElement) (telemetry.Record, bool, error) {
	a := attrsOf(se)
	if r.stepped && !r.hasStep {
		return nil, false, r.skip()
	}
	rec, err := r.normalize(r.step, a)
	if err != nil {
		return nil, false, r.skip()
	}
	if !r.stepped {
		if r.started && rec.Time() < r.last {
			return nil, false, corruptf(r.kind, "record at %v is earlier than %v", rec.Time(), r.last)
		}
		r.last = rec.Time()
		r.started = true
	}
	r.stats.Read++
	return rec, true, nil
}

// skip counts one malformed record and enforces the threshold.
func (r *XMLReader) skip() error {
	r.stats.Skipped++
	if r.opts.MalformedThreshold > 0 && r.stats.Skipped > r.opts.MalformedThreshold {
		return corruptf(r.kind, "%d malformed records exceed threshold %d",
			r.stats.Skipped, r.opts.MalformedThreshold)
	}
	return nil
}

func attrsOf(se xml.StartElement) attrs {
	a := make(attrs, len(se.Attr))
	for _, at := range se.Attr {
		a[at.Name.Local] = at.Value
	}
	return a
}
