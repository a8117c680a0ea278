package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/stratastream/stateful/logging"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Gauge ...
	Gauge instrument = iota
	// Counter ...
	Counter
	// Histogram ...
	Histogram
)

const namespace = "stateful"

var (
	// ErrInstrumentNotSupported signals the specified instrument is not yet supported.
	ErrInstrumentNotSupported = errors.New("instrument type unsupported")
	// ErrInstrumentTypeMismatch signal the type of the instrument is not expected.
	ErrInstrumentTypeMismatch = errors.New("instrument is not of the expected type")
)

// abstract prometheus types.
type instrument int

type instrumentOpts struct {
	opts    prometheus.Opts
	buckets []float64
	vectors []string
}

type mi struct {
	gaugeV     *prometheus.GaugeVec
	gauge      prometheus.Gauge
	counterV   *prometheus.CounterVec
	counter    prometheus.Counter
	histogramV *prometheus.HistogramVec
	histogram  prometheus.Histogram
}

// InstrumentOption - vararg for instrument options setting.
type InstrumentOption func(o *instrumentOpts)

// Vectors - configuration used to create a vector of a given interface, slice of label names.
func Vectors(labels ...string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.vectors = labels
	}
}

// Help - set the help field on instrument.
func Help(help string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Help = help
	}
}

// Subsystem - set subsystem.
func Subsystem(s string) InstrumentOption {
	return func(o *instrumentOpts) {
		o.opts.Subsystem = s
	}
}

// Buckets - specific to histogram type.
func Buckets(b []float64) InstrumentOption {
	return func(o *instrumentOpts) {
		o.buckets = b
	}
}

// AddInstrument configures a new instrument and registers it with reg.
func AddInstrument(reg prometheus.Registerer, t instrument, name string, opts ...InstrumentOption) (*mi, error) {
	var col prometheus.Collector
	ret := mi{}
	opt := instrumentOpts{
		opts: prometheus.Opts{
			Namespace: namespace,
			Name:      name,
		},
	}
	for _, o := range opts {
		o(&opt)
	}
	switch t {
	case Gauge:
		o := prometheus.GaugeOpts(opt.opts)
		if len(opt.vectors) == 0 {
			ret.gauge = prometheus.NewGauge(o)
			col = ret.gauge
		} else {
			ret.gaugeV = prometheus.NewGaugeVec(o, opt.vectors)
			col = ret.gaugeV
		}
	case Counter:
		o := prometheus.CounterOpts(opt.opts)
		if len(opt.vectors) == 0 {
			ret.counter = prometheus.NewCounter(o)
			col = ret.counter
		} else {
			ret.counterV = prometheus.NewCounterVec(o, opt.vectors)
			col = ret.counterV
		}
	case Histogram:
		o := opt.histogram()
		if len(opt.vectors) == 0 {
			ret.histogram = prometheus.NewHistogram(o)
			col = ret.histogram
		} else {
			ret.histogramV = prometheus.NewHistogramVec(o, opt.vectors)
			col = ret.histogramV
		}
	default:
		return nil, ErrInstrumentNotSupported
	}
	if err := reg.Register(col); err != nil {
		return nil, errors.Wrapf(err, "could not register %s", name)
	}
	return &ret, nil
}

func (i instrumentOpts) histogram() prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Name:        i.opts.Name,
		Namespace:   i.opts.Namespace,
		Subsystem:   i.opts.Subsystem,
		ConstLabels: i.opts.ConstLabels,
		Help:        i.opts.Help,
		Buckets:     i.buckets,
	}
}

func (m mi) Gauge() (prometheus.Gauge, error) {
	if m.gauge == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gauge, nil
}

func (m mi) GaugeVec() (*prometheus.GaugeVec, error) {
	if m.gaugeV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.gaugeV, nil
}

func (m mi) Counter() (prometheus.Counter, error) {
	if m.counter == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counter, nil
}

func (m mi) CounterVec() (*prometheus.CounterVec, error) {
	if m.counterV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.counterV, nil
}

func (m mi) HistogramVec() (*prometheus.HistogramVec, error) {
	if m.histogramV == nil {
		return nil, ErrInstrumentTypeMismatch
	}
	return m.histogramV, nil
}

var setupOnce sync.Once

// Setup registers the instruments with reg. Only the first call has an
// effect. Until it runs every setter in this package is a no-op.
func Setup(reg prometheus.Registerer) (err error) {
	setupOnce.Do(func() {
		err = setupMetrics(reg)
	})
	return err
}

// Server exposes the instruments over http.
type Server struct {
	log  *logging.Logger
	cfg  Config
	srv  *http.Server
	errs chan error
}

// Start registers the instruments and serves them, if enabled in conf.
// The returned server is nil when metrics are disabled.
func Start(log *logging.Logger, conf Config) (*Server, error) {
	if !conf.Enabled {
		return nil, nil
	}
	log = log.Named("metrics")
	log.SetLevel(conf.Level.Get())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := Setup(reg); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(conf.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	s := &Server{
		log: log,
		cfg: conf,
		srv: &http.Server{
			Addr:    fmt.Sprintf(":%d", conf.Port),
			Handler: mux,
		},
		errs: make(chan error, 1),
	}
	go func() {
		log.Info("starting metrics server", logging.Int("port", conf.Port), logging.String("path", conf.Path))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- err
		}
		close(s.errs)
	}()
	return s, nil
}

// Errors reports the server failing to listen.
func (s *Server) Errors() <-chan error {
	return s.errs
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout.Get())
	defer cancel()
	return s.srv.Shutdown(ctx)
}
