package wandio

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// DefaultBlockSize is the transfer size of every read and write in the copy
// loop.
const DefaultBlockSize = 1 << 20

// Logger receives the copy driver's diagnostics. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

const (
	logAttrTarget = "target"
	logAttrError  = "error"
	logAttrBytes  = "bytes"
)

// Stats holds copy statistics.
type Stats struct {
	InputsOpened int64
	InputsFailed int64
	BytesRead    int64
	BytesWritten int64
	Blocks       int64
}

// Driver concatenates inputs into one output through resolved chains.
type Driver struct {
	resolver  *Resolver
	logger    Logger
	blockSize int
	stats     Stats
}

// DriverOption configures a Driver.
type DriverOption func(*Driver) error

// WithLogger sets the logger. Without one the driver is silent.
func WithLogger(logger Logger) DriverOption {
	return func(d *Driver) error {
		d.logger = logger
		return nil
	}
}

// WithBlockSize sets the copy block size.
func WithBlockSize(n int) DriverOption {
	return func(d *Driver) error {
		if n <= 0 {
			return fmt.Errorf("wandio: invalid block size %d", n)
		}
		d.blockSize = n
		return nil
	}
}

// NewDriver creates a copy driver.
func NewDriver(resolver *Resolver, opts ...DriverOption) (*Driver, error) {
	d := &Driver{
		resolver:  resolver,
		blockSize: DefaultBlockSize,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Run writes the contents of inputs, in order, to output. An input that
// cannot be opened is logged and skipped. The output is opened once before
// the first input and closed once after the last; an error is returned only
// when the output cannot be opened, written or closed.
func (d *Driver) Run(output string, opts WriteOptions, inputs []string) (err error) {
	w, err := d.resolver.Create(output, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", output, cerr))
		}
	}()

	buf := make([]byte, d.blockSize)
	for _, target := range inputs {
		if err := d.copyOne(target, w, buf); err != nil {
			return err
		}
	}
	return nil
}

// copyOne drains one input into w. Only write failures are returned.
func (d *Driver) copyOne(target string, w Writer, buf []byte) error {
	r, err := d.resolver.Open(target)
	if err != nil {
		atomic.AddInt64(&d.stats.InputsFailed, 1)
		d.logError("failed to open input", target, err)
		return nil
	}
	defer func() {
		if cerr := r.Close(); cerr != nil {
			d.logWarn("failed to close input", target, cerr)
		}
	}()
	atomic.AddInt64(&d.stats.InputsOpened, 1)

	var total int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			atomic.AddInt64(&d.stats.BytesRead, int64(n))
			atomic.AddInt64(&d.stats.Blocks, 1)
			wn, werr := w.Write(buf[:n])
			atomic.AddInt64(&d.stats.BytesWritten, int64(wn))
			total += int64(wn)
			if werr != nil {
				return fmt.Errorf("write %s: %w", target, werr)
			}
		}
		if rerr != nil && rerr != io.EOF {
			d.logWarn("read failed", target, rerr)
		}
		if n <= 0 || rerr != nil {
			break
		}
	}

	if d.logger != nil {
		d.logger.Debug("copied input", logAttrTarget, target, logAttrBytes, total)
	}
	return nil
}

func (d *Driver) logError(msg, target string, err error) {
	if d.logger != nil {
		d.logger.Error(msg, logAttrTarget, target, logAttrError, err.Error())
	}
}

func (d *Driver) logWarn(msg, target string, err error) {
	if d.logger != nil {
		d.logger.Warn(msg, logAttrTarget, target, logAttrError, err.Error())
	}
}

// GetStats returns a snapshot of the statistics.
func (d *Driver) GetStats() Stats {
	return Stats{
		InputsOpened: atomic.LoadInt64(&d.stats.InputsOpened),
		InputsFailed: atomic.LoadInt64(&d.stats.InputsFailed),
		BytesRead:    atomic.LoadInt64(&d.stats.BytesRead),
		BytesWritten: atomic.LoadInt64(&d.stats.BytesWritten),
		Blocks:       atomic.LoadInt64(&d.stats.Blocks),
	}
}

// ResetStats resets statistics to zero.
func (d *Driver) ResetStats() {
	atomic.StoreInt64(&d.stats.InputsOpened, 0)
	atomic.StoreInt64(&d.stats.InputsFailed, 0)
	atomic.StoreInt64(&d.stats.BytesRead, 0)
	atomic.StoreInt64(&d.stats.BytesWritten, 0)
	atomic.StoreInt64(&d.stats.Blocks, 0)
}
