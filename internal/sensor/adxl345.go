// Package sensor provides the accelerometer feeding the ball effect.
package sensor

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers/adxl345"
)

// StandardGravity converts the driver's milli-g readings to m/s^2.
const StandardGravity = 9.80665

const (
	DefaultAddr = uint16(adxl345.AddressLow)

	regDevID = 0x00
	devID    = 0xE5
)

var ErrNotFound = errors.New("adxl345 not found")

// bus lets the tinygo driver talk through a periph bus.
type bus struct{ b i2c.Bus }

func (b bus) Tx(addr uint16, w, r []byte) error { return b.b.Tx(addr, w, r) }

// ADXL345 reads a 3-axis accelerometer in the 2g range.
type ADXL345 struct {
	dev    adxl345.Device
	bus    i2c.Bus
	addr   uint16
	closer func() error
}

// OpenADXL345 initializes the host and opens the named bus ("" picks the first one).
func OpenADXL345(name string, addr uint16) (*ADXL345, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bc, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c %q: %w", name, err)
	}
	a, err := NewADXL345(bc, addr)
	if err != nil {
		bc.Close()
		return nil, err
	}
	a.closer = bc.Close
	return a, nil
}

// NewADXL345 probes the device id and configures measurement mode.
func NewADXL345(b i2c.Bus, addr uint16) (*ADXL345, error) {
	if addr == 0 {
		addr = DefaultAddr
	}
	a := &ADXL345{bus: b, addr: addr}
	if err := a.probe(); err != nil {
		return nil, err
	}
	a.dev = adxl345.New(bus{b})
	a.dev.Address = addr
	a.dev.Configure()
	return a, nil
}

func (a *ADXL345) probe() error {
	id := make([]byte, 1)
	if err := a.bus.Tx(a.addr, []byte{regDevID}, id); err != nil {
		return fmt.Errorf("adxl345 at %#x: %w", a.addr, err)
	}
	if id[0] != devID {
		return fmt.Errorf("%w: id %#x at %#x", ErrNotFound, id[0], a.addr)
	}
	return nil
}

// Acceleration returns m/s^2. The driver swallows bus errors, so an all-zero
// reading is checked against the device id before it is trusted.
func (a *ADXL345) Acceleration() (ax, ay, az float64, err error) {
	x, y, z, err := a.dev.ReadAcceleration()
	if err != nil {
		return 0, 0, 0, err
	}
	if x == 0 && y == 0 && z == 0 {
		if err := a.probe(); err != nil {
			return 0, 0, 0, err
		}
	}
	return mps2(x), mps2(y), mps2(z), nil
}

func (a *ADXL345) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

func mps2(milliG int32) float64 { return float64(milliG) / 1000 * StandardGravity }
