package led

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"
)

// DefaultNRZFreq drives WS2812 pixels with 3 SPI bits per data bit.
const DefaultNRZFreq = 2500 * physic.KiloHertz

// NRZNative is the byte order nrzled puts on the wire.
var NRZNative = GRBOrder

// DrawerDriver feeds frames to a periph display.Drawer, one image row of N pixels.
type DrawerDriver struct {
	name   string
	drawer display.Drawer
	port   io.Closer
	img    *image.NRGBA
}

func newDrawerDriver(name string, d display.Drawer, count int) *DrawerDriver {
	return &DrawerDriver{
		name:   name,
		drawer: d,
		img:    image.NewNRGBA(image.Rect(0, 0, count, 1)),
	}
}

// NewNRZ opens an SPI port (empty name picks the first one) and drives a
// WS2812 chain through nrzled.
func NewNRZ(port string, count int, freq physic.Frequency) (*DrawerDriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", port, err)
	}
	d, err := NewNRZOnPort(p, count, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	d.port = p
	return d, nil
}

func NewNRZOnPort(p spi.Port, count int, freq physic.Frequency) (*DrawerDriver, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if freq == 0 {
		freq = DefaultNRZFreq
	}
	dev, err := nrzled.NewSPI(p, &nrzled.Opts{NumPixels: count, Channels: 3, Freq: freq})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	if err := dev.Halt(); err != nil {
		return nil, fmt.Errorf("nrzled halt: %w", err)
	}
	return newDrawerDriver("nrzled", dev, count), nil
}

// NewScreen prints frames as ANSI blocks on the console.
func NewScreen(count int) *DrawerDriver {
	return newDrawerDriver("screen", screen.New(count), count)
}

func (d *DrawerDriver) String() string { return d.name }

func (d *DrawerDriver) Write(rgb []byte) error {
	n := d.img.Bounds().Dx()
	if len(rgb) != n*3 {
		return fmt.Errorf("%s: frame has %d bytes, want %d", d.name, len(rgb), n*3)
	}
	for i := 0; i < n; i++ {
		d.img.SetNRGBA(i, 0, color.NRGBA{R: rgb[i*3], G: rgb[i*3+1], B: rgb[i*3+2], A: 0xFF})
	}
	return d.drawer.Draw(d.drawer.Bounds(), d.img, image.Point{})
}

func (d *DrawerDriver) Close() error {
	err := d.drawer.Halt()
	if d.port != nil {
		if cerr := d.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
