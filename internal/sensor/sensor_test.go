package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func configureOps(addr uint16) []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: addr, W: []byte{0x00}, R: []byte{0xE5}},
		{Addr: addr, W: []byte{0x2C, 0x1A}},
		{Addr: addr, W: []byte{0x2D, 0x08}},
		{Addr: addr, W: []byte{0x31, 0x00}},
	}
}

func TestADXL345ReadsMetersPerSecond(t *testing.T) {
	ops := configureOps(DefaultAddr)
	// x=0, y=-125, z=250 raw counts; 4 mg per count at 2g
	ops = append(ops, i2ctest.IO{Addr: DefaultAddr, W: []byte{0x32}, R: []byte{0x00, 0x00, 0x83, 0xFF, 0xFA, 0x00}})
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}

	a, err := NewADXL345(bus, 0)
	require.NoError(t, err)
	x, y, z, err := a.Acceleration()
	require.NoError(t, err)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, -StandardGravity/2, y, 1e-9)
	assert.InDelta(t, StandardGravity, z, 1e-9)
	assert.NoError(t, bus.Close())
	assert.NoError(t, a.Close())
}

func TestADXL345WrongDeviceID(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x1D, W: []byte{0x00}, R: []byte{0x42}},
	}, DontPanic: true}
	_, err := NewADXL345(bus, 0x1D)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestADXL345BusError(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	_, err := NewADXL345(bus, 0)
	assert.Error(t, err)
}

func TestADXL345ZeroReadingIsVerified(t *testing.T) {
	ops := configureOps(DefaultAddr)
	ops = append(ops,
		i2ctest.IO{Addr: DefaultAddr, W: []byte{0x32}, R: make([]byte, 6)},
		// the device dropped off the bus; the probe sees nothing
		i2ctest.IO{Addr: DefaultAddr, W: []byte{0x00}, R: []byte{0x00}},
	)
	bus := &i2ctest.Playback{Ops: ops, DontPanic: true}
	a, err := NewADXL345(bus, 0)
	require.NoError(t, err)
	_, _, _, err = a.Acceleration()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSim(t *testing.T) {
	s := NewSim()
	_, _, z, err := s.Acceleration()
	require.NoError(t, err)
	assert.Equal(t, StandardGravity, z)

	s.Set(3, 0, 9)
	x, _, _, _ := s.Acceleration()
	assert.Equal(t, 3.0, x)
}
