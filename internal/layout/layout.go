package layout

import "fmt"

// NoPixel is returned for coordinates that do not address a wired LED.
const NoPixel = -1

type Dim struct{ X, Y int }

// Tiles describes a matrix assembled from equally sized square panels.
// Chain holds the position of each tile on the data line, indexed row*Grid.X+col.
type Tiles struct {
	Tile  Dim
	Grid  Dim
	Chain []int
}

type Layout struct {
	Tiles Tiles
}

// Default is the 16x16 panel built from four 8x8 tiles. The data line enters the
// bottom-right tile, then bottom-left, top-right, top-left.
func Default() Layout {
	return Layout{Tiles: Tiles{
		Tile:  Dim{X: 8, Y: 8},
		Grid:  Dim{X: 2, Y: 2},
		Chain: []int{3, 2, 1, 0},
	}}
}

func (l Layout) Width() int  { return l.Tiles.Tile.X * l.Tiles.Grid.X }
func (l Layout) Height() int { return l.Tiles.Tile.Y * l.Tiles.Grid.Y }
func (l Layout) Count() int  { return l.Width() * l.Height() }

func (l Layout) perTile() int { return l.Tiles.Tile.X * l.Tiles.Tile.Y }

// Index maps logical x,y (0,0 top-left) -> LED index on the data line.
// Inside a tile both rows and columns run reversed.
func (l Layout) Index(x, y int) int {
	if x < 0 || y < 0 || x >= l.Width() || y >= l.Height() {
		return NoPixel
	}
	tw, th := l.Tiles.Tile.X, l.Tiles.Tile.Y
	col, row := x/tw, y/th
	t := row*l.Tiles.Grid.X + col
	if t >= len(l.Tiles.Chain) {
		return NoPixel
	}
	lx, ly := x%tw, y%th
	i := l.Tiles.Chain[t]*l.perTile() + (th-1-ly)*tw + (tw - 1 - lx)
	if i < 0 || i >= l.Count() {
		return NoPixel
	}
	return i
}

// Coord is the inverse of Index.
func (l Layout) Coord(i int) (x, y int, ok bool) {
	if i < 0 || i >= l.Count() {
		return 0, 0, false
	}
	tw, th := l.Tiles.Tile.X, l.Tiles.Tile.Y
	pos, local := i/l.perTile(), i%l.perTile()
	for t, p := range l.Tiles.Chain {
		if p != pos {
			continue
		}
		col, row := t%l.Tiles.Grid.X, t/l.Tiles.Grid.X
		ly := th - 1 - local/tw
		lx := tw - 1 - local%tw
		return col*tw + lx, row*th + ly, true
	}
	return 0, 0, false
}

// TileOf returns the chain position of the tile holding LED index i.
func (l Layout) TileOf(i int) int {
	if i < 0 || i >= l.Count() {
		return NoPixel
	}
	return i / l.perTile()
}

// Validate checks that the chain is a permutation of the tile grid.
func (l Layout) Validate() error {
	n := l.Tiles.Grid.X * l.Tiles.Grid.Y
	if l.Tiles.Tile.X <= 0 || l.Tiles.Tile.Y <= 0 || n <= 0 {
		return fmt.Errorf("layout: invalid tile geometry %dx%d in %dx%d grid",
			l.Tiles.Tile.X, l.Tiles.Tile.Y, l.Tiles.Grid.X, l.Tiles.Grid.Y)
	}
	if len(l.Tiles.Chain) != n {
		return fmt.Errorf("layout: chain has %d entries, want %d", len(l.Tiles.Chain), n)
	}
	seen := make([]bool, n)
	for _, p := range l.Tiles.Chain {
		if p < 0 || p >= n || seen[p] {
			return fmt.Errorf("layout: chain %v is not a permutation of 0..%d", l.Tiles.Chain, n-1)
		}
		seen[p] = true
	}
	return nil
}

// Raster reorders a frame of 3-byte pixels from data-line order into
// row-major logical order. Short frames leave the tail black.
func (l Layout) Raster(frame []byte) []byte {
	w, h := l.Width(), l.Height()
	out := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := l.Index(x, y)
			if i == NoPixel || i*3+2 >= len(frame) {
				continue
			}
			copy(out[(y*w+x)*3:], frame[i*3:i*3+3])
		}
	}
	return out
}
