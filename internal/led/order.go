package led

import (
	"fmt"
	"strings"
)

// Order lists, for each byte on the wire, which channel (0=R 1=G 2=B) it carries.
type Order [3]int

var (
	RGBOrder = Order{0, 1, 2}
	GRBOrder = Order{1, 0, 2}
)

// ParseOrder reads names like "GRB" or "brg".
func ParseOrder(s string) (Order, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return Order{}, fmt.Errorf("color order %q: want three letters", s)
	}
	var o Order
	seen := 0
	for k, r := range s {
		i := strings.IndexRune("RGB", r)
		if i < 0 || seen&(1<<i) != 0 {
			return Order{}, fmt.Errorf("color order %q: want a permutation of RGB", s)
		}
		seen |= 1 << i
		o[k] = i
	}
	return o, nil
}

func (o Order) String() string {
	b := make([]byte, 3)
	for k, i := range o {
		b[k] = "RGB"[i]
	}
	return string(b)
}

// Apply returns c with its channels in wire order.
func (o Order) Apply(c RGB) RGB {
	ch := [3]uint8{c.R, c.G, c.B}
	return RGB{ch[o[0]], ch[o[1]], ch[o[2]]}
}

// Through returns the order to pre-apply when the output device already
// reorders into native, so that the wire ends up in o.
func (o Order) Through(native Order) Order {
	var inv, q Order
	for k, i := range native {
		inv[i] = k
	}
	for j := range q {
		q[j] = o[inv[j]]
	}
	return q
}
