package led

// Power caps what a frame may draw from the supply.
//
//   - WhiteCap: per-pixel cap on R+G+B as a fraction of full white (0 or >=1 disables)
//   - ChanMA: mA per channel at full scale; WS2812 is about 20
//   - BudgetMA: global budget in mA; 0 disables the global stage
type Power struct {
	WhiteCap float64
	ChanMA   float64
	BudgetMA float64
}

// PowerFromAmps builds a limiter for a supply rated in amps.
func PowerFromAmps(amps, whiteCap, chanMA float64) Power {
	return Power{WhiteCap: whiteCap, ChanMA: chanMA, BudgetMA: amps * 1000}
}

// Apply runs the two-stage limiter in place.
func (p Power) Apply(buf []RGB) {
	if p.WhiteCap > 0 && p.WhiteCap < 1 {
		limit := p.WhiteCap * 3 * 255
		for i := range buf {
			sum := float64(buf[i].R) + float64(buf[i].G) + float64(buf[i].B)
			if sum > limit {
				buf[i] = buf[i].Scale(limit / sum)
			}
		}
	}

	if p.BudgetMA <= 0 {
		return
	}
	chanMA := p.ChanMA
	if chanMA <= 0 {
		chanMA = 20
	}
	total := Current(buf, chanMA)
	if total <= p.BudgetMA {
		return
	}
	s := p.BudgetMA / total
	for i := range buf {
		buf[i] = buf[i].Scale(s)
	}
}

// Current estimates the draw of a frame in mA.
func Current(buf []RGB, chanMA float64) float64 {
	var total float64
	for _, c := range buf {
		total += (float64(c.R) + float64(c.G) + float64(c.B)) / 255 * chanMA
	}
	return total
}
