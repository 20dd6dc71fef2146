package backtest

import "fmt"

// Partition is a named, contiguous slice of bars.
type Partition struct {
	Name string
	Bars []Bar
}

// Split cuts bars chronologically into train, test and validation parts.
// Sizes are floor(n*train) and floor(n*test); validation takes the rest.
// The parts share bars' backing array.
func Split(bars []Bar, train, test float64) ([]Partition, error) {
	if !(train > 0) || !(test >= 0) || train+test > 1 {
		return nil, fmt.Errorf("backtest: bad split fractions train=%v test=%v", train, test)
	}

	n := len(bars)
	a := int(float64(n) * train)
	b := a + int(float64(n)*test)

	return []Partition{
		{Name: "train", Bars: bars[:a]},
		{Name: "test", Bars: bars[a:b]},
		{Name: "validation", Bars: bars[b:]},
	}, nil
}
