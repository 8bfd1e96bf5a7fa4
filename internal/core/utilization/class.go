// Package utilization holds per-diameter-class stand quantities
package utilization

import "fmt"

// Class is a diameter utilization class. Values match the legacy indices
type Class int

const (
	Small     Class = iota - 1 // trees under 7.5cm
	All                        // all trees 7.5cm and over
	U75To125                   // 7.5 to 12.5cm
	U125To175                  // 12.5 to 17.5cm
	U175To225                  // 17.5 to 22.5cm
	Over225                    // 22.5cm and over
)

// Bands are the four diameter bands that partition All
var Bands = [...]Class{U75To125, U125To175, U175To225, Over225}

// BandsButLargest are the bands below Over225
var BandsButLargest = [...]Class{U75To125, U125To175, U175To225}

var bounds = map[Class][2]float64{
	Small:     {0, 7.5},
	All:       {7.5, 10000},
	U75To125:  {7.5, 12.5},
	U125To175: {12.5, 17.5},
	U175To225: {17.5, 22.5},
	Over225:   {22.5, 10000},
}

var names = map[Class]string{
	Small:     "<7.5 cm",
	All:       "7.5+ cm",
	U75To125:  "7.5 - 12.5 cm",
	U125To175: "12.5 - 17.5 cm",
	U175To225: "17.5 - 22.5 cm",
	Over225:   "22.5+ cm",
}

// LowBound is the smallest diameter in the class (cm)
func (c Class) LowBound() float64 { return bounds[c][0] }

// HighBound is the diameter at which the next class starts (cm)
func (c Class) HighBound() float64 { return bounds[c][1] }

// Index is the position of the class in a Vector
func (c Class) Index() int { return int(c) + 1 }

// Previous returns the next smaller band. ok is false for U75To125 and the aggregate classes
func (c Class) Previous() (Class, bool) {
	if c <= U75To125 || c > Over225 {
		return c, false
	}
	return c - 1, true
}

// IsBand reports whether c is one of the four diameter bands
func (c Class) IsBand() bool { return c >= U75To125 && c <= Over225 }

func (c Class) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("Class(%d)", int(c))
}
