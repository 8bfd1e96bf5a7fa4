package utilization

// Vector holds one quantity broken out as Small, All, and the four bands
type Vector [6]float64

// NewVector returns a vector with only the All slot set
func NewVector(all float64) Vector {
	var v Vector
	v[All.Index()] = all
	return v
}

// Get returns the value for class c
func (v *Vector) Get(c Class) float64 { return v[c.Index()] }

// Set assigns the value for class c
func (v *Vector) Set(c Class, x float64) { v[c.Index()] = x }

// All returns the 7.5cm+ total
func (v *Vector) All() float64 { return v[All.Index()] }

// SetAll assigns the 7.5cm+ total
func (v *Vector) SetAll(x float64) { v[All.Index()] = x }

// Small returns the under 7.5cm slot
func (v *Vector) Small() float64 { return v[Small.Index()] }

// SetSmall assigns the under 7.5cm slot
func (v *Vector) SetSmall(x float64) { v[Small.Index()] = x }

// Large returns the 22.5cm+ band
func (v *Vector) Large() float64 { return v[Over225.Index()] }

// SetLarge assigns the 22.5cm+ band
func (v *Vector) SetLarge(x float64) { v[Over225.Index()] = x }

// Broadcast writes x into every slot
func (v *Vector) Broadcast(x float64) {
	for i := range v {
		v[i] = x
	}
}

// Scale multiplies every slot by f
func (v *Vector) Scale(f float64) {
	for i := range v {
		v[i] *= f
	}
}

// Add accumulates o into v slot by slot
func (v *Vector) Add(o *Vector) {
	for i := range v {
		v[i] += o[i]
	}
}

// BandSum returns the sum of the four bands
func (v *Vector) BandSum() float64 {
	var s float64
	for _, c := range Bands {
		s += v.Get(c)
	}
	return s
}

// CopyBands copies the four band slots from o, keeping Small and All
func (v *Vector) CopyBands(o *Vector) {
	for _, c := range Bands {
		v.Set(c, o.Get(c))
	}
}

// CopyNotSmall copies All and the bands from o, keeping Small
func (v *Vector) CopyNotSmall(o *Vector) {
	v.SetAll(o.All())
	v.CopyBands(o)
}

// Heights is a Lorey height pair; only Small and All are meaningful for heights
type Heights [2]float64

// NewHeights returns heights with the given small and all values
func NewHeights(small, all float64) Heights { return Heights{small, all} }

// Small returns the under 7.5cm Lorey height
func (h *Heights) Small() float64 { return h[0] }

// All returns the 7.5cm+ Lorey height
func (h *Heights) All() float64 { return h[1] }

// SetSmall assigns the under 7.5cm Lorey height
func (h *Heights) SetSmall(x float64) { h[0] = x }

// SetAll assigns the 7.5cm+ Lorey height
func (h *Heights) SetAll(x float64) { h[1] = x }
