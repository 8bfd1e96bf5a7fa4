package estimate

import (
	"math"

	"vdyp/internal/core/utilization"
)

// QuadMeanDiameterByClass fills the band diameters of dq from its All value (EMP071)
func (e *Estimator) QuadMeanDiameterByClass(genus, growthBec string, dq *utilization.Vector) error {
	dq07 := dq.All()
	for _, c := range utilization.Bands {
		a, err := e.coe.QuadMeanDiameterByClassCoe(int(c), genus, growthBec)
		if err != nil {
			return err
		}
		switch c {
		case utilization.U75To125:
			if dq07 < 7.5001 {
				// the All slot is overwritten and the band left as is
				dq.SetAll(7.5)
				continue
			}
			x, err := safeExp(a[1] / a[0] * (dq07 - 7.5))
			if err != nil {
				return err
			}
			dq.Set(c, math.Min(7.5+a[0]*math.Pow(1-x, a[2]), dq07))
		case utilization.U125To175, utilization.U175To225:
			r, err := expRatio(a[0] + a[1]*math.Pow(dq07/7.5, a[2]))
			if err != nil {
				return err
			}
			dq.Set(c, c.LowBound()+5*r)
		case utilization.Over225:
			r, err := expRatio(a[2] + a[1]*math.Pow(dq07, a[3]))
			if err != nil {
				return err
			}
			dq.Set(c, math.Max(22.5, dq07+a[0]*(1-r)))
		}
	}
	return nil
}

// BaseAreaByClass splits the All basal area of ba into the four bands using the
// band diameters from QuadMeanDiameterByClass (EMP070)
func (e *Estimator) BaseAreaByClass(genus, growthBec string, dq, ba *utilization.Vector) error {
	dqAll := dq.All()

	// b[i] is the basal area in band i and above
	var b [4]float64
	b[0] = ba.All()
	for i := 1; i < 4; i++ {
		a, err := e.coe.BaseAreaByClassCoe(i, genus, growthBec)
		if err != nil {
			return err
		}
		var logit float64
		if i == 1 {
			logit = a[0] + a[1]*math.Pow(dqAll, 0.25)
		} else {
			logit = a[0] + a[1]*dqAll
		}
		r, err := expRatio(logit)
		if err != nil {
			return err
		}
		b[i] = b[i-1] * r
		if i == 1 && dqAll < 12.5 {
			max12 := (1 - math.Pow((dq.Get(utilization.U75To125)-7.4)/(dqAll-7.4), 2)) * b[0]
			b[1] = math.Min(b[1], max12)
		}
	}

	ba.Set(utilization.U75To125, ba.All()-b[1])
	ba.Set(utilization.U125To175, b[1]-b[2])
	ba.Set(utilization.U175To225, b[2]-b[3])
	ba.Set(utilization.Over225, b[3])
	return nil
}
