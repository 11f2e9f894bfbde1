package valuation

// CalibrateFairValue maps an adjusted impact score to a fair annual value
// using the fixed anchors.
func CalibrateFairValue(score float64) FairValueCalibration {
	return calibrate(DefaultCalibration(), score)
}

// calibrate interpolates linearly through the median and top anchors, then
// floors the result and caps it at CapRatio times the top anchor value.
func calibrate(a CalibrationAnchors, score float64) FairValueCalibration {
	slope := (a.TopValue - a.MedianValue) / (a.TopScore - a.MedianScore)
	intercept := a.MedianValue - slope*a.MedianScore
	linear := slope*score + intercept
	ceiling := a.TopValue * a.CapRatio

	out := FairValueCalibration{
		Anchors:   a,
		Slope:     slope,
		Intercept: intercept,
		Score:     score,
		Linear:    linear,
		Cap:       ceiling,
		Value:     linear,
	}
	switch {
	case linear < a.Floor:
		out.Value = a.Floor
		out.Floored = true
	case linear > ceiling:
		out.Value = ceiling
		out.Capped = true
	}
	return out
}
