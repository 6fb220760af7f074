package pptx

import "math"

// DrawingML lengths are English Metric Units.
const (
	EMUPerInch  = 914400
	EMUPerPoint = 12700
)

// maxCoord is the ST_Coordinate bound of DrawingML.
const maxCoord = 27273042316900

// Points converts points to EMU, rounded to the nearest unit.
func Points(pt float64) int64 { return emu(pt * EMUPerPoint) }

// Inches converts inches to EMU.
func Inches(in float64) int64 { return emu(in * EMUPerInch) }

// EMUToInch converts EMU to inches.
func EMUToInch(v int64) float64 { return float64(v) / EMUPerInch }

// EMUToPoint converts EMU to points.
func EMUToPoint(v int64) float64 { return float64(v) / EMUPerPoint }

func emu(v float64) int64 {
	v = math.Round(v)
	switch {
	case math.IsNaN(v):
		return 0
	case v > maxCoord:
		return maxCoord
	case v < -maxCoord:
		return -maxCoord
	}
	return int64(v)
}
