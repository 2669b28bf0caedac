package gate

import (
	"gocv.io/x/gocv"
)

// Sharpness measures crop clarity as the variance of the Laplacian over the
// grayscale crop. Motion-blurred or out-of-focus crops score low and are
// rejected before any OCR cost is paid.
func Sharpness(crop gocv.Mat) float64 {
	var gray gocv.Mat
	if crop.Channels() > 1 {
		gray = gocv.NewMat()
		gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)
	} else {
		gray = crop.Clone()
	}
	defer gray.Close()

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	defer mean.Close()
	stddev := gocv.NewMat()
	defer stddev.Close()
	gocv.MeanStdDev(lap, &mean, &stddev)

	sd := stddev.GetDoubleAt(0, 0)
	return sd * sd
}
