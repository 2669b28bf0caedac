package ocr

import (
	"image"

	"gocv.io/x/gocv"
)

// variants renders the crop three ways before OCR: contrast-equalized and
// Otsu-binarized, inverse-binarized, and adaptive-thresholded. Light plates
// on dark vehicles and dark plates on light vehicles each survive at least
// one rendering. The caller owns the returned Mats.
func variants(crop gocv.Mat) []gocv.Mat {
	var gray gocv.Mat
	if crop.Channels() > 1 {
		gray = gocv.NewMat()
		gocv.CvtColor(crop, &gray, gocv.ColorBGRToGray)
	} else {
		gray = crop.Clone()
	}
	defer gray.Close()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Pt(8, 8))
	defer clahe.Close()
	enhanced := gocv.NewMat()
	defer enhanced.Close()
	clahe.Apply(gray, &enhanced)

	claheOtsu := gocv.NewMat()
	gocv.Threshold(enhanced, &claheOtsu, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	plain := gocv.NewMat()
	defer plain.Close()
	gocv.Threshold(gray, &plain, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	inverted := gocv.NewMat()
	gocv.BitwiseNot(plain, &inverted)

	adaptive := gocv.NewMat()
	gocv.AdaptiveThreshold(gray, &adaptive, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 11, 2)

	return []gocv.Mat{claheOtsu, inverted, adaptive}
}
