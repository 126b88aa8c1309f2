package tracer

import "math"

// visibleSpectrumMin and visibleSpectrumMax bound the wavelength range trace
// units sample uniformly from, in nanometers.
const (
	visibleSpectrumMin = 380.0
	visibleSpectrumMax = 730.0
	visibleSpectrumRange = visibleSpectrumMax - visibleSpectrumMin
)

// colorMatch approximates the CIE 1931 color matching functions using the
// multi-lobe Gaussian fit, giving the (x, y, z) tristimulus weight a single
// wavelength sample contributes.
func colorMatch(wavelengthNm float64) (x, y, z float64) {
	x = gauss(wavelengthNm, 1.056, 599.8, 0.0264, 0.0323) +
		gauss(wavelengthNm, 0.362, 442.0, 0.0624, 0.0374) -
		gauss(wavelengthNm, 0.065, 501.1, 0.0490, 0.0382)

	y = gauss(wavelengthNm, 0.821, 568.8, 0.0213, 0.0247) +
		gauss(wavelengthNm, 0.286, 530.9, 0.0613, 0.0322)

	z = gauss(wavelengthNm, 1.217, 437.0, 0.0845, 0.0278) +
		gauss(wavelengthNm, 0.681, 459.0, 0.0385, 0.0725)

	return x, y, z
}

// gauss evaluates an asymmetric Gaussian lobe: below the mean it uses
// widthLo, above it uses widthHi.
func gauss(wavelength, amplitude, mean, widthLo, widthHi float64) float64 {
	width := widthHi
	if wavelength < mean {
		width = widthLo
	}
	t := (wavelength - mean) * width
	return amplitude * math.Exp(-0.5*t*t)
}
