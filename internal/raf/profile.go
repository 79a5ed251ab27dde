package raf

import "strconv"

// Profile fixes the develop parameters for full decodes. The defaults
// stay close to what the camera itself would render, apart from a mild
// brightness lift.
type Profile struct {
	// CameraWB applies the as-shot white balance instead of daylight.
	CameraWB bool

	// Brightness scales output linearly after demosaic.
	Brightness float64

	// NoAutoBright disables automatic exposure correction so in-camera
	// exposure choices survive.
	NoAutoBright bool

	// Gamma is the two-parameter transfer curve (power, toe slope).
	Gamma [2]float64

	// DemosaicQuality selects the interpolation algorithm (3 = AHD).
	DemosaicQuality int

	// OutputColor selects the output space (1 = sRGB).
	OutputColor int

	// HighlightMode controls clipped-highlight handling (2 = blend).
	HighlightMode int

	// WaveletDenoise is the denoising threshold, 0 disables it.
	WaveletDenoise int
}

// DefaultProfile returns the fixed profile the export pipeline uses.
func DefaultProfile() Profile {
	return Profile{
		CameraWB:        true,
		Brightness:      1.2,
		NoAutoBright:    true,
		Gamma:           [2]float64{2.222, 4.5},
		DemosaicQuality: 3,
		OutputColor:     1,
		HighlightMode:   2,
		WaveletDenoise:  100,
	}
}

// Args renders the profile as dcraw flags for path. "-c -T" stream an
// 8-bit TIFF to stdout and "-t 0" defers rotation to the caller.
func (p Profile) Args(path string) []string {
	args := []string{"-c", "-T", "-t", "0"}
	if p.CameraWB {
		args = append(args, "-w")
	}
	if p.Brightness != 0 && p.Brightness != 1.0 {
		args = append(args, "-b", strconv.FormatFloat(p.Brightness, 'g', -1, 64))
	}
	if p.NoAutoBright {
		args = append(args, "-W")
	}
	args = append(args,
		"-q", strconv.Itoa(p.DemosaicQuality),
		"-o", strconv.Itoa(p.OutputColor),
		"-H", strconv.Itoa(p.HighlightMode),
		"-g", strconv.FormatFloat(p.Gamma[0], 'g', -1, 64), strconv.FormatFloat(p.Gamma[1], 'g', -1, 64),
	)
	if p.WaveletDenoise > 0 {
		args = append(args, "-n", strconv.Itoa(p.WaveletDenoise))
	}
	return append(args, path)
}
