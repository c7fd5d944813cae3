package ffmpegwriter

import (
	"fmt"
	"strconv"
)

// codecArgs returns the output options for codec at quality 1-100.
func codecArgs(codec string, width, height int, fps float64, quality int) []string {
	q := clampQuality(quality)

	switch codec {
	case "libx264":
		return []string{"-preset", "fast", "-crf", strconv.Itoa(crf(q)), "-pix_fmt", "yuv420p", "-movflags", "+faststart"}
	case "h264_videotoolbox":
		return []string{"-q:v", strconv.Itoa(q), "-pix_fmt", "yuv420p", "-movflags", "+faststart"}
	case "h264_nvenc":
		return []string{"-preset", "p4", "-cq", strconv.Itoa(crf(q)), "-pix_fmt", "yuv420p", "-movflags", "+faststart"}
	case "h264_mf", "h264_qsv", "h264_amf":
		return []string{"-b:v", bitrate(width, height, fps, q), "-pix_fmt", "yuv420p", "-movflags", "+faststart"}
	case "mpeg4":
		// mpeg4 qscale: 2 is best, 31 worst
		qscale := 31 - (q-1)*29/99
		return []string{"-q:v", strconv.Itoa(qscale), "-pix_fmt", "yuv420p"}
	case "ffv1":
		return []string{"-level", "3", "-pix_fmt", "bgr0"}
	default:
		return []string{"-pix_fmt", "yuv420p"}
	}
}

// needsEvenSize reports whether the codec's pixel format requires even dimensions.
func needsEvenSize(codec string) bool {
	return codec != "ffv1"
}

// crf maps quality 1-100 to a CRF between 40 and 18.
func crf(q int) int {
	return 40 - (q-1)*22/99
}

// bitrate estimates a target bitrate for encoders without a constant quality mode.
func bitrate(width, height int, fps float64, q int) string {
	bitsPerPixel := 0.05 + 0.15*float64(q)/100
	kbps := int(float64(width*height)*fps*bitsPerPixel/1000) + 1
	return fmt.Sprintf("%dk", kbps)
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
