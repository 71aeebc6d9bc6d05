package capture

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// NV12Size returns the byte length of one NV12 frame at the given geometry:
// a full-resolution Y plane followed by an interleaved UV plane at half
// height.
func NV12Size(width, height int) int {
	return width * height * 3 / 2
}

// NV12ToBGR converts a raw NV12 buffer to a BGR Mat of width x height.
// The caller owns the returned Mat and must close it.
func NV12ToBGR(data []byte, width, height int) (*gocv.Mat, error) {
	if want := NV12Size(width, height); len(data) != want {
		return nil, fmt.Errorf("nv12 buffer is %d bytes, want %d for %dx%d", len(data), want, width, height)
	}

	// The stacked Y + interleaved UV planes form a single-channel Mat of
	// height*3/2 rows that OpenCV converts in one pass.
	yuv, err := gocv.NewMatFromBytes(height*3/2, width, gocv.MatTypeCV8UC1, data)
	if err != nil {
		return nil, fmt.Errorf("wrap nv12 buffer: %w", err)
	}
	defer yuv.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(yuv, &bgr, gocv.ColorYUVToBGRNV12)
	return &bgr, nil
}

// EnsureSize returns frame resampled (bilinear) to width x height. When the
// frame already matches it is returned untouched; otherwise the input Mat is
// closed and replaced.
func EnsureSize(frame *gocv.Mat, width, height int) *gocv.Mat {
	if frame.Cols() == width && frame.Rows() == height {
		return frame
	}

	resized := gocv.NewMat()
	gocv.Resize(*frame, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	frame.Close()
	return &resized
}
