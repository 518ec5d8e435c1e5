package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/robodyne/go-follow/pkg/rosmsg"
)

// frameToJPEG converts a decoded rgb8 frame into a small JPEG for
// inference. The codec hands out pixels in RGB order; OpenCV wants BGR,
// so the channel reorder happens here, on the consumer side, where it
// belongs.
func frameToJPEG(frame *rosmsg.Frame, width, height, quality int) ([]byte, error) {
	if frame.Encoding != rosmsg.EncodingRGB8 {
		return nil, fmt.Errorf("vision: unsupported encoding %q", frame.Encoding)
	}

	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pixels)
	if err != nil {
		return nil, fmt.Errorf("vision: wrap frame: %w", err)
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(mat, &bgr, gocv.ColorRGBToBGR)

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(bgr, &small, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, small,
		[]int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("vision: encode jpeg: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
