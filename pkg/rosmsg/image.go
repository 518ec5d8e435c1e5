package rosmsg

import (
	"bytes"
	"encoding/binary"
	"math"
)

// EncodingRGB8 is the pixel encoding the camera publishes. Three bytes per
// pixel, red first.
const EncodingRGB8 = "rgb8"

const rgbChannels = 3

// Markers used to locate structure inside the undocumented Image layout.
// The camera's frame_id always contains "camera", and the encoding field
// is the literal tag string.
var (
	frameIDMarker  = []byte("camera")
	encodingMarker = []byte(EncodingRGB8)
)

// Sizes of the fixed fields that follow the encoding string in the wire
// format: the CDR string NUL terminator, the is_bigendian byte, and the
// 4-byte row step.
const (
	encodingNulSize   = 1
	isBigendianSize   = 1
	stepFieldSize     = 4
	dimensionTailSize = 8 // height + width, both uint32
)

// resolutionCandidates are common camera resolutions tried in priority
// order when reconciling the embedded dimensions against the actual
// payload size. Order matters: the first match within tolerance wins.
var resolutionCandidates = [...][2]int{
	{640, 480},
	{800, 600},
	{1024, 768},
	{1280, 720},
	{1280, 960},
	{1920, 1080},
	{1280, 1024},
	{1600, 1200},
}

// resolutionTolerance is the allowed byte gap between w*h*3 and the raw
// payload size, absorbing wire-format padding the decoder does not model.
const resolutionTolerance = 100

// Frame is one decoded camera image. Pixels aliases the source buffer; it
// is valid only as long as the caller keeps that buffer alive and
// unmodified. Any channel reordering for a downstream consumer (RGB to
// BGR and the like) happens after decode, not here.
type Frame struct {
	Width    int
	Height   int
	Encoding string
	Pixels   []byte

	// TableMatch is true when Width and Height came from the resolution
	// candidate table, false when the square-root fallback was used.
	// Callers that care about aspect-ratio accuracy should check it.
	TableMatch bool

	// DeclaredWidth and DeclaredHeight are the dimensions embedded in the
	// header. They are often wrong and are kept only for diagnostics.
	DeclaredWidth  int
	DeclaredHeight int
}

// DecodeImage recovers a Frame from a raw sensor_msgs/Image buffer without
// a schema. Structure is located by content sniffing: first the frame_id
// via its "camera" marker, then the encoding tag. The embedded width and
// height fields are frequently inconsistent with the actual payload, so
// the final dimensions come from reconcileResolution. The input buffer is
// never modified.
func DecodeImage(buf []byte) (*Frame, error) {
	idPos, err := locateMarker(buf, frameIDMarker, "frame_id")
	if err != nil {
		return nil, err
	}
	// The 4 bytes before the marker are the frame_id string's length prefix.
	if idPos < 4 {
		return nil, ErrInvalidOffset
	}
	idLen := int(binary.LittleEndian.Uint32(buf[idPos-4 : idPos]))

	// Wire order after the frame_id is height first, then width. That is a
	// property of the format being reverse-engineered, not a choice.
	idEnd := idPos + idLen
	if idEnd < 0 || idEnd+dimensionTailSize > len(buf) {
		return nil, ErrInvalidOffset
	}
	declaredHeight := int(binary.LittleEndian.Uint32(buf[idEnd : idEnd+4]))
	declaredWidth := int(binary.LittleEndian.Uint32(buf[idEnd+4 : idEnd+8]))

	encPos, err := locateMarker(buf, encodingMarker, "encoding")
	if err != nil {
		return nil, err
	}
	headerSize := encPos + len(encodingMarker) + encodingNulSize + isBigendianSize + stepFieldSize
	if headerSize > len(buf) {
		return nil, ErrInsufficientPayload
	}

	payload := buf[headerSize:]
	width, height, matched := reconcileResolution(len(payload))
	if width <= 0 || height <= 0 {
		return nil, ErrInsufficientPayload
	}

	need := width * height * rgbChannels
	if need > len(payload) {
		return nil, ErrInsufficientPayload
	}

	return &Frame{
		Width:          width,
		Height:         height,
		Encoding:       EncodingRGB8,
		Pixels:         payload[:need], // trailing padding is discarded
		TableMatch:     matched,
		DeclaredWidth:  declaredWidth,
		DeclaredHeight: declaredHeight,
	}, nil
}

// locateMarker finds the literal marker in buf. Isolated so the fragility
// of the content-sniffing step stays visible and testable on its own.
func locateMarker(buf, marker []byte, field string) (int, error) {
	pos := bytes.Index(buf, marker)
	if pos < 0 {
		return 0, &MarkerNotFoundError{Field: field, Marker: string(marker)}
	}
	return pos, nil
}

// reconcileResolution infers the true image dimensions from the payload
// size. The declared dimensions are only a hint; the candidate table is
// scanned in priority order and the first entry within tolerance wins.
// With no match it falls back to a square-ish estimate: floor(sqrt) width
// and integer-division height, which can under-count pixels when the
// payload is not a perfect fit. That rounding is kept as-is.
func reconcileResolution(payloadSize int) (width, height int, tableMatch bool) {
	for _, c := range resolutionCandidates {
		expected := c[0] * c[1] * rgbChannels
		diff := expected - payloadSize
		if diff < 0 {
			diff = -diff
		}
		if diff < resolutionTolerance {
			return c[0], c[1], true
		}
	}

	pixels := payloadSize / rgbChannels
	if pixels <= 0 {
		return 0, 0, false
	}
	width = int(math.Sqrt(float64(pixels)))
	if width == 0 {
		return 0, 0, false
	}
	height = pixels / width
	return width, height, false
}
