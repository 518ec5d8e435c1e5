package rosmsg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// buildImageBuffer constructs a synthetic sensor_msgs/Image buffer the way
// the camera serializes it: leading header bytes, a length-prefixed
// frame_id containing "camera", height then width, the encoding tag with
// its NUL terminator, the is_bigendian byte, the 4-byte step, and the
// pixel payload to the end.
func buildImageBuffer(t *testing.T, frameID string, declaredW, declaredH uint32, payload []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	// CDR preamble and header stamp stand-in. Must not contain the markers.
	buf.Write([]byte{0x00, 0x01, 0x00, 0x00, 0xde, 0xad, 0xbe, 0xef, 0x12, 0x34, 0x56, 0x78})

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(frameID)))
	buf.Write(u32[:])
	buf.WriteString(frameID)

	binary.LittleEndian.PutUint32(u32[:], declaredH)
	buf.Write(u32[:])
	binary.LittleEndian.PutUint32(u32[:], declaredW)
	buf.Write(u32[:])

	// Encoding string length prefix, then the tag itself.
	binary.LittleEndian.PutUint32(u32[:], uint32(len(EncodingRGB8)+1))
	buf.Write(u32[:])
	buf.WriteString(EncodingRGB8)
	buf.WriteByte(0x00) // string terminator
	buf.WriteByte(0x00) // is_bigendian
	binary.LittleEndian.PutUint32(u32[:], declaredW*3)
	buf.Write(u32[:]) // step
	buf.Write(payload)

	return buf.Bytes()
}

func TestDecodeImageTableMatch(t *testing.T) {
	// Payload size says 640x480 even though the embedded fields disagree.
	payload := make([]byte, 640*480*3)
	buf := buildImageBuffer(t, "camera_color_optical_frame", 9999, 7777, payload)

	frame, err := DecodeImage(buf)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if frame.Width != 640 || frame.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", frame.Width, frame.Height)
	}
	if !frame.TableMatch {
		t.Error("TableMatch = false, want true")
	}
	if frame.DeclaredWidth != 9999 || frame.DeclaredHeight != 7777 {
		t.Errorf("declared = %dx%d, want 9999x7777",
			frame.DeclaredWidth, frame.DeclaredHeight)
	}
	if frame.Encoding != EncodingRGB8 {
		t.Errorf("Encoding = %q, want %q", frame.Encoding, EncodingRGB8)
	}
	if len(frame.Pixels) != 640*480*3 {
		t.Errorf("len(Pixels) = %d, want %d", len(frame.Pixels), 640*480*3)
	}
}

func TestDecodeImageSqrtFallback(t *testing.T) {
	// 301*173*3 bytes: no table candidate within tolerance, so the decoder
	// estimates a square-ish resolution instead.
	payload := make([]byte, 301*173*3)
	buf := buildImageBuffer(t, "camera", 301, 173, payload)

	frame, err := DecodeImage(buf)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if frame.TableMatch {
		t.Error("TableMatch = true, want false")
	}
	// floor(sqrt(301*173)) = 228, then integer-division height
	if frame.Width != 228 {
		t.Errorf("Width = %d, want 228", frame.Width)
	}
	wantHeight := (301 * 173) / 228
	if frame.Height != wantHeight {
		t.Errorf("Height = %d, want %d", frame.Height, wantHeight)
	}
	if len(frame.Pixels) != frame.Width*frame.Height*3 {
		t.Errorf("len(Pixels) = %d, want %d",
			len(frame.Pixels), frame.Width*frame.Height*3)
	}
}

func TestDecodeImageTruncatesPadding(t *testing.T) {
	// 50 trailing bytes beyond 640*480*3 are padding, never pixels.
	payload := make([]byte, 640*480*3+50)
	for i := range payload {
		payload[i] = byte(i)
	}
	buf := buildImageBuffer(t, "camera_link", 640, 480, payload)

	frame, err := DecodeImage(buf)
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if frame.Width != 640 || frame.Height != 480 {
		t.Fatalf("dimensions = %dx%d, want 640x480", frame.Width, frame.Height)
	}
	if len(frame.Pixels) != 640*480*3 {
		t.Errorf("len(Pixels) = %d, want %d", len(frame.Pixels), 640*480*3)
	}
	if !bytes.Equal(frame.Pixels, payload[:640*480*3]) {
		t.Error("Pixels do not match the leading payload bytes")
	}
}

func TestDecodeImageMissingFrameIDMarker(t *testing.T) {
	// No "camera" anywhere: must fail on the frame_id marker before any
	// other code path runs, even though "rgb8" is present.
	buf := buildImageBuffer(t, "base_link", 640, 480, make([]byte, 64))

	_, err := DecodeImage(buf)
	if !IsMarkerNotFound(err, "frame_id") {
		t.Errorf("error = %v, want MarkerNotFound(frame_id)", err)
	}
}

func TestDecodeImageMissingEncodingMarker(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x01, 0x02, 0x03})
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], 6)
	buf.Write(u32[:])
	buf.WriteString("camera")
	binary.LittleEndian.PutUint32(u32[:], 480)
	buf.Write(u32[:])
	binary.LittleEndian.PutUint32(u32[:], 640)
	buf.Write(u32[:])
	buf.Write(make([]byte, 32)) // no encoding tag follows

	_, err := DecodeImage(buf.Bytes())
	if !IsMarkerNotFound(err, "encoding") {
		t.Errorf("error = %v, want MarkerNotFound(encoding)", err)
	}
}

func TestDecodeImageMarkerTooCloseToStart(t *testing.T) {
	// "camera" within the first 4 bytes leaves no room for a length prefix.
	buf := append([]byte("camera"), make([]byte, 64)...)

	_, err := DecodeImage(buf)
	if !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("error = %v, want ErrInvalidOffset", err)
	}
}

func TestDecodeImageDimensionsOutOfBounds(t *testing.T) {
	// A frame_id length that points past the end of the buffer.
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x01, 0x02, 0x03})
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], 1<<30)
	buf.Write(u32[:])
	buf.WriteString("camera")
	buf.Write(make([]byte, 32))

	_, err := DecodeImage(buf.Bytes())
	if !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("error = %v, want ErrInvalidOffset", err)
	}
}

func TestDecodeImageInsufficientPayload(t *testing.T) {
	// Within tolerance of 640x480 but 50 bytes short: the reconciled
	// dimensions need more bytes than the buffer has.
	payload := make([]byte, 640*480*3-50)
	buf := buildImageBuffer(t, "camera", 640, 480, payload)

	_, err := DecodeImage(buf)
	if !errors.Is(err, ErrInsufficientPayload) {
		t.Errorf("error = %v, want ErrInsufficientPayload", err)
	}
}

func TestDecodeImageEmptyPayload(t *testing.T) {
	buf := buildImageBuffer(t, "camera", 640, 480, nil)

	_, err := DecodeImage(buf)
	if !errors.Is(err, ErrInsufficientPayload) {
		t.Errorf("error = %v, want ErrInsufficientPayload", err)
	}
}

func TestDecodeImageDoesNotMutateInput(t *testing.T) {
	payload := make([]byte, 640*480*3)
	for i := range payload {
		payload[i] = byte(i * 7)
	}
	buf := buildImageBuffer(t, "camera_depth_frame", 640, 480, payload)
	snapshot := append([]byte(nil), buf...)

	if _, err := DecodeImage(buf); err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if !bytes.Equal(buf, snapshot) {
		t.Error("DecodeImage mutated its input buffer")
	}
}

func TestReconcileResolutionPriorityOrder(t *testing.T) {
	// An exact candidate size picks that candidate, first match wins.
	w, h, ok := reconcileResolution(1280 * 720 * 3)
	if !ok || w != 1280 || h != 720 {
		t.Errorf("got %dx%d (match=%v), want 1280x720", w, h, ok)
	}

	// Just inside the tolerance window still matches.
	w, h, ok = reconcileResolution(640*480*3 + 99)
	if !ok || w != 640 || h != 480 {
		t.Errorf("got %dx%d (match=%v), want 640x480", w, h, ok)
	}

	// Exactly at the tolerance boundary does not.
	_, _, ok = reconcileResolution(640*480*3 + 100)
	if ok {
		t.Error("size at tolerance boundary should not match the table")
	}
}

func BenchmarkDecodeImage(b *testing.B) {
	payload := make([]byte, 640*480*3)
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x01, 0x02, 0x03})
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], 6)
	buf.Write(u32[:])
	buf.WriteString("camera")
	binary.LittleEndian.PutUint32(u32[:], 480)
	buf.Write(u32[:])
	binary.LittleEndian.PutUint32(u32[:], 640)
	buf.Write(u32[:])
	binary.LittleEndian.PutUint32(u32[:], 5)
	buf.Write(u32[:])
	buf.WriteString(EncodingRGB8)
	buf.Write([]byte{0x00, 0x00})
	binary.LittleEndian.PutUint32(u32[:], 640*3)
	buf.Write(u32[:])
	buf.Write(payload)
	data := buf.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeImage(data); err != nil {
			b.Fatal(err)
		}
	}
}
