package rosmsg

import (
	"encoding/binary"
	"math"
)

// TwistSize is the serialized size of a geometry_msgs/Twist message:
// six little-endian IEEE-754 doubles.
const TwistSize = 48

// Vector3 is one component triple of a Twist.
type Vector3 struct {
	X, Y, Z float64
}

// Twist is a velocity command. Linear occupies bytes [0,24) of the wire
// form, Angular bytes [24,48), each in x,y,z order.
type Twist struct {
	Linear  Vector3
	Angular Vector3
}

// EncodeTwist serializes a drive command into the 48-byte Twist layout.
// The bridge only ever drives forward/stop with yaw turning, so linear.y,
// linear.z, angular.x and angular.y are always zero. Any finite input is
// valid and encoding cannot fail.
func EncodeTwist(linearX, angularZ float64) []byte {
	buf := make([]byte, TwistSize)
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(linearX))
	// linear.y, linear.z, angular.x, angular.y stay zero
	binary.LittleEndian.PutUint64(buf[40:48], math.Float64bits(angularZ))
	return buf
}

// StopCommand returns the serialized all-zero Twist. It is the universal
// safe default: whenever producing a real command is impossible, publish
// this instead.
func StopCommand() []byte {
	return make([]byte, TwistSize)
}

// DecodeTwist parses a 48-byte Twist buffer. It fails with
// ErrMalformedLength for any other size and performs no value validation:
// NaN and Inf pass through, clamping is the motion consumer's job.
func DecodeTwist(buf []byte) (Twist, error) {
	if len(buf) != TwistSize {
		return Twist{}, ErrMalformedLength
	}
	f := func(off int) float64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8]))
	}
	return Twist{
		Linear:  Vector3{X: f(0), Y: f(8), Z: f(16)},
		Angular: Vector3{X: f(24), Y: f(32), Z: f(40)},
	}, nil
}
