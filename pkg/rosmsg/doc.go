// Package rosmsg encodes and decodes the two ROS 2 message shapes the
// bridge cares about: geometry_msgs/Twist (fixed 48-byte CDR layout) and
// sensor_msgs/Image (variable layout, recovered heuristically without a
// schema by locating known marker substrings).
//
// Both codecs are pure functions over byte buffers. They hold no state,
// never mutate their input, and may be called from any number of
// goroutines concurrently.
package rosmsg
