// Package follow runs the camera-to-cmd_vel decision loop: decode each
// frame, ask the detector whether a person is visible, and publish the
// matching velocity command.
package follow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robodyne/go-follow/internal/log"
	"github.com/robodyne/go-follow/pkg/bus"
	"github.com/robodyne/go-follow/pkg/rosmsg"
	"github.com/robodyne/go-follow/pkg/vision"
)

// Recorder captures raw frame payloads as they arrive. Optional.
type Recorder interface {
	Record(key string, payload []byte) error
}

// Config holds the loop's keys and velocities.
type Config struct {
	CameraKey string
	CmdVelKey string

	// ForwardSpeed is linear.x when a person is visible; TurnSpeed is
	// angular.z. No person, or any failure, publishes stop.
	ForwardSpeed float64
	TurnSpeed    float64
}

// Decision is one published command and the evidence behind it.
type Decision struct {
	Time       time.Time `json:"time"`
	Person     bool      `json:"person"`
	Answer     string    `json:"answer"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	TableMatch bool      `json:"table_match"`
	LinearX    float64   `json:"linear_x"`
	AngularZ   float64   `json:"angular_z"`
}

// Status is a counters snapshot for the dashboard.
type Status struct {
	FramesReceived uint64 `json:"frames_received"`
	FramesDecoded  uint64 `json:"frames_decoded"`
	DecodeErrors   uint64 `json:"decode_errors"`
	FallbackFrames uint64 `json:"fallback_frames"`
	Detections     uint64 `json:"detections"`
	DetectErrors   uint64 `json:"detect_errors"`
	PublishErrors  uint64 `json:"publish_errors"`

	LastDecision *Decision `json:"last_decision,omitempty"`
}

// Follower consumes camera frames and drives the robot.
type Follower struct {
	cfg      Config
	bus      bus.Bus
	detector vision.Detector
	recorder Recorder // may be nil

	// OnDecision, when set, is invoked after every published command.
	// Called from the loop goroutine; keep it fast.
	OnDecision func(Decision)

	framesReceived atomic.Uint64
	framesDecoded  atomic.Uint64
	decodeErrors   atomic.Uint64
	fallbackFrames atomic.Uint64
	detections     atomic.Uint64
	detectErrors   atomic.Uint64
	publishErrors  atomic.Uint64

	mu   sync.RWMutex
	last *Decision
}

// New creates a follower over the given bus and detector.
func New(cfg Config, b bus.Bus, d vision.Detector) *Follower {
	return &Follower{cfg: cfg, bus: b, detector: d}
}

// SetRecorder attaches an optional raw-frame recorder. Call before Run.
func (f *Follower) SetRecorder(r Recorder) { f.recorder = r }

// Run subscribes to the camera key and processes frames until ctx is
// cancelled. A decode or classification failure skips that frame; frame
// loss is tolerable, a crash is not.
func (f *Follower) Run(ctx context.Context) error {
	frames, err := f.bus.Subscribe(ctx, f.cfg.CameraKey)
	if err != nil {
		return err
	}
	cmdPub, err := f.bus.Publisher(f.cfg.CmdVelKey)
	if err != nil {
		return err
	}
	defer cmdPub.Close()

	logger := log.Component("follow")
	logger.Info("following started",
		"camera_key", f.cfg.CameraKey, "cmd_vel_key", f.cfg.CmdVelKey)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample, ok := <-frames:
			if !ok {
				return nil
			}
			f.handleFrame(ctx, sample, cmdPub)
		}
	}
}

func (f *Follower) handleFrame(ctx context.Context, sample bus.Sample, cmdPub bus.Publisher) {
	logger := log.Component("follow")
	f.framesReceived.Add(1)

	if f.recorder != nil {
		if err := f.recorder.Record(sample.Key, sample.Payload); err != nil {
			logger.Warn("frame capture failed", "error", err)
		}
	}

	frame, err := rosmsg.DecodeImage(sample.Payload)
	if err != nil {
		f.decodeErrors.Add(1)
		logger.Warn("frame decode failed, skipping", "error", err, "bytes", len(sample.Payload))
		return
	}
	f.framesDecoded.Add(1)
	if !frame.TableMatch {
		f.fallbackFrames.Add(1)
		logger.Debug("resolution fallback used",
			"width", frame.Width, "height", frame.Height,
			"declared_width", frame.DeclaredWidth, "declared_height", frame.DeclaredHeight)
	}

	verdict, err := f.detector.Detect(ctx, frame)
	if err != nil {
		// Classification failure means "no detection": stop.
		f.detectErrors.Add(1)
		logger.Warn("detection failed, stopping", "error", err)
		verdict = vision.Verdict{}
	} else if verdict.Person {
		f.detections.Add(1)
	}

	linearX, angularZ := 0.0, 0.0
	if verdict.Person {
		linearX = f.cfg.ForwardSpeed
		angularZ = f.cfg.TurnSpeed
	}

	cmd := rosmsg.EncodeTwist(linearX, angularZ)
	if err := cmdPub.Put(cmd); err != nil {
		f.publishErrors.Add(1)
		logger.Error("command publish failed", "error", err)
		return
	}

	decision := Decision{
		Time:       time.Now(),
		Person:     verdict.Person,
		Answer:     verdict.Answer,
		Width:      frame.Width,
		Height:     frame.Height,
		TableMatch: frame.TableMatch,
		LinearX:    linearX,
		AngularZ:   angularZ,
	}
	f.mu.Lock()
	f.last = &decision
	f.mu.Unlock()

	logger.Info("command published",
		"person", verdict.Person, "linear_x", linearX, "angular_z", angularZ,
		"resolution", frame.Width*frame.Height)

	if f.OnDecision != nil {
		f.OnDecision(decision)
	}
}

// Status returns a snapshot of the loop's counters.
func (f *Follower) Status() Status {
	s := Status{
		FramesReceived: f.framesReceived.Load(),
		FramesDecoded:  f.framesDecoded.Load(),
		DecodeErrors:   f.decodeErrors.Load(),
		FallbackFrames: f.fallbackFrames.Load(),
		Detections:     f.detections.Load(),
		DetectErrors:   f.detectErrors.Load(),
		PublishErrors:  f.publishErrors.Load(),
	}
	f.mu.RLock()
	if f.last != nil {
		d := *f.last
		s.LastDecision = &d
	}
	f.mu.RUnlock()
	return s
}
