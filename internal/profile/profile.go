// Filename: internal/profile/profile.go
package profile

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrInvalidProfile is wrapped by every validation failure.
var ErrInvalidProfile = errors.New("invalid profile")

// Delay rate bounds, in milliseconds.
const (
	MinDelayRate = 1
	MaxDelayRate = 50
)

// DefaultStepDelay is used when a pattern step omits its delay.
const DefaultStepDelay = 10 * time.Millisecond

// ControlMode selects which buttons must be held for compensation to fire.
type ControlMode string

const (
	// ControlModeADS requires both the left and right buttons.
	ControlModeADS ControlMode = "ads"
	// ControlModeNonADS requires only the left button.
	ControlModeNonADS ControlMode = "non_ads"
)

// Valid reports whether m is a known control mode.
func (m ControlMode) Valid() bool {
	return m == ControlModeADS || m == ControlModeNonADS
}

// Firing evaluates the trigger condition for this mode.
func (m ControlMode) Firing(mouse1Down, mouse2Down bool) bool {
	switch m {
	case ControlModeADS:
		return mouse1Down && mouse2Down
	case ControlModeNonADS:
		return mouse1Down
	}
	return false
}

// MovementMethod selects how a displacement is delivered to the cursor.
type MovementMethod string

const (
	MethodDirect   MovementMethod = "direct"
	MethodRelative MovementMethod = "relative"
	MethodSmooth   MovementMethod = "smooth"
)

// Valid reports whether m is a known movement method.
func (m MovementMethod) Valid() bool {
	switch m {
	case MethodDirect, MethodRelative, MethodSmooth:
		return true
	}
	return false
}

// Samples is the number of trajectory samples the method uses (0 for direct).
func (m MovementMethod) Samples() int {
	switch m {
	case MethodRelative:
		return 5
	case MethodSmooth:
		return 8
	}
	return 0
}

// Step is one entry of a recoil pattern. DX and DY are pointers so a step that
// omits them can be told apart from a zero displacement.
type Step struct {
	DX    *int     `json:"dx,omitempty"`
	DY    *int     `json:"dy,omitempty"`
	Delay *float64 `json:"delay,omitempty"` // seconds
}

// NewStep builds a well-formed step with the default delay.
func NewStep(dx, dy int) Step {
	return Step{DX: &dx, DY: &dy}
}

// WithDelay returns a copy of s with an explicit delay.
func (s Step) WithDelay(d time.Duration) Step {
	secs := d.Seconds()
	s.Delay = &secs
	return s
}

// Complete reports whether both displacement components are present.
func (s Step) Complete() bool {
	return s.DX != nil && s.DY != nil
}

// DelayDuration returns the step delay, or DefaultStepDelay when unset.
func (s Step) DelayDuration() time.Duration {
	if s.Delay == nil {
		return DefaultStepDelay
	}
	return time.Duration(*s.Delay * float64(time.Second))
}

// UnmarshalJSON accepts "dx"/"dy" and the older "x"/"y" keys. Numeric values
// are rounded to the nearest integer.
func (s *Step) UnmarshalJSON(data []byte) error {
	var raw struct {
		DX    *float64 `json:"dx"`
		DY    *float64 `json:"dy"`
		X     *float64 `json:"x"`
		Y     *float64 `json:"y"`
		Delay *float64 `json:"delay"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	pick := func(primary, alias *float64) *int {
		v := primary
		if v == nil {
			v = alias
		}
		if v == nil {
			return nil
		}
		i := int(math.Round(*v))
		return &i
	}
	*s = Step{DX: pick(raw.DX, raw.X), DY: pick(raw.DY, raw.Y), Delay: raw.Delay}
	return nil
}

// Profile is the configuration bundle the compensation loop runs with.
// The controller only ever sees clones, so a Profile it holds is never mutated.
type Profile struct {
	Name               string         `json:"name,omitempty"`
	Sensitivity        float64        `json:"sensitivity"`
	ControlMode        ControlMode    `json:"control_mode"`
	RecoilStrength     float64        `json:"recoil_strength"`
	RequireToggle      bool           `json:"require_toggle"`
	ToggleKey          string         `json:"toggle_key"`
	DelayRate          int            `json:"delay_rate"` // milliseconds, 1-50
	MovementMethod     MovementMethod `json:"movement_method"`
	DetectionAvoidance bool           `json:"detection_avoidance"`
	Pattern            []Step         `json:"pattern"`
}

// Default returns a profile with every field at its documented default.
func Default() *Profile {
	return &Profile{
		Sensitivity:        1.0,
		ControlMode:        ControlModeADS,
		RecoilStrength:     1.0,
		RequireToggle:      true,
		ToggleKey:          "capslock",
		DelayRate:          7,
		MovementMethod:     MethodSmooth,
		DetectionAvoidance: true,
		Pattern:            []Step{},
	}
}

// Parse decodes a JSON profile on top of Default, so absent keys keep their
// defaults. A legacy "patterns": {"default": [...]} block is used when
// "pattern" is missing or empty. The result is not validated.
func Parse(data []byte) (*Profile, error) {
	p := Default()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("profile: decode: %w", err)
	}
	if len(p.Pattern) == 0 {
		var legacy struct {
			Patterns map[string][]Step `json:"patterns"`
		}
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("profile: decode legacy patterns: %w", err)
		}
		if steps, ok := legacy.Patterns["default"]; ok {
			p.Pattern = steps
		}
	}
	if p.Pattern == nil {
		p.Pattern = []Step{}
	}
	p.ControlMode = ControlMode(strings.ToLower(string(p.ControlMode)))
	p.MovementMethod = MovementMethod(strings.ToLower(string(p.MovementMethod)))
	return p, nil
}

// Marshal encodes the profile with indentation.
func (p *Profile) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// Validate reports every invalid field, joined.
func (p *Profile) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidProfile}, args...)...))
	}

	if !(p.Sensitivity > 0) || math.IsInf(p.Sensitivity, 0) {
		bad("sensitivity must be > 0, got %v", p.Sensitivity)
	}
	if math.IsNaN(p.RecoilStrength) || math.IsInf(p.RecoilStrength, 0) {
		bad("recoil_strength must be finite, got %v", p.RecoilStrength)
	}
	if !p.ControlMode.Valid() {
		bad("control_mode %q is not one of ads, non_ads", p.ControlMode)
	}
	if !p.MovementMethod.Valid() {
		bad("movement_method %q is not one of direct, relative, smooth", p.MovementMethod)
	}
	if p.DelayRate < MinDelayRate || p.DelayRate > MaxDelayRate {
		bad("delay_rate must be between %d and %d, got %d", MinDelayRate, MaxDelayRate, p.DelayRate)
	}
	if strings.TrimSpace(p.ToggleKey) == "" {
		bad("toggle_key must not be empty")
	}
	for i, s := range p.Pattern {
		if s.Delay != nil && (*s.Delay < 0 || math.IsNaN(*s.Delay)) {
			bad("pattern[%d].delay must be >= 0, got %v", i, *s.Delay)
		}
	}
	return errors.Join(errs...)
}

// Warnings lists problems that do not stop the loop but make it skip ticks.
func (p *Profile) Warnings() []string {
	var out []string
	if len(p.Pattern) == 0 {
		out = append(out, "pattern is empty: compensation will idle while firing")
	}
	for i, s := range p.Pattern {
		if !s.Complete() {
			out = append(out, fmt.Sprintf("pattern[%d] is missing dx or dy and will be skipped", i))
		}
	}
	return out
}

// Clone returns a copy that shares no slice with p. Step pointers are shared;
// they are never written through.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Pattern = append([]Step(nil), p.Pattern...)
	return &c
}

// DelayRateDuration converts the delay rate to a duration.
func (p *Profile) DelayRateDuration() time.Duration {
	return time.Duration(p.DelayRate) * time.Millisecond
}
