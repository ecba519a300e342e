// Filename: internal/profile/profile_test.go
package profile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intPtr(i int) *int { return &i }

func TestParse_DefaultsForMissingKeys(t *testing.T) {
	p, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	if diff := cmp.Diff(Default(), p); diff != "" {
		t.Errorf("empty profile should equal defaults (-want +got):\n%s", diff)
	}
	assert.NoError(t, p.Validate())
}

func TestParse_FullProfile(t *testing.T) {
	data := []byte(`{
		"name": "ak",
		"sensitivity": 0.8,
		"control_mode": "NON_ADS",
		"recoil_strength": 2.5,
		"require_toggle": false,
		"toggle_key": "f6",
		"delay_rate": 12,
		"movement_method": "relative",
		"detection_avoidance": false,
		"pattern": [
			{"dx": 0, "dy": -5},
			{"x": 1, "y": -4, "delay": 0.02},
			{"dx": 2}
		]
	}`)

	p, err := Parse(data)
	require.NoError(t, err)

	want := &Profile{
		Name:               "ak",
		Sensitivity:        0.8,
		ControlMode:        ControlModeNonADS,
		RecoilStrength:     2.5,
		RequireToggle:      false,
		ToggleKey:          "f6",
		DelayRate:          12,
		MovementMethod:     MethodRelative,
		DetectionAvoidance: false,
		Pattern: []Step{
			NewStep(0, -5),
			NewStep(1, -4).WithDelay(20 * time.Millisecond),
			{DX: intPtr(2)},
		},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("parsed profile mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, p.Validate())
	assert.Equal(t, []string{"pattern[2] is missing dx or dy and will be skipped"}, p.Warnings())
}

func TestParse_LegacyPatterns(t *testing.T) {
	p, err := Parse([]byte(`{"patterns": {"default": [{"x": 0, "y": -3}], "other": [{"x": 9, "y": 9}]}}`))
	require.NoError(t, err)
	require.Len(t, p.Pattern, 1)
	assert.Equal(t, 0, *p.Pattern[0].DX)
	assert.Equal(t, -3, *p.Pattern[0].DY)
}

func TestParse_PatternWinsOverLegacy(t *testing.T) {
	p, err := Parse([]byte(`{"pattern": [{"dx": 4, "dy": 4}], "patterns": {"default": [{"x": 0, "y": -3}]}}`))
	require.NoError(t, err)
	require.Len(t, p.Pattern, 1)
	assert.Equal(t, 4, *p.Pattern[0].DX)
}

func TestParse_RoundsFractionalOffsets(t *testing.T) {
	p, err := Parse([]byte(`{"pattern": [{"dx": 1.6, "dy": -2.4}]}`))
	require.NoError(t, err)
	assert.Equal(t, 2, *p.Pattern[0].DX)
	assert.Equal(t, -2, *p.Pattern[0].DY)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{"sensitivity": "fast"`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(p *Profile)
		wantMsg string
	}{
		{"zero sensitivity", func(p *Profile) { p.Sensitivity = 0 }, "sensitivity must be > 0"},
		{"unknown control mode", func(p *Profile) { p.ControlMode = "hipfire" }, "control_mode \"hipfire\""},
		{"unknown method", func(p *Profile) { p.MovementMethod = "teleport" }, "movement_method \"teleport\""},
		{"delay rate too low", func(p *Profile) { p.DelayRate = 0 }, "delay_rate must be between 1 and 50"},
		{"delay rate too high", func(p *Profile) { p.DelayRate = 51 }, "delay_rate must be between 1 and 50"},
		{"empty toggle key", func(p *Profile) { p.ToggleKey = "  " }, "toggle_key must not be empty"},
		{"negative step delay", func(p *Profile) { p.Pattern = []Step{NewStep(0, 1).WithDelay(-time.Millisecond)} }, "pattern[0].delay must be >= 0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := Default()
			tc.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProfile))
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}

	t.Run("reports every problem", func(t *testing.T) {
		p := Default()
		p.Sensitivity = -1
		p.DelayRate = 99
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sensitivity")
		assert.Contains(t, err.Error(), "delay_rate")
	})
}

func TestControlModeFiring(t *testing.T) {
	assert.True(t, ControlModeADS.Firing(true, true))
	assert.False(t, ControlModeADS.Firing(true, false))
	assert.False(t, ControlModeADS.Firing(false, true))
	assert.True(t, ControlModeNonADS.Firing(true, false))
	assert.True(t, ControlModeNonADS.Firing(true, true))
	assert.False(t, ControlModeNonADS.Firing(false, true))
	assert.False(t, ControlMode("bogus").Firing(true, true))
}

func TestMovementMethodSamples(t *testing.T) {
	assert.Equal(t, 0, MethodDirect.Samples())
	assert.Equal(t, 5, MethodRelative.Samples())
	assert.Equal(t, 8, MethodSmooth.Samples())
}

func TestStepDelayDuration(t *testing.T) {
	assert.Equal(t, DefaultStepDelay, NewStep(1, 1).DelayDuration())
	assert.Equal(t, 25*time.Millisecond, NewStep(1, 1).WithDelay(25*time.Millisecond).DelayDuration())
}

func TestClone_IsIndependent(t *testing.T) {
	p := Default()
	p.Pattern = []Step{NewStep(1, 2)}
	c := p.Clone()
	c.Pattern[0] = NewStep(9, 9)
	c.MovementMethod = MethodDirect

	assert.Equal(t, 1, *p.Pattern[0].DX)
	assert.Equal(t, MethodSmooth, p.MovementMethod)
}

func TestMarshalRoundTrip(t *testing.T) {
	p := Default()
	p.Name = "roundtrip"
	p.Pattern = []Step{NewStep(0, -5), NewStep(1, -4).WithDelay(15 * time.Millisecond)}

	data, err := p.Marshal()
	require.NoError(t, err)
	back, err := Parse(data)
	require.NoError(t, err)
	if diff := cmp.Diff(p, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// -- Store --

func writeProfile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := writeProfile(t, dir, "smg.json", `{"delay_rate": 9}`)
	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "smg", p.Name, "name falls back to the file name")
	assert.Equal(t, 9, p.DelayRate)

	bad := writeProfile(t, dir, "bad.json", `{"delay_rate": 0}`)
	_, err = Load(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidProfile)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveAndList(t *testing.T) {
	dir := t.TempDir()
	ak := writeProfile(t, dir, "ak.json", `{}`)
	writeProfile(t, dir, "m4.json", `{}`)
	writeProfile(t, dir, "notes.txt", `ignore me`)

	got, err := Resolve(dir, "ak")
	require.NoError(t, err)
	assert.Equal(t, ak, got)

	got, err = Resolve(dir, "ak.json")
	require.NoError(t, err)
	assert.Equal(t, ak, got)

	got, err = Resolve("/nonexistent", ak)
	require.NoError(t, err, "an existing path wins over the directory")
	assert.Equal(t, ak, got)

	_, err = Resolve(dir, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = Resolve(dir, "")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"ak", "m4"}, names)

	names, err = List(filepath.Join(dir, "absent"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

// -- Watch --

func TestWatch_ReloadsValidChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeProfile(t, dir, "live.json", `{"delay_rate": 5}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Profile, 64)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, zap.NewNop(), func(p *Profile) { changes <- p })
	}()

	// Give the watcher a moment to register before writing. Rewrite until a
	// change is observed so a slow registration does not flake the test.
	var got *Profile
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`{"delay_rate": 20}`), 0o600)
		select {
		case got = <-changes:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 20, got.DelayRate)

	// An invalid edit is skipped. Duplicate events from the earlier writes
	// may still be queued; they can only carry the valid profile.
	writeProfile(t, dir, "live.json", `{"delay_rate": 500}`)
	deadline := time.After(300 * time.Millisecond)
drain:
	for {
		select {
		case p := <-changes:
			assert.Equal(t, 20, p.DelayRate, "invalid profile must not be delivered")
		case <-deadline:
			break drain
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancellation")
	}
}
