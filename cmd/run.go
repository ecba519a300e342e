// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xkilldash9x/steadyaim/internal/compensation"
	"github.com/xkilldash9x/steadyaim/internal/config"
	"github.com/xkilldash9x/steadyaim/internal/humanoid"
	"github.com/xkilldash9x/steadyaim/internal/input"
	"github.com/xkilldash9x/steadyaim/internal/movement"
	"github.com/xkilldash9x/steadyaim/internal/observability"
	"github.com/xkilldash9x/steadyaim/internal/platform"
	"github.com/xkilldash9x/steadyaim/internal/profile"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Define function variables for dependency injection/mocking in tests.
var (
	newCursor = func() movement.Cursor { return platform.NewCursor() }
	newSource = func(logger *zap.Logger) input.Source { return platform.NewHookSource(logger) }
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	var (
		profileRef string
		watch      bool
		level      int
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Loads a profile and compensates until interrupted",
		Long: `Loads a profile (a name in the profile directory or a path to a JSON file)
and runs the compensation loop on the global input hook until SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			if cmd.Flags().Changed("watch") {
				cfg.Profiles.Watch = watch
			}
			ref := profileRef
			if ref == "" {
				ref = cfg.Profiles.Default
			}
			if !cmd.Flags().Changed("level") {
				level = 0
			}
			return runCompensation(cmd.Context(), cfg, ref, level, observability.GetLogger())
		},
	}

	runCmd.Flags().StringVarP(&profileRef, "profile", "p", "", "Profile name or path. (Overrides profiles.default)")
	runCmd.Flags().IntVarP(&level, "level", "l", 0, "Humanization level 1-5. (Overrides humanizer.level)")
	runCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the profile when its file changes. (Overrides profiles.watch)")
	return runCmd
}

// runCompensation wires the controller to the OS and blocks until ctx is done.
// A non-zero level overrides the configured humanization level.
func runCompensation(ctx context.Context, cfg *config.Config, ref string, level int, logger *zap.Logger) error {
	path, err := profile.Resolve(cfg.Profiles.Dir, ref)
	if err != nil {
		return fmt.Errorf("failed to resolve profile: %w", err)
	}
	p, err := profile.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	human := humanoid.New(humanoid.ConfigFromSettings(cfg.Humanizer), logger)
	sleeper := movement.TimerSleeper{}
	executor := movement.NewExecutor(newCursor(), human, sleeper, logger)
	ctrl := compensation.New(logger, compensation.OptionsFromConfig(cfg.Loop), human, executor, sleeper, newSource(logger))

	if level != 0 {
		if err := ctrl.SetHumanizationLevel(level); err != nil {
			return fmt.Errorf("invalid --level: %w", err)
		}
	}

	if err := ctrl.Start(ctx, p); err != nil {
		return fmt.Errorf("failed to start compensation: %w", err)
	}
	defer func() {
		if err := ctrl.Stop(); err != nil {
			logger.Warn("Compensation did not stop cleanly", zap.Error(err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	if cfg.Loop.StatusInterval > 0 {
		g.Go(func() error {
			reportStatus(gctx, ctrl, cfg.Loop.StatusInterval, logger)
			return nil
		})
	}
	if cfg.Profiles.Watch {
		g.Go(func() error {
			return profile.Watch(gctx, path, logger, func(next *profile.Profile) {
				if err := ctrl.Reconfigure(next); err != nil {
					logger.Warn("Rejected reloaded profile", zap.Error(err))
				}
			})
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Shutting down.")
	return nil
}

// reportStatus logs a status line every interval until ctx is done.
func reportStatus(ctx context.Context, ctrl *compensation.Controller, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := ctrl.Status()
			logger.Info("Status",
				zap.String("session_id", st.SessionID),
				zap.Bool("running", st.Running),
				zap.Bool("active", st.Active),
				zap.Int("consecutive_shots", st.ConsecutiveShots),
				zap.String("profile", st.Profile),
				zap.String("control_mode", string(st.ControlMode)),
				zap.String("movement_method", string(st.MovementMethod)),
				zap.Bool("detection_avoidance", st.DetectionAvoidance),
			)
		}
	}
}
