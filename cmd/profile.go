// File: cmd/profile.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xkilldash9x/steadyaim/internal/profile"
)

// newProfileCmd groups the read-only profile commands.
func newProfileCmd() *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspects recoil profiles",
	}
	profileCmd.AddCommand(newProfileValidateCmd(), newProfileShowCmd(), newProfileListCmd())
	return profileCmd
}

func newProfileValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate PATH...",
		Short: "Parses and validates profile files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				p, err := profile.Load(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s\n  %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "OK   %s (%s, %d steps)\n", path, p.Name, len(p.Pattern))
				for _, w := range p.Warnings() {
					fmt.Fprintf(out, "  warning: %s\n", w)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d profiles failed validation", failed, len(args))
			}
			return nil
		},
	}
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME|PATH",
		Short: "Prints a profile with defaults applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			path, err := profile.Resolve(cfg.Profiles.Dir, args[0])
			if err != nil {
				return err
			}
			p, err := profile.Load(path)
			if err != nil {
				return err
			}
			data, err := p.Marshal()
			if err != nil {
				return fmt.Errorf("failed to encode profile: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lists the profiles in the profile directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			names, err := profile.List(cfg.Profiles.Dir)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}
