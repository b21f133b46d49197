package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maestrohq/maestro/detect"
)

func newScanCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the workspace and print the detected stack profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := state.app(cmd)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			profile, err := app.detector.Detect(app.root)
			sparse := errors.Is(err, detect.ErrProfileTooSparse)
			if err != nil && !sparse {
				return err
			}

			printProfile(profile)
			if sparse {
				fmt.Printf("\nProfile is sparse (%d categories, need %d). Planning will ask for the stack.\n",
					profile.CategoryCount(), state.cfg.Detect.MinCategories)
			}

			if err := os.MkdirAll(app.stateDir(), 0o755); err != nil {
				return err
			}
			if err := detect.SaveProfile(profile, app.profilePath()); err != nil {
				return fmt.Errorf("cache profile: %w", err)
			}
			fmt.Printf("\nProfile cached at %s\n", app.profilePath())
			return nil
		},
	}
}

func printProfile(profile *detect.Profile) {
	fmt.Printf("Stack profile for %s\n\n", profile.Root)
	if profile.CategoryCount() == 0 {
		fmt.Println("  (nothing detected)")
	}
	for _, category := range detect.Categories {
		detection, ok := profile.Get(category)
		if !ok {
			continue
		}
		fmt.Printf("  %-20s %s (%s confidence, via %s)\n",
			category, detection.Technology, detection.Confidence, detection.Marker)
	}
	if len(profile.Ambiguities) > 0 {
		fmt.Println("\nAmbiguities:")
		for _, amb := range profile.Ambiguities {
			fmt.Printf("  %-20s could be any of %v\n", amb.Category, amb.Technologies)
		}
	}
}
