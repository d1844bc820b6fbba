package cli

import (
	"fmt"
	"os"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"

	"github.com/Fepozopo/tmagick/pkg/errs"
)

const releaseRepo = "Fepozopo/tmagick"

// updater finds and installs releases.
type updater interface {
	DetectLatest(slug string) (*selfupdate.Release, bool, error)
	UpdateTo(rel *selfupdate.Release, exe string) error
}

type githubUpdater struct{}

func (githubUpdater) DetectLatest(slug string) (*selfupdate.Release, bool, error) {
	return selfupdate.DetectLatest(slug)
}

func (githubUpdater) UpdateTo(rel *selfupdate.Release, exe string) error {
	return selfupdate.UpdateTo(rel.AssetURL, exe)
}

func (a *App) newUpdateCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check GitHub for a newer release and install it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.checkForUpdates(yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "install the update without asking")
	return cmd
}

func (a *App) checkForUpdates(install bool) error {
	fmt.Fprintf(a.stdout, "Current version: %s\n", Version)

	latest, found, err := a.updates.DetectLatest(releaseRepo)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if !found || latest == nil {
		fmt.Fprintf(a.stdout, "No releases found for %s.\n", releaseRepo)
		return nil
	}
	fmt.Fprintf(a.stdout, "Latest version: %s\n", latest.Version)

	current, perr := semver.ParseTolerant(Version)
	if perr != nil {
		// dev builds always see the release as newer
		fmt.Fprintf(a.stdout, "warning: could not parse current version %q: %v\n", Version, perr)
	} else if !latest.Version.GT(current) {
		fmt.Fprintf(a.stdout, "You are already running the latest version: %s.\n", current)
		return nil
	}

	if latest.AssetURL == "" {
		fmt.Fprintf(a.stdout, "A new version (%s) is available but there is no downloadable asset.\n", latest.Version)
		return nil
	}
	if !install {
		fmt.Fprintf(a.stdout, "A new version (%s) is available. Run 'tmagick update --yes' to install it.\n", latest.Version)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return errs.Wrap(errs.Unknown, err, "could not locate executable")
	}
	if err := a.updates.UpdateTo(latest, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	fmt.Fprintf(a.stdout, "Updated to version %s.\n", latest.Version)
	return nil
}
