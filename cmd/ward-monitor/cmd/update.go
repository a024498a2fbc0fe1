package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/ward-monitor/internal/service/updater"
	"github.com/oshokin/ward-monitor/internal/version"
)

var (
	// manifestURL locates the release manifest.
	manifestURL string
	// forceUpdate applies the release even when versions match.
	forceUpdate bool
	// targetPath is the binary to replace.
	targetPath string
	// manifestOutput is where the manifest command writes.
	manifestOutput string
	// binaryURL is the release URL recorded in a new manifest.
	binaryURL string
	// releaseVersion is the version recorded in a new manifest.
	releaseVersion string

	// updateCmd replaces this binary with the published release.
	updateCmd = &cobra.Command{
		Use:   "update",
		Short: "Replace this binary with the published release.",
		Long: `Downloads the release manifest, compares its version with this binary and,
when they differ, downloads the release, verifies its SHA-512 checksum and
swaps it in place. Restart the service afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := updater.Run(cmd.Context(), &updater.Options{
				ManifestURL: manifestURL,
				TargetPath:  targetPath,
				Force:       forceUpdate,
			})
			if err != nil {
				return err
			}

			if res.Updated {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated to %s\n", res.Version)
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "already at %s\n", res.Version)
			}

			return nil
		},
	}

	// manifestCmd writes the manifest for a release binary.
	manifestCmd = &cobra.Command{
		Use:   "manifest <binary>",
		Short: "Write the update manifest for a release binary.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			url := binaryURL
			if url == "" {
				url = args[0]
			}

			m, err := updater.NewManifest(args[0], url, releaseVersion)
			if err != nil {
				return err
			}

			return m.Save(manifestOutput)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	updateCmd.Flags().StringVarP(&manifestURL, "manifest", "m", "", "URL of the release manifest")
	updateCmd.Flags().BoolVarP(&forceUpdate, "force", "f", false, "apply the release even if the version matches")
	updateCmd.Flags().StringVar(&targetPath, "target", "", "binary to replace (default: this executable)")
	_ = updateCmd.MarkFlagRequired("manifest")

	manifestCmd.Flags().StringVarP(&manifestOutput, "output", "o", "manifest.yaml", "where to write the manifest")
	manifestCmd.Flags().StringVar(&binaryURL, "url", "", "release URL, relative to the manifest or absolute")
	manifestCmd.Flags().StringVar(&releaseVersion, "version", version.Short(), "release version")
}
