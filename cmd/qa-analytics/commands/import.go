package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"qa-analytics/internal/snapshot"
)

var (
	importFrom   string
	importDriver string
	importDSN    string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy a JSON or YAML snapshot file into a SQL snapshot store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		from := importFrom
		if from == "" {
			from = cfg.Snapshot.Path
		}
		snap, err := snapshot.NewFileSource(from).Load(ctx)
		if err != nil {
			return err
		}

		driver, dsn := importDriver, importDSN
		if driver == "" {
			driver = string(cfg.Snapshot.Driver)
		}
		if dsn == "" {
			dsn = cfg.Snapshot.DSN
		}
		if driver == string(snapshot.DriverFile) {
			return fmt.Errorf("import target must be a SQL driver (sqlite or postgres)")
		}

		dst, err := snapshot.OpenSQL(ctx, driver, dsn)
		if err != nil {
			return err
		}
		defer func() { _ = dst.Close() }()

		if err := dst.Save(ctx, snap); err != nil {
			return err
		}

		log.Info().
			Str("from", from).
			Str("to", dst.Describe()).
			Int("defects", len(snap.Defects)).
			Int("orders", len(snap.Orders)).
			Int("recipes", len(snap.WashRecipes)).
			Msg("Snapshot imported")
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d defects, %d orders, %d wash recipes into %s\n",
			len(snap.Defects), len(snap.Orders), len(snap.WashRecipes), dst.Describe())
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFrom, "from", "", "snapshot file to import (defaults to SNAPSHOT_PATH)")
	importCmd.Flags().StringVar(&importDriver, "driver", "", "target driver: sqlite or postgres (defaults to SNAPSHOT_DRIVER)")
	importCmd.Flags().StringVar(&importDSN, "dsn", "", "target DSN (defaults to SNAPSHOT_DSN)")
}
