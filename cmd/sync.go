package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/afkmon/internal/cli"
	"github.com/theirongolddev/afkmon/internal/config"
	"github.com/theirongolddev/afkmon/internal/extsync"
	"github.com/theirongolddev/afkmon/internal/ingest"
	"github.com/theirongolddev/afkmon/internal/store"
)

var (
	flagSyncURL      string
	flagSyncEditor   string
	flagSyncPlatform string
	flagSyncToken    string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull new sessions from an editor extension once",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().StringVar(&flagSyncURL, "url", "", "Extension base URL, e.g. http://127.0.0.1:3000")
	syncCmd.Flags().StringVar(&flagSyncEditor, "editor", "vscode", "Editor reported for synced sessions (vscode, cursor)")
	syncCmd.Flags().StringVar(&flagSyncPlatform, "platform", "", "Platform reported for synced sessions")
	syncCmd.Flags().StringVar(&flagSyncToken, "token", "", "Bearer token (default from config)")
	_ = syncCmd.MarkFlagRequired("url")
	rootCmd.AddCommand(syncCmd)
}

// newSyncer wires a syncer over db using cfg's extension settings.
func newSyncer(cfg config.Config, db *store.Store, ing *ingest.Ingestor, observe func(string)) *extsync.Syncer {
	log := newLogger(cfg)
	client := extsync.NewClient(extsync.ClientConfig{
		Timeout:       cfg.ExtensionTimeout(),
		RetryAttempts: cfg.Extension.RetryAttempts,
		Backoff:       cfg.Backoff(),
		Token:         cfg.Extension.Token,
	}, log)
	registry := extsync.NewRegistry(cfg.RegistryTTL(), cfg.Extension.RegistryMax, nil)
	return extsync.NewSyncer(client, registry, ing, db, extsync.SyncerConfig{
		ExportLimit: cfg.Extension.ExportLimit,
		MaxPages:    cfg.Extension.MaxPages,
	}, log, observe)
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	owner := ownerID(cfg)
	syncer := newSyncer(cfg, db, ingest.New(db, ingest.WithLogger(newLogger(cfg))), nil)

	if _, err := syncer.Registry().Register(extsync.Endpoint{
		OwnerID:  owner,
		URL:      flagSyncURL,
		Editor:   flagSyncEditor,
		Platform: flagSyncPlatform,
		Token:    flagSyncToken,
	}); err != nil {
		return err
	}

	report, err := syncer.Sync(cmdContext(cmd), owner)
	if err != nil {
		return err
	}

	fmt.Println()
	rows := [][]string{
		{"Owner", report.OwnerID},
		{"Pages", cli.FormatNumber(int64(report.Pages))},
		{"Fetched", cli.FormatNumber(int64(report.Fetched))},
		{"Synced", cli.FormatNumber(int64(report.Synced))},
		{"Failed", cli.FormatNumber(int64(report.Failed))},
	}
	if !report.LastSyncTime.IsZero() {
		rows = append(rows, []string{"Cursor", report.LastSyncTime.Local().Format("2006-01-02 15:04:05")})
	}
	fmt.Print(cli.RenderTable(cli.Table{Title: "Extension sync", Rows: rows}))
	return report.Err
}
