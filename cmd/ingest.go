package cmd

import (
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/cli"
	"github.com/theirongolddev/afkmon/internal/ingest"
	"github.com/theirongolddev/afkmon/internal/source"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file|dir|-]",
	Short: "Store sessions from export files or stdin",
	Long: "Reads session payloads in the same shape the extension posts to /api/sessions\n" +
		"and stores them for the selected owner. A .json file holds one payload or an\n" +
		"array, a .jsonl file holds one payload per line, and a directory is scanned\n" +
		"for both. Sessions repeated across exports keep their latest counters.",
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// readPayloads loads payloads from stdin, one export file or a directory of
// export files.
func readPayloads(arg string) ([]ingest.Payload, error) {
	if arg == "" || arg == "-" {
		return source.Decode(os.Stdin)
	}

	info, err := os.Stat(arg)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		format, ok := source.FormatOf(arg)
		if !ok {
			format = source.FormatJSON
		}
		res := source.ParseFile(source.DiscoveredFile{Path: arg, Format: format})
		reportParse(res, nil)
		return res.Payloads, res.Err
	}

	files, err := source.ScanDir(arg)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", arg, err)
	}
	if len(files) == 0 {
		return nil, apperr.Validation("no .json or .jsonl files under "+arg, nil)
	}
	res, errs := source.ParseAll(files)
	reportParse(res, errs)
	if len(res.Payloads) == 0 && len(errs) > 0 {
		return nil, multierror.Append(nil, errs...)
	}
	return res.Payloads, nil
}

func reportParse(res source.ParseResult, errs []error) {
	if flagQuiet {
		return
	}
	if res.ParseErrors > 0 {
		fmt.Fprintf(os.Stderr, "  %s\n", cli.RenderMuted(fmt.Sprintf("skipped %d malformed lines", res.ParseErrors)))
	}
	if res.Duplicates > 0 {
		fmt.Fprintf(os.Stderr, "  %s\n", cli.RenderMuted(fmt.Sprintf("merged %d repeated sessions", res.Duplicates)))
	}
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "  %s\n", cli.RenderError(err.Error()))
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	var arg string
	if len(args) == 1 {
		arg = args[0]
	}
	payloads, err := readPayloads(arg)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	log := newLogger(cfg)
	ing := ingest.New(db, ingest.WithLogger(log))

	var mu sync.Mutex
	progress := func(current, total int) {
		if flagQuiet || total < 2 {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(os.Stderr, "\r  Ingesting %s", cli.RenderProgressBar(current, total, 30))
	}

	res := ing.IngestAll(cmdContext(cmd), ownerID(cfg), payloads, progress)
	if !flagQuiet && res.Total > 1 {
		fmt.Fprintln(os.Stderr)
	}

	fmt.Printf("  %s  %d stored, %d rejected, %d failed\n",
		cli.RenderOK("✓"), res.Ingested, res.Rejected, res.Failed)
	if res.Err != nil {
		return res.Err
	}
	return nil
}
