package tui

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/afkmon/internal/config"
	"github.com/theirongolddev/afkmon/internal/tui/theme"
)

// SetupValues holds the answers collected by the setup form.
type SetupValues struct {
	Addr         string
	OwnerID      string
	SyncInterval string // seconds, "0" disables periodic sync
	Token        string
	Theme        string
}

var syncIntervalOptions = []huh.Option[string]{
	huh.NewOption("Off", "0"),
	huh.NewOption("Every minute", "60"),
	huh.NewOption("Every 5 minutes", "300"),
	huh.NewOption("Every 15 minutes", "900"),
}

// SetupValuesFrom seeds form answers from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Addr:         cfg.Server.Addr,
		OwnerID:      cfg.Server.OwnerID,
		SyncInterval: strconv.Itoa(cfg.Extension.SyncIntervalSec),
		Token:        cfg.Extension.Token,
		Theme:        cfg.Appearance.Theme,
	}
}

// NewSetupForm builds the first-run configuration form writing into vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	intervalKnown := false
	for _, o := range syncIntervalOptions {
		if o.Value == vals.SyncInterval {
			intervalKnown = true
		}
	}
	intervals := syncIntervalOptions
	if !intervalKnown && vals.SyncInterval != "" {
		intervals = append([]huh.Option[string]{huh.NewOption(vals.SyncInterval+"s (current)", vals.SyncInterval)}, intervals...)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to afkmon").
				Description("Tracks coding sessions reported by your editor extension.\nA few settings and you're ready."),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Description("Where the extension sends sessions.").
				Placeholder("127.0.0.1:8000").
				Value(&vals.Addr).
				Validate(validateAddr),
			huh.NewInput().
				Title("Default owner").
				Description("Used when a request carries no owner header.").
				Value(&vals.OwnerID).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("owner is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Pull from registered extensions").
				Options(intervals...).
				Value(&vals.SyncInterval),
			huh.NewInput().
				Title("Extension token").
				Description("Sent as a bearer token on export requests. Leave blank for none.").
				EchoMode(huh.EchoModePassword).
				Value(&vals.Token),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithTheme(huh.ThemeDracula())
}

func validateAddr(s string) error {
	if _, _, err := net.SplitHostPort(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("expected host:port")
	}
	return nil
}

// ApplySetup copies form answers onto cfg and validates the result.
func ApplySetup(cfg *config.Config, vals SetupValues) error {
	cfg.Server.Addr = strings.TrimSpace(vals.Addr)
	cfg.Server.OwnerID = strings.TrimSpace(vals.OwnerID)
	cfg.Extension.Token = strings.TrimSpace(vals.Token)
	cfg.Appearance.Theme = vals.Theme

	secs, err := strconv.Atoi(vals.SyncInterval)
	if err != nil {
		return fmt.Errorf("sync interval %q: %w", vals.SyncInterval, err)
	}
	cfg.Extension.SyncIntervalSec = secs
	return cfg.Validate()
}
