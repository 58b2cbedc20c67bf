package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/sha1n/mcp-guide-search/internal/config"
	"github.com/sha1n/mcp-guide-search/internal/studyguide"
	"github.com/sha1n/mcp-guide-search/internal/tui"
)

// QueryParams contains dependencies for the query and browse commands
type QueryParams struct {
	LoadSettings func(*pflag.FlagSet) (*config.Settings, error)
	Out          io.Writer
	Browse       func(context.Context, *studyguide.Service, *config.SearchSettings) error
}

// DefaultQueryParams returns production dependencies
func DefaultQueryParams() QueryParams {
	return QueryParams{
		LoadSettings: config.LoadSettingsWithFlags,
		Out:          os.Stdout,
		Browse:       tui.Run,
	}
}

// RunQuery loads the guide once, searches for the joined args and prints the
// ranked results.
func RunQuery(ctx context.Context, params QueryParams, flags *pflag.FlagSet, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errors.New("query cannot be empty")
	}

	settings, closeLog, err := loadLocalSettings(params, flags, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	// A one-shot query never watches the file
	guideSettings := settings.Guide
	guideSettings.Watch = false

	svc, err := openService(ctx, &guideSettings, &settings.Search)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	snap, err := svc.Search(query)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(params.Out, studyguide.FormatSearch(snap))
	return err
}

// RunBrowse loads the guide and hands it to the terminal browser. Logs are
// discarded unless a log file is configured since the terminal is taken.
func RunBrowse(ctx context.Context, params QueryParams, flags *pflag.FlagSet) error {
	settings, closeLog, err := loadLocalSettings(params, flags, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	svc, err := openService(ctx, &settings.Guide, &settings.Search)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	return params.Browse(ctx, svc, &settings.Search)
}

func loadLocalSettings(params QueryParams, flags *pflag.FlagSet, logOut io.Writer) (*config.Settings, func(), error) {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load settings: %w", err)
	}

	// Transport settings do not apply to local commands
	settings.Transport = config.TransportStdio
	if err := config.ValidateSettings(settings); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	closeLog, err := config.SetupLogger(settings.Log, logOut)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	return settings, closeLog, nil
}

func openService(ctx context.Context, guideSettings *config.GuideSettings, searchSettings *config.SearchSettings) (*studyguide.Service, error) {
	svc, err := studyguide.NewService(guideSettings, searchSettings)
	if err != nil {
		return nil, err
	}
	if err := svc.Initialize(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("failed to load study guide: %w", err)
	}
	return svc, nil
}
