package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps a level name to a slog level. An empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("log-level must be one of debug, info, warn, error, got: " + name)
	}
}

// SetupLogger installs the default slog logger. Records go to the log file
// when one is configured, otherwise to fallback. It returns a function that
// closes the log file.
func SetupLogger(s LogSettings, fallback io.Writer) (func(), error) {
	level, err := ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}

	out := fallback
	closeFn := func() {}
	if s.File != "" {
		f, err := os.OpenFile(s.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}
	if out == nil {
		out = io.Discard
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	return closeFn, nil
}

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: transport", "value", s.Transport)
	if s.Transport == TransportSSE {
		logger.InfoContext(ctx, "Config: host", "value", s.Host)
		logger.InfoContext(ctx, "Config: port", "value", s.Port)
		logger.InfoContext(ctx, "Config: auth.type", "value", s.Auth.Type)
		switch s.Auth.Type {
		case AuthTypeBasic:
			logger.InfoContext(ctx, "Config: auth.basic.username", "value", s.Auth.Basic.Username)
			logger.InfoContext(ctx, "Config: auth.basic.password", "value", "****")
		case AuthTypeAPIKey:
			logger.InfoContext(ctx, "Config: auth.api_keys", "count", len(s.Auth.APIKeys))
		}
	}

	logger.InfoContext(ctx, "Config: guide.path", "value", s.Guide.Path)
	logger.InfoContext(ctx, "Config: guide.watch", "value", s.Guide.Watch)
	logger.InfoContext(ctx, "Config: search.debounce", "value", s.Search.Debounce)
	logger.InfoContext(ctx, "Config: search.snippet_length", "value", s.Search.SnippetLength)
	logger.InfoContext(ctx, "Config: search.phrase_bonus", "value", s.Search.PhraseBonus)
	logger.InfoContext(ctx, "Config: search.matcher", "value", s.Search.Matcher)

	logger.InfoContext(ctx, "Config: log.level", "value", s.Log.Level)
	if s.Log.File != "" {
		logger.InfoContext(ctx, "Config: log.file", "value", s.Log.File)
	}
}

// SettingsLogValue returns a slog.Value for Settings
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("transport", s.Transport),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
		slog.Attr{Key: "auth", Value: AuthSettingsLogValue(s.Auth)},
		slog.Group("guide",
			slog.String("path", s.Guide.Path),
			slog.Bool("watch", s.Guide.Watch),
		),
		slog.Group("search",
			slog.Duration("debounce", s.Search.Debounce),
			slog.Int("snippet_length", s.Search.SnippetLength),
			slog.String("phrase_bonus", s.Search.PhraseBonus),
			slog.String("matcher", s.Search.Matcher),
		),
	)
}

// AuthSettingsLogValue returns a slog.Value for AuthSettings with secrets masked
func AuthSettingsLogValue(a AuthSettings) slog.Value {
	password := ""
	if a.Basic.Password != "" {
		password = "****"
	}
	return slog.GroupValue(
		slog.String("type", a.Type),
		slog.Group("basic",
			slog.String("username", a.Basic.Username),
			slog.String("password", password),
		),
		slog.Int("api_keys", len(a.APIKeys)),
	)
}
