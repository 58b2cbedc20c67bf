package app

import "github.com/spf13/pflag"

// RegisterFlags registers all CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("auth-type", "a", "", "Auth type for SSE transport: none, basic or apikey")
	flags.StringP("auth-basic-username", "u", "", "Username for basic auth")
	flags.StringP("auth-basic-password", "P", "", "Password for basic auth")
	flags.StringSliceP("auth-api-keys", "k", nil, "Accepted API keys (comma separated)")
	flags.StringP("guide", "g", "", "Path of the study guide HTML document")
	flags.BoolP("watch", "w", false, "Reload the guide when the file changes")
	flags.Duration("debounce", 0, "Quiet period before a typed query is searched (e.g. 300ms)")
	flags.Int("snippet-length", 0, "Result preview length in characters")
	flags.String("phrase-bonus", "", "Phrase bonus mode: per_term or once")
	flags.String("matcher", "", "Candidate matcher: scan or bleve")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-file", "", "Write logs to this file instead of stderr")
}
