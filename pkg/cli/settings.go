package cli

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var outputFormats = []string{"table", "json"}

// resolveSetting resolves a root persistent flag: a value the user typed,
// then the env var, then the profile value, then the flag default. A
// subcommand flag shadowing the root one does not count.
func resolveSetting(cmd *cobra.Command, flag, envKey, profileValue string) string {
	f := cmd.Root().PersistentFlags().Lookup(flag)
	if f == nil {
		return ""
	}
	if f.Changed {
		return f.Value.String()
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if profileValue != "" {
		return profileValue
	}
	return f.DefValue
}

// getOutputFormat returns the resolved output format stored on the root flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && !slices.Contains(outputFormats, output) {
		return fmt.Errorf("unsupported output format %q: use %s", output, strings.Join(outputFormats, " or "))
	}
	return nil
}

// normalizeHost validates a backend base URL and strips the trailing slash.
func normalizeHost(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("invalid host: URL cannot be empty")
	}
	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", host, err)
	}
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return "", fmt.Errorf("invalid host %q: scheme must be http or https", host)
	case u.Host == "":
		return "", fmt.Errorf("invalid host %q: missing host", host)
	case u.User != nil:
		return "", fmt.Errorf("invalid host %q: credentials are not allowed in the URL", host)
	case u.Path != "" && u.Path != "/":
		return "", fmt.Errorf("invalid host %q: the /api/enrichment path is added automatically", host)
	case u.RawQuery != "" || u.Fragment != "":
		return "", fmt.Errorf("invalid host %q: query and fragment are not allowed", host)
	}
	return strings.TrimRight(host, "/"), nil
}
