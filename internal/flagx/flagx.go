// Package flagx picks a package's own flags out of a shared command line.
//
// Both the config loader and the cobra command tree see the same os.Args;
// each side keeps only what it understands.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// name strips leading dashes, so "-c", "--c" and "c" compare equal.
func name(arg string) string {
	return strings.TrimLeft(arg, "-")
}

// FilterArgs returns the allowed flags of args together with their values.
// A flag is matched with one or two leading dashes; values are taken from
// "-f=value" or from the following argument when it does not start with "-".
// Everything after a bare "--" is ignored.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[name(f)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if n, _, ok := strings.Cut(arg, "="); ok {
			if _, ok := allowed[name(n)]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[name(arg)]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}
	return filtered
}

// ConfigPath returns the value of -c / --config in args, or "" when absent.
// The last occurrence wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
