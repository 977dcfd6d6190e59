package player

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ParseArgs splits a string of command-line arguments on spaces.  Text inside matching single or double quotes is kept
// together and the quotes are dropped.
func ParseArgs(argsString string) []string {
	var (
		args    []string
		current strings.Builder
		quote   rune
	)

	for _, r := range argsString {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		case quote == 0 && r == ' ':
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

// SocketPath returns a per-process IPC path so several haven instances never share an mpv socket
func SocketPath() string {
	name := fmt.Sprintf("haven-mpv-%d", os.Getpid())

	switch runtime.GOOS {
	case "windows":
		return `\\.\pipe\` + name
	default:
		if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
			return filepath.Join(runtimeDir, name+".sock")
		}
		return filepath.Join(os.TempDir(), name+".sock")
	}
}
