package platform

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// ShareURL builds the public link for a post. It returns an empty string
// when no share base is configured.
func ShareURL(base string, postID int64) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return base + "/article/" + strconv.FormatInt(postID, 10)
}

func ValidateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("post has no share URL")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid URL format")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid URL host")
	}
	return trimmed, nil
}

func OpenURLInBrowser(url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	return exec.Command(name, args...).Run()
}

func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

// CopyToClipboard tries each clipboard command on PATH in turn until one
// succeeds.
func CopyToClipboard(text string) error {
	return copyWith(text, exec.LookPath, runWithStdin)
}

var clipboardCommands = [][]string{
	{"pbcopy"},
	{"xclip", "-selection", "clipboard"},
	{"wl-copy"},
	{"clip.exe"},
}

func copyWith(text string, lookPath func(string) (string, error), run func([]string, string) error) error {
	available := availableClipboardCommands(lookPath)
	if len(available) == 0 {
		return fmt.Errorf("no clipboard command available")
	}
	var errs []error
	for _, c := range available {
		err := run(c, text)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", c[0], err))
	}
	return fmt.Errorf("clipboard copy failed: %w", errors.Join(errs...))
}

func availableClipboardCommands(lookPath func(string) (string, error)) [][]string {
	var out [][]string
	for _, c := range clipboardCommands {
		if _, err := lookPath(c[0]); err == nil {
			out = append(out, c)
		}
	}
	return out
}

func runWithStdin(command []string, input string) error {
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdin = bytes.NewBufferString(input)
	return cmd.Run()
}
