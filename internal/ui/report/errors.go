package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/willibrandon/pageview/internal/parser"
	"github.com/willibrandon/pageview/internal/watcher"
)

// FormatParseError formats an open, parse or watch error with actionable
// guidance, wrapped to width columns.
func FormatParseError(err error, width int) string {
	if width <= 20 {
		width = DefaultWidth
	}
	errMsg := err.Error()

	var title string
	var steps []string

	switch {
	case errors.Is(err, os.ErrNotExist):
		title = "File not found: the database path does not exist."
		steps = []string{
			"Check the path for typos",
			"Relative paths are resolved from the current directory",
		}
	case errors.Is(err, os.ErrPermission):
		title = "Permission denied: the database file cannot be read."
		steps = []string{
			"Verify the file is readable by the current user",
			"Check permissions on the containing directory",
		}
	case errors.Is(err, parser.ErrCancelled):
		title = "Parse cancelled before it finished."
		steps = []string{
			"Run the command again to parse the whole file",
		}
	case errors.Is(err, parser.ErrInvalidFormat):
		title = "Not a SQLite database: the file header is not recognized."
		steps = []string{
			"Verify the file is a SQLite 3 database and not a WAL or journal file",
			"Encrypted databases cannot be inspected without decrypting them first",
		}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		title = "File too short: the database header is incomplete."
		steps = []string{
			"The file may be empty or still being written",
			"If a writer is active, use 'pageview watch' to reload once it settles",
		}
	case errors.Is(err, watcher.ErrAlreadyWatching):
		title = "A file is already being watched."
		steps = []string{
			"Stop the current watch before starting another",
		}
	default:
		return wordwrap.WrapString(fmt.Sprintf(
			"Database error:\n\n%s\n\nRun with --debug flag for detailed logs.", errMsg), uint(width))
	}

	var sb strings.Builder
	sb.WriteString(wordwrap.WrapString(title, uint(width)))
	sb.WriteString("\n\nTroubleshooting steps:\n")
	for i, step := range steps {
		wrapped := wordwrap.WrapString(step, uint(width-5))
		fmt.Fprintf(&sb, "  %d. %s", i+1, strings.ReplaceAll(wrapped, "\n", "\n     "))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(wordwrap.WrapString("Original error: "+errMsg, uint(width)))
	return sb.String()
}
