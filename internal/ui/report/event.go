package report

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"

	"github.com/willibrandon/pageview/internal/watcher"
)

var (
	prefixFormat   = color.New(color.FgHiBlack).SprintFunc()
	mutedFormat    = color.New(color.FgHiBlack).SprintFunc()
	goodFormat     = color.New(color.FgGreen).SprintFunc()
	warningFormat  = color.New(color.FgHiYellow).SprintFunc()
	criticalFormat = color.New(color.FgHiRed).SprintFunc()
	accentFormat   = color.New(color.FgCyan).SprintFunc()
	tagFormat      = color.New(color.FgWhite, color.BgRed).SprintFunc()
)

// FormatEvent renders one watch event as a single log line.
func FormatEvent(ev watcher.Event) string {
	prefix := prefixFormat(fmt.Sprintf("%s #%d", ev.Time.Format("15:04:05.000"), ev.Seq))
	name := filepath.Base(ev.Path)

	switch ev.Kind {
	case watcher.EventFileOpened, watcher.EventFileModified:
		verb := "opened"
		if ev.Kind == watcher.EventFileModified {
			verb = "reloaded"
		}
		return fmt.Sprintf("%s %s %s %s", prefix, goodFormat(verb), name, mutedFormat(RenderCompact(ev.Info)))
	case watcher.EventParseStarted:
		return fmt.Sprintf("%s %s %s", prefix, accentFormat("parsing"), name)
	case watcher.EventParseProgress:
		return fmt.Sprintf("%s %s %s %3.0f%%", prefix, accentFormat("progress"), name, ev.Fraction*100)
	case watcher.EventParseCompleted:
		return fmt.Sprintf("%s %s %s", prefix, goodFormat("parsed"), name)
	case watcher.EventParseCancelled:
		return fmt.Sprintf("%s %s %s", prefix, warningFormat("cancelled"), name)
	case watcher.EventParseError:
		return fmt.Sprintf("%s %s %s %s", prefix, criticalFormat("error"), name, ev.Message())
	case watcher.EventFileDeleted:
		return fmt.Sprintf("%s %s %s", prefix, warningFormat("deleted"), name)
	case watcher.EventWatchingStarted:
		return fmt.Sprintf("%s %s %s", prefix, accentFormat("watching"), ev.Path)
	case watcher.EventWatchingStopped:
		return fmt.Sprintf("%s %s %s", prefix, mutedFormat("stopped"), name)
	case watcher.EventWatchingFailed:
		return fmt.Sprintf("%s %s %s %s", prefix, tagFormat(" FAILED "), name, criticalFormat(ev.Message()))
	default:
		return fmt.Sprintf("%s %s %s", prefix, ev.Kind, name)
	}
}
