package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"proxycheck/internal/domain"
	"proxycheck/internal/geolite"
)

const progressLogStep = 10

// progressReporter renders run progress. On a terminal it keeps a single
// live line; otherwise it logs every progressLogStep percent.
type progressReporter struct {
	out         io.Writer
	live        bool
	logger      *log.Logger
	locator     geolite.Locator
	nextPercent int
	drawn       bool
}

func newProgressReporter(out io.Writer, locator geolite.Locator) *progressReporter {
	live := false
	if file, ok := out.(*os.File); ok {
		live = term.IsTerminal(int(file.Fd()))
	}
	if locator == nil {
		locator = geolite.Noop{}
	}

	return &progressReporter{
		out:     out,
		live:    live,
		logger:  log.Default(),
		locator: locator,
	}
}

func (reporter *progressReporter) OnProgress(completed, total int) {
	if total <= 0 {
		return
	}

	if reporter.live {
		fmt.Fprintf(reporter.out, "\rChecked %d/%d proxies", completed, total)
		reporter.drawn = true
		return
	}

	percent := completed * 100 / total
	if percent < reporter.nextPercent && completed != total {
		return
	}
	reporter.logger.Info("Progress", "checked", completed, "total", total, "percent", percent)
	reporter.nextPercent = (percent/progressLogStep + 1) * progressLogStep
}

func (reporter *progressReporter) OnSuccess(address domain.ProxyAddress, latency time.Duration) {
	reporter.clearLine()

	fields := []any{"proxy", address, "latency_ms", latency.Milliseconds()}
	if country := reporter.locator.Country(address); country != geolite.Unknown {
		fields = append(fields, "country", country)
	}
	reporter.logger.Info("Working proxy", fields...)
}

// Finish terminates the live line so later log output starts clean.
func (reporter *progressReporter) Finish() {
	if reporter.live && reporter.drawn {
		fmt.Fprintln(reporter.out)
		reporter.drawn = false
	}
}

func (reporter *progressReporter) clearLine() {
	if reporter.live && reporter.drawn {
		fmt.Fprint(reporter.out, "\r\033[K")
		reporter.drawn = false
	}
}
