package main

import (
	"fmt"

	"github.com/fwojciec/locmirror"
	"github.com/fwojciec/locmirror/crawl"
)

// displayWidth is the widest URL shown in progress lines.
const displayWidth = 60

// MirrorCmd mirrors a site from its root URL.
type MirrorCmd struct {
	RootURL string
}

// Run executes the mirror command.
func (c *MirrorCmd) Run(deps *Dependencies) error {
	progress := func(ev crawl.ProgressEvent) {
		display := crawl.DisplayURL(ev.Target.URL, displayWidth)
		switch ev.Type {
		case crawl.ProgressSaved:
			fmt.Fprintf(deps.Stdout, "saved    %s (%s)\n", display, crawl.FormatBytes(int64(ev.Bytes)))
			if ev.Err != nil {
				deps.Logger.Warn("link extraction failed", "url", ev.Target.URL, "err", ev.Err)
			}
		case crawl.ProgressResumed:
			deps.Logger.Debug("resumed", "url", ev.Target.URL, "path", ev.Path)
			if ev.Err != nil {
				deps.Logger.Warn("link extraction failed", "url", ev.Target.URL, "err", ev.Err)
			}
		case crawl.ProgressSkipped:
			deps.Logger.Debug("skipped", "url", ev.Target.URL, "path", ev.Path)
		case crawl.ProgressDropped:
			// Out-of-policy targets are dropped silently unless debugging
			if ev.Outcome == locmirror.OutcomeOutOfPolicy {
				deps.Logger.Debug("out of policy", "url", ev.Target.URL)
				return
			}
			deps.Logger.Error("dropped",
				"url", ev.Target.URL,
				"kind", ev.Target.Kind.String(),
				"outcome", ev.Outcome.String(),
				"err", ev.Err,
			)
		}
	}

	result, err := deps.Mirror.Run(deps.Ctx, c.RootURL, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", locmirror.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Saved %d files (%s), resumed %d pages, skipped %d assets, dropped %d\n",
		result.Saved, crawl.FormatBytes(result.Bytes), result.Resumed, result.Skipped, result.Dropped)
	return nil
}
