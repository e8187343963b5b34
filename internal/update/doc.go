// Package update decides whether a newer prochub build is published and
// drives the prompt that sends the user to it.
//
// The package handles:
//   - Caching the locally running version for the life of the process
//   - Normalizing the remote version payload (structured or JSON text)
//   - Comparing local and remote versions by exact text
//   - Presenting the confirm dialog and notices through a Presenter
//   - Running one silent background check shortly after startup
//
// Rendering, translation and opening URLs are collaborators supplied by the
// caller, so the package stays free of UI concerns.
//
// Example usage:
//
//	cache := update.NewVersionCache(update.StaticLocal(Version))
//	source := update.NewHTTPSource(cfg.URL)
//	prompter := update.NewPrompter(cache, source,
//	    update.WithPresenter(presenter),
//	    update.WithOpener(browser.New()),
//	    update.WithTranslator(i18n.New(locale)),
//	)
//	update.NewAutoChecker(prompter).ScheduleOnce(5 * time.Second)
package update
