// Package log provides secure logging for climatecrawl, built on top of the
// standard slog package.
//
// Station configurations may carry request headers and cookies, and base URLs
// may embed credentials for a mirror or proxy. The SecureHandler keeps those
// out of the log output:
//   - Attributes with sensitive keys (cookie, authorization, token, ...) are masked
//   - Header maps logged as a single attribute have their sensitive entries masked
//   - URL values have their user-info replaced
//   - Bearer/Basic credentials are masked regardless of key name
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("fetching month",
//	    "url", "https://user:pw@mirror.example.com/daily", // user-info is masked
//	    "headers", map[string]string{"Cookie": "lang=en"},  // cookie is masked
//	)
package log
