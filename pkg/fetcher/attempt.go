package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// attemptResult captures one classified fetch attempt.
type attemptResult struct {
	outcome outcome
	body    string
	status  int
	class   ErrorClass
	err     error
}

// fetchOne runs the full lifecycle for a single URL: admission, the attempt
// loop, outcome classification, an optional one-shot credential refresh on
// 401, and linear backoff between retries. The admission slot is held for
// the whole run, backoff waits included, and released on every exit path.
func (f *Fetcher) fetchOne(ctx context.Context, url string) Result {
	if err := f.gate.Acquire(ctx); err != nil {
		f.logger.Error().
			Str("url", url).
			Err(err).
			Int("active", f.gate.ActiveCount()).
			Msg("Fetch cancelled before admission")
		return Result{}
	}
	defer f.gate.Release()

	active := f.gate.ActiveCount()
	f.logger.Info().
		Str("url", url).
		Int("active", active).
		Msg("Request started")

	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		start := time.Now()
		res := f.attempt(ctx, url, f.authHeaders(), attempt)

		switch res.outcome {
		case outcomeSuccess:
			f.logSuccess(url, time.Since(start), active)
			return Result{Body: res.body, OK: true}

		case outcomeAuthChallenge:
			return f.retryWithFreshCredentials(ctx, url, active)

		case outcomeRetry:
			delay := f.backoff.Delay(attempt)
			fetchRetriesTotal.WithLabelValues(string(res.class)).Inc()
			fetchRetryBackoffSeconds.WithLabelValues(string(res.class)).Observe(delay.Seconds())

			f.logger.Debug().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Str("error_class", string(res.class)).
				Msg("Retrying after backoff")

			if err := f.backoff.wait(ctx, attempt); err != nil {
				f.logger.Error().
					Str("url", url).
					Err(err).
					Int("active", active).
					Msg("Fetch cancelled during backoff")
				return Result{}
			}

		case outcomeFatal:
			if retryableClass(res.class) && attempt == f.config.MaxRetries {
				fetchRetryExhaustedTotal.WithLabelValues(string(res.class)).Inc()
				if res.err != nil {
					res.err = fmt.Errorf("%w: %v", ErrRetryExhausted, res.err)
				} else {
					res.err = ErrRetryExhausted
				}
			}
			f.logFailure(url, res, active)
			return Result{}
		}
	}

	// Unreachable: every classification above terminates or continues the
	// loop, and the final attempt can only resolve to success or fatal.
	return Result{}
}

// retryWithFreshCredentials handles a 401 challenge: one credential refresh
// followed by exactly one retried request. Neither counts against the retry
// budget; any failure here is fatal for the URL.
func (f *Fetcher) retryWithFreshCredentials(ctx context.Context, url string, active int) Result {
	if err := f.config.Auth.Refresh(ctx); err != nil {
		fetchErrorsTotal.WithLabelValues(string(ErrorClassAuth)).Inc()
		f.logger.Error().
			Str("url", url).
			Err(err).
			Int("active", active).
			Msg("Credential refresh failed")
		return Result{}
	}

	start := time.Now()
	// The full budget is passed as the attempt index so the classifier
	// resolves any retryable failure here as fatal.
	res := f.attempt(ctx, url, f.authHeaders(), f.config.MaxRetries)
	if res.outcome == outcomeSuccess {
		f.logger.Debug().Str("url", url).Msg("Fetch succeeded after credential refresh")
		f.logSuccess(url, time.Since(start), active)
		return Result{Body: res.body, OK: true}
	}

	if res.outcome == outcomeAuthChallenge {
		// Token rejected even after the refresh.
		fetchErrorsTotal.WithLabelValues(string(ErrorClassAuth)).Inc()
	}
	f.logFailure(url, res, active)
	return Result{}
}

// attempt issues a single HTTP GET and classifies the result. The attempt
// index and retry budget feed the classifier; they do not alter the request.
func (f *Fetcher) attempt(ctx context.Context, url string, headers map[string]string, attempt int) attemptResult {
	profile := selectTimeout(f.rules, url)

	reqCtx, cancel := context.WithTimeout(withConnectTimeout(ctx, profile.Connect), profile.Total)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		fetchRequestsTotal.WithLabelValues("error").Inc()
		fetchErrorsTotal.WithLabelValues(string(ErrorClassClient)).Inc()
		return attemptResult{outcome: outcomeFatal, class: ErrorClassClient, err: err}
	}

	req.Header.Set("User-Agent", f.config.UserAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection errors share the network class.
		fetchRequestsTotal.WithLabelValues("error").Inc()
		fetchErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return attemptResult{
			outcome: decide(ErrorClassNetwork, attempt, f.config.MaxRetries),
			class:   ErrorClassNetwork,
			err:     err,
		}
	}
	defer resp.Body.Close()

	fetchRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			fetchErrorsTotal.WithLabelValues(string(ErrorClassPayload)).Inc()
			return attemptResult{
				outcome: decide(ErrorClassPayload, attempt, f.config.MaxRetries),
				status:  resp.StatusCode,
				class:   ErrorClassPayload,
				err:     err,
			}
		}
		return attemptResult{outcome: outcomeSuccess, body: string(body), status: resp.StatusCode}
	}

	// Drain so the pooled connection stays reusable.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized && f.config.Auth != nil {
		return attemptResult{
			outcome: outcomeAuthChallenge,
			status:  resp.StatusCode,
			class:   ErrorClassAuth,
		}
	}

	class := classifyStatus(resp.StatusCode)
	fetchErrorsTotal.WithLabelValues(string(class)).Inc()
	return attemptResult{
		outcome: decide(class, attempt, f.config.MaxRetries),
		status:  resp.StatusCode,
		class:   class,
		err: &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		},
	}
}

// authHeaders snapshots the current credential headers, or nil when no
// provider is configured.
func (f *Fetcher) authHeaders() map[string]string {
	if f.config.Auth == nil {
		return nil
	}
	return f.config.Auth.Headers()
}

func (f *Fetcher) logSuccess(url string, duration time.Duration, active int) {
	fetchRequestDuration.Observe(duration.Seconds())
	f.logger.Info().
		Str("url", url).
		Dur("duration", duration).
		Int("active", active).
		Msg("Request succeeded")
}

func (f *Fetcher) logFailure(url string, res attemptResult, active int) {
	if res.status > 0 {
		f.logger.Warn().
			Str("url", url).
			Int("status", res.status).
			Err(res.err).
			Str("error_class", string(res.class)).
			Int("active", active).
			Msg("Request failed")
		return
	}

	f.logger.Error().
		Str("url", url).
		Err(res.err).
		Str("error_class", string(res.class)).
		Int("active", active).
		Msg("Request error")
}
