package validate

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/util"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// Checker runs a preflight over batch inputs concurrently, so unreachable
// URLs and missing or oversized files are reported before analysis starts
type Checker struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	maxWorkers int
}

// NewChecker creates a new input checker
func NewChecker(cfg model.HTTPConfig, maxBytes int64, maxWorkers int) *Checker {
	if maxWorkers <= 0 {
		maxWorkers = 20
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Checker{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: util.NewTransport(cfg),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		maxWorkers: maxWorkers,
	}
}

// Check checks all inputs concurrently. Results are in input order.
func (c *Checker) Check(ctx context.Context, inputs []string) []model.InputCheck {
	if len(inputs) == 0 {
		return []model.InputCheck{}
	}

	results := make([]model.InputCheck, len(inputs))
	var wg sync.WaitGroup

	// Create semaphore to limit concurrent requests
	semaphore := make(chan struct{}, c.maxWorkers)

	for i, input := range inputs {
		wg.Add(1)
		go func(idx int, in string) {
			defer wg.Done()

			// Acquire semaphore
			select {
			case <-ctx.Done():
				results[idx] = model.InputCheck{
					Input: in,
					Kind:  KindOf(in),
					Error: "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}

			// Release semaphore when done
			defer func() { <-semaphore }()

			if KindOf(in) == model.InputFile {
				results[idx] = c.checkFile(in)
				return
			}
			results[idx] = c.checkURLWithRetry(ctx, in)
		}(i, input)
	}

	wg.Wait()

	return results
}

// KindOf classifies a batch input as URL or file path
func KindOf(input string) model.InputKind {
	lower := strings.ToLower(input)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return model.InputURL
	}
	return model.InputFile
}

// checkFile checks that a local document exists, is a regular file and is
// within the size limit
func (c *Checker) checkFile(path string) model.InputCheck {
	result := model.InputCheck{Input: path, Kind: model.InputFile}

	info, err := os.Stat(path)
	if err != nil {
		result.Error = fmt.Sprintf("stat: %v", err)
		result.IsDead = os.IsNotExist(err)
		return result
	}
	if !info.Mode().IsRegular() {
		result.Error = "not a regular file"
		return result
	}

	result.Size = info.Size()
	modified := info.ModTime()
	result.LastModified = &modified

	if c.maxBytes > 0 && info.Size() > c.maxBytes {
		result.Error = fmt.Sprintf("file is %d bytes, limit is %d", info.Size(), c.maxBytes)
		return result
	}

	result.Accessible = true
	return result
}

// checkURL checks a single URL with a HEAD request
func (c *Checker) checkURL(ctx context.Context, rawURL string) model.InputCheck {
	result := model.InputCheck{Input: rawURL, Kind: model.InputURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.IsDead = true
		return result
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.IsDead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")
	result.Size = resp.ContentLength

	// Check if accessible
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Accessible = true
	} else if resp.StatusCode == 404 || resp.StatusCode == 410 {
		result.IsDead = true
	}

	// Check for redirects
	if resp.Request.URL.String() != rawURL {
		result.RedirectURL = resp.Request.URL.String()
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := time.Parse(time.RFC1123, lastModified); err == nil {
			result.LastModified = &t
		}
	}

	if result.Accessible && c.maxBytes > 0 && resp.ContentLength > c.maxBytes {
		result.Accessible = false
		result.Error = fmt.Sprintf("document is %d bytes, limit is %d", resp.ContentLength, c.maxBytes)
	}

	return result
}

// checkURLWithRetry retries transient failures with exponential backoff
func (c *Checker) checkURLWithRetry(ctx context.Context, rawURL string) model.InputCheck {
	var result model.InputCheck
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = c.checkURL(ctx, rawURL)
		if !isRetryableCheck(result) {
			return result
		}
		if attempt < validateMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			validateSleepFunc(backoff)
		}
	}
	return result
}

// isRetryableCheck returns true for results that indicate transient failures
func isRetryableCheck(result model.InputCheck) bool {
	// Retry on 5xx server errors
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	// Retry on 429 rate limit
	if result.StatusCode == 429 {
		return true
	}
	// Retry on network errors (timeout, connection refused)
	if result.Error != "" {
		if isRetryableNetworkError(result.Error) {
			return true
		}
	}
	return false
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
