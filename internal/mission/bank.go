package mission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/appzem/alarm-engine/internal/logger"
	"github.com/appzem/alarm-engine/internal/metrics"
)

// Source supplies fresh challenges, one per alert session.
type Source interface {
	Random(ctx context.Context) (Challenge, error)
}

// DefaultBankTimeout bounds the wait on the remote question bank so challenge
// generation can never block an alert indefinitely.
const DefaultBankTimeout = 5 * time.Second

// BankClient fetches random missions from the remote question bank service.
type BankClient struct {
	// baseURL is the question bank service root.
	baseURL string
	// httpClient carries the bounded timeout.
	httpClient *http.Client
}

// NewBankClient creates a client for the question bank at baseURL.
// A non-positive timeout falls back to DefaultBankTimeout.
func NewBankClient(baseURL string, timeout time.Duration) (*BankClient, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid question bank URL: %w", err)
	}

	if timeout <= 0 {
		timeout = DefaultBankTimeout
	}

	return &BankClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Random fetches one {question, answer} pair from GET /mission/random.
// Failures wrap ErrBankUnavailable.
func (c *BankClient) Random(ctx context.Context) (Challenge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/mission/random", nil)
	if err != nil {
		return Challenge{}, fmt.Errorf("%w: build request: %w", ErrBankUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Challenge{}, fmt.Errorf("%w: %w", ErrBankUnavailable, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return Challenge{}, fmt.Errorf("%w: unexpected status %d", ErrBankUnavailable, resp.StatusCode)
	}

	var challenge Challenge
	if err = json.NewDecoder(resp.Body).Decode(&challenge); err != nil {
		return Challenge{}, fmt.Errorf("%w: decode response: %w", ErrBankUnavailable, err)
	}

	if challenge.Question == "" || challenge.Answer == "" {
		return Challenge{}, fmt.Errorf("%w: empty mission", ErrBankUnavailable)
	}

	return challenge, nil
}

// Generate asks the source for a challenge and falls back to the static
// mission when it fails. The alert must always be dismissible, so this
// never returns an error.
func Generate(ctx context.Context, source Source) Challenge {
	if source == nil {
		return Fallback()
	}

	challenge, err := source.Random(ctx)
	if err != nil {
		metrics.IncMissionFallback()
		logger.WarnKV(ctx, "Question bank unreachable, using fallback mission", "error", err)

		return Fallback()
	}

	return challenge
}
