package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/sheetsync/internal/common"
	"github.com/Veraticus/sheetsync/internal/service"
)

// ErrNoAccess is returned when the spreadsheet does not exist or has not
// been shared with the reader's account.
var ErrNoAccess = errors.New("cannot access spreadsheet")

// tabRange covers every column a sheet client is expected to use.
const tabRange = "A:ZZ"

// GoogleReader reads spreadsheets through the Google Sheets API.
type GoogleReader struct {
	service             *sheets.Service
	logger              *slog.Logger
	serviceAccountEmail string
	config              Config
}

// NewGoogleReader creates a reader authenticated with the configured
// service account or OAuth2 refresh token.
func NewGoogleReader(ctx context.Context, config Config, logger *slog.Logger) (*GoogleReader, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sheets configuration: %w", err)
	}

	srv, email, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, err
	}

	r := NewGoogleReaderWithService(srv, config, logger)
	r.serviceAccountEmail = email
	return r, nil
}

// NewGoogleReaderWithService wraps an existing Sheets service.
func NewGoogleReaderWithService(srv *sheets.Service, config Config, logger *slog.Logger) *GoogleReader {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ReadConcurrency <= 0 {
		config.ReadConcurrency = 1
	}
	return &GoogleReader{
		service: srv,
		config:  config,
		logger:  logger,
	}
}

// ServiceAccountEmail returns the address users must share their sheet
// with. It is empty when the reader uses OAuth2 credentials.
func (r *GoogleReader) ServiceAccountEmail() string {
	return r.serviceAccountEmail
}

// ValidateAccess fetches the spreadsheet title and tab names.
func (r *GoogleReader) ValidateAccess(ctx context.Context, sheetID string) (*service.SheetInfo, error) {
	var resp *sheets.Spreadsheet
	err := common.WithRetry(ctx, r.retryOptions(), func(ctx context.Context) error {
		var err error
		resp, err = r.service.Spreadsheets.Get(sheetID).
			Fields("properties.title", "sheets.properties.title").
			Context(ctx).
			Do()
		return classifyAPIError(err)
	})
	if err != nil {
		return nil, r.accessError(sheetID, err)
	}

	info := &service.SheetInfo{ID: sheetID, Tabs: tabTitles(resp)}
	if resp.Properties != nil {
		info.Title = resp.Properties.Title
	}
	return info, nil
}

// ReadAllTabs reads every tab of the spreadsheet. Tabs are fetched in
// parallel and a tab that cannot be read is returned with no rows.
func (r *GoogleReader) ReadAllTabs(ctx context.Context, sheetID string) (map[string][][]any, error) {
	info, err := r.ValidateAccess(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	result := make(map[string][][]any, len(info.Tabs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.ReadConcurrency)

	for _, tab := range info.Tabs {
		g.Go(func() error {
			rows, err := r.readTab(gctx, sheetID, tab)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				r.logger.Warn("failed to read tab",
					"sheet_id", sheetID,
					"tab", tab,
					"error", err)
				rows = [][]any{}
			}

			mu.Lock()
			result[tab] = rows
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetID, err)
	}

	r.logger.Debug("read spreadsheet",
		"sheet_id", sheetID,
		"tabs", len(result))
	return result, nil
}

func (r *GoogleReader) readTab(ctx context.Context, sheetID, tab string) ([][]any, error) {
	var rows [][]any
	err := common.WithRetry(ctx, r.retryOptions(), func(ctx context.Context) error {
		resp, err := r.service.Spreadsheets.Values.Get(sheetID, fmt.Sprintf("'%s'!%s", tab, tabRange)).
			Context(ctx).
			Do()
		if err != nil {
			return classifyAPIError(err)
		}
		rows = resp.Values
		return nil
	})
	if rows == nil {
		rows = [][]any{}
	}
	return rows, err
}

func (r *GoogleReader) retryOptions() common.RetryOptions {
	attempts := r.config.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	opts := common.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: r.config.RetryDelay,
	}
	if r.config.RetryDelay > 0 {
		opts.MaxDelay = 10 * r.config.RetryDelay
	}
	return opts
}

func (r *GoogleReader) accessError(sheetID string, err error) error {
	if errors.Is(err, ErrNoAccess) {
		hint := "Cannot access the spreadsheet. Share it with the service account"
		if r.serviceAccountEmail != "" {
			hint += " " + r.serviceAccountEmail
		}
		return common.NewUserError(hint+".", fmt.Errorf("sheet %s: %w", sheetID, err))
	}
	return fmt.Errorf("open sheet %s: %w", sheetID, err)
}

// classifyAPIError marks client errors as permanent so they are not retried.
// Forbidden and not-found responses become ErrNoAccess.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusNotFound:
		return &common.RetryableError{Err: fmt.Errorf("%w: %v", ErrNoAccess, err), Retryable: false}
	case apiErr.Code == http.StatusTooManyRequests:
		return &common.RetryableError{Err: fmt.Errorf("%w: %v", common.ErrRateLimit, err), Retryable: true}
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return &common.RetryableError{Err: err, Retryable: true}
	}
}

func tabTitles(s *sheets.Spreadsheet) []string {
	tabs := make([]string, 0, len(s.Sheets))
	for _, sh := range s.Sheets {
		if sh.Properties != nil {
			tabs = append(tabs, sh.Properties.Title)
		}
	}
	return tabs
}

// createSheetsService creates a read-only Google Sheets API service. The
// returned email is set when a service account key is used.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, string, error) {
	var tokenSource oauth2.TokenSource
	var email string

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, "", fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, "", fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
		email = jwtConfig.Email
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsReadonlyScope},
		}

		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}

		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, "", fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, email, nil
}
