package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/log"
	ports "github.com/W4k4s/herramienta-presupuesto-economilenial/internal/sheets"
)

const defaultRowCacheTTL = 5 * time.Minute

// Client appends budget summaries to a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	// Next free row, cached so consecutive appends skip the A:A read.
	mu             sync.Mutex
	cachedRowCount int
	cacheExpiresAt time.Time
	cacheTTL       time.Duration
	now            func() time.Time
}

var _ ports.SummaryWriter = (*Client)(nil)

// Options configures a Client built from explicit values.
type Options struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsJSON and CredentialsFile are tried in that order before
	// GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsJSON string
	CredentialsFile string
	Logger          *log.Logger
}

// New wraps an existing service. sheetName is used as is.
func New(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		return nil, errors.New("missing sheet name")
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        log.OrDiscard(logger).WithComponent(log.ComponentSheets),
		cacheTTL:      defaultRowCacheTTL,
		now:           time.Now,
	}, nil
}

// NewFromOptions creates the Sheets service from service account
// credentials. The sheet name gets the current year as prefix, so
// "Resumen" becomes "2025 Resumen".
func NewFromOptions(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = "Resumen"
	}
	logger := log.OrDiscard(opts.Logger).WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, opts.CredentialsJSON, opts.CredentialsFile, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, opts.SpreadsheetID, yearPrefixedName(base, time.Now().Year()), logger)
}

func newSheetsService(ctx context.Context, serviceAccountJSON, serviceAccountFile string, logger *log.Logger) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		logger.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// SheetName returns the target sheet.
func (c *Client) SheetName() string { return c.sheetName }

// AppendSummary writes the row after the last used row of column A. An
// empty sheet gets the header first.
func (c *Client) AppendSummary(ctx context.Context, row ports.SummaryRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if row.Identity == "" {
		return "", errors.New("summary row without identity")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	used, err := c.usedRows(ctx)
	if err != nil {
		return "", err
	}

	if used == 0 {
		if err := c.writeRow(ctx, 1, ports.Header); err != nil {
			c.invalidate()
			return "", err
		}
		used = 1
	}

	next := used + 1
	if err := c.writeRow(ctx, next, row.Values()); err != nil {
		c.invalidate()
		return "", err
	}
	c.cachedRowCount = next
	c.cacheExpiresAt = c.now().Add(c.cacheTTL)

	ref := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, next, lastColumn(), next)
	c.logger.DebugContext(ctx, "Summary row appended", log.FieldSheetsRef, ref, log.FieldIdentity, row.Identity)
	return ref, nil
}

// usedRows returns the number of rows with data in column A. Callers hold mu.
func (c *Client) usedRows(ctx context.Context) (int, error) {
	if c.cachedRowCount > 0 && c.now().Before(c.cacheExpiresAt) {
		return c.cachedRowCount, nil
	}
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get sheet dimensions for %s: %w", c.sheetName, err)
	}
	c.cachedRowCount = len(resp.Values)
	c.cacheExpiresAt = c.now().Add(c.cacheTTL)
	return c.cachedRowCount, nil
}

func (c *Client) writeRow(ctx context.Context, rowNum int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, rowNum, lastColumn(), rowNum)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) invalidate() {
	c.cachedRowCount = 0
	c.cacheExpiresAt = time.Time{}
}

func lastColumn() string {
	return string(rune('A' + len(ports.Header) - 1))
}

// yearPrefixedName prefixes base with year unless it already starts with one.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
