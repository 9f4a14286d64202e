package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"clinic/internal/cache"
	"clinic/internal/log"
	ports "clinic/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	lastColumn   = "H"
	rowCacheSize = 4096
	rowCacheTTL  = 10 * time.Minute
)

// ErrMissingSpreadsheet is returned when no spreadsheet id is configured.
var ErrMissingSpreadsheet = errors.New("missing spreadsheet id")

// valuesAPI is the slice of the Sheets values API the ledger needs.
type valuesAPI interface {
	get(ctx context.Context, rng string) ([][]any, error)
	update(ctx context.Context, rng string, values [][]any) error
	append(ctx context.Context, rng string, values [][]any) error
	clear(ctx context.Context, rng string) error
}

// Client mirrors payments into one sheet, one row per payment, keyed by the
// payment id in column A.
type Client struct {
	mu     sync.Mutex
	values valuesAPI
	sheet  string
	rows   *cache.LRUCache[int] // payment id -> 1-based row number
}

var _ ports.PaymentLedger = (*Client)(nil)

// New creates a ledger client authenticated with a service account.
// Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, ErrMissingSpreadsheet
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&serviceValues{svc: svc, spreadsheetID: spreadsheetID}, sheetName), nil
}

func newClient(values valuesAPI, sheetName string) *Client {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Payments"
	}
	return &Client{
		values: values,
		sheet:  sheetName,
		rows:   cache.NewLRUCache[int](rowCacheSize, rowCacheTTL),
	}
}

// RowCache exposes the row index cache so a cache.Manager can evict it.
func (c *Client) RowCache() cache.Cleaner { return c.rows }

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials",
			log.FieldComponent, log.ComponentSheets)
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading service account credentials",
			log.FieldComponent, log.ComponentSheets,
			"path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Upsert overwrites the row of a known payment id and appends otherwise.
func (c *Client) Upsert(ctx context.Context, rows ...ports.LedgerRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range rows {
		n, ok, err := c.rowOf(ctx, r.PaymentID)
		if err != nil {
			return err
		}
		values := [][]any{r.Values()}
		if ok {
			if err := c.values.update(ctx, c.rowRange(n), values); err != nil {
				return fmt.Errorf("update row %d: %w", n, err)
			}
		} else {
			if err := c.values.append(ctx, c.a1("A:"+lastColumn), values); err != nil {
				return fmt.Errorf("append payment %s: %w", r.PaymentID, err)
			}
		}
		slog.DebugContext(ctx, "Ledger row written",
			log.FieldComponent, log.ComponentSheets,
			log.FieldPaymentID, r.PaymentID,
			"updated", ok)
	}
	return nil
}

// Remove blanks the rows of the given payments.
func (c *Client) Remove(ctx context.Context, paymentIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range paymentIDs {
		n, ok, err := c.rowOf(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := c.values.clear(ctx, c.rowRange(n)); err != nil {
			return fmt.Errorf("clear row %d: %w", n, err)
		}
		c.rows.Delete(id)
	}
	return nil
}

// ReplaceAll clears the sheet and writes the header followed by rows.
func (c *Client) ReplaceAll(ctx context.Context, rows []ports.LedgerRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rows.Purge()
	if err := c.values.clear(ctx, c.a1("A:"+lastColumn)); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}

	values := make([][]any, 0, len(rows)+1)
	values = append(values, headerValues())
	for _, r := range rows {
		values = append(values, r.Values())
	}
	if err := c.values.update(ctx, c.a1("A1"), values); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	for i, r := range rows {
		c.rows.Set(r.PaymentID, i+2)
	}

	slog.InfoContext(ctx, "Ledger rewritten",
		log.FieldComponent, log.ComponentSheets,
		log.FieldCount, len(rows))
	return nil
}

// rowOf resolves the row of a payment id, reloading the id column on a miss.
func (c *Client) rowOf(ctx context.Context, id string) (int, bool, error) {
	if n, ok := c.rows.Get(id); ok {
		return n, true, nil
	}
	if err := c.loadIndex(ctx); err != nil {
		return 0, false, err
	}
	n, ok := c.rows.Get(id)
	return n, ok, nil
}

func (c *Client) loadIndex(ctx context.Context) error {
	col, err := c.values.get(ctx, c.a1("A:A"))
	if err != nil {
		return fmt.Errorf("read id column: %w", err)
	}
	if len(col) == 0 {
		if err := c.values.update(ctx, c.rowRange(1), [][]any{headerValues()}); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		return nil
	}
	for i, row := range col {
		if i == 0 || len(row) == 0 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(row[0]))
		if id == "" {
			continue
		}
		c.rows.Set(id, i+1)
	}
	return nil
}

func (c *Client) rowRange(n int) string {
	return c.a1(fmt.Sprintf("A%d:%s%d", n, lastColumn, n))
}

// a1 qualifies a cell range with the quoted sheet name.
func (c *Client) a1(cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(c.sheet, "'", "''"), cells)
}

func headerValues() []any {
	out := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		out[i] = h
	}
	return out
}

type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceValues) get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) update(ctx context.Context, rng string, values [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

func (s *serviceValues) append(ctx context.Context, rng string, values [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (s *serviceValues) clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}
