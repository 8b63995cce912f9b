package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/shinee-collection/tracker-web/internal/catalog"
	"github.com/shinee-collection/tracker-web/internal/observability"
)

const (
	defaultTimeout       = 8 * time.Second
	idempotencyHeader    = "Idempotency-Key"
	defaultPurchaseField = "isPurchased"
	defaultWishlistField = "isWishlist"
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	PurchaseField string
	WishlistField string
	HTTPClient    *http.Client
}

// Client talks to the collection backend. When the base URL is empty, the
// client serves sample data and accepts every write.
type Client struct {
	baseURL       string
	http          *http.Client
	purchaseField string
	wishlistField string
	fake          *fakeBackend
}

// NewClient constructs a backend client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	c := &Client{
		baseURL:       strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		http:          hc,
		purchaseField: defaultString(opts.PurchaseField, defaultPurchaseField),
		wishlistField: defaultString(opts.WishlistField, defaultWishlistField),
	}
	if c.baseURL == "" {
		c.fake = newFakeBackend()
	}
	return c
}

// UsesSampleData reports whether the client serves built-in sample data.
func (c *Client) UsesSampleData() bool { return c.fake != nil }

// ListDiscography fetches the full flattened catalog.
func (c *Client) ListDiscography(ctx context.Context) ([]catalog.Record, error) {
	if c.fake != nil {
		return c.fake.discography(), nil
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "discography", nil, &raw, "api", "shinee", "discography"); err != nil {
		return nil, err
	}
	return catalog.DecodeRecords(raw)
}

// Stats fetches the collection percentages.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	if c.fake != nil {
		return c.fake.stats(), nil
	}
	var payload statsPayload
	if err := c.getJSON(ctx, "stats", nil, &payload, "api", "stats"); err != nil {
		return nil, err
	}
	return payload.toStats(), nil
}

// Wishlist fetches the editions flagged as wishlisted.
func (c *Client) Wishlist(ctx context.Context) ([]catalog.Record, error) {
	if c.fake != nil {
		return c.fake.wishlist(), nil
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "wishlist", nil, &raw, "api", "editions", "wishlist"); err != nil {
		return nil, err
	}
	return catalog.DecodeRecords(raw)
}

// MasterWorks lists the works selectable for registration.
func (c *Client) MasterWorks(ctx context.Context) ([]MasterWork, error) {
	if c.fake != nil {
		return toMasterWorks(catalog.Dedupe(c.fake.discography())), nil
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "master discs", nil, &raw, "api", "master", "discs"); err != nil {
		return nil, err
	}
	records, err := catalog.DecodeRecords(raw)
	if err != nil {
		return nil, err
	}
	return toMasterWorks(records), nil
}

// MasterEditions lists the editions of one work.
func (c *Client) MasterEditions(ctx context.Context, workID string) ([]MasterEdition, error) {
	workID = strings.TrimSpace(workID)
	if workID == "" {
		return nil, nil
	}
	if c.fake != nil {
		return toMasterEditions(catalog.Editions(c.fake.discography(), workID), ""), nil
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "master editions", url.Values{"discId": {workID}}, &raw, "api", "master", "editions"); err != nil {
		return nil, err
	}
	records, err := catalog.DecodeRecords(raw)
	if err != nil {
		return nil, err
	}
	return toMasterEditions(records, ""), nil
}

// RandomItems lists registered items, optionally narrowed to one edition.
func (c *Client) RandomItems(ctx context.Context, editionID string) ([]RandomItem, error) {
	editionID = strings.TrimSpace(editionID)
	if c.fake != nil {
		return c.fake.randomItems(editionID), nil
	}
	var query url.Values
	if editionID != "" {
		query = url.Values{"editionId": {editionID}}
	}
	var payload []randomItemPayload
	if err := c.getJSON(ctx, "random items", query, &payload, "api", "random", "items"); err != nil {
		return nil, err
	}
	out := make([]RandomItem, 0, len(payload))
	for _, p := range payload {
		out = append(out, p.toRandomItem())
	}
	return out, nil
}

// SetPurchased persists the owned flag of an edition.
func (c *Client) SetPurchased(ctx context.Context, editionID string, value bool) error {
	return c.patchFlag(ctx, "purchase", editionID, c.purchaseField, value)
}

// SetWishlist persists the wishlist flag of an edition.
func (c *Client) SetWishlist(ctx context.Context, editionID string, value bool) error {
	return c.patchFlag(ctx, "wishlist", editionID, c.wishlistField, value)
}

func (c *Client) patchFlag(ctx context.Context, kind, editionID, field string, value bool) (err error) {
	editionID = strings.TrimSpace(editionID)
	if editionID == "" {
		return ErrMissingEditionID
	}
	if c.fake != nil {
		c.fake.setFlag(kind, editionID, value)
		return nil
	}
	ctx, span := observability.StartClientSpan(ctx, "backend.set_"+kind,
		attribute.String("edition.id", editionID),
		attribute.Bool("flag.value", value),
	)
	defer func() { observability.EndSpan(span, err) }()

	endpoint, err := url.JoinPath(c.baseURL, "api", "editions", editionID, kind)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]bool{field: value})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: set %s: %w", kind, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		return &StatusError{Op: "set " + kind, Status: resp.StatusCode, Body: drainError(resp.Body)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// UploadRandomItems registers a batch of items with their images as one
// multipart request.
func (c *Client) UploadRandomItems(ctx context.Context, up Upload) (res UploadResult, err error) {
	if strings.TrimSpace(up.EditionID) == "" {
		return UploadResult{}, ErrMissingEditionID
	}
	if len(up.Items) == 0 {
		return UploadResult{}, ErrEmptyUpload
	}
	if c.fake != nil {
		return c.fake.upload(up)
	}

	key := ensureIdempotencyKey(up.IdempotencyKey)
	ctx, span := observability.StartClientSpan(ctx, "backend.upload_random_items",
		attribute.String("edition.id", up.EditionID),
		attribute.Int("upload.items", len(up.Items)),
	)
	defer func() { observability.EndSpan(span, err) }()

	endpoint, err := url.JoinPath(c.baseURL, "api", "random", "upload")
	if err != nil {
		return UploadResult{}, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	counted := make(chan int64, 1)
	go func() {
		n, werr := writeUploadForm(mw, up)
		counted <- n
		if werr == nil {
			werr = mw.Close()
		}
		pw.CloseWithError(werr)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		pr.CloseWithError(err)
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(idempotencyHeader, key)

	resp, err := c.http.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return UploadResult{}, fmt.Errorf("backend: upload: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		return UploadResult{}, &StatusError{Op: "upload", Status: resp.StatusCode, Body: drainError(resp.Body)}
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return UploadResult{Count: len(up.Items), Bytes: <-counted, Message: strings.TrimSpace(string(msg))}, nil
}

func writeUploadForm(mw *multipart.Writer, up Upload) (int64, error) {
	if err := mw.WriteField("discId", up.WorkID); err != nil {
		return 0, err
	}
	if err := mw.WriteField("editionId", up.EditionID); err != nil {
		return 0, err
	}
	var total int64
	for _, item := range up.Items {
		if err := mw.WriteField("names", item.Name); err != nil {
			return total, err
		}
		if err := mw.WriteField("memberNames", item.MemberName); err != nil {
			return total, err
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, defaultString(item.Filename, "image")))
		h.Set("Content-Type", defaultString(item.ContentType, "application/octet-stream"))
		part, err := mw.CreatePart(h)
		if err != nil {
			return total, err
		}
		if item.Image == nil {
			continue
		}
		n, err := io.Copy(part, item.Image)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (c *Client) getJSON(ctx context.Context, op string, query url.Values, out any, path ...string) (err error) {
	ctx, span := observability.StartClientSpan(ctx, "backend."+strings.ReplaceAll(op, " ", "_"))
	defer func() { observability.EndSpan(span, err) }()

	endpoint, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: %s: %w", op, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		return &StatusError{Op: op, Status: resp.StatusCode, Body: drainError(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decode %s: %w", op, err)
	}
	return nil
}

func ensureIdempotencyKey(key string) string {
	key = strings.TrimSpace(key)
	if key != "" {
		return key
	}
	return ulid.Make().String()
}

func defaultString(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return strings.TrimSpace(val)
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func parseTime(val string) time.Time {
	val = strings.TrimSpace(val)
	if val == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, val); err == nil {
			return ts
		}
	}
	return time.Time{}
}
