package booking

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ticketq/internal/config"
)

const (
	basePath        = "/ExternalTicketBooking"
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05"
)

// dateInputLayouts are the recognized loose inputs for event dates, tried in
// order after the target layout itself.
var dateInputLayouts = []string{
	time.RFC3339,
	timestampLayout,
	"2006-01-02 15:04:05",
	dateLayout,
}

// Client is the typed wrapper around the external ticket booking API. All
// validation failures are raised before any network call.
type Client struct {
	transport *Transport
	log       zerolog.Logger
}

func NewClient(cfg config.Booking, logger zerolog.Logger) *Client {
	return &Client{
		transport: NewTransport(TransportOptions{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
			Logger:  logger,
		}),
		log: logger,
	}
}

type GetTicketsParams struct {
	EventCode string
	EventDate string
}

// GetTickets lists available tickets, optionally filtered by event code and
// date. The date is normalized to YYYY-MM-DD before becoming a query param.
func (c *Client) GetTickets(ctx context.Context, p GetTicketsParams) (map[string]any, error) {
	query := url.Values{}
	if p.EventCode != "" {
		query.Set("eventCode", p.EventCode)
	}
	if p.EventDate != "" {
		d, err := normalizeDate(p.EventDate, dateLayout)
		if err != nil {
			return nil, err
		}
		query.Set("eventDate", d)
	}

	return c.transport.do(ctx, request{
		Method: http.MethodGet,
		Path:   basePath + "/GetTickets",
		Query:  query,
	})
}

type ReserveParams struct {
	EventCode string
	EventDate string
	Price     *float64
	Quantity  int
	ClientID  string
	SeatCode  string
}

// ReserveTicket places a hold on tickets. A positive quantity requires a
// price.
func (c *Client) ReserveTicket(ctx context.Context, p ReserveParams) (map[string]any, error) {
	if p.Quantity > 0 && p.Price == nil {
		return nil, Validationf("price is required when quantity is given")
	}

	body := map[string]any{}
	if p.EventCode != "" {
		body["eventCode"] = p.EventCode
	}
	if p.EventDate != "" {
		d, err := normalizeDate(p.EventDate, timestampLayout)
		if err != nil {
			return nil, err
		}
		body["eventDate"] = d
	}
	if p.Price != nil {
		body["price"] = *p.Price
	}
	if p.Quantity > 0 {
		body["quantity"] = p.Quantity
	}
	if p.ClientID != "" {
		body["clientId"] = p.ClientID
	}

	return c.transport.do(ctx, request{
		Method: http.MethodPost,
		Path:   seatPath(basePath+"/ReserveTicket", p.SeatCode),
		Body:   body,
	})
}

type PurchaseParams struct {
	EventCode string
	EventDate string
	Price     *float64
	Quantity  int
	ClientID  string
	SeatCode  string
}

// PurchaseTicket buys tickets. Event code, date, price and a positive
// quantity are all required; anything missing fails with a validation error
// before the request is issued.
func (c *Client) PurchaseTicket(ctx context.Context, p PurchaseParams) (map[string]any, error) {
	if strings.TrimSpace(p.EventCode) == "" {
		return nil, Validationf("event code is required")
	}
	if p.EventDate == "" {
		return nil, Validationf("event date is required")
	}
	if p.Price == nil {
		return nil, Validationf("price is required")
	}
	if p.Quantity <= 0 {
		return nil, Validationf("quantity must be positive")
	}
	date, err := normalizeDate(p.EventDate, timestampLayout)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"eventCode": p.EventCode,
		"eventDate": date,
		"price":     *p.Price,
		"quantity":  p.Quantity,
	}
	if p.ClientID != "" {
		body["clientId"] = p.ClientID
	}

	return c.transport.do(ctx, request{
		Method: http.MethodPost,
		Path:   seatPath(basePath+"/PurchaseTicket", p.SeatCode),
		Body:   body,
	})
}

// seatPath appends a non-blank seat code as a path segment.
func seatPath(path, seatCode string) string {
	if s := strings.TrimSpace(seatCode); s != "" {
		return path + "/" + url.PathEscape(s)
	}
	return path
}

// normalizeDate reformats a date-like string into layout. An input already in
// the target layout passes through untouched; otherwise the known input
// layouts are tried in order.
func normalizeDate(value, layout string) (string, error) {
	if _, err := time.Parse(layout, value); err == nil {
		return value, nil
	}
	for _, in := range dateInputLayouts {
		if t, err := time.Parse(in, value); err == nil {
			return t.Format(layout), nil
		}
	}
	return "", Validationf("unrecognized event date %q", value)
}
