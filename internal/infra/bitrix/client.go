package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lead-manager-telegram-bot/internal/domain"
)

// Client calls the Bitrix24 REST webhook. The webhook URL already carries
// the pre-shared credential, so there is no separate auth flow.
type Client struct {
	WebhookURL string
	HTTPClient *http.Client
}

func NewClient(webhookURL string, opts ...func(*Client)) *Client {
	c := &Client{
		WebhookURL: webhookURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithTimeout(d time.Duration) func(*Client) {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

type phoneDTO struct {
	Value string `json:"VALUE"`
}

type leadDTO struct {
	ID         string     `json:"ID"`
	Title      string     `json:"TITLE"`
	Name       string     `json:"NAME"`
	StatusID   string     `json:"STATUS_ID"`
	DateCreate string     `json:"DATE_CREATE"`
	Phone      []phoneDTO `json:"PHONE"`
}

func (d leadDTO) toDomain() (domain.Lead, error) {
	if d.ID == "" {
		return domain.Lead{}, fmt.Errorf("%w: lead without ID", domain.ErrMalformedResponse)
	}
	createdAt, err := time.Parse(time.RFC3339, d.DateCreate)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("%w: lead %s DATE_CREATE %q: %v", domain.ErrMalformedResponse, d.ID, d.DateCreate, err)
	}
	var phone string
	if len(d.Phone) > 0 {
		phone = d.Phone[0].Value
	}
	return domain.Lead{
		ID:        d.ID,
		Title:     d.Title,
		Name:      d.Name,
		Phone:     phone,
		Status:    domain.LeadStatus(d.StatusID),
		CreatedAt: createdAt,
	}, nil
}

// ListNewLeads fetches all leads still in status NEW.
func (c *Client) ListNewLeads(ctx context.Context) ([]domain.Lead, error) {
	q := url.Values{}
	q.Set("filter[STATUS_ID]", string(domain.StatusNew))
	for _, f := range []string{"ID", "TITLE", "NAME", "PHONE", "STATUS_ID", "DATE_CREATE"} {
		q.Add("select[]", f)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("crm.lead.list")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Result []leadDTO `json:"result"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	leads := make([]domain.Lead, 0, len(payload.Result))
	for _, dto := range payload.Result {
		lead, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// AppendLeadComment writes text into the lead's COMMENTS field. The CRM
// appends on its side; the caller is responsible for not calling twice.
func (c *Client) AppendLeadComment(ctx context.Context, leadID, text string) error {
	payload := map[string]any{
		"id": leadID,
		"fields": map[string]any{
			"COMMENTS": text,
		},
	}
	body, err := c.post(ctx, "crm.lead.update", payload)
	if err != nil {
		return err
	}

	var resp struct {
		Result bool `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if !resp.Result {
		return fmt.Errorf("%w: lead %s update rejected", domain.ErrTransport, leadID)
	}
	return nil
}

// CreateTask creates a follow-up task linked to the lead with the given
// deadline and returns the new task id.
func (c *Client) CreateTask(ctx context.Context, leadID, title string, deadline time.Time) (string, error) {
	payload := map[string]any{
		"fields": map[string]any{
			"TITLE":          title,
			"DESCRIPTION":    "Postponed lead: " + leadID,
			"DEADLINE":       deadline.Format(time.RFC3339),
			"RESPONSIBLE_ID": 1,
			"UF_CRM_TASK":    []string{"L_" + leadID},
		},
	}
	body, err := c.post(ctx, "tasks.task.add", payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		Result struct {
			Task struct {
				ID json.Number `json:"id"`
			} `json:"task"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if resp.Result.Task.ID.String() == "" {
		return "", fmt.Errorf("%w: task id missing", domain.ErrMalformedResponse)
	}
	return resp.Result.Task.ID.String(), nil
}

func (c *Client) endpoint(method string) string {
	return strings.TrimRight(c.WebhookURL, "/") + "/" + method + ".json"
}

func (c *Client) post(ctx context.Context, method string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: status %d", domain.ErrAuth, resp.StatusCode)
	}
	if resp.StatusCode/100 != 2 {
		// Bitrix wraps API errors in a JSON envelope even on non-2xx.
		var apiErr struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			if isNotFound(apiErr.Error, apiErr.ErrorDescription) {
				return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, apiErr.ErrorDescription)
			}
			return nil, fmt.Errorf("%w: %s: %s", domain.ErrTransport, apiErr.Error, apiErr.ErrorDescription)
		}
		return nil, fmt.Errorf("%w: non-2xx: %d", domain.ErrTransport, resp.StatusCode)
	}
	return body, nil
}

func isNotFound(code, description string) bool {
	return strings.Contains(strings.ToUpper(code), "NOT_FOUND") ||
		strings.Contains(strings.ToLower(description), "not found")
}
