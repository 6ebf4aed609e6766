package clerk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNotConfigured = errors.New("clerk backend api not configured")
	ErrUserNotFound  = errors.New("clerk user not found")
)

const DefaultAPIURL = "https://api.clerk.com/v1"

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// UserData is the user object shared by the Backend API and user.* webhook events.
type UserData struct {
	ID                    string         `json:"id"`
	FirstName             *string        `json:"first_name"`
	LastName              *string        `json:"last_name"`
	ImageURL              string         `json:"image_url"`
	ProfileImageURL       string         `json:"profile_image_url"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
}

// PrimaryEmail prefers the address flagged as primary and falls back to the first one.
func (u UserData) PrimaryEmail() string {
	for _, e := range u.EmailAddresses {
		if u.PrimaryEmailAddressID != "" && e.ID == u.PrimaryEmailAddressID {
			return strings.TrimSpace(e.EmailAddress)
		}
	}
	if len(u.EmailAddresses) > 0 {
		return strings.TrimSpace(u.EmailAddresses[0].EmailAddress)
	}
	return ""
}

func (u UserData) Profile() *Profile {
	p := &Profile{
		ExternalID: u.ID,
		Email:      u.PrimaryEmail(),
		ImageURL:   u.ImageURL,
	}
	if p.ImageURL == "" {
		p.ImageURL = u.ProfileImageURL
	}
	if u.FirstName != nil {
		p.FirstName = strings.TrimSpace(*u.FirstName)
	}
	if u.LastName != nil {
		p.LastName = strings.TrimSpace(*u.LastName)
	}
	return p
}

type Profile struct {
	ExternalID string
	FirstName  string
	LastName   string
	Email      string
	ImageURL   string
}

type Client interface {
	GetUser(ctx context.Context, externalID string) (*Profile, error)
}

type client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient returns a Backend API client. An empty secret yields a client whose
// lookups fail with ErrNotConfigured, which callers treat as "no profile".
func NewClient(baseURL, secretKey string, httpClient *http.Client) Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  strings.TrimSpace(secretKey),
		httpClient: httpClient,
	}
}

func (c *client) GetUser(ctx context.Context, externalID string) (*Profile, error) {
	if c.secretKey == "" {
		return nil, ErrNotConfigured
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, ErrUserNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/"+url.PathEscape(externalID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("clerk get user failed: %s: %s", res.Status, strings.TrimSpace(string(body)))
	}

	var u UserData
	if err := json.NewDecoder(res.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode clerk user: %w", err)
	}
	if u.ID == "" {
		u.ID = externalID
	}
	return u.Profile(), nil
}
