package ghost

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// Post statuses accepted by the Ghost Admin API.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is the content handed to the CMS. Immutable once passed to Publish.
type Post struct {
	Title    string
	HTML     string
	Tags     []string
	Status   string
	Featured bool
}

// ClientOptions controls how the Ghost Admin API client is initialised.
type ClientOptions struct {
	// URL is the Ghost instance base URL, e.g. https://blog.example.com.
	URL string
	// AdminKey is the Admin API key in "id:hexsecret" form.
	AdminKey   string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client publishes posts through the Ghost Admin API.
type Client struct {
	baseURL    string
	keyID      string
	secret     []byte
	httpClient *http.Client
	logger     *logrus.Logger
	now        func() time.Time
}

const (
	adminPostsPath     = "/ghost/api/admin/posts/?source=html"
	tokenLifetime      = 5 * time.Minute
	defaultHTTPTimeout = 60 * time.Second
)

// NewClient constructs a Ghost Admin API client from the admin key.
func NewClient(opts ClientOptions) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.URL), "/")
	if baseURL == "" {
		return nil, eris.New("ghost url is required")
	}

	keyID, hexSecret, found := strings.Cut(strings.TrimSpace(opts.AdminKey), ":")
	if !found || keyID == "" || hexSecret == "" {
		return nil, eris.New("ghost admin key must be in id:secret form")
	}

	secret, err := hex.DecodeString(hexSecret)
	if err != nil {
		return nil, eris.Wrap(err, "decoding ghost admin key secret")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	return &Client{
		baseURL:    baseURL,
		keyID:      keyID,
		secret:     secret,
		httpClient: httpClient,
		logger:     opts.Logger,
		now:        time.Now,
	}, nil
}

type postPayload struct {
	Title    string       `json:"title"`
	HTML     string       `json:"html"`
	Tags     []tagPayload `json:"tags"`
	Status   string       `json:"status"`
	Featured bool         `json:"featured"`
}

type tagPayload struct {
	Name string `json:"name"`
}

type postsEnvelope struct {
	Posts []postPayload `json:"posts"`
}

type publishResponse struct {
	Posts []struct {
		URL string `json:"url"`
	} `json:"posts"`
}

// Publish creates the post and returns its public URL.
func (c *Client) Publish(ctx context.Context, post Post) (string, error) {
	title := strings.TrimSpace(post.Title)
	if title == "" {
		return "", eris.New("post title is required")
	}
	if strings.TrimSpace(post.HTML) == "" {
		return "", eris.New("post content is required")
	}

	status := post.Status
	if status == "" {
		status = StatusPublished
	}
	if status != StatusDraft && status != StatusPublished {
		return "", eris.Errorf("unsupported post status: %s", status)
	}

	tags := make([]tagPayload, 0, len(post.Tags))
	for _, tag := range post.Tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		tags = append(tags, tagPayload{Name: trimmed})
	}

	body, err := json.Marshal(postsEnvelope{Posts: []postPayload{{
		Title:    title,
		HTML:     post.HTML,
		Tags:     tags,
		Status:   status,
		Featured: post.Featured,
	}}})
	if err != nil {
		return "", eris.Wrap(err, "encoding post payload")
	}

	token, err := c.adminToken()
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+adminPostsPath, bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "building publish request")
	}
	request.Header.Set("Authorization", "Ghost "+token)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		c.logError(logrus.Fields{"title": title}, err, "calling ghost admin api")
		return "", eris.Wrap(err, "calling ghost admin api")
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return "", eris.Wrap(err, "reading ghost response")
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		err := eris.Errorf("ghost admin api returned status %d: %s", response.StatusCode, excerpt(responseBody))
		c.logError(logrus.Fields{"title": title, "status": response.StatusCode}, err, "ghost publish failure")
		return "", err
	}

	var decoded publishResponse
	if err := json.Unmarshal(responseBody, &decoded); err != nil {
		return "", eris.Wrap(err, "decoding ghost response")
	}

	if len(decoded.Posts) == 0 || strings.TrimSpace(decoded.Posts[0].URL) == "" {
		return "", eris.New("ghost response missing post url")
	}

	return decoded.Posts[0].URL, nil
}

// adminToken signs a short-lived JWT accepted by the Admin API.
func (c *Client) adminToken() (string, error) {
	issuedAt := c.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": issuedAt.Unix(),
		"exp": issuedAt.Add(tokenLifetime).Unix(),
		"aud": "/admin/",
	})
	token.Header["kid"] = c.keyID

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", eris.Wrap(err, "signing ghost admin token")
	}

	return signed, nil
}

func (c *Client) logError(fields logrus.Fields, err error, message string) {
	if c.logger == nil || err == nil {
		return
	}

	entry := c.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func excerpt(body []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
