package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/search"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message"`
	Field      string `json:"field"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%d): %s [%s]", e.Code, e.StatusCode, e.Message, e.Field)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Suggestion returns a hint for common failures, or "".
func (e *APIError) Suggestion() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "Run 'echoes auth login' to sign in again"
	case http.StatusForbidden:
		return "Only the owner can do that, or the account is not verified yet"
	case http.StatusTooManyRequests:
		return "Wait a moment before retrying"
	}
	return ""
}

// Client wraps the Echoes REST API.
type Client struct {
	http *resty.Client
}

// NewClient points a resty client at baseURL. A non-empty token is sent as a
// bearer header on every request.
func NewClient(baseURL string, timeout time.Duration, token string) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "echoes-cli/1.0").
		SetHeader("Accept", "application/json").
		SetError(&APIError{})
	rc.JSONMarshal = jsonAPI.Marshal
	rc.JSONUnmarshal = jsonAPI.Unmarshal
	if token != "" {
		rc.SetAuthToken(token)
	}

	rc.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		Logger().Debug("API request", "method", req.Method, "url", req.URL)
		return nil
	})
	rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		Logger().Debug("API response", "status", resp.StatusCode(), "url", resp.Request.URL, "duration", resp.Time())
		return nil
	})
	return &Client{http: rc}
}

// NewClientFromConfig uses api.base_url, api.timeout and stored credentials.
func NewClientFromConfig() (*Client, error) {
	creds, err := LoadCredentials()
	if err != nil {
		return nil, err
	}
	token := ""
	if creds.Valid(time.Now()) {
		token = creds.Token
	}
	return NewClient(GetString("api.base_url"), time.Duration(GetInt("api.timeout"))*time.Second, token), nil
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{Message: http.StatusText(resp.StatusCode())}
	}
	apiErr.StatusCode = resp.StatusCode()
	return apiErr
}

// LoginResult is the session issued by the API.
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

type messageResult struct {
	Message string `json:"message"`
}

func (c *Client) Register(email, password, name, dob string) (string, error) {
	var out messageResult
	resp, err := c.http.R().
		SetBody(map[string]string{"email": email, "password": password, "name": name, "dob": dob}).
		SetResult(&out).
		Post("/api/auth/register")
	if err := checkResponse(resp, err); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) VerifyEmail(email, otp string) error {
	resp, err := c.http.R().
		SetBody(map[string]string{"email": email, "otp": otp}).
		Post("/api/auth/verify-email")
	return checkResponse(resp, err)
}

func (c *Client) ResendOTP(email string) error {
	resp, err := c.http.R().
		SetBody(map[string]string{"email": email}).
		Post("/api/auth/resend-otp")
	return checkResponse(resp, err)
}

func (c *Client) Login(email, password string) (*LoginResult, error) {
	var out LoginResult
	resp, err := c.http.R().
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		Post("/api/auth/login")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me() (*models.User, error) {
	var out struct {
		User models.User `json:"user"`
	}
	resp, err := c.http.R().SetResult(&out).Get("/api/auth/me")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// WritingPage is one page of writings.
type WritingPage struct {
	Writings []models.Writing `json:"writings"`
	Total    int64            `json:"total"`
}

func (c *Client) PublishedWritings(term string, limit, offset int) (*WritingPage, error) {
	var out WritingPage
	resp, err := c.http.R().
		SetQueryParams(pageParams(limit, offset)).
		SetQueryParam("search", term).
		SetResult(&out).
		Get("/api/writing/published")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyWritings(status string) ([]models.Writing, error) {
	var out WritingPage
	req := c.http.R().SetResult(&out)
	if status != "" {
		req.SetQueryParam("status", status)
	}
	resp, err := req.Get("/api/writing/my-writings")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return out.Writings, nil
}

func (c *Client) Writing(id string) (*models.Writing, error) {
	var out struct {
		Writing models.Writing `json:"writing"`
	}
	resp, err := c.http.R().SetResult(&out).Get("/api/writing/" + id)
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &out.Writing, nil
}

// SaveWriting creates a writing when id is empty, otherwise updates it.
func (c *Client) SaveWriting(id, title, content, status string, tags []string) (*models.Writing, error) {
	var out struct {
		Writing models.Writing `json:"writing"`
	}
	body := map[string]interface{}{"title": title, "content": content, "status": status, "tags": tags}
	if id != "" {
		body["id"] = id
	}
	resp, err := c.http.R().SetBody(body).SetResult(&out).Post("/api/writing/save")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &out.Writing, nil
}

// ToggleResult is the state after a like, bookmark or save toggle.
// Post likes report likeCount where writing likes report likes.
type ToggleResult struct {
	Message    string `json:"message"`
	Liked      bool   `json:"liked"`
	Likes      int    `json:"likes"`
	LikeCount  int    `json:"likeCount"`
	Bookmarked bool   `json:"bookmarked"`
	Bookmarks  int    `json:"bookmarks"`
	Saved      bool   `json:"saved"`
	SavedCount int    `json:"savedCount"`
	Bucket     string `json:"bucket"`
}

func (c *Client) toggle(method, path string) (*ToggleResult, error) {
	var out ToggleResult
	resp, err := c.http.R().SetResult(&out).Execute(method, path)
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LikeWriting(id string) (*ToggleResult, error) {
	return c.toggle(http.MethodPut, "/api/writing/like/"+id)
}

func (c *Client) BookmarkWriting(id string) (*ToggleResult, error) {
	return c.toggle(http.MethodPut, "/api/writing/bookmark/"+id)
}

func (c *Client) LikePost(id string) (*ToggleResult, error) {
	return c.toggle(http.MethodPost, "/api/liked/"+id)
}

// PostPage is one page of posts.
type PostPage struct {
	Posts []models.Post `json:"posts"`
	Total int64         `json:"total"`
}

func (c *Client) Posts(mediaType string, limit, offset int) (*PostPage, error) {
	var out PostPage
	req := c.http.R().SetQueryParams(pageParams(limit, offset)).SetResult(&out)
	if mediaType != "" {
		req.SetQueryParam("mediaType", mediaType)
	}
	resp, err := req.Get("/api/posts")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// SavePost toggles the post in the caller's saved collection.
func (c *Client) SavePost(id string) (*ToggleResult, error) {
	return c.toggle(http.MethodPost, "/api/saved/"+id)
}

func (c *Client) Search(query, kind string, limit, offset int) (*search.Result, error) {
	var out search.Result
	resp, err := c.http.R().
		SetQueryParams(pageParams(limit, offset)).
		SetQueryParam("q", query).
		SetQueryParam("type", kind).
		SetResult(&out).
		Get("/api/search")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func pageParams(limit, offset int) map[string]string {
	return map[string]string{"limit": fmt.Sprint(limit), "offset": fmt.Sprint(offset)}
}
