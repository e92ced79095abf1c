package cart

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	DefaultAddPath    = "/cart/add"
	DefaultUpdatePath = "/cart/update"
	DefaultClearPath  = "/cart/clear"
	removePathPrefix  = "/cart/remove/"

	csrfField       = "_csrf"
	maxResponseSize = 1 << 20
)

type AddRequest struct {
	CSRFToken    string
	ProductID    string
	Quantity     int
	SelectedSize string
	// Action: путь из атрибута action формы; по умолчанию /cart/add.
	Action string
}

type UpdateRequest struct {
	CSRFToken    string
	ProductID    string
	Quantity     int
	SelectedSize string
}

// Response: JSON-ответ корзины: {"itemCount": n} или {"error": "..."}.
type Response struct {
	ItemCount *int   `json:"itemCount"`
	Error     string `json:"error"`
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: bad base url %q", ErrInvalidRequest, baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: u,
		http:    &http.Client{Timeout: timeout, Jar: jar},
		log:     log,
	}, nil
}

func (c *Client) Add(ctx context.Context, req AddRequest) (*Response, error) {
	if req.ProductID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidRequest)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrInvalidRequest)
	}
	action := req.Action
	if action == "" {
		action = DefaultAddPath
	}

	form := url.Values{}
	form.Set(csrfField, req.CSRFToken)
	form.Set("productId", req.ProductID)
	form.Set("quantity", strconv.Itoa(req.Quantity))
	if req.SelectedSize != "" {
		form.Set("selectedSize", req.SelectedSize)
	}
	return c.post(ctx, action, form)
}

func (c *Client) Update(ctx context.Context, req UpdateRequest) (*Response, error) {
	if req.ProductID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidRequest)
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be >= 0", ErrInvalidRequest)
	}
	form := url.Values{}
	form.Set(csrfField, req.CSRFToken)
	form.Set("productId", req.ProductID)
	form.Set("quantity", strconv.Itoa(req.Quantity))
	if req.SelectedSize != "" {
		form.Set("selectedSize", req.SelectedSize)
	}
	return c.post(ctx, DefaultUpdatePath, form)
}

func (c *Client) Remove(ctx context.Context, csrfToken, productID string) (*Response, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrInvalidRequest)
	}
	form := url.Values{}
	form.Set(csrfField, csrfToken)
	return c.post(ctx, removePathPrefix+url.PathEscape(productID), form)
}

func (c *Client) Clear(ctx context.Context, csrfToken string) (*Response, error) {
	form := url.Values{}
	form.Set(csrfField, csrfToken)
	return c.post(ctx, DefaultClearPath, form)
}

func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.baseURL.String() + path
	}
	return c.baseURL.ResolveReference(ref).String()
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (*Response, error) {
	target := c.resolve(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("cart request failed", zap.String("url", target), zap.Int("status", resp.StatusCode))
		return nil, &HTTPError{Status: resp.StatusCode, Detail: errorDetail(body)}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return &out, nil
}

func errorDetail(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// FetchCSRFToken загружает страницу и достаёт CSRF-токен из скрытого поля
// формы (<input name="_csrf">) или из <meta name="_csrf">. Cookie сессии
// сохраняются в клиенте, поэтому токен годится для последующих запросов.
func (c *Client) FetchCSRFToken(ctx context.Context, page string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(page), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	return ExtractCSRFToken(bytes.NewReader(body))
}

func ExtractCSRFToken(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return "", ErrCSRFTokenNotFound
			}
			return "", z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			attrs := map[string]string{}
			for _, a := range tok.Attr {
				attrs[a.Key] = a.Val
			}
			switch tok.Data {
			case "input":
				if attrs["name"] == csrfField && attrs["value"] != "" {
					return attrs["value"], nil
				}
			case "meta":
				if attrs["name"] == csrfField && attrs["content"] != "" {
					return attrs["content"], nil
				}
			}
		}
	}
}
