// Package gateway is the HTTP boundary to the registration backend.
package gateway

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
	"strings"
	"time"

	"regdesk/internal/common/errors"
	httpclient "regdesk/internal/common/http"
	"regdesk/internal/common/logger"
	"regdesk/internal/models"
)

const (
	OpCreateRegistration = "create_registration"
	OpCheckIdentifier    = "check_identifier"
	OpFetchByCode        = "fetch_by_code"

	registrationsPath = "/api/registrations"
	checkPath         = "/api/registrations/check-aadhaar"

	// maxErrorBody bounds how much of a rejected response is read.
	maxErrorBody = 64 << 10
)

// Gateway is everything the intake and lookup flows need from the backend.
type Gateway interface {
	CreateRegistration(ctx context.Context, req models.CreateRegistrationRequest) (*models.Registration, error)
	CheckIdentifier(ctx context.Context, nationalID string) (*models.CheckResult, error)
	FetchByCode(ctx context.Context, code string) (*models.Registration, error)
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:   15 * time.Second,
		UserAgent: "intake-station",
	}
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// SessionSource resolves the operator session at request time.
type SessionSource interface {
	Current(ctx context.Context) (*models.Session, error)
}

// Client implements Gateway over REST.
type Client struct {
	config   *Config
	baseURL  string
	http     *httpclient.Client
	logger   logger.Logger
	session  *models.Session
	sessions SessionSource
	now      func() time.Time
}

var _ Gateway = (*Client)(nil)

func NewClient(config *Config, log logger.Logger, opts ...httpclient.Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gateway configuration: %w", err)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	opts = append([]httpclient.Option{httpclient.WithUserAgent(config.UserAgent)}, opts...)
	return &Client{
		config:  config,
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		http:    httpclient.NewClient(config.Timeout, opts...),
		logger:  log.WithFields(map[string]interface{}{"component": "gateway"}),
		now:     time.Now,
	}, nil
}

// WithSession returns a copy of the client that authenticates as s. Once s
// expires every call fails with SESSION_MISSING.
func (c *Client) WithSession(s *models.Session) *Client {
	cp := *c
	cp.session = s
	cp.sessions = nil
	return &cp
}

// WithSessionSource returns a copy of the client that looks the session up
// before every request, for long-running callers such as the job workers.
func (c *Client) WithSessionSource(src SessionSource) *Client {
	cp := *c
	cp.session = nil
	cp.sessions = src
	return &cp
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	sess := c.session
	if c.sessions != nil {
		current, err := c.sessions.Current(ctx)
		if err != nil {
			return errors.AsStandard(err)
		}
		sess = current
	}
	if sess == nil {
		return nil
	}
	if sess.IsExpired(c.now()) {
		return errors.NewSessionMissingError(sess.StationID)
	}
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	return nil
}

func (c *Client) CreateRegistration(ctx context.Context, reg models.CreateRegistrationRequest) (*models.Registration, error) {
	body, contentType, err := encodeRegistration(reg)
	if err != nil {
		return nil, errors.AsStandard(fmt.Errorf("encode registration: %w", err))
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+registrationsPath, body)
	if err != nil {
		return nil, errors.AsStandard(err)
	}
	req.Header.Set("Content-Type", contentType)

	var out models.Registration
	if err := c.do(ctx, OpCreateRegistration, req, &out); err != nil {
		return nil, err
	}
	if out.Code == "" {
		return nil, errors.NewDecodeError(OpCreateRegistration, fmt.Errorf("response carries no qrCode"))
	}

	c.logger.Info("Registration created", map[string]interface{}{
		"code":    out.Code,
		"aadhaar": logger.MaskID(reg.NationalID),
	})
	return &out, nil
}

func (c *Client) CheckIdentifier(ctx context.Context, nationalID string) (*models.CheckResult, error) {
	payload, err := json.Marshal(map[string]string{"aadhaar": nationalID})
	if err != nil {
		return nil, errors.AsStandard(err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+checkPath, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.AsStandard(err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out models.CheckResult
	if err := c.do(ctx, OpCheckIdentifier, req, &out); err != nil {
		return nil, err
	}
	if out.Exists && out.Code == "" {
		return nil, errors.NewDecodeError(OpCheckIdentifier, fmt.Errorf("exists without qrCode"))
	}
	return &out, nil
}

func (c *Client) FetchByCode(ctx context.Context, code string) (*models.Registration, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+registrationsPath+"/"+url.PathEscape(code), nil)
	if err != nil {
		return nil, errors.AsStandard(err)
	}

	var out models.Registration
	if err := c.do(ctx, OpFetchByCode, req, &out); err != nil {
		return nil, err
	}
	if out.Code == "" {
		out.Code = code
	}
	return &out, nil
}

// do sends req and decodes a 2xx JSON body into out. Every failure comes back
// as a *errors.StandardError.
func (c *Client) do(ctx context.Context, op string, req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if err := c.authorize(ctx, req); err != nil {
		c.logger.Warn("Gateway call without a valid session", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		})
		return err
	}

	resp, err := c.http.Do(ctx, op, req)
	if err != nil {
		c.logger.Warn("Gateway unreachable", map[string]interface{}{
			"operation": op,
			"error":     err.Error(),
		})
		return errors.NewTransportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readServerMessage(resp.Body)
		c.logger.Warn("Gateway rejected request", map[string]interface{}{
			"operation": op,
			"status":    resp.StatusCode,
			"message":   msg,
		})
		return errors.NewServerRejectedError(op, resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewDecodeError(op, err)
	}
	return nil
}

// readServerMessage pulls {message} (or {error}) out of a rejected body.
func readServerMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func encodeRegistration(reg models.CreateRegistrationRequest) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := []struct{ key, value string }{
		{"name", reg.Name},
		{"village", reg.Village},
		{"district", reg.District},
		{"block", reg.Block},
		{"mobile", reg.Mobile},
		{"aadhaar", reg.NationalID},
		{"category", reg.Category},
	}
	for _, f := range fields {
		if err := w.WriteField(f.key, f.value); err != nil {
			return nil, "", err
		}
	}

	if reg.Photo != nil && len(reg.Photo.Data) > 0 {
		contentType := reg.Photo.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		filename := reg.Photo.Filename
		if filename == "" {
			filename = "photo"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, filename))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(reg.Photo.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
