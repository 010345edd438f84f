package fsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/auth"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/models"
)

// Client talks to the file and user services over HTTP. Reads are
// retried with exponential backoff; mutations go out exactly once.
type Client struct {
	FileBaseURL string
	UserBaseURL string
	Token       string
	HTTP        *http.Client
}

func New(fileBaseURL, userBaseURL, token string) *Client {
	return &Client{
		FileBaseURL: strings.TrimRight(fileBaseURL, "/"),
		UserBaseURL: strings.TrimRight(userBaseURL, "/"),
		Token:       token,
		HTTP:        &http.Client{Timeout: 60 * time.Second},
	}
}

// APIError carries the status code and server-provided message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

// do sends the request and decodes into out when out is non-nil.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// doWithRetry wraps do in bounded exponential backoff. Only used for
// GETs; retrying a mutation could apply it twice.
func (c *Client) doWithRetry(ctx context.Context, rawURL string, out interface{}) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(func() error {
		req, err := c.newRequest(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := c.do(req, out); err != nil {
			var apiErr *APIError
			if ok := asAPIError(err, &apiErr); ok && apiErr.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, policy)
}

func asAPIError(err error, target **APIError) bool {
	e, ok := err.(*APIError)
	if ok {
		*target = e
	}
	return ok
}

func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	msg := resp.Status
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		if payload.Error != "" {
			msg = payload.Error
		} else if payload.Detail != "" {
			msg = payload.Detail
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// CreateUser registers a new account on the user service.
func (c *Client) CreateUser(ctx context.Context, username, email, password string) (models.PublicUserView, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return models.PublicUserView{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.UserBaseURL+"/api/users", bytes.NewReader(payload))
	if err != nil {
		return models.PublicUserView{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var view models.PublicUserView
	err = c.do(req, &view)
	return view, err
}

// GetToken exchanges credentials for a bearer token.
func (c *Client) GetToken(ctx context.Context, email, password string) (auth.Token, error) {
	form := url.Values{"username": {email}, "password": {password}}
	req, err := c.newRequest(ctx, http.MethodPost, c.UserBaseURL+"/api/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return auth.Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token auth.Token
	err = c.do(req, &token)
	return token, err
}

// GetMyInfo returns the authenticated account.
func (c *Client) GetMyInfo(ctx context.Context) (models.AdminUserView, error) {
	var view models.AdminUserView
	err := c.doWithRetry(ctx, c.UserBaseURL+"/api/users/my", &view)
	return view, err
}

// GetFileList fetches one page of the caller's files.
func (c *Client) GetFileList(ctx context.Context, offset, limit int, sortBy string, desc bool) ([]models.FileMeta, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	if sortBy != "" {
		q.Set("sort_by", sortBy)
	}
	if desc {
		q.Set("desc", "true")
	}

	var files []models.FileMeta
	err := c.doWithRetry(ctx, c.FileBaseURL+"/api/files/list/?"+q.Encode(), &files)
	return files, err
}

// SearchFiles matches the caller's filenames against a regex pattern.
func (c *Client) SearchFiles(ctx context.Context, pattern string, limit int) ([]models.FileMeta, error) {
	q := url.Values{"pattern": {pattern}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var files []models.FileMeta
	err := c.doWithRetry(ctx, c.FileBaseURL+"/api/files/search/?"+q.Encode(), &files)
	return files, err
}

// GetStorageUsed returns the caller's total stored bytes.
func (c *Client) GetStorageUsed(ctx context.Context) (int64, error) {
	var resp struct {
		StorageUsed int64 `json:"storage_used"`
	}
	err := c.doWithRetry(ctx, c.FileBaseURL+"/api/files/usage", &resp)
	return resp.StorageUsed, err
}

// UploadFile streams a local file up as multipart form data.
func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader) (models.FileMeta, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return models.FileMeta{}, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return models.FileMeta{}, err
	}
	if err := mw.Close(); err != nil {
		return models.FileMeta{}, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.FileBaseURL+"/api/files/upload", &body)
	if err != nil {
		return models.FileMeta{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var meta models.FileMeta
	err = c.do(req, &meta)
	return meta, err
}

// DownloadFile writes the remote file's content to dst.
func (c *Client) DownloadFile(ctx context.Context, filename string, dst io.Writer) error {
	q := url.Values{"filename": {filename}}
	req, err := c.newRequest(ctx, http.MethodGet, c.FileBaseURL+"/api/files/download?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	_, err = io.Copy(dst, resp.Body)
	return err
}

// DeleteFile removes one of the caller's files.
func (c *Client) DeleteFile(ctx context.Context, filename string) error {
	q := url.Values{"filename": {filename}}
	req, err := c.newRequest(ctx, http.MethodDelete, c.FileBaseURL+"/api/files?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
