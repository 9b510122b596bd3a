package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/visweshnarni/qptestbackend/config"
)

// Uploader stores one supporting document and returns its durable URL.
// Satisfied by Client; swapped for a fake in tests.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// Client uploads outpass supporting documents to Cloudinary via its REST API.
type Client struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	http      *http.Client
}

// New creates a Cloudinary client from the storage configuration.
func New(cfg *config.StorageConfig) *Client {
	return &Client{
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		folder:    cfg.Folder,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResult struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

// Upload stores raw document bytes and returns the secure URL.
// Uses the "auto" resource type so PDFs and images both work.
func (c *Client) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	if c.cloudName == "" || c.apiKey == "" || c.apiSecret == "" {
		return "", fmt.Errorf("cloudinary: configuration incomplete")
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		"api_key":   c.apiKey,
	}
	if c.folder != "" {
		params["folder"] = c.folder
	}
	params["signature"] = c.sign(params)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("cloudinary: create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("cloudinary: write file: %w", err)
	}
	w.Close()

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/auto/upload", c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("cloudinary: create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudinary: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("cloudinary: upload failed (%d): %s", resp.StatusCode, string(body))
	}

	var result uploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("cloudinary: decode response: %w", err)
	}
	if result.SecureURL != "" {
		return result.SecureURL, nil
	}
	return result.URL, nil
}

// sign computes the API signature. api_key and file are excluded per the
// Cloudinary signing rules; remaining params are sorted and concatenated.
func (c *Client) sign(params map[string]string) string {
	exclude := map[string]bool{"api_key": true, "file": true, "resource_type": true}

	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if !exclude[k] && v != "" {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)

	h := sha1.New()
	io.WriteString(h, strings.Join(pairs, "&")+c.apiSecret)
	return fmt.Sprintf("%x", h.Sum(nil))
}
