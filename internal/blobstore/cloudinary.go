package blobstore

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Cloudinary implements BlobStore against the Cloudinary REST API.
type Cloudinary struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	HTTP      *http.Client
}

// NewCloudinary creates a Cloudinary-backed blob store.
func NewCloudinary(cloudName, apiKey, apiSecret, folder string) *Cloudinary {
	return &Cloudinary{
		CloudName: cloudName,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Folder:    folder,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	PublicID  string    `json:"public_id"`
	SecureURL string    `json:"secure_url"`
	Format    string    `json:"format"`
	Bytes     int       `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Upload stores raw image bytes via the signed upload endpoint.
func (c *Cloudinary) Upload(ctx context.Context, data []byte, filename string) (*Object, error) {
	params := map[string]string{
		"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		"api_key":   c.APIKey,
	}
	if c.Folder != "" {
		params["folder"] = c.Folder
	}
	params["signature"] = c.sign(params)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		_ = w.WriteField(k, v)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: create form file failed: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("cloudinary: write file failed: %w", err)
	}
	w.Close()

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", c.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: create request failed: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out uploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &Object{
		ID:        out.PublicID,
		URL:       out.SecureURL,
		Format:    out.Format,
		Bytes:     out.Bytes,
		CreatedAt: out.CreatedAt,
	}, nil
}

// GenerateTemporaryURL builds a signed private download link that expires.
func (c *Cloudinary) GenerateTemporaryURL(_ context.Context, objectID string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = time.Hour
	}
	params := map[string]string{
		"public_id":  objectID,
		"timestamp":  strconv.FormatInt(time.Now().Unix(), 10),
		"expires_at": strconv.FormatInt(time.Now().Add(expiry).Unix(), 10),
	}
	sig := c.sign(params)

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("api_key", c.APIKey)
	q.Set("signature", sig)
	return fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/download?%s", c.CloudName, q.Encode()), nil
}

type listResponse struct {
	Resources []struct {
		PublicID  string    `json:"public_id"`
		SecureURL string    `json:"secure_url"`
		Format    string    `json:"format"`
		Bytes     int       `json:"bytes"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"resources"`
}

// List returns uploaded objects under the given prefix via the Admin API.
func (c *Cloudinary) List(ctx context.Context, prefix string) ([]Object, error) {
	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/resources/image/upload?prefix=%s&max_results=100",
		c.CloudName, url.QueryEscape(prefix))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: create request failed: %w", err)
	}
	req.SetBasicAuth(c.APIKey, c.APISecret)

	var out listResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	objects := make([]Object, 0, len(out.Resources))
	for _, r := range out.Resources {
		objects = append(objects, Object{
			ID:        r.PublicID,
			URL:       r.SecureURL,
			Format:    r.Format,
			Bytes:     r.Bytes,
			CreatedAt: r.CreatedAt,
		})
	}
	return objects, nil
}

func (c *Cloudinary) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("cloudinary: request failed (%d): %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("cloudinary: decode response failed: %w", err)
	}
	return nil
}

// sign computes the Cloudinary API signature from the given params.
// api_key and file are excluded from the signature per Cloudinary spec.
func (c *Cloudinary) sign(params map[string]string) string {
	excludeKeys := map[string]bool{"api_key": true, "file": true, "resource_type": true}

	pairs := make([]string, 0, len(params))
	for k, v := range params {
		if !excludeKeys[k] && v != "" {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)

	payload := strings.Join(pairs, "&") + c.APISecret
	h := sha1.New()
	h.Write([]byte(payload))
	return fmt.Sprintf("%x", h.Sum(nil))
}
