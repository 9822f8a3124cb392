package cloudinary

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// ThumbnailTransformation crops a 64x64 square around the detected face.
const ThumbnailTransformation = "c_thumb,w_64,h_64,g_face"

// Client builds Cloudinary delivery URLs for student profile images.
type Client struct {
	CloudName string
	APISecret string
}

// New creates a Cloudinary client. With an empty apiSecret URLs are unsigned.
func New(cloudName, apiSecret string) *Client {
	return &Client{
		CloudName: strings.TrimSpace(cloudName),
		APISecret: apiSecret,
	}
}

// ThumbnailURL turns a profile image reference into a displayable URL.
// Absolute http(s) URLs pass through unchanged; anything else is treated as
// a Cloudinary public id. Without a cloud name public ids cannot be resolved
// and the result is empty.
func (c *Client) ThumbnailURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return ref
	}
	if c == nil || c.CloudName == "" {
		return ""
	}

	publicID := strings.TrimLeft(ref, "/")
	path := ThumbnailTransformation + "/" + publicID
	if c.APISecret != "" {
		path = "s--" + c.sign(path) + "--/" + path
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s", c.CloudName, path)
}

// sign computes the delivery URL signature: the first eight characters of the
// URL-safe base64 SHA-1 of the signed path followed by the API secret.
func (c *Client) sign(path string) string {
	h := sha1.New()
	h.Write([]byte(path + c.APISecret))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))[:8]
}
