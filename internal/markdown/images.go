package markdown

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
)

var (
	base64ImagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(data:image/(\w+)(?:\+[\w.-]+)?;base64,([A-Za-z0-9+/=]+)\)`)
	imagePattern       = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
)

// Uploader is the narrow collaborator the image lifter needs: somewhere to
// put decoded image bytes and a URL to reference them by afterward.
type Uploader interface {
	UploadBytes(ctx context.Context, ext string, data []byte) (url string, err error)
}

// LiftBase64Images finds every base64-embedded image, uploads its decoded
// bytes via up, and rewrites the reference to point at the uploaded URL.
// Returns the rewritten content and a map from uploaded URL to the
// original base64 payload (the shape the caller's Document.Images needs).
// A match whose payload fails to decode, or whose upload fails, is left
// exactly as it appeared in the source rather than failing the whole parse
// over one bad image.
func LiftBase64Images(ctx context.Context, content string, up Uploader) (string, map[string]string, error) {
	images := make(map[string]string)
	var firstErr error

	out := base64ImagePattern.ReplaceAllStringFunc(content, func(m string) string {
		sub := base64ImagePattern.FindStringSubmatch(m)
		title, ext, payload := sub[1], sub[2], sub[3]

		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return m
		}

		url, err := up.UploadBytes(ctx, ext, raw)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}

		images[url] = base64.StdEncoding.EncodeToString(raw)
		return fmt.Sprintf("![%s](%s)", title, url)
	})

	if firstErr != nil {
		return out, images, firstErr
	}
	return out, images, nil
}

// ReplacePaths substitutes every image reference whose path appears in
// mapping with its mapped URL, leaving unmapped references untouched.
func ReplacePaths(content string, mapping map[string]string) string {
	return imagePattern.ReplaceAllStringFunc(content, func(m string) string {
		sub := imagePattern.FindStringSubmatch(m)
		title, path := sub[1], sub[2]
		if mapped, ok := mapping[path]; ok {
			return fmt.Sprintf("![%s](%s)", title, mapped)
		}
		return m
	})
}
