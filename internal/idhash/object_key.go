package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// imageExtensions maps accepted image content types to object key suffixes.
var imageExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// ImageExtension returns the key suffix for contentType, and false if the
// type is not an accepted image format.
func ImageExtension(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ext, ok := imageExtensions[ct]
	return ext, ok
}

// ComputeImageKey computes the content-addressed object key of an image.
// Formula: images/SHA256(data)<ext>
// Identical bytes always map to the same key, so re-uploads are idempotent.
func ComputeImageKey(data []byte, contentType string) string {
	hash := sha256.Sum256(data)
	ext, _ := ImageExtension(contentType)
	return "images/" + hex.EncodeToString(hash[:]) + ext
}

// ComputeMetadataKey computes the object key of a token's metadata document.
// Formula: metadata/<token address>.json
// The address is unique per launch, so documents never collide.
func ComputeMetadataKey(tokenAddress string) string {
	return "metadata/" + tokenAddress + ".json"
}
