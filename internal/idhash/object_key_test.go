package idhash

import (
	"strings"
	"testing"
)

func TestComputeImageKey(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		wantSuffix  string
	}{
		{name: "png", data: []byte{0x89, 'P', 'N', 'G'}, contentType: "image/png", wantSuffix: ".png"},
		{name: "jpeg with params", data: []byte{0xff, 0xd8}, contentType: "image/JPEG; q=1", wantSuffix: ".jpg"},
		{name: "unknown type", data: []byte("x"), contentType: "application/octet-stream", wantSuffix: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeImageKey(tt.data, tt.contentType)

			if !strings.HasPrefix(got, "images/") {
				t.Errorf("ComputeImageKey() = %s, want images/ prefix", got)
			}
			hash := strings.TrimSuffix(strings.TrimPrefix(got, "images/"), tt.wantSuffix)
			if len(hash) != 64 {
				t.Errorf("ComputeImageKey() hash length = %d, want 64", len(hash))
			}
			if !strings.HasSuffix(got, tt.wantSuffix) {
				t.Errorf("ComputeImageKey() = %s, want suffix %q", got, tt.wantSuffix)
			}
		})
	}
}

func TestComputeImageKey_Deterministic(t *testing.T) {
	data := []byte("same image bytes")

	key1 := ComputeImageKey(data, "image/png")
	key2 := ComputeImageKey(data, "image/png")
	if key1 != key2 {
		t.Errorf("ComputeImageKey() not deterministic: %s != %s", key1, key2)
	}

	key3 := ComputeImageKey([]byte("other bytes"), "image/png")
	if key1 == key3 {
		t.Error("ComputeImageKey() should differ for different content")
	}
}

func TestComputeMetadataKey(t *testing.T) {
	got := ComputeMetadataKey("So11111111111111111111111111111111111111112")
	want := "metadata/So11111111111111111111111111111111111111112.json"
	if got != want {
		t.Errorf("ComputeMetadataKey() = %s, want %s", got, want)
	}
}

func TestImageExtension(t *testing.T) {
	if _, ok := ImageExtension("text/html"); ok {
		t.Error("text/html should not be an accepted image type")
	}
	if ext, ok := ImageExtension("image/webp"); !ok || ext != ".webp" {
		t.Errorf("ImageExtension(image/webp) = %q, %v", ext, ok)
	}
}
