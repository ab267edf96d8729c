package ipfs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pinning/pinFileToIPFS" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-jwt" {
			t.Errorf("unexpected auth header %q", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "png-bytes" {
			t.Errorf("unexpected file body %q", data)
		}
		if header.Filename != "abc.png" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("unexpected part content type %q", ct)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"IpfsHash": "QmImage", "PinSize": 9})
	}))
	defer server.Close()

	client := NewClient(Options{APIURL: server.URL, GatewayURL: "https://ipfs.example/ipfs/", JWT: "secret-jwt"})
	uri, err := client.Upload(context.Background(), "images/abc.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://ipfs.example/ipfs/QmImage", uri)
}

func TestClient_Publish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pinning/pinJSONToIPFS" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req struct {
			PinataContent  map[string]interface{} `json:"pinataContent"`
			PinataMetadata struct {
				Name string `json:"name"`
			} `json:"pinataMetadata"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.PinataContent["symbol"] != "ABCD" {
			t.Errorf("unexpected content %v", req.PinataContent)
		}
		if req.PinataMetadata.Name != "metadata/Mint.json" {
			t.Errorf("unexpected pin name %q", req.PinataMetadata.Name)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"IpfsHash": "QmDoc"})
	}))
	defer server.Close()

	client := NewClient(Options{APIURL: server.URL})
	uri, err := client.Publish(context.Background(), "metadata/Mint.json", []byte(`{"symbol":"ABCD"}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultGatewayURL+"/QmDoc", uri)
}

func TestClient_PublishInvalidJSON(t *testing.T) {
	client := NewClient(Options{APIURL: "http://127.0.0.1:1"})
	_, err := client.Publish(context.Background(), "k", []byte("{not json"))
	assert.Error(t, err)
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid jwt"}`))
	}))
	defer server.Close()

	client := NewClient(Options{APIURL: server.URL})
	_, err := client.Upload(context.Background(), "images/a.png", []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_MissingHash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(Options{APIURL: server.URL})
	_, err := client.Publish(context.Background(), "k", []byte(`{}`))
	assert.Error(t, err)
}
