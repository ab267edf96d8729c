// Package metadata prepares the off-chain side of a launch: the token
// identity, the uploaded image and the published metadata document.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/idhash"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/solana"
)

// AssetStore uploads binary assets.
type AssetStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// MetadataStore publishes JSON documents.
type MetadataStore interface {
	Publish(ctx context.Context, key string, document []byte) (string, error)
}

// Document is the off-chain metadata document of a token.
type Document struct {
	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Extensions  *Extensions `json:"extensions,omitempty"`
	CreatedOn   string      `json:"createdOn,omitempty"`
}

// Extensions holds the optional social links.
type Extensions struct {
	Twitter  string `json:"twitter,omitempty"`
	Website  string `json:"website,omitempty"`
	Telegram string `json:"telegram,omitempty"`
}

// Options configures a Preparer.
type Options struct {
	Assets    AssetStore
	Documents MetadataStore

	// NewIdentity generates the token keypair. Defaults to solana.NewKeypair.
	NewIdentity func() (*domain.TokenIdentity, error)

	// CreatedOn is written into every document, e.g. the launchpad URL.
	CreatedOn string

	Logger logrus.FieldLogger
}

// Preparer validates a request and uploads its assets.
type Preparer struct {
	assets      AssetStore
	documents   MetadataStore
	newIdentity func() (*domain.TokenIdentity, error)
	createdOn   string
	logger      logrus.FieldLogger
}

// NewPreparer creates a Preparer.
func NewPreparer(opts Options) *Preparer {
	newIdentity := opts.NewIdentity
	if newIdentity == nil {
		newIdentity = solana.NewKeypair
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Preparer{
		assets:      opts.Assets,
		documents:   opts.Documents,
		newIdentity: newIdentity,
		createdOn:   opts.CreatedOn,
		logger:      logger,
	}
}

// Prepare validates req, generates a fresh token identity, uploads the image
// and then publishes the metadata document that references it.
// Nothing is uploaded when validation fails. On error no identity is returned.
func (p *Preparer) Prepare(ctx context.Context, req *domain.LaunchRequest) (*domain.TokenIdentity, *domain.MetadataReference, error) {
	if err := launch.ValidateRequest(req); err != nil {
		return nil, nil, err
	}

	identity, err := p.newIdentity()
	if err != nil {
		return nil, nil, fmt.Errorf("generate token identity: %w", err)
	}

	ref, err := p.upload(ctx, req, identity.Address)
	if err != nil {
		identity.Wipe()
		return nil, nil, err
	}
	return identity, ref, nil
}

func (p *Preparer) upload(ctx context.Context, req *domain.LaunchRequest, address string) (*domain.MetadataReference, error) {
	log := p.logger.WithField("token_address", address)

	start := time.Now()
	imageKey := idhash.ComputeImageKey(req.Image.Data, req.Image.ContentType)
	imageURI, err := p.assets.Upload(ctx, imageKey, req.Image.Data, contentType(req.Image))
	observability.RecordUpload("image", err)
	if err != nil {
		return nil, fmt.Errorf("%w: upload image: %w", launch.ErrAssetUpload, err)
	}
	log.WithFields(logrus.Fields{"key": imageKey, "uri": imageURI, "bytes": len(req.Image.Data)}).Debug("image uploaded")

	doc, err := json.Marshal(p.document(req, imageURI))
	if err != nil {
		return nil, fmt.Errorf("%w: encode metadata document: %w", launch.ErrAssetUpload, err)
	}

	docKey := idhash.ComputeMetadataKey(address)
	metadataURI, err := p.documents.Publish(ctx, docKey, doc)
	observability.RecordUpload("metadata", err)
	if err != nil {
		return nil, fmt.Errorf("%w: publish metadata: %w", launch.ErrAssetUpload, err)
	}
	log.WithFields(logrus.Fields{
		"uri":      metadataURI,
		"duration": time.Since(start).String(),
	}).Info("token metadata published")

	return &domain.MetadataReference{ImageURI: imageURI, MetadataURI: metadataURI}, nil
}

func (p *Preparer) document(req *domain.LaunchRequest, imageURI string) Document {
	doc := Document{
		Name:        req.Name,
		Symbol:      req.Ticker,
		Description: req.Description,
		Image:       imageURI,
		CreatedOn:   p.createdOn,
	}
	if req.Links != (domain.Links{}) {
		doc.Extensions = &Extensions{
			Twitter:  req.Links.X,
			Website:  req.Links.Website,
			Telegram: req.Links.Telegram,
		}
	}
	return doc
}

func contentType(img domain.Image) string {
	if img.ContentType == "" {
		return "application/octet-stream"
	}
	return img.ContentType
}
