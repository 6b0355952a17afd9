// Package metadata fetches and validates off-chain token metadata.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/nautilusoss/voi-indexer/internal/adapter"
	"github.com/nautilusoss/voi-indexer/internal/domain"
	"github.com/nautilusoss/voi-indexer/internal/logger"
)

// emptyObject is stored when metadata cannot be fetched or parsed, so a
// token row always carries a valid JSON document.
var emptyObject = datatypes.JSON([]byte("{}"))

// Fetcher retrieves token metadata documents by URI.
type Fetcher struct {
	httpClient  adapter.HTTPClient
	ipfsGateway string
}

// NewFetcher creates a metadata fetcher. ipfsGateway is the HTTP gateway
// prefix used to rewrite ipfs:// URIs, without a trailing slash.
func NewFetcher(httpClient adapter.HTTPClient, ipfsGateway string) *Fetcher {
	return &Fetcher{
		httpClient:  httpClient,
		ipfsGateway: strings.TrimSuffix(ipfsGateway, "/"),
	}
}

// Fetch retrieves the metadata document at uri. Fetch never fails the
// caller's pipeline: unreachable URIs, non-JSON payloads and empty URIs
// all degrade to an empty object so token processing can continue.
func (f *Fetcher) Fetch(ctx context.Context, uri string) datatypes.JSON {
	uri = strings.TrimSpace(domain.TrimNull(uri))
	if uri == "" {
		return emptyObject
	}

	// Some contracts inline the document directly in tokenURI.
	if strings.HasPrefix(uri, "{") {
		if json.Valid([]byte(uri)) {
			return datatypes.JSON(uri)
		}
		logger.WarnCtx(ctx, "inline token metadata is not valid JSON", zap.String("uri", uri))
		return emptyObject
	}

	url, err := f.resolve(uri)
	if err != nil {
		logger.WarnCtx(ctx, "failed to resolve metadata URI", zap.Error(err), zap.String("uri", uri))
		return emptyObject
	}

	body, err := f.httpClient.GetRaw(ctx, url)
	if err != nil {
		logger.WarnCtx(ctx, "failed to fetch token metadata", zap.Error(err), zap.String("url", url))
		return emptyObject
	}
	if !json.Valid(body) {
		logger.WarnCtx(ctx, "token metadata is not valid JSON", zap.String("url", url))
		return emptyObject
	}

	return datatypes.JSON(body)
}

// resolve rewrites known URI schemes to fetchable HTTP URLs.
func (f *Fetcher) resolve(uri string) (string, error) {
	if cid, ok := strings.CutPrefix(uri, "ipfs://"); ok {
		return fmt.Sprintf("%s/ipfs/%s", f.ipfsGateway, cid), nil
	}
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return uri, nil
	}
	return "", fmt.Errorf("unsupported metadata URI scheme: %s", uri)
}
