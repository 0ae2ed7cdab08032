package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pagedeck/pdk/internal/assets"
	"github.com/pagedeck/pdk/internal/playlist"
)

// S3Host stores the snapshot in S3-compatible object storage under a key
// prefix: assets.json, node_assets.json and config.pdcfg.
type S3Host struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	key      []byte
}

// S3Config contains S3Host configuration.
type S3Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string
	PathStyle    bool
	AccessKey    string
	SecretKey    string
	SessionToken string // optional
}

// NewS3Host creates an S3Host. encryptKey enables snapshot encryption; nil
// stores plaintext.
func NewS3Host(ctx context.Context, cfg S3Config, encryptKey []byte) (*S3Host, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		func(opts *awsconfig.LoadOptions) error {
			if cfg.Endpoint != "" {
				opts.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
					func(service, region string, options ...interface{}) (aws.Endpoint, error) {
						return aws.Endpoint{
							URL:               cfg.Endpoint,
							SigningRegion:     cfg.Region,
							HostnameImmutable: cfg.PathStyle,
						}, nil
					},
				)
			}
			if cfg.AccessKey != "" && cfg.SecretKey != "" {
				opts.Credentials = credentials.NewStaticCredentialsProvider(
					cfg.AccessKey, cfg.SecretKey, cfg.SessionToken,
				)
			}
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Host{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		key:      encryptKey,
	}, nil
}

func (h *S3Host) objectKey(name string) string {
	if h.prefix == "" {
		return name
	}
	return strings.TrimSuffix(h.prefix, "/") + "/" + name
}

// Snapshot loads both catalogs and the configuration from the bucket.
func (h *S3Host) Snapshot(ctx context.Context) (*Snapshot, error) {
	local, err := h.readCatalog(ctx, assetsFile)
	if err != nil {
		return nil, err
	}
	node, err := h.readCatalog(ctx, nodeAssetsFile)
	if err != nil {
		return nil, err
	}
	raw, err := h.get(ctx, configFile)
	if err != nil {
		if errors.Is(err, errS3NotFound) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	cfg, err := DecodeConfig(raw, h.key)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Assets: local, NodeAssets: node, Config: cfg}, nil
}

// PushConfig uploads the configuration object. S3 PUTs are atomic per key.
func (h *S3Host) PushConfig(ctx context.Context, cfg playlist.Config) error {
	data, err := EncodeConfig(cfg, h.key)
	if err != nil {
		return err
	}
	_, err = h.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(h.objectKey(configFile)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put config: %w", err)
	}
	return nil
}

func (h *S3Host) readCatalog(ctx context.Context, name string) (map[string]assets.Asset, error) {
	raw, err := h.get(ctx, name)
	if err != nil {
		if errors.Is(err, errS3NotFound) {
			return map[string]assets.Asset{}, nil
		}
		return nil, err
	}
	var catalog map[string]assets.Asset
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if catalog == nil {
		catalog = map[string]assets.Asset{}
	}
	return catalog, nil
}

var errS3NotFound = errors.New("object not found")

func (h *S3Host) get(ctx context.Context, name string) ([]byte, error) {
	resp, err := h.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(h.objectKey(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, errS3NotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
