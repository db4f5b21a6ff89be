// Package server exposes the ingestion core over a plain net/http +
// encoding/json edge: two request shapes (file upload, URL ingestion)
// mapping 1:1 onto internal/ingest.Service's FileRequest/URLRequest, and a
// single chunk/image response envelope. See the RPC transport
// substitution note in DESIGN.md for why this is a plain HTTP edge
// rather than a generated-stub RPC surface.
package server

import (
	"github.com/kestrel-data/docreader/internal/config"
	"github.com/kestrel-data/docreader/internal/ingest"
	"github.com/kestrel-data/docreader/internal/utils"
)

// readConfigDTO mirrors read_config on the wire. Zero-valued fields fall
// back to the service's configured defaults.
type readConfigDTO struct {
	ChunkSize        int        `json:"chunk_size"`
	ChunkOverlap     int        `json:"chunk_overlap"`
	Separators       []string   `json:"separators"`
	EnableMultimodal bool       `json:"enable_multimodal"`
	StorageConfig    storageDTO `json:"storage_config"`
	VLMConfig        vlmDTO     `json:"vlm_config"`
}

type storageDTO struct {
	Provider        string `json:"provider"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	BucketName      string `json:"bucket_name"`
	UseSSL          bool   `json:"use_ssl"`
	Region          string `json:"region"`
	PublicURL       string `json:"public_url"`
	LocalDir        string `json:"local_dir"`
}

type vlmDTO struct {
	InterfaceType string `json:"interface_type"`
	BaseURL       string `json:"base_url"`
	APIKey        string `json:"api_key"`
	Model         string `json:"model"`
}

// fileRequestDTO is the file-upload request shape on the wire.
type fileRequestDTO struct {
	FileName    string        `json:"file_name"`
	FileType    string        `json:"file_type"`
	FileContent []byte        `json:"file_content"`
	ReadConfig  readConfigDTO `json:"read_config"`
	RequestID   string        `json:"request_id"`
}

// urlRequestDTO is the URL-ingestion request shape on the wire.
type urlRequestDTO struct {
	URL        string        `json:"url"`
	Title      string        `json:"title"`
	ReadConfig readConfigDTO `json:"read_config"`
	RequestID  string        `json:"request_id"`
}

// imageDTO is one image attached to a chunkDTO.
type imageDTO struct {
	URL         string `json:"url"`
	Caption     string `json:"caption"`
	OCRText     string `json:"ocr_text"`
	OriginalURL string `json:"original_url"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
}

// chunkDTO is one chunk of the response envelope.
type chunkDTO struct {
	Content string     `json:"content"`
	Seq     int        `json:"seq"`
	Start   int        `json:"start"`
	End     int        `json:"end"`
	Images  []imageDTO `json:"images"`
}

// responseDTO is the full response envelope. Error is populated for the
// taxonomy entries allowed to surface (UnsupportedKind, ConfigError) and
// for a request body that does not decode.
type responseDTO struct {
	Chunks []chunkDTO `json:"chunks"`
	Error  string     `json:"error,omitempty"`
}

func (d readConfigDTO) toIngestConfig() ingest.ReadConfig {
	return ingest.ReadConfig{
		ChunkSize:        d.ChunkSize,
		ChunkOverlap:     d.ChunkOverlap,
		Separators:       d.Separators,
		EnableMultimodal: d.EnableMultimodal,
		Storage: config.StorageConfig{
			Provider:        d.StorageConfig.Provider,
			Endpoint:        d.StorageConfig.Endpoint,
			AccessKeyID:     d.StorageConfig.AccessKeyID,
			SecretAccessKey: d.StorageConfig.SecretAccessKey,
			BucketName:      d.StorageConfig.BucketName,
			UseSSL:          d.StorageConfig.UseSSL,
			Region:          d.StorageConfig.Region,
			PublicURL:       d.StorageConfig.PublicURL,
			LocalDir:        d.StorageConfig.LocalDir,
		},
		VLM: config.VLMConfig{
			InterfaceType: d.VLMConfig.InterfaceType,
			BaseURL:       d.VLMConfig.BaseURL,
			APIKey:        d.VLMConfig.APIKey,
			Model:         d.VLMConfig.Model,
		},
	}
}

func toResponseDTO(res ingest.Result) responseDTO {
	out := responseDTO{Error: res.Error, Chunks: make([]chunkDTO, len(res.Chunks))}
	for i, c := range res.Chunks {
		images := make([]imageDTO, len(c.Images))
		for j, img := range c.Images {
			images[j] = imageDTO{
				URL:         utils.SanitizeUTF8(img.URL),
				Caption:     utils.SanitizeUTF8(img.Caption),
				OCRText:     utils.SanitizeUTF8(img.OCRText),
				OriginalURL: utils.SanitizeUTF8(img.OriginalURL),
				Start:       img.Start,
				End:         img.End,
			}
		}
		out.Chunks[i] = chunkDTO{
			Content: utils.SanitizeUTF8(c.Content),
			Seq:     c.Seq,
			Start:   c.Start,
			End:     c.End,
			Images:  images,
		}
	}
	return out
}
