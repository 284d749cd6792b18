package service

import (
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/storage"

	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
)

const (
	defaultProofMaxSize = 5 * 1024 * 1024
	defaultMediaMaxSize = 50 * 1024 * 1024
)

// UploadService 文件上传服务（凭证截图与活动素材）
type UploadService struct {
	cfg   config.UploadConfig
	store storage.ObjectStore
}

// NewUploadService 创建文件上传服务实例
func NewUploadService(cfg config.UploadConfig, store storage.ObjectStore) *UploadService {
	if cfg.ProofMaxSize <= 0 {
		cfg.ProofMaxSize = defaultProofMaxSize
	}
	if cfg.MediaMaxSize <= 0 {
		cfg.MediaMaxSize = defaultMediaMaxSize
	}
	if len(cfg.ProofExtensions) == 0 {
		cfg.ProofExtensions = []string{".png", ".jpg", ".jpeg"}
	}
	if len(cfg.ProofContentTypes) == 0 {
		cfg.ProofContentTypes = []string{"image/png", "image/jpeg"}
	}
	return &UploadService{cfg: cfg, store: store}
}

// SaveProofScreenshot 保存凭证截图，返回地址与对象 key
// key 为 proofs/proof_{申请ID}_{时间戳}.{扩展名}
func (s *UploadService) SaveProofScreenshot(ctx context.Context, file *multipart.FileHeader, applicationID uint) (string, string, error) {
	if file == nil {
		return "", "", ErrUploadFileRequired
	}
	if file.Size > s.cfg.ProofMaxSize {
		return "", "", ErrUploadTooLarge
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" || !isAllowedExtension(ext, s.cfg.ProofExtensions) {
		return "", "", ErrUploadTypeInvalid
	}

	src, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	contentType, err := sniffContentType(src)
	if err != nil {
		return "", "", err
	}
	if !containsFold(s.cfg.ProofContentTypes, contentType) {
		return "", "", ErrUploadTypeInvalid
	}
	if _, _, err := decodeImageDimensions(src, contentType); err != nil {
		return "", "", err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", "", err
	}

	key := fmt.Sprintf("%s/proof_%d_%d%s", constants.UploadSceneProof, applicationID, time.Now().Unix(), ext)
	url, err := s.put(ctx, key, src, file.Size, contentType)
	if err != nil {
		return "", "", err
	}
	return url, key, nil
}

// SaveCampaignMedia 保存活动素材，返回地址与素材类型（image/video）
func (s *UploadService) SaveCampaignMedia(ctx context.Context, file *multipart.FileHeader, campaignID uint) (string, string, error) {
	if file == nil {
		return "", "", ErrUploadFileRequired
	}
	if file.Size > s.cfg.MediaMaxSize {
		return "", "", ErrUploadTooLarge
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" || (len(s.cfg.MediaExtensions) > 0 && !isAllowedExtension(ext, s.cfg.MediaExtensions)) {
		return "", "", ErrUploadTypeInvalid
	}

	src, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	contentType, err := sniffContentType(src)
	if err != nil {
		return "", "", err
	}
	mediaType := constants.MediaTypeImage
	switch {
	case strings.HasPrefix(contentType, "video/") || ext == ".mp4" || ext == ".mov":
		mediaType = constants.MediaTypeVideo
	case strings.HasPrefix(contentType, "image/"):
		if _, _, err := decodeImageDimensions(src, contentType); err != nil {
			return "", "", err
		}
	default:
		return "", "", ErrUploadTypeInvalid
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", "", err
	}

	key := fmt.Sprintf("%s/campaign_%d_%s%s", constants.UploadSceneCampaign, campaignID, uuid.New().String(), ext)
	url, err := s.put(ctx, key, src, file.Size, contentType)
	if err != nil {
		return "", "", err
	}
	return url, mediaType, nil
}

func (s *UploadService) put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if s.store == nil {
		return "", ErrStorageUnavailable
	}
	url, err := s.store.Put(ctx, key, body, size, contentType)
	if err != nil {
		logger.Warnw("upload_store_put_failed", "key", key, "error", err)
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	logger.Debugw("upload_stored", "key", key, "size", size, "content_type", contentType)
	return url, nil
}

// Remove 删除已存储的对象，失败只记录日志
func (s *UploadService) Remove(ctx context.Context, key string) {
	if s == nil || s.store == nil || key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		logger.Warnw("upload_store_delete_failed", "key", key, "error", err)
		return
	}
	logger.Debugw("upload_removed", "key", key)
}

// sniffContentType 读取文件头识别 MIME 类型并重置读取位置
func sniffContentType(src io.ReadSeeker) (string, error) {
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	contentType := http.DetectContentType(buffer[:n])
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return contentType, nil
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if strings.EqualFold(ext, normalized) {
			return true
		}
	}
	return false
}

func decodeImageDimensions(src io.ReadSeeker, contentType string) (int, int, error) {
	if strings.EqualFold(contentType, "image/webp") {
		width, height, err := decodeWebPDimensions(src)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %v", ErrUploadTypeInvalid, err)
		}
		return width, height, nil
	}

	if _, err := src.Seek(0, 0); err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrUploadTypeInvalid, err)
	}
	return cfg.Width, cfg.Height, nil
}

func decodeWebPDimensions(src io.ReadSeeker) (int, int, error) {
	if _, err := src.Seek(0, 0); err != nil {
		return 0, 0, err
	}

	header := make([]byte, 12)
	if _, err := io.ReadFull(src, header); err != nil {
		return 0, 0, err
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WEBP" {
		return 0, 0, fmt.Errorf("无效的 WebP 文件头")
	}

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(src, chunkHeader); err != nil {
			return 0, 0, err
		}
		chunkType := string(chunkHeader[0:4])
		chunkSize := int(binary.LittleEndian.Uint32(chunkHeader[4:8]))
		if chunkSize < 0 {
			return 0, 0, fmt.Errorf("无效的 WebP chunk")
		}

		data := make([]byte, chunkSize)
		if _, err := io.ReadFull(src, data); err != nil {
			return 0, 0, err
		}

		if chunkType == "VP8X" {
			if len(data) < 10 {
				return 0, 0, fmt.Errorf("VP8X chunk 长度不足")
			}
			width := 1 + int(data[4]) + int(data[5])<<8 + int(data[6])<<16
			height := 1 + int(data[7]) + int(data[8])<<8 + int(data[9])<<16
			return width, height, nil
		}
		if chunkType == "VP8 " {
			if len(data) < 10 {
				return 0, 0, fmt.Errorf("VP8 chunk 长度不足")
			}
			width := int(binary.LittleEndian.Uint16(data[6:8]) & 0x3FFF)
			height := int(binary.LittleEndian.Uint16(data[8:10]) & 0x3FFF)
			return width, height, nil
		}
		if chunkType == "VP8L" {
			if len(data) < 5 {
				return 0, 0, fmt.Errorf("VP8L chunk 长度不足")
			}
			if data[0] != 0x2f {
				return 0, 0, fmt.Errorf("VP8L 签名无效")
			}
			bits := binary.LittleEndian.Uint32(data[1:5])
			width := int(bits&0x3FFF) + 1
			height := int((bits>>14)&0x3FFF) + 1
			return width, height, nil
		}

		if chunkSize%2 == 1 {
			if _, err := src.Seek(1, io.SeekCurrent); err != nil {
				return 0, 0, err
			}
		}
	}
}
