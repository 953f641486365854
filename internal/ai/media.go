package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mosS-Green/plugins/internal/logger"
)

// MediaReference is an attachment that has not been downloaded yet.
type MediaReference interface {
	Kind() MediaKind
	FileName() string
	// DeclaredSize is the size reported by the source, 0 when unknown.
	DeclaredSize() int64
	DeclaredMIMEType() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

type IngestOptions struct {
	TempRoot       string
	PollInterval   time.Duration
	PollTimeout    time.Duration
	CleanupTimeout time.Duration
}

type MediaIngestor struct {
	files    FileService
	opts     IngestOptions
	logger   logger.Logger
	newToken func() string
}

func NewMediaIngestor(files FileService, opts IngestOptions, l logger.Logger) *MediaIngestor {
	if opts.TempRoot == "" {
		opts.TempRoot = filepath.Join(os.TempDir(), "leaflet", "downloads")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if opts.CleanupTimeout <= 0 {
		opts.CleanupTimeout = DefaultRemoteCleanupTimeout
	}
	return &MediaIngestor{
		files:    files,
		opts:     opts,
		logger:   l,
		newToken: uuid.NewString,
	}
}

func noopRelease() {}

// Ingest downloads, uploads and waits for the media to become usable.
// The local temp directory never outlives this call. The returned release
// function deletes the remote copy and must be called once the asset is no
// longer needed; it is safe to call more than once.
func (m *MediaIngestor) Ingest(ctx context.Context, ref MediaReference, limit int64) (*MediaAsset, func(), error) {
	if limit <= 0 {
		limit = DefaultMediaSizeLimit
	}
	log := m.logger.WithFields(logger.Fields{
		"media_kind": ref.Kind(),
		"file_name":  ref.FileName(),
		"size":       ref.DeclaredSize(),
	})

	if size := ref.DeclaredSize(); size > limit {
		log.WithField("limit", limit).Warn("Media exceeds size limit")
		return nil, noopRelease, NewError(
			ErrorTypeMediaTooLarge,
			fmt.Sprintf("declared size %d exceeds limit %d", size, limit),
			nil,
		)
	}

	dir := filepath.Join(m.opts.TempRoot, m.newToken())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, noopRelease, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.WithError(err).WithField("dir", dir).Warn("Failed to remove temp dir")
		}
	}()

	asset, err := m.download(ctx, ref, dir, limit)
	if err != nil {
		return nil, noopRelease, err
	}
	log = log.WithField("mime_type", asset.MIMEType)
	log.Debug("Media downloaded")

	remote, err := m.files.Upload(ctx, asset.LocalPath, asset.MIMEType)
	if err != nil {
		log.WithError(err).Error("Media upload failed")
		return nil, noopRelease, ensureAIError(err, ErrorTypeBackendUnavailable, "")
	}
	asset.RemoteName = remote.Name
	asset.URI = remote.URI
	asset.State = AssetUploaded

	release := m.releaseFunc(ctx, remote.Name, log)

	remote, err = m.waitReady(ctx, remote, log)
	if err != nil {
		release()
		return nil, noopRelease, err
	}
	if remote.URI != "" {
		asset.URI = remote.URI
	}
	asset.State = AssetReady
	log.WithField("remote", asset.RemoteName).Info("Media ready")

	return asset, release, nil
}

func (m *MediaIngestor) download(ctx context.Context, ref MediaReference, dir string, limit int64) (*MediaAsset, error) {
	rc, err := ref.Open(ctx)
	if err != nil {
		return nil, NewError(ErrorTypeBackendUnavailable, "media download failed", err)
	}
	defer rc.Close()

	name := filepath.Base(ref.FileName())
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "media"
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(rc, limit+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, NewError(ErrorTypeBackendUnavailable, "media download failed", err)
	}
	if written > limit {
		return nil, NewError(
			ErrorTypeMediaTooLarge,
			fmt.Sprintf("downloaded size exceeds limit %d", limit),
			nil,
		)
	}

	mimeType, err := resolveMIMEType(ref, f)
	if err != nil {
		return nil, err
	}

	return &MediaAsset{
		Kind:      ref.Kind(),
		LocalPath: path,
		MIMEType:  mimeType,
		SizeBytes: written,
		State:     AssetDownloaded,
	}, nil
}

// resolveMIMEType prefers the declared type, then the file extension, then
// content sniffing.
func resolveMIMEType(ref MediaReference, f *os.File) (string, error) {
	if declared := strings.TrimSpace(ref.DeclaredMIMEType()); declared != "" {
		return declared, nil
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(ref.FileName()))); byExt != "" {
		return byExt, nil
	}

	head := make([]byte, 512)
	n, err := f.ReadAt(head, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("sniff media type: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}

func (m *MediaIngestor) waitReady(ctx context.Context, remote *RemoteFile, log logger.Logger) (*RemoteFile, error) {
	deadline := time.Now().Add(m.opts.PollTimeout)
	attempts := 0

	for remote.State == FileStateProcessing {
		if !time.Now().Before(deadline) {
			log.WithField("attempts", attempts).Warn("Media processing timed out")
			return nil, NewError(
				ErrorTypeProcessingTimeout,
				fmt.Sprintf("media still processing after %s", m.opts.PollTimeout),
				nil,
			)
		}

		timer := time.NewTimer(m.opts.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempts++
		next, err := m.files.GetFile(ctx, remote.Name)
		if err != nil {
			log.WithError(err).Error("Media status poll failed")
			return nil, ensureAIError(err, ErrorTypeBackendUnavailable, "")
		}
		remote = next
		log.WithFields(logger.Fields{
			"attempt": attempts,
			"state":   remote.State,
		}).Trace("Media status polled")
	}

	if remote.State == FileStateFailed {
		return nil, NewError(ErrorTypeBackendUnavailable, "media processing failed: "+remote.Error, nil)
	}
	return remote, nil
}

func (m *MediaIngestor) releaseFunc(ctx context.Context, name string, log logger.Logger) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.CleanupTimeout)
			defer cancel()
			if err := m.files.DeleteFile(cleanupCtx, name); err != nil {
				log.WithError(err).WithField("remote", name).Warn("Failed to delete remote media")
				return
			}
			log.WithField("remote", name).Debug("Remote media deleted")
		})
	}
}
