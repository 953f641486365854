package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/mosS-Green/plugins/internal/ai"
)

type FileURLResolver interface {
	GetFileURL(fileID string) (string, error)
}

// MediaRef is a Telegram attachment that is downloaded lazily through the
// Bot API file endpoint.
type MediaRef struct {
	kind     ai.MediaKind
	fileID   string
	fileName string
	size     int64
	mimeType string

	files  FileURLResolver
	client *http.Client
}

func (r *MediaRef) Kind() ai.MediaKind       { return r.kind }
func (r *MediaRef) FileName() string         { return r.fileName }
func (r *MediaRef) DeclaredSize() int64      { return r.size }
func (r *MediaRef) DeclaredMIMEType() string { return r.mimeType }
func (r *MediaRef) FileID() string           { return r.fileID }

func (r *MediaRef) Open(ctx context.Context) (io.ReadCloser, error) {
	fileURL, err := r.files.GetFileURL(r.fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("file download failed: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// MediaFromMessage picks the attachment of msg, if any. For photos the
// largest size is used.
func MediaFromMessage(msg *MessageOriginal, files FileURLResolver, client *http.Client) (*MediaRef, bool) {
	if msg == nil {
		return nil, false
	}
	ref := &MediaRef{files: files, client: client}

	switch {
	case len(msg.Photo) > 0:
		photo := msg.Photo[len(msg.Photo)-1]
		ref.kind, ref.fileID, ref.size = ai.MediaPhoto, photo.FileID, int64(photo.FileSize)
		ref.fileName, ref.mimeType = "photo.jpg", "image/jpeg"
	case msg.Video != nil:
		ref.kind, ref.fileID, ref.size = ai.MediaVideo, msg.Video.FileID, int64(msg.Video.FileSize)
		ref.fileName, ref.mimeType = orDefault(msg.Video.FileName, "video.mp4"), msg.Video.MimeType
	case msg.VideoNote != nil:
		ref.kind, ref.fileID, ref.size = ai.MediaVideoNote, msg.VideoNote.FileID, int64(msg.VideoNote.FileSize)
		ref.fileName, ref.mimeType = "video_note.mp4", "video/mp4"
	case msg.Animation != nil:
		ref.kind, ref.fileID, ref.size = ai.MediaAnimation, msg.Animation.FileID, int64(msg.Animation.FileSize)
		ref.fileName, ref.mimeType = orDefault(msg.Animation.FileName, "animation.mp4"), msg.Animation.MimeType
	case msg.Voice != nil:
		ref.kind, ref.fileID, ref.size = ai.MediaVoice, msg.Voice.FileID, int64(msg.Voice.FileSize)
		ref.fileName, ref.mimeType = "voice.ogg", orDefault(msg.Voice.MimeType, "audio/ogg")
	case msg.Audio != nil:
		ref.kind, ref.fileID, ref.size = ai.MediaAudio, msg.Audio.FileID, int64(msg.Audio.FileSize)
		ref.fileName, ref.mimeType = orDefault(msg.Audio.FileName, "audio.mp3"), msg.Audio.MimeType
	case msg.Sticker != nil:
		ref.kind, ref.fileID, ref.size = ai.MediaSticker, msg.Sticker.FileID, int64(msg.Sticker.FileSize)
		switch {
		case msg.Sticker.IsVideo:
			ref.fileName, ref.mimeType = "sticker.webm", "video/webm"
		case msg.Sticker.IsAnimated:
			ref.fileName, ref.mimeType = "sticker.tgs", "application/x-tgsticker"
		default:
			ref.fileName, ref.mimeType = "sticker.webp", "image/webp"
		}
	case msg.Document != nil:
		ref.kind, ref.fileID, ref.size = ai.MediaDocument, msg.Document.FileID, int64(msg.Document.FileSize)
		ref.fileName, ref.mimeType = orDefault(msg.Document.FileName, "document"), msg.Document.MimeType
	default:
		return nil, false
	}
	return ref, true
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
