package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/ids"
	"github.com/ariffaisalsheam/menux-app/internal/media/sniffer"
	"github.com/ariffaisalsheam/menux-app/internal/media/svg"
	"github.com/ariffaisalsheam/menux-app/internal/models"
)

type AvatarService struct {
	users   UserStore
	store   ObjectStore
	maxSize int64
	log     zerolog.Logger
}

func NewAvatarService(users UserStore, store ObjectStore, maxSize int64, log zerolog.Logger) *AvatarService {
	return &AvatarService{users: users, store: store, maxSize: maxSize, log: log}
}

// Upload stores a new avatar for user and returns the updated user. The
// content type is taken from the file bytes, declared is only cross-checked.
func (s *AvatarService) Upload(ctx context.Context, user models.User, file io.Reader, declared string) (models.User, error) {
	data, err := io.ReadAll(io.LimitReader(file, s.maxSize+1))
	if err != nil {
		return models.User{}, fmt.Errorf("read avatar: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return models.User{}, ErrFileTooLarge
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	kind, err := sniffer.DetectHead(head)
	if err != nil {
		return models.User{}, ErrUnsupportedMedia
	}
	if declared != "" && declared != "application/octet-stream" && declared != kind.MIME {
		return models.User{}, fmt.Errorf("%w: declared %s, detected %s", ErrUnsupportedMedia, declared, kind.MIME)
	}

	if kind.Type == sniffer.TypeSVG {
		data, err = svg.Sanitize(data)
		if err != nil {
			return models.User{}, ErrUnsupportedMedia
		}
	}

	key := path.Join("avatars", user.ID, ids.New()+"."+kind.Ext())
	url, err := s.store.Put(ctx, key, kind.MIME, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return models.User{}, err
	}

	updated, err := s.users.UpdateAvatar(ctx, user.ID, url)
	if err != nil {
		return models.User{}, fmt.Errorf("save avatar url: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Str("key", key).Msg("avatar updated")
	return updated, nil
}
