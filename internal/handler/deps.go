package handler

import (
	"talkroom/internal/app/chat"
	"talkroom/internal/app/session"
	"talkroom/internal/app/storage"
	"talkroom/internal/app/user"
	"talkroom/internal/configs"
	"talkroom/internal/pkg/resp"
)

type AppDeps struct {
	Config   *configs.AppConfig
	Users    *user.Service
	Chat     *chat.Service
	Sessions *session.Manager
	Storage  storage.StorageService
	Renderer resp.Renderer
}
