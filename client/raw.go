// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// Raw exposes Bot API methods as typed Go methods. Every method is a thin
// wrapper around [Do].
//
// Fields documented as files hold either a *payload.InputFile to upload or
// a string with a file_id or an HTTP URL.
type Raw struct{ c *Client }

// Raw returns typed Bot API methods that call through c, including its
// transformers.
func (c *Client) Raw() Raw { return Raw{c: c} }

// GetUpdatesParams are parameters of getUpdates.
type GetUpdatesParams struct {
	Offset         int64    `json:"offset,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	Timeout        int      `json:"timeout,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// SetWebhookParams are parameters of setWebhook.
type SetWebhookParams struct {
	URL string `json:"url"`
	// Certificate is a file with the public key certificate.
	Certificate        any      `json:"certificate,omitempty"`
	IPAddress          string   `json:"ip_address,omitempty"`
	MaxConnections     int      `json:"max_connections,omitempty"`
	AllowedUpdates     []string `json:"allowed_updates,omitempty"`
	DropPendingUpdates bool     `json:"drop_pending_updates,omitempty"`
	SecretToken        string   `json:"secret_token,omitempty"`
}

// DeleteWebhookParams are parameters of deleteWebhook.
type DeleteWebhookParams struct {
	DropPendingUpdates bool `json:"drop_pending_updates,omitempty"`
}

// SendMessageParams are parameters of sendMessage.
type SendMessageParams struct {
	ChatID              ChatID              `json:"chat_id"`
	MessageThreadID     int64               `json:"message_thread_id,omitempty"`
	Text                string              `json:"text"`
	ParseMode           string              `json:"parse_mode,omitempty"`
	Entities            []MessageEntity     `json:"entities,omitempty"`
	LinkPreviewOptions  *LinkPreviewOptions `json:"link_preview_options,omitempty"`
	DisableNotification bool                `json:"disable_notification,omitempty"`
	ReplyParameters     *ReplyParameters    `json:"reply_parameters,omitempty"`
	ReplyMarkup         any                 `json:"reply_markup,omitempty"`
}

// ForwardMessageParams are parameters of forwardMessage.
type ForwardMessageParams struct {
	ChatID              ChatID `json:"chat_id"`
	FromChatID          ChatID `json:"from_chat_id"`
	MessageID           int64  `json:"message_id"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
}

// CopyMessageParams are parameters of copyMessage.
type CopyMessageParams struct {
	ChatID      ChatID `json:"chat_id"`
	FromChatID  ChatID `json:"from_chat_id"`
	MessageID   int64  `json:"message_id"`
	Caption     string `json:"caption,omitempty"`
	ParseMode   string `json:"parse_mode,omitempty"`
	ReplyMarkup any    `json:"reply_markup,omitempty"`
}

// MediaOptions are parameters shared by methods that send a single media
// file.
type MediaOptions struct {
	ChatID              ChatID           `json:"chat_id"`
	MessageThreadID     int64            `json:"message_thread_id,omitempty"`
	Caption             string           `json:"caption,omitempty"`
	ParseMode           string           `json:"parse_mode,omitempty"`
	DisableNotification bool             `json:"disable_notification,omitempty"`
	ReplyParameters     *ReplyParameters `json:"reply_parameters,omitempty"`
	ReplyMarkup         any              `json:"reply_markup,omitempty"`
}

// SendPhotoParams are parameters of sendPhoto.
type SendPhotoParams struct {
	MediaOptions
	// Photo is a file.
	Photo      any  `json:"photo"`
	HasSpoiler bool `json:"has_spoiler,omitempty"`
}

// SendAudioParams are parameters of sendAudio.
type SendAudioParams struct {
	MediaOptions
	// Audio and Thumbnail are files.
	Audio     any    `json:"audio"`
	Thumbnail any    `json:"thumbnail,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Performer string `json:"performer,omitempty"`
	Title     string `json:"title,omitempty"`
}

// SendDocumentParams are parameters of sendDocument.
type SendDocumentParams struct {
	MediaOptions
	// Document and Thumbnail are files.
	Document  any `json:"document"`
	Thumbnail any `json:"thumbnail,omitempty"`
}

// SendVideoParams are parameters of sendVideo.
type SendVideoParams struct {
	MediaOptions
	// Video and Thumbnail are files.
	Video             any  `json:"video"`
	Thumbnail         any  `json:"thumbnail,omitempty"`
	Duration          int  `json:"duration,omitempty"`
	Width             int  `json:"width,omitempty"`
	Height            int  `json:"height,omitempty"`
	SupportsStreaming bool `json:"supports_streaming,omitempty"`
}

// SendAnimationParams are parameters of sendAnimation.
type SendAnimationParams struct {
	MediaOptions
	// Animation and Thumbnail are files.
	Animation any `json:"animation"`
	Thumbnail any `json:"thumbnail,omitempty"`
}

// SendVoiceParams are parameters of sendVoice.
type SendVoiceParams struct {
	MediaOptions
	// Voice is a file.
	Voice    any `json:"voice"`
	Duration int `json:"duration,omitempty"`
}

// SendVideoNoteParams are parameters of sendVideoNote.
type SendVideoNoteParams struct {
	ChatID              ChatID `json:"chat_id"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
	// VideoNote and Thumbnail are files.
	VideoNote any `json:"video_note"`
	Thumbnail any `json:"thumbnail,omitempty"`
	Duration  int `json:"duration,omitempty"`
	Length    int `json:"length,omitempty"`
}

// SendStickerParams are parameters of sendSticker.
type SendStickerParams struct {
	ChatID              ChatID `json:"chat_id"`
	DisableNotification bool   `json:"disable_notification,omitempty"`
	// Sticker is a file.
	Sticker any    `json:"sticker"`
	Emoji   string `json:"emoji,omitempty"`
}

// SendMediaGroupParams are parameters of sendMediaGroup.
type SendMediaGroupParams struct {
	ChatID              ChatID       `json:"chat_id"`
	MessageThreadID     int64        `json:"message_thread_id,omitempty"`
	Media               []InputMedia `json:"media"`
	DisableNotification bool         `json:"disable_notification,omitempty"`
}

// SendChatActionParams are parameters of sendChatAction.
type SendChatActionParams struct {
	ChatID          ChatID `json:"chat_id"`
	MessageThreadID int64  `json:"message_thread_id,omitempty"`
	Action          string `json:"action"`
}

// SetMessageReactionParams are parameters of setMessageReaction.
type SetMessageReactionParams struct {
	ChatID    ChatID         `json:"chat_id"`
	MessageID int64          `json:"message_id"`
	Reaction  []ReactionType `json:"reaction,omitempty"`
	IsBig     bool           `json:"is_big,omitempty"`
}

// EditMessageTextParams are parameters of editMessageText.
type EditMessageTextParams struct {
	ChatID             *ChatID             `json:"chat_id,omitempty"`
	MessageID          int64               `json:"message_id,omitempty"`
	InlineMessageID    string              `json:"inline_message_id,omitempty"`
	Text               string              `json:"text"`
	ParseMode          string              `json:"parse_mode,omitempty"`
	LinkPreviewOptions *LinkPreviewOptions `json:"link_preview_options,omitempty"`
	ReplyMarkup        any                 `json:"reply_markup,omitempty"`
}

// EditMessageMediaParams are parameters of editMessageMedia.
type EditMessageMediaParams struct {
	ChatID          *ChatID    `json:"chat_id,omitempty"`
	MessageID       int64      `json:"message_id,omitempty"`
	InlineMessageID string     `json:"inline_message_id,omitempty"`
	Media           InputMedia `json:"media"`
	ReplyMarkup     any        `json:"reply_markup,omitempty"`
}

// DeleteMessageParams are parameters of deleteMessage.
type DeleteMessageParams struct {
	ChatID    ChatID `json:"chat_id"`
	MessageID int64  `json:"message_id"`
}

// AnswerCallbackQueryParams are parameters of answerCallbackQuery.
type AnswerCallbackQueryParams struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
	URL             string `json:"url,omitempty"`
	CacheTime       int    `json:"cache_time,omitempty"`
}

// MyCommandsParams are parameters of setMyCommands, getMyCommands and
// deleteMyCommands. Commands is ignored by the latter two.
type MyCommandsParams struct {
	Commands     []BotCommand     `json:"commands,omitempty"`
	Scope        *BotCommandScope `json:"scope,omitempty"`
	LanguageCode string           `json:"language_code,omitempty"`
}

// SetChatPhotoParams are parameters of setChatPhoto.
type SetChatPhotoParams struct {
	ChatID ChatID `json:"chat_id"`
	// Photo must be a *payload.InputFile.
	Photo any `json:"photo"`
}

func (r Raw) GetMe(ctx context.Context) (*User, error) {
	return Do[*User](ctx, r.c, "getMe", nil)
}

func (r Raw) LogOut(ctx context.Context) (bool, error) {
	return Do[bool](ctx, r.c, "logOut", nil)
}

func (r Raw) Close(ctx context.Context) (bool, error) {
	return Do[bool](ctx, r.c, "close", nil)
}

func (r Raw) GetUpdates(ctx context.Context, p *GetUpdatesParams) ([]Update, error) {
	return Do[[]Update](ctx, r.c, "getUpdates", p)
}

func (r Raw) SetWebhook(ctx context.Context, p *SetWebhookParams) (bool, error) {
	return Do[bool](ctx, r.c, "setWebhook", p)
}

func (r Raw) DeleteWebhook(ctx context.Context, p *DeleteWebhookParams) (bool, error) {
	return Do[bool](ctx, r.c, "deleteWebhook", p)
}

func (r Raw) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	return Do[*WebhookInfo](ctx, r.c, "getWebhookInfo", nil)
}

func (r Raw) SendMessage(ctx context.Context, p *SendMessageParams) (*Message, error) {
	return Do[*Message](ctx, r.c, "sendMessage", p)
}

func (r Raw) ForwardMessage(ctx context.Context, p *ForwardMessageParams) (*Message, error) {
	return Do[*Message](ctx, r.c, "forwardMessage", p)
}

func (r Raw) CopyMessage(ctx context.Context, p *CopyMessageParams) (*MessageID, error) {
	return Do[*MessageID](ctx, r.c, "copyMessage", p)
}

func (r Raw) SendPhoto(ctx context.Context, p *SendPhotoParams) (*Message, error) {
	return Do[*Message](ctx, r.c, "sendPhoto", p)
}

func (r Raw) SendAudio(ctx context.Context, p *SendAudioParams) (*Message, error) {
	return Do[*Message](ctx, r.c, "sendAudio", p)
}

func (r Raw) SendDocument(ctx context.Context, p *SendDocumentParams) (*Message, error) {
	return Do[*Message](ctx, r.c, "sendDocument", p)
}

func (r Raw) SendVideo(ctx context.Context, p *SendVideoParams) (*Message, error) {
	return Do[*Message](ctx, r.c, "sendVideo", p)
}

func (r Raw) SendAnimation(ctx context.Context, p *SendAnimationParams) (*Message, error) {
	return Do[*Message](ctx, r.c, "sendAnimation", p)
}

func (r Raw) SendVoice(ctx context.Context, p *SendVoiceParams) (*Message, error) {
	return Do[*Message](ctx, r.c, "sendVoice", p)
}

func (r Raw) SendVideoNote(ctx context.Context, p *SendVideoNoteParams) (*Message, error) {
	return Do[*Message](ctx, r.c, "sendVideoNote", p)
}

func (r Raw) SendSticker(ctx context.Context, p *SendStickerParams) (*Message, error) {
	return Do[*Message](ctx, r.c, "sendSticker", p)
}

func (r Raw) SendMediaGroup(ctx context.Context, p *SendMediaGroupParams) ([]Message, error) {
	return Do[[]Message](ctx, r.c, "sendMediaGroup", p)
}

func (r Raw) SendChatAction(ctx context.Context, p *SendChatActionParams) (bool, error) {
	return Do[bool](ctx, r.c, "sendChatAction", p)
}

func (r Raw) SetMessageReaction(ctx context.Context, p *SetMessageReactionParams) (bool, error) {
	return Do[bool](ctx, r.c, "setMessageReaction", p)
}

// EditMessageText edits a text message. The returned message is nil when an
// inline message was edited.
func (r Raw) EditMessageText(ctx context.Context, p *EditMessageTextParams) (*Message, error) {
	return r.edit(ctx, "editMessageText", p)
}

// EditMessageMedia replaces the media of a message. The returned message is
// nil when an inline message was edited.
func (r Raw) EditMessageMedia(ctx context.Context, p *EditMessageMediaParams) (*Message, error) {
	return r.edit(ctx, "editMessageMedia", p)
}

// edit calls an edit method that returns either the edited message or true.
func (r Raw) edit(ctx context.Context, method string, p any) (*Message, error) {
	raw, err := Do[json.RawMessage](ctx, r.c, method, p)
	if err != nil {
		return nil, err
	}
	if string(raw) == "true" {
		return nil, nil
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("client: decoding result of %s: %w", method, err)
	}
	return &m, nil
}

func (r Raw) DeleteMessage(ctx context.Context, p *DeleteMessageParams) (bool, error) {
	return Do[bool](ctx, r.c, "deleteMessage", p)
}

func (r Raw) AnswerCallbackQuery(ctx context.Context, p *AnswerCallbackQueryParams) (bool, error) {
	return Do[bool](ctx, r.c, "answerCallbackQuery", p)
}

func (r Raw) GetFile(ctx context.Context, fileID string) (*File, error) {
	return Do[*File](ctx, r.c, "getFile", map[string]string{"file_id": fileID})
}

func (r Raw) SetMyCommands(ctx context.Context, p *MyCommandsParams) (bool, error) {
	return Do[bool](ctx, r.c, "setMyCommands", p)
}

func (r Raw) GetMyCommands(ctx context.Context, p *MyCommandsParams) ([]BotCommand, error) {
	return Do[[]BotCommand](ctx, r.c, "getMyCommands", p)
}

func (r Raw) DeleteMyCommands(ctx context.Context, p *MyCommandsParams) (bool, error) {
	return Do[bool](ctx, r.c, "deleteMyCommands", p)
}

func (r Raw) GetChat(ctx context.Context, chatID ChatID) (*Chat, error) {
	return Do[*Chat](ctx, r.c, "getChat", map[string]ChatID{"chat_id": chatID})
}

func (r Raw) SetChatPhoto(ctx context.Context, p *SetChatPhotoParams) (bool, error) {
	return Do[bool](ctx, r.c, "setChatPhoto", p)
}
