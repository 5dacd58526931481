package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"

	"github.com/KaramelBytes/engage-cli/internal/logging"
)

// ErrUnauthorized is returned when the session file holds no authorized login.
var ErrUnauthorized = errors.New("telegram session is not authorized")

// Telegram collects posts from a public broadcast channel with an existing
// user session.
type Telegram struct {
	AppID       int
	AppHash     string
	SessionFile string
	Logger      *slog.Logger
}

const historyPageSize = 100

// Collect resolves the channel username and pages back through its history.
func (c *Telegram) Collect(ctx context.Context, target string, limit int) ([]Post, error) {
	if c.AppID == 0 || c.AppHash == "" {
		return nil, errors.New("telegram: app id and hash are required")
	}
	username, err := channelUsername(target)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	log := logging.OrDiscard(c.Logger)
	client := telegram.NewClient(c.AppID, c.AppHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{Path: c.SessionFile},
	})

	var posts []Post
	err = client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}
		if !status.Authorized {
			return ErrUnauthorized
		}
		api := tg.NewClient(client)
		resolved, err := api.ContactsResolveUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("resolve @%s: %w", username, err)
		}
		ch, err := findBroadcast(resolved.GetChats())
		if err != nil {
			return fmt.Errorf("@%s: %w", username, err)
		}
		peer := &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}

		offset := 0
		for len(posts) < limit {
			page := min(historyPageSize, limit-len(posts))
			history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
				Peer:     peer,
				OffsetID: offset,
				Limit:    page,
			})
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			msgs := historyMessages(history)
			if len(msgs) == 0 {
				break
			}
			for _, m := range msgs {
				if len(posts) == limit {
					break
				}
				posts = append(posts, MessagePost(username, m))
			}
			offset = msgs[len(msgs)-1].ID
			log.Debug("telegram history page", "channel", username, "messages", len(msgs), "offset", offset)
			if len(msgs) < page {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("telegram posts collected", "channel", username, "count", len(posts))
	return posts, nil
}

// channelUsername accepts "name", "@name" or a https://t.me/name link.
func channelUsername(target string) (string, error) {
	s := strings.TrimSpace(target)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "t.me/")
	s = strings.TrimPrefix(s, "@")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "", errors.New("telegram: channel username is required")
	}
	return s, nil
}

func findBroadcast(chats []tg.ChatClass) (*tg.Channel, error) {
	for _, c := range chats {
		if ch, ok := c.(*tg.Channel); ok && ch.Broadcast {
			return ch, nil
		}
	}
	return nil, errors.New("not a broadcast channel")
}

// historyMessages extracts regular messages newest first.
func historyMessages(h tg.MessagesMessagesClass) []*tg.Message {
	var raw []tg.MessageClass
	switch v := h.(type) {
	case *tg.MessagesChannelMessages:
		raw = v.Messages
	case *tg.MessagesMessagesSlice:
		raw = v.Messages
	case *tg.MessagesMessages:
		raw = v.Messages
	}
	out := make([]*tg.Message, 0, len(raw))
	for _, m := range raw {
		if msg, ok := m.(*tg.Message); ok {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// MessagePost maps a channel message to a Post. Likes are the total of all
// reaction counts and comments the discussion reply count.
func MessagePost(channel string, m *tg.Message) Post {
	id := strconv.Itoa(m.ID)
	p := Post{
		ID:        id,
		Shortcode: channel + "/" + id,
		URL:       "https://t.me/" + channel + "/" + id,
		Caption:   m.Message,
		PostedAt:  time.Unix(int64(m.Date), 0).UTC(),
		Source:    "telegram",
		MediaType: "text",
	}
	for _, r := range m.Reactions.Results {
		p.Likes += r.Count
	}
	if replies, ok := m.GetReplies(); ok {
		p.Comments = replies.Replies
	}
	if views, ok := m.GetViews(); ok {
		p.Views = views
	}
	if media, ok := m.GetMedia(); ok {
		p.MediaType, p.IsVideo = mediaKind(media)
	}
	return p
}

func mediaKind(media tg.MessageMediaClass) (string, bool) {
	switch v := media.(type) {
	case *tg.MessageMediaPhoto:
		return "photo", false
	case *tg.MessageMediaDocument:
		if doc, ok := v.Document.(*tg.Document); ok && strings.HasPrefix(doc.MimeType, "video/") {
			return "video", true
		}
		return "document", false
	case *tg.MessageMediaWebPage:
		return "link", false
	}
	return "other", false
}
