package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"
	"github.com/rs/zerolog/log"
)

const openAPIBase = "https://open.feishu.cn/open-apis"

// Message represents a received Feishu message
type Message struct {
	ChatID      string
	MsgID       string
	MsgType     string // text, post
	ChatType    string // p2p (private), group
	Content     string // Text content, mention placeholders resolved to names
	Sender      *Sender
	MentionsBot bool  // True if the bot was mentioned
	CreateTime  int64 // Milliseconds Unix timestamp from Feishu
}

// Sender represents the message sender
type Sender struct {
	SenderID   string // open_id
	SenderType string // user, app
	TenantKey  string
}

// ChatMember represents a member in a chat
type ChatMember struct {
	MemberID   string `json:"member_id"`
	MemberType string `json:"member_type"`
	Name       string `json:"name"`
}

// MessageHandler is the callback for received messages. It runs on the
// event dispatch path and must not block.
type MessageHandler func(msg *Message)

// Client receives group messages over the Feishu websocket
type Client struct {
	appID     string
	appSecret string
	larkCli   *lark.Client
	wsCli     *larkws.Client
	onMessage MessageHandler
	ctx       context.Context
	cancel    context.CancelFunc
	botOpenID string
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
		larkCli:   lark.NewClient(appID, appSecret),
	}
}

// OnMessage sets the message handler
func (c *Client) OnMessage(handler MessageHandler) {
	c.onMessage = handler
}

// Start connects to Feishu via WebSocket and blocks while listening
func (c *Client) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)

	if err := c.fetchBotOpenID(c.ctx); err != nil {
		log.Warn().Err(err).Msg("failed to fetch bot open_id, mentions will not be detected")
	}

	// Must return quickly so the SDK can ACK, otherwise Feishu retries the event.
	// Handled inline to keep arrival order; the message handler must not block.
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			c.handleMessage(event)
			return nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	log.Info().Msg("starting Feishu websocket connection")
	return c.wsCli.Start(c.ctx)
}

// Stop disconnects from Feishu
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// fetchBotOpenID fetches the bot's own open_id so mentions of it can be told apart
func (c *Client) fetchBotOpenID(ctx context.Context) error {
	tokenBody, _ := json.Marshal(map[string]string{"app_id": c.appID, "app_secret": c.appSecret})
	tokenReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		openAPIBase+"/auth/v3/tenant_access_token/internal", strings.NewReader(string(tokenBody)))
	if err != nil {
		return err
	}
	tokenReq.Header.Set("Content-Type", "application/json")

	tokenResp, err := http.DefaultClient.Do(tokenReq)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	defer tokenResp.Body.Close()

	var tokenResult struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	if err := json.NewDecoder(tokenResp.Body).Decode(&tokenResult); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	if tokenResult.Code != 0 {
		return fmt.Errorf("token API error: %s", tokenResult.Msg)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAPIBase+"/bot/v3/info", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tokenResult.TenantAccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	defer resp.Body.Close()

	var botResult struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Bot  struct {
			OpenID  string `json:"open_id"`
			AppName string `json:"app_name"`
		} `json:"bot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&botResult); err != nil {
		return fmt.Errorf("decode bot info: %w", err)
	}
	if botResult.Code != 0 {
		return fmt.Errorf("bot info API error: %s", botResult.Msg)
	}

	c.botOpenID = botResult.Bot.OpenID
	log.Info().Str("open_id", c.botOpenID).Str("name", botResult.Bot.AppName).Msg("bot identity resolved")
	return nil
}

// handleMessage converts a receive event into a Message
func (c *Client) handleMessage(event *larkim.P2MessageReceiveV1) {
	if event.Event == nil || event.Event.Message == nil {
		return
	}
	rawMsg := event.Event.Message

	// Our own messages come back as events too
	if event.Event.Sender != nil && event.Event.Sender.SenderType != nil && *event.Event.Sender.SenderType == "app" {
		return
	}

	msg := &Message{
		ChatID:  larkcore.StringValue(rawMsg.ChatId),
		MsgID:   larkcore.StringValue(rawMsg.MessageId),
		MsgType: larkcore.StringValue(rawMsg.MessageType),
	}
	msg.ChatType = larkcore.StringValue(rawMsg.ChatType)
	if rawMsg.CreateTime != nil {
		if ts, err := strconv.ParseInt(*rawMsg.CreateTime, 10, 64); err == nil {
			msg.CreateTime = ts
		}
	}

	if s := event.Event.Sender; s != nil {
		msg.Sender = &Sender{
			SenderType: larkcore.StringValue(s.SenderType),
			TenantKey:  larkcore.StringValue(s.TenantKey),
		}
		if s.SenderId != nil {
			msg.Sender.SenderID = larkcore.StringValue(s.SenderId.OpenId)
		}
	}

	// Map mention keys (@_user_1) to names, and spot the bot among them
	mentionMap := make(map[string]string)
	for _, mention := range rawMsg.Mentions {
		if mention.Id != nil && mention.Id.OpenId != nil && c.botOpenID != "" && *mention.Id.OpenId == c.botOpenID {
			msg.MentionsBot = true
		}
		if mention.Key != nil && mention.Name != nil {
			mentionMap[*mention.Key] = *mention.Name
		}
	}

	content := larkcore.StringValue(rawMsg.Content)
	switch msg.MsgType {
	case "text":
		msg.Content = ParseTextContent(content, mentionMap)
	case "post":
		msg.Content = ParsePostContent(content, mentionMap)
	default:
		log.Debug().Str("type", msg.MsgType).Str("chat", msg.ChatID).Msg("unsupported message type")
		return
	}

	log.Debug().
		Str("chat", msg.ChatID).
		Str("chat_type", msg.ChatType).
		Bool("mention", msg.MentionsBot).
		Msg("message received")

	if c.onMessage != nil {
		c.onMessage(msg)
	}
}

// GetChatMembers retrieves all members of a chat
func (c *Client) GetChatMembers(ctx context.Context, chatID string) ([]*ChatMember, error) {
	var members []*ChatMember
	var pageToken string

	for {
		reqBuilder := larkim.NewGetChatMembersReqBuilder().
			MemberIdType("open_id").
			ChatId(chatID).
			PageSize(100)
		if pageToken != "" {
			reqBuilder = reqBuilder.PageToken(pageToken)
		}

		resp, err := c.larkCli.Im.ChatMembers.Get(ctx, reqBuilder.Build())
		if err != nil {
			return nil, fmt.Errorf("get chat members failed: %w", err)
		}
		if !resp.Success() {
			return nil, fmt.Errorf("get chat members error: %s", resp.Msg)
		}

		for _, item := range resp.Data.Items {
			members = append(members, &ChatMember{
				MemberID:   larkcore.StringValue(item.MemberId),
				MemberType: larkcore.StringValue(item.MemberIdType),
				Name:       larkcore.StringValue(item.Name),
			})
		}

		if resp.Data.PageToken == nil || *resp.Data.PageToken == "" {
			break
		}
		pageToken = *resp.Data.PageToken
	}

	log.Debug().Str("chat", chatID).Int("count", len(members)).Msg("chat members loaded")
	return members, nil
}
