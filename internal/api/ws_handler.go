package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"showcase/internal/api/middleware"
	"showcase/internal/tasks"
)

const (
	wsAuthTimeout  = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 5 * time.Second

	wsTypeSnapshot = "export_snapshot"
	wsTypeExport   = "export"
)

// exportLister 列出用户仍在导出中的简历，连接建立后用于恢复前端的忙碌指示。
type exportLister interface {
	ListExporting(ctx context.Context, userID uint, startedAfter time.Time) ([]uint, error)
}

// notifySource 按用户订阅 Worker 发布的导出通知，返回原始载荷。
type notifySource interface {
	Subscribe(ctx context.Context, userID uint) (<-chan string, func() error)
}

type redisNotifySource struct {
	client redis.UniversalClient
}

func (s redisNotifySource) Subscribe(ctx context.Context, userID uint) (<-chan string, func() error) {
	pubsub := s.client.Subscribe(ctx, tasks.NotifyChannel(userID))
	out := make(chan string)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, pubsub.Close
}

// wsSnapshot 是鉴权成功后的第一条消息。
type wsSnapshot struct {
	Type      string `json:"type"`
	Exporting []uint `json:"exporting"`
}

// wsExportEvent 是转发给前端的导出结果。
type wsExportEvent struct {
	Type string `json:"type"`
	tasks.ExportNotifyMessage
}

type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// WsHandler 负责 WebSocket 鉴权，恢复导出中的简历列表，并转发导出通知。
type WsHandler struct {
	validator  middleware.TokenValidator
	exports    exportLister
	notify     notifySource
	staleAfter time.Duration
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	now        func() time.Time
}

// NewWsHandler 构造 WebSocket 处理器；staleAfter 与导出接口判定忙碌标记过期的窗口一致。
func NewWsHandler(
	db *gorm.DB,
	redisClient redis.UniversalClient,
	validator middleware.TokenValidator,
	logger *slog.Logger,
	allowedOrigins []string,
	staleAfter time.Duration,
) *WsHandler {
	h := &WsHandler{
		validator:  validator,
		notify:     redisNotifySource{client: redisClient},
		staleAfter: staleAfter,
		logger:     logger,
		now:        time.Now,
	}
	if db != nil {
		h.exports = newGormResumeStore(db)
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	return h
}

// originChecker 未配置白名单时只接受同源连接。
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowed) == 0 {
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		}
		return slices.Contains(allowed, origin)
	}
}

// HandleConnection 升级连接，等待 auth 消息，下发快照后开始转发通知。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	log := h.logger.With(slog.String("client_ip", c.ClientIP()))

	userID, err := h.authenticate(conn)
	if err != nil {
		log.Warn("websocket authentication failed", slog.Any("error", err))
		return
	}
	log = log.With(slog.Uint64("user_id", uint64(userID)))
	log.Info("websocket authenticated")

	// 订阅先于快照，避免快照与首条通知之间的空档丢消息。
	payloads, unsubscribe := h.notify.Subscribe(ctx, userID)
	defer func() {
		if err := unsubscribe(); err != nil {
			log.Warn("unsubscribe notifications failed", slog.Any("error", err))
		}
	}()

	if err := h.sendSnapshot(ctx, conn, userID); err != nil {
		log.Warn("send export snapshot failed", slog.Any("error", err))
		return
	}

	readErr := make(chan error, 1)
	go func() { readErr <- drain(conn) }()

	err = h.relay(ctx, conn, payloads, readErr, log)
	log.Info("websocket connection closed", slog.Any("reason", err))
}

// authenticate 读取第一条消息并校验 access token；失败时以 1008 关闭连接。
func (h *WsHandler) authenticate(conn *websocket.Conn) (uint, error) {
	_ = conn.SetReadDeadline(time.Now().Add(wsAuthTimeout))
	defer conn.SetReadDeadline(time.Time{})

	var msg wsAuthMessage
	if err := conn.ReadJSON(&msg); err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "invalid auth payload")
		return 0, fmt.Errorf("read auth message: %w", err)
	}
	if msg.Type != "auth" || msg.Token == "" {
		writeClose(conn, websocket.ClosePolicyViolation, "auth required")
		return 0, errors.New("first message is not an auth message")
	}
	claims, err := h.validator.ValidateAccessToken(msg.Token)
	if err != nil {
		writeClose(conn, websocket.ClosePolicyViolation, "unauthorized")
		return 0, fmt.Errorf("validate token: %w", err)
	}
	return claims.UserID, nil
}

func (h *WsHandler) sendSnapshot(ctx context.Context, conn *websocket.Conn, userID uint) error {
	snapshot := wsSnapshot{Type: wsTypeSnapshot, Exporting: []uint{}}
	if h.exports != nil {
		ids, err := h.exports.ListExporting(ctx, userID, h.now().Add(-h.staleAfter))
		if err != nil {
			return fmt.Errorf("list exporting resumes: %w", err)
		}
		if ids != nil {
			snapshot.Exporting = ids
		}
	}
	return writeJSON(conn, snapshot)
}

// relay 转发通知直到客户端断开、订阅结束或心跳失败；格式不对的载荷直接丢弃。
func (h *WsHandler) relay(ctx context.Context, conn *websocket.Conn, payloads <-chan string, readErr <-chan error, log *slog.Logger) error {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case payload, ok := <-payloads:
			if !ok {
				return errors.New("notification subscription closed")
			}
			event, err := decodeExportNotify(payload)
			if err != nil {
				log.Warn("dropping malformed export notification", slog.Any("error", err))
				continue
			}
			if err := writeJSON(conn, event); err != nil {
				return fmt.Errorf("write notification: %w", err)
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(wsWriteWait)); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

// decodeExportNotify 校验 Worker 发布的载荷。
func decodeExportNotify(payload string) (wsExportEvent, error) {
	var msg tasks.ExportNotifyMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return wsExportEvent{}, fmt.Errorf("decode notification: %w", err)
	}
	if msg.ResumeID == 0 {
		return wsExportEvent{}, errors.New("notification without resume_id")
	}
	switch msg.Status {
	case tasks.NotifyStatusCompleted, tasks.NotifyStatusError:
	default:
		return wsExportEvent{}, fmt.Errorf("unknown notification status %q", msg.Status)
	}
	return wsExportEvent{Type: wsTypeExport, ExportNotifyMessage: msg}, nil
}

// drain 丢弃客户端消息，只用于感知断开。
func drain(conn *websocket.Conn) error {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}

func writeClose(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(wsWriteWait))
}
