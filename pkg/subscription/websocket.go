package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketClient maintains a JSON-RPC subscription connection to a
// Solana node and fans account notifications out to handlers.
type WebSocketClient struct {
	url            string
	logger         *zap.Logger
	conn           *websocket.Conn
	mu             sync.RWMutex
	subscriptions  map[uint64]*Subscription
	nextID         uint64
	handlers       map[uint64]AccountUpdateHandler
	reconnectDelay time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
	connected      bool
}

// Subscription tracks one accountSubscribe request. SubID is the
// server-assigned subscription ID, zero until confirmed.
type Subscription struct {
	ID        uint64
	AccountID string
	SubID     uint64
}

// AccountUpdateHandler receives base64-encoded account data for a
// subscribed account.
type AccountUpdateHandler func(accountID string, data []byte, slot uint64)

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type notificationMessage struct {
	JSONRPC string             `json:"jsonrpc"`
	Method  string             `json:"method"`
	Params  notificationParams `json:"params"`
}

type notificationParams struct {
	Result       accountNotification `json:"result"`
	Subscription uint64              `json:"subscription"`
}

type accountNotification struct {
	Context notificationContext `json:"context"`
	Value   accountValue        `json:"value"`
}

type notificationContext struct {
	Slot uint64 `json:"slot"`
}

type accountValue struct {
	Data       []interface{} `json:"data"` // [base64_data, encoding]
	Executable bool          `json:"executable"`
	Lamports   uint64        `json:"lamports"`
	Owner      string        `json:"owner"`
	RentEpoch  uint64        `json:"rentEpoch"`
}

// NewWebSocketClient dials the endpoint and starts the reader and
// reconnection loops.
func NewWebSocketClient(ctx context.Context, wsURL string, logger *zap.Logger) (*WebSocketClient, error) {
	clientCtx, cancel := context.WithCancel(ctx)

	client := &WebSocketClient{
		url:            wsURL,
		logger:         logger,
		subscriptions:  make(map[uint64]*Subscription),
		handlers:       make(map[uint64]AccountUpdateHandler),
		reconnectDelay: 5 * time.Second,
		ctx:            clientCtx,
		cancel:         cancel,
		nextID:         1,
	}

	if err := client.connect(); err != nil {
		cancel()
		return nil, err
	}

	go client.readMessages()
	go client.handleReconnection()

	return client, nil
}

func (c *WebSocketClient) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to WebSocket: %w", err)
	}

	c.conn = conn
	c.connected = true
	c.logger.Info("websocket connected", zap.String("url", c.url))

	return nil
}

// SubscribeAccount issues an accountSubscribe for the address and
// registers the handler for its notifications.
func (c *WebSocketClient) SubscribeAccount(accountID string, handler AccountUpdateHandler) (uint64, error) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.mu.Unlock()

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "accountSubscribe",
		Params: []interface{}{
			accountID,
			map[string]interface{}{
				"encoding":   "base64",
				"commitment": "confirmed",
			},
		},
	}

	if err := c.sendRequest(req); err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.handlers[id] = handler
	c.subscriptions[id] = &Subscription{
		ID:        id,
		AccountID: accountID,
	}
	c.mu.Unlock()

	return id, nil
}

// Unsubscribe tears down a subscription by its local ID.
func (c *WebSocketClient) Unsubscribe(subID uint64) error {
	c.mu.Lock()
	sub, exists := c.subscriptions[subID]
	if !exists {
		c.mu.Unlock()
		return fmt.Errorf("subscription not found: %d", subID)
	}

	if sub.SubID == 0 {
		// Not yet confirmed by the server.
		delete(c.subscriptions, subID)
		delete(c.handlers, subID)
		c.mu.Unlock()
		return nil
	}

	serverSubID := sub.SubID
	c.mu.Unlock()

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      subID,
		Method:  "accountUnsubscribe",
		Params:  []interface{}{serverSubID},
	}

	if err := c.sendRequest(req); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.subscriptions, subID)
	delete(c.handlers, subID)
	c.mu.Unlock()

	return nil
}

func (c *WebSocketClient) sendRequest(req rpcRequest) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *WebSocketClient) readMessages() {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			c.logger.Warn("websocket read error", zap.Error(err))
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			continue
		}

		c.handleMessage(message)
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	var notification notificationMessage
	if err := json.Unmarshal(data, &notification); err == nil && notification.Method == "accountNotification" {
		c.handleAccountNotification(notification)
		return
	}

	var response rpcResponse
	if err := json.Unmarshal(data, &response); err != nil {
		c.logger.Warn("failed to parse websocket message", zap.Error(err))
		return
	}

	c.handleResponse(response)
}

func (c *WebSocketClient) handleResponse(response rpcResponse) {
	if response.Error != nil {
		c.logger.Warn("rpc error", zap.String("message", response.Error.Message), zap.Int("code", response.Error.Code))
		return
	}

	var subID uint64
	if err := json.Unmarshal(response.Result, &subID); err != nil {
		return
	}

	c.mu.Lock()
	if sub, exists := c.subscriptions[response.ID]; exists {
		sub.SubID = subID
	}
	c.mu.Unlock()
}

func (c *WebSocketClient) handleAccountNotification(notification notificationMessage) {
	c.mu.RLock()
	var handler AccountUpdateHandler
	var accountID string

	for _, sub := range c.subscriptions {
		if sub.SubID == notification.Params.Subscription {
			if h, exists := c.handlers[sub.ID]; exists {
				handler = h
				accountID = sub.AccountID
			}
			break
		}
	}
	c.mu.RUnlock()

	if handler == nil {
		return
	}

	if len(notification.Params.Result.Value.Data) < 1 {
		return
	}

	dataStr, ok := notification.Params.Result.Value.Data[0].(string)
	if !ok {
		return
	}

	handler(accountID, []byte(dataStr), notification.Params.Result.Context.Slot)
}

func (c *WebSocketClient) handleReconnection() {
	ticker := time.NewTicker(c.reconnectDelay)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.RLock()
			connected := c.connected
			c.mu.RUnlock()

			if !connected {
				c.logger.Info("attempting websocket reconnect")
				if err := c.reconnect(); err != nil {
					c.logger.Warn("reconnect failed", zap.Error(err))
				} else {
					c.logger.Info("websocket reconnected")
				}
			}
		}
	}
}

// reconnect re-dials and replays every accountSubscribe.
func (c *WebSocketClient) reconnect() error {
	if err := c.connect(); err != nil {
		return err
	}

	c.mu.Lock()
	subs := make([]*Subscription, 0, len(c.subscriptions))
	for _, sub := range c.subscriptions {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		req := rpcRequest{
			JSONRPC: "2.0",
			ID:      sub.ID,
			Method:  "accountSubscribe",
			Params: []interface{}{
				sub.AccountID,
				map[string]interface{}{
					"encoding":   "base64",
					"commitment": "confirmed",
				},
			},
		}

		if err := c.sendRequest(req); err != nil {
			c.logger.Warn("failed to resubscribe", zap.String("account", sub.AccountID), zap.Error(err))
		}
	}

	return nil
}

// Close cancels the loops and tears down the connection.
func (c *WebSocketClient) Close() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}

// IsConnected reports whether the connection is currently up.
func (c *WebSocketClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
