// twinchat/controllers/chat_ws.go
package controllers

import (
	"context"
	"encoding/json"

	"twinchat/twinchat/types"
	"twinchat/twinchat/utils/apierror"
	"twinchat/twinchat/utils/logging"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// WSFrame is what the server writes back for every inbound chat frame.
type WSFrame struct {
	Type     string          `json:"type"`
	Exchange *types.Exchange `json:"exchange,omitempty"`
	Error    *apierror.Error `json:"error,omitempty"`
}

// ChatWebSocket reads {"message": "..."} frames and answers each with one
// exchange or error frame. Frames are handled in order, so a client cannot
// overlap its own sends on one connection.
func (c *ChatController) ChatWebSocket(ctx context.Context, conn *websocket.Conn, agentID, userID string) {
	defer conn.Close(websocket.StatusInternalError, "internal error")

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				logging.ErrorLogger.Error("websocket read error", zap.String("agent_id", agentID), zap.Error(err))
			}
			return
		}
		if typ != websocket.MessageText {
			c.writeFrame(ctx, conn, WSFrame{Type: "error", Error: apierror.Validation("unsupported data")})
			continue
		}

		var req types.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.writeFrame(ctx, conn, WSFrame{Type: "error", Error: apierror.Validation("invalid json")})
			continue
		}
		sender := userID
		if req.UserID != "" {
			sender = req.UserID
		}

		exchange, err := c.Submit(ctx, agentID, sender, req.Message)
		frame := WSFrame{Type: "exchange", Exchange: exchange}
		if err != nil {
			frame = WSFrame{Type: "error", Error: apierror.Normalize(err)}
		}
		if err := c.writeFrame(ctx, conn, frame); err != nil {
			return
		}
	}
}

func (c *ChatController) writeFrame(ctx context.Context, conn *websocket.Conn, frame WSFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		logging.ErrorLogger.Error("websocket write error", zap.Error(err))
		return err
	}
	return nil
}
