package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	tele "gopkg.in/telebot.v4"

	"tgalert/internal/action"
	"tgalert/internal/alert"
	"tgalert/internal/dispatch"
	logx "tgalert/pkg/logx"
)

func (s *Server) receiveAlert(c *gin.Context) {
	var ev alert.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		s.log.Warn("invalid alert payload", logx.Err(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid payload"})
		return
	}
	ctx := c.Request.Context()

	out, err := s.hooks.PreReceive(ctx, &ev)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := s.hooks.PostReceive(ctx, out); err != nil {
		s.writeHookError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "ok", "id": out.ID})
}

type statusRequest struct {
	Alert  alert.Event  `json:"alert"`
	Status alert.Status `json:"status" binding:"required"`
	Text   string       `json:"text"`
}

func (s *Server) statusChange(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid payload"})
		return
	}
	if err := s.hooks.StatusChange(c.Request.Context(), &req.Alert, req.Status, req.Text); err != nil {
		s.writeHookError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeHookError maps a failed delivery to 502 and keeps the provider details.
func (s *Server) writeHookError(c *gin.Context, err error) {
	var de *dispatch.DeliveryError
	if errors.As(err, &de) {
		body := gin.H{"status": "error", "message": de.Error()}
		if de.Code != 0 {
			body["code"] = de.Code
			body["description"] = de.Description
		}
		c.JSON(http.StatusBadGateway, body)
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
}

// telegramWebhook always answers 200 once the request is authentic, so
// Telegram does not redeliver an update that failed downstream.
func (s *Server) telegramWebhook(c *gin.Context) {
	if s.cfg.WebhookSecret != "" {
		got := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.WebhookSecret)) != 1 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
	}

	var upd tele.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false})
		return
	}
	cb := upd.Callback
	if cb == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	ctx := c.Request.Context()
	log := s.log.With(logx.String("callback_id", cb.ID))

	answer := s.applyCallback(ctx, cb, log)
	if err := s.answerer.AnswerCallback(ctx, cb.ID, answer); err != nil {
		log.Warn("answer callback failed", logx.Err(err))
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) applyCallback(ctx context.Context, cb *tele.Callback, log logx.Logger) string {
	a, err := action.Parse(cb.Data)
	if err != nil {
		log.Warn("unsupported callback", logx.String("data", cb.Data), logx.Err(err))
		return "unsupported action"
	}
	a.User = callbackUser(cb)

	msg, err := s.actions.HandleAction(ctx, a)
	if err != nil {
		log.Error("alert action failed",
			logx.String("action", string(a.Kind)),
			logx.String("alert_id", a.AlertID),
			logx.Err(err),
		)
		return string(a.Kind) + " failed"
	}
	return msg
}

func callbackUser(cb *tele.Callback) string {
	if cb.Sender == nil {
		return ""
	}
	if cb.Sender.Username != "" {
		return "@" + cb.Sender.Username
	}
	return strconv.FormatInt(cb.Sender.ID, 10)
}
