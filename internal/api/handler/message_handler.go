package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/recruitly/template-service/internal/api/middleware"
	"github.com/recruitly/template-service/internal/core/domain"
	"github.com/recruitly/template-service/internal/core/ports"
	"github.com/recruitly/template-service/internal/core/render"
)

const headerIdempotencyKey = "Idempotency-Key"

// SendQueue accepts sends for background delivery.
type SendQueue interface {
	Enqueue(in ports.SendInput) error
}

type MessageHandler struct {
	messages ports.MessageService
	queue    SendQueue
	replays  ports.SendReplayStore // optional
	log      zerolog.Logger
}

func NewMessageHandler(messages ports.MessageService, queue SendQueue, replays ports.SendReplayStore, log zerolog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, queue: queue, replays: replays, log: log}
}

type sendRequest struct {
	Type     string         `json:"type"     validate:"required,templatetype"`
	To       string         `json:"to"       validate:"required,email"`
	Bindings map[string]any `json:"bindings"`
}

type sendResponse struct {
	Delivered   bool   `json:"delivered"`
	TransportID string `json:"transport_id"`
	TemplateID  string `json:"template_id"`
	Replayed    bool   `json:"replayed,omitempty"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}

func (r sendRequest) toInput() ports.SendInput {
	return ports.SendInput{
		Type:     domain.TemplateType(r.Type),
		To:       r.To,
		Bindings: render.FromValues(r.Bindings),
	}
}

// Send handles POST /v1/messages.
//
// @Summary      Render and send the active template of a type
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string       false  "Repeated keys return the first delivery"
// @Param        body             body      sendRequest  true   "Send request"
// @Success      200              {object}  sendResponse
// @Failure      400              {object}  map[string]string
// @Failure      404              {object}  map[string]string
// @Failure      409              {object}  map[string]string
// @Failure      429              {object}  map[string]string
// @Failure      502              {object}  map[string]string
// @Router       /v1/messages [post]
func (h *MessageHandler) Send(c echo.Context) error {
	var req sendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	key := h.replayKey(c)
	if key != "" {
		prev, reserved, err := h.replays.Reserve(ctx, key)
		switch {
		case err != nil:
			h.log.Warn().Err(err).Msg("idempotency reserve failed, sending anyway")
			key = ""
		case !reserved && prev.Pending:
			return echo.NewHTTPError(http.StatusConflict, "a send with this idempotency key is in progress")
		case !reserved:
			return c.JSON(http.StatusOK, sendResponse{
				Delivered:   true,
				TransportID: prev.TransportID,
				TemplateID:  prev.TemplateID,
				Replayed:    true,
			})
		}
	}

	res := h.messages.SendByType(ctx, req.toInput())
	if res.Err != nil {
		if key != "" {
			if err := h.replays.Release(ctx, key); err != nil {
				h.log.Warn().Err(err).Msg("failed to release idempotency key")
			}
		}
		return res.Err
	}

	if key != "" {
		err := h.replays.Complete(ctx, key, ports.ReplayedSend{
			TransportID: res.TransportID,
			TemplateID:  res.TemplateID,
			SentAt:      time.Now().UTC(),
		})
		if err != nil {
			h.log.Warn().Err(err).Msg("failed to store idempotency result")
		}
	}

	return c.JSON(http.StatusOK, sendResponse{
		Delivered:   res.Delivered,
		TransportID: res.TransportID,
		TemplateID:  res.TemplateID,
	})
}

// replayKey scopes the Idempotency-Key header to the calling operator. It is
// empty when the header is absent or no replay store is configured.
func (h *MessageHandler) replayKey(c echo.Context) string {
	key := c.Request().Header.Get(headerIdempotencyKey)
	if key == "" || h.replays == nil {
		return ""
	}
	actor, _ := c.Get(middleware.CtxUserID).(string)
	return actor + ":" + key
}

// SendAsync handles POST /v1/messages/async.
//
// @Summary      Queue a send for background delivery
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      sendRequest  true  "Send request"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /v1/messages/async [post]
func (h *MessageHandler) SendAsync(c echo.Context) error {
	var req sendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.queue.Enqueue(req.toInput()); err != nil {
		h.log.Warn().Err(err).Str("type", req.Type).Msg("async send rejected")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "send queue unavailable, retry later")
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "send accepted"})
}
