// Package gateway adapts the menu controller's collaborator interfaces onto
// NATS. The platform gateway on the other end of the render subject owns the
// actual chat SDK; this side only describes what should happen to which
// message. Render commands are fire-and-forget: the gateway treats an update
// whose content already matches as success.
package gateway

import (
	"context"
	"fmt"

	"github.com/sentinel/antispam/internal/menu"
	"github.com/sentinel/antispam/internal/messaging"
	"github.com/sentinel/antispam/internal/pending"
	"github.com/sentinel/antispam/internal/policy"
	"github.com/sentinel/antispam/internal/protocol"
)

// Renderer publishes render commands for the platform gateway to execute.
// It implements menu.Renderer and menu.ChangePublisher.
type Renderer struct {
	client *messaging.Client
}

// NewRenderer creates a Renderer over the given NATS client.
func NewRenderer(client *messaging.Client) *Renderer {
	return &Renderer{client: client}
}

func (r *Renderer) publish(cmdType string, payload interface{}) error {
	data, err := protocol.NewCommand(cmdType, payload)
	if err != nil {
		return err
	}
	if err := r.client.PublishRenderCommand(data); err != nil {
		return fmt.Errorf("gateway: publish %s: %w", cmdType, err)
	}
	return nil
}

// RenderScreen asks the gateway to update the menu message in place.
func (r *Renderer) RenderScreen(_ context.Context, ref pending.ChatRef, s menu.Screen) error {
	return r.publish(protocol.TypeRender, protocol.RenderCommand{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
		Text:      s.Text,
		Buttons:   s.Buttons,
	})
}

// SendMessage asks the gateway to send a fresh message.
func (r *Renderer) SendMessage(_ context.Context, chatID int64, s menu.Screen, replyTo int64) error {
	return r.publish(protocol.TypeSend, protocol.SendCommand{
		ChatID:  chatID,
		Text:    s.Text,
		Buttons: s.Buttons,
		ReplyTo: replyTo,
	})
}

// DeleteMessage asks the gateway to delete a message. The command is
// best-effort on both sides.
func (r *Renderer) DeleteMessage(_ context.Context, ref pending.ChatRef) error {
	return r.publish(protocol.TypeDelete, protocol.DeleteCommand{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
	})
}

// Ack answers a button press, optionally with a short notice.
func (r *Renderer) Ack(_ context.Context, callbackID string, notice string) error {
	return r.publish(protocol.TypeAck, protocol.AckCommand{
		CallbackID: callbackID,
		Notice:     notice,
	})
}

// PolicyChanged publishes the mutated document on the per-group
// policy-change subject so enforcement services can hot-reload.
func (r *Renderer) PolicyChanged(_ context.Context, groupID int64, doc policy.Document) error {
	data, err := policy.Encode(doc)
	if err != nil {
		return fmt.Errorf("gateway: marshal policy change group %d: %w", groupID, err)
	}
	if err := r.client.PublishPolicyChanged(groupID, data); err != nil {
		return fmt.Errorf("gateway: publish policy change group %d: %w", groupID, err)
	}
	return nil
}
