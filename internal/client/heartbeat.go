package client

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/groutine"
	"github.com/srg/blip/internal/packet"
)

// HeartbeatPacket builds the keep-alive request; printers answer with one of
// several heartbeat variants depending on firmware.
func HeartbeatPacket() *packet.Packet {
	return packet.New(packet.CmdHeartbeat, []byte{0x01}, packet.ExpectResponses(
		packet.RespHeartbeatAdvanced,
		packet.RespHeartbeatBasic,
		packet.RespHeartbeatUnknown,
		packet.RespHeartbeat1,
	))
}

// Heartbeat sends a single heartbeat and returns the printer's answer
func (c *Client) Heartbeat(ctx context.Context) (*packet.Packet, error) {
	return c.SendPacketWaitResponse(ctx, HeartbeatPacket(), 0)
}

// startHeartbeat runs until the session is torn down
func (c *Client) startHeartbeat(sess *session) {
	interval := c.opts.HeartbeatInterval
	if interval <= 0 {
		return
	}

	groutine.Go(sess.ctx, "blip-heartbeat", func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := c.Heartbeat(ctx); err != nil {
					if ctx.Err() != nil {
						return
					}
					c.logger.WithFields(logrus.Fields{
						"device": sess.name,
						"error":  err,
					}).Warn("Heartbeat failed")
				}
			}
		}
	})
}
