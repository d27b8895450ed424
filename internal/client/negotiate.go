package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blip/internal/device"
	"github.com/srg/blip/internal/packet"
)

// Exchanger sends a packet and waits for its response
type Exchanger interface {
	SendPacketWaitResponse(ctx context.Context, p *packet.Packet, timeout time.Duration) (*packet.Packet, error)
}

// NegotiatedInfo is what the post-connect handshake learned about the printer
type NegotiatedInfo struct {
	Result packet.ConnectResult
	Info   map[packet.PrinterInfoType][]byte
}

// Negotiator runs the handshake between link setup and Connected. It may
// return partial info together with an error; the client keeps the info and
// logs the error.
type Negotiator interface {
	Negotiate(ctx context.Context, ex Exchanger) (*NegotiatedInfo, error)
}

// NegotiatorFunc adapts a function to Negotiator
type NegotiatorFunc func(ctx context.Context, ex Exchanger) (*NegotiatedInfo, error)

func (f NegotiatorFunc) Negotiate(ctx context.Context, ex Exchanger) (*NegotiatedInfo, error) {
	return f(ctx, ex)
}

// InfoNegotiator sends the Connect handshake, then queries each printer info key
type InfoNegotiator struct {
	Keys    []packet.PrinterInfoType
	Timeout time.Duration
	logger  *logrus.Logger
}

func NewInfoNegotiator(logger *logrus.Logger, keys ...packet.PrinterInfoType) *InfoNegotiator {
	if logger == nil {
		logger = logrus.New()
	}
	if len(keys) == 0 {
		keys = packet.DefaultInfoKeys
	}
	return &InfoNegotiator{Keys: keys, logger: logger}
}

func (n *InfoNegotiator) Negotiate(ctx context.Context, ex Exchanger) (*NegotiatedInfo, error) {
	res := &NegotiatedInfo{
		Result: packet.ConnectResultFirmwareErrors,
		Info:   make(map[packet.PrinterInfoType][]byte),
	}

	handshake := packet.New(packet.CmdConnect, []byte{0x01}, packet.ExpectResponses(packet.RespConnect))
	resp, err := ex.SendPacketWaitResponse(ctx, handshake, n.Timeout)
	if err != nil {
		return res, fmt.Errorf("%w: connect handshake: %w", device.ErrNegotiation, err)
	}
	res.Result = packet.ParseConnectResult(resp.Payload())
	n.logger.WithField("result", res.Result).Debug("Connect handshake answered")

	var errs []error
	for _, key := range n.Keys {
		query := packet.New(packet.CmdPrinterInfo, []byte{byte(key)},
			packet.ExpectResponses(packet.InfoResponseID(key), packet.RespNotSupported))

		resp, err := ex.SendPacketWaitResponse(ctx, query, n.Timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			if errors.Is(err, device.ErrChannelClosed) || ctx.Err() != nil {
				break
			}
			continue
		}
		if resp.ResponseID() == packet.RespNotSupported {
			n.logger.WithField("key", key).Debug("Printer info not supported")
			continue
		}
		res.Info[key] = resp.Payload()
	}

	if len(errs) > 0 {
		return res, fmt.Errorf("%w: %w", device.ErrNegotiation, errors.Join(errs...))
	}
	return res, nil
}
