// Package whatsapp owns the channel client: pairing, the live session
// handle and translation between channel events and relay events.
package whatsapp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/RibasSu/zapnode/internal/config"
	"github.com/RibasSu/zapnode/internal/relay"
)

// InboundHandler receives every relayable message event from the channel.
type InboundHandler func(ctx context.Context, evt relay.InboundEvent)

// Session manages the WhatsApp client lifecycle. The device state lives in
// the same PostgreSQL database as the identity table.
type Session struct {
	cfg     config.WhatsAppConfig
	dsn     string
	handle  *Handle
	inbound InboundHandler
	logger  *slog.Logger

	cli *whatsmeow.Client
}

// NewSession prepares a session; no connection is made until Start.
func NewSession(log *slog.Logger, cfg config.WhatsAppConfig, dsn string, handle *Handle, inbound InboundHandler) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		cfg:     cfg,
		dsn:     dsn,
		handle:  handle,
		inbound: inbound,
		logger:  log.With(slog.String("service", "whatsapp")),
	}
}

// Start opens the device store, connects the client and, for an unpaired
// device, prints the pairing QR code to the terminal. The sender handle is
// installed once the client reports it is connected.
func (s *Session) Start(ctx context.Context) error {
	store.DeviceProps.Os = proto.String(s.cfg.DeviceName)

	container, err := sqlstore.New(ctx, "pgx", s.dsn, newWALogger(s.logger, "database"))
	if err != nil {
		return fmt.Errorf("open device store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("load device: %w", err)
		}
		device = container.NewDevice()
	}

	s.cli = whatsmeow.NewClient(device, newWALogger(s.logger, "client"))
	s.cli.AddEventHandler(s.handleEvent)

	if s.cli.Store.ID == nil {
		qrChan, err := s.cli.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		if err := s.cli.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		go s.watchQR(qrChan)
		return nil
	}

	if err := s.cli.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// Stop disconnects the client.
func (s *Session) Stop() {
	if s.cli != nil {
		s.cli.Disconnect()
	}
}

func (s *Session) watchQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			s.logger.Info("scan the QR code to pair the device")
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
		case "success":
			s.logger.Info("device paired")
		case "timeout":
			s.logger.Error("pairing timed out, restart to retry")
		}
	}
}

func (s *Session) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		s.handle.Set(NewSender(s.logger, s.cli))
		s.logger.Info("whatsapp connected")
	case *events.LoggedOut:
		s.logger.Error("device logged out, pairing required")
	case *events.Message:
		s.dispatchMessage(v)
	}
}

func (s *Session) dispatchMessage(v *events.Message) {
	if v.Info.IsFromMe || v.Info.IsGroup {
		return
	}
	relayEvt, ok := inboundEvent(s.cli, v)
	if !ok {
		return
	}
	if s.inbound == nil {
		return
	}
	go s.inbound(context.Background(), relayEvt)
}
