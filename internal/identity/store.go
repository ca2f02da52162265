package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RibasSu/zapnode/internal/db"
)

// Store persists identity records in the identity_links table.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates an identity store.
func NewStore(log *slog.Logger, pool *pgxpool.Pool) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		pool:   pool,
		logger: log.With(slog.String("service", "identity")),
	}
}

// Resolve returns the record for the given canonical channel address,
// or ErrNotFound.
func (s *Store) Resolve(ctx context.Context, channelAddress string) (Record, error) {
	if s.pool == nil {
		return Record{}, errors.New("identity pool not configured")
	}
	address := strings.TrimSpace(channelAddress)
	if address == "" {
		return Record{}, fmt.Errorf("channel address is required")
	}

	var record Record
	row := s.pool.QueryRow(ctx,
		`SELECT channel_address, contact_id, conversation_id, created_at
		 FROM identity_links WHERE channel_address = $1`,
		address,
	)
	if err := row.Scan(&record.ChannelAddress, &record.ContactID, &record.ConversationID, &record.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("resolve identity: %w", err)
	}
	return record, nil
}

// Create inserts a new record for the address. The primary key on
// channel_address makes concurrent creators race to a single winner;
// losers receive ErrConflict and must re-resolve.
func (s *Store) Create(ctx context.Context, channelAddress, contactID, conversationID string) (Record, error) {
	if s.pool == nil {
		return Record{}, errors.New("identity pool not configured")
	}
	address := strings.TrimSpace(channelAddress)
	if address == "" {
		return Record{}, fmt.Errorf("channel address is required")
	}
	if strings.TrimSpace(contactID) == "" || strings.TrimSpace(conversationID) == "" {
		return Record{}, fmt.Errorf("contact id and conversation id are required")
	}

	var createdAt time.Time
	row := s.pool.QueryRow(ctx,
		`INSERT INTO identity_links (channel_address, contact_id, conversation_id)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		address, contactID, conversationID,
	)
	if err := row.Scan(&createdAt); err != nil {
		if db.IsUniqueViolation(err) {
			return Record{}, ErrConflict
		}
		return Record{}, fmt.Errorf("create identity: %w", err)
	}

	s.logger.Info("identity created",
		slog.String("channel_address", address),
		slog.String("contact_id", contactID),
		slog.String("conversation_id", conversationID),
	)
	return Record{
		ChannelAddress: address,
		ContactID:      contactID,
		ConversationID: conversationID,
		CreatedAt:      createdAt,
	}, nil
}
