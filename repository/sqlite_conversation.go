package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/akinalp/leasehub/database"
	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
)

type sqliteConversationRepo struct {
	db *sql.DB
}

// NewSQLiteConversationRepo returns the SQLite ConversationRepository. It
// takes *sql.DB because several operations open their own transaction.
func NewSQLiteConversationRepo(db *sql.DB) ConversationRepository {
	return &sqliteConversationRepo{db: db}
}

// ─── Create ───

func (r *sqliteConversationRepo) Create(ctx context.Context, creatorID string, participantIDs []string, subject *string, listing *models.ListingContext) (*models.Conversation, error) {
	members := uniqueMembers(creatorID, participantIDs)
	if len(members) < 2 {
		return nil, fmt.Errorf("%w: a conversation needs at least one other participant", pkg.ErrBadRequest)
	}

	var conv *models.Conversation
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		conv, err = insertConversation(ctx, tx, creatorID, members, subject, listing)
		return err
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// CreateWithMessage inserts the conversation, its participants and the first
// message in one transaction, so a failed message leaves no conversation.
func (r *sqliteConversationRepo) CreateWithMessage(ctx context.Context, creatorID string, participantIDs []string, subject *string, listing *models.ListingContext, content string) (*models.Conversation, error) {
	members := uniqueMembers(creatorID, participantIDs)
	if len(members) < 2 {
		return nil, fmt.Errorf("%w: a conversation needs at least one other participant", pkg.ErrBadRequest)
	}

	var conv *models.Conversation
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		conv, err = insertConversation(ctx, tx, creatorID, members, subject, listing)
		if err != nil {
			return err
		}
		return insertMessage(ctx, tx, uuid.NewString(), conv.ID, creatorID, content, "[]")
	})
	if err != nil {
		return nil, err
	}
	return getConversation(ctx, r.db, conv.ID)
}

// GetOrCreateDirect runs lookup and insert in one transaction. The
// connection uses BEGIN IMMEDIATE, so a concurrent caller waits for this
// commit and then finds the row instead of creating a second one.
func (r *sqliteConversationRepo) GetOrCreateDirect(ctx context.Context, a, b string, listing *models.ListingContext) (*models.Conversation, bool, error) {
	if a == b {
		return nil, false, fmt.Errorf("%w: cannot start a direct conversation with yourself", pkg.ErrBadRequest)
	}

	var (
		conv    *models.Conversation
		created bool
	)
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var existingID string
		err := tx.QueryRowContext(ctx, `
			SELECT p.conversation_id
			FROM conversation_participants p
			WHERE p.left_at IS NULL
			  AND p.conversation_id IN (
			      SELECT conversation_id FROM conversation_participants
			      WHERE user_id = ? AND left_at IS NULL)
			GROUP BY p.conversation_id
			HAVING COUNT(*) = 2
			   AND SUM(CASE WHEN p.user_id IN (?, ?) THEN 1 ELSE 0 END) = 2
			ORDER BY MIN(p.joined_at)
			LIMIT 1`,
			a, a, b,
		).Scan(&existingID)

		switch {
		case err == nil:
			conv, err = getConversation(ctx, tx, existingID)
			return err
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to look up direct conversation: %w", err)
		}

		conv, err = insertConversation(ctx, tx, a, []string{a, b}, nil, listing)
		created = err == nil
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return conv, created, nil
}

func insertConversation(ctx context.Context, q database.TxQuerier, creatorID string, members []string, subject *string, listing *models.ListingContext) (*models.Conversation, error) {
	ts := now()
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		Subject:   subject,
		Listing:   listing,
		CreatedBy: creatorID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	var listingType, listingID *string
	if listing != nil {
		t := string(listing.Type)
		listingType, listingID = &t, &listing.ID
	}

	if _, err := q.ExecContext(ctx, `
		INSERT INTO conversations (id, subject, listing_type, listing_id, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conv.ID, subject, listingType, listingID, creatorID, ts, ts,
	); err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: unknown user", pkg.ErrBadRequest)
		}
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	for _, userID := range members {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id, joined_at)
			VALUES (?, ?, ?)`,
			conv.ID, userID, ts,
		); err != nil {
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("%w: unknown participant %s", pkg.ErrBadRequest, userID)
			}
			return nil, fmt.Errorf("failed to add participant: %w", err)
		}
	}

	return conv, nil
}

// uniqueMembers returns creatorID followed by the other distinct, non-empty ids.
func uniqueMembers(creatorID string, ids []string) []string {
	seen := map[string]bool{creatorID: true}
	members := []string{creatorID}
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}
	return members
}

// ─── Reads ───

func (r *sqliteConversationRepo) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	return getConversation(ctx, r.db, id)
}

func getConversation(ctx context.Context, q database.TxQuerier, id string) (*models.Conversation, error) {
	var (
		conv          models.Conversation
		listingType   sql.NullString
		listingID     sql.NullString
		lastMessageAt sql.NullTime
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, subject, listing_type, listing_id, created_by, created_at, updated_at, last_message_at
		FROM conversations WHERE id = ?`, id,
	).Scan(&conv.ID, &conv.Subject, &listingType, &listingID, &conv.CreatedBy,
		&conv.CreatedAt, &conv.UpdatedAt, &lastMessageAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: conversation not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	if listingType.Valid && listingID.Valid {
		conv.Listing = &models.ListingContext{Type: models.ListingType(listingType.String), ID: listingID.String}
	}
	if lastMessageAt.Valid {
		t := lastMessageAt.Time.UTC()
		conv.LastMessageAt = &t
	}
	conv.CreatedAt = conv.CreatedAt.UTC()
	conv.UpdatedAt = conv.UpdatedAt.UTC()
	return &conv, nil
}

func (r *sqliteConversationRepo) FindByIDWithDetails(ctx context.Context, id, viewerID string) (*models.ConversationDetails, error) {
	conv, err := getConversation(ctx, r.db, id)
	if err != nil {
		return nil, err
	}

	details := &models.ConversationDetails{Conversation: *conv}

	details.Participants, err = r.activeParticipants(ctx, id)
	if err != nil {
		return nil, err
	}

	for i := range details.Participants {
		p := &details.Participants[i]
		if p.ID == viewerID {
			details.UnreadCount = p.UnreadCount
			details.IsMuted = p.IsMuted
		} else if len(details.Participants) == 2 {
			other := *p
			details.OtherParticipant = &other
		}
	}

	details.LastMessage, err = r.lastMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	return details, nil
}

func (r *sqliteConversationRepo) activeParticipants(ctx context.Context, conversationID string) ([]models.Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.display_name, u.avatar_url, u.role,
			p.last_read_at, p.unread_count, p.is_muted, p.joined_at
		FROM conversation_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.conversation_id = ? AND p.left_at IS NULL
		ORDER BY p.joined_at, u.display_name`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var (
			p          models.Participant
			lastReadAt sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.AvatarURL, &p.Role,
			&lastReadAt, &p.UnreadCount, &p.IsMuted, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		if lastReadAt.Valid {
			t := lastReadAt.Time.UTC()
			p.LastReadAt = &t
		}
		p.JoinedAt = p.JoinedAt.UTC()
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}

func (r *sqliteConversationRepo) lastMessage(ctx context.Context, conversationID string) (*models.Message, error) {
	msg, err := scanMessage(r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_id = ? AND m.is_deleted = 0
		ORDER BY m.created_at DESC, m.rowid DESC
		LIMIT 1`, conversationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last message: %w", err)
	}
	return msg, nil
}

func (r *sqliteConversationRepo) FindByUserID(ctx context.Context, userID string, page, limit int) (*models.ConversationPage, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM conversation_participants
		WHERE user_id = ? AND left_at IS NULL`, userID,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count conversations: %w", err)
	}

	offset := (page - 1) * limit
	ids, err := r.listIDs(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	// ids are collected before enriching so the list cursor is closed
	// before the per-conversation queries run.
	conversations := make([]models.ConversationDetails, 0, len(ids))
	for _, id := range ids {
		d, err := r.FindByIDWithDetails(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, *d)
	}

	return &models.ConversationPage{
		Conversations: conversations,
		Total:         total,
		Page:          page,
		Limit:         limit,
		HasMore:       offset+len(conversations) < total,
	}, nil
}

func (r *sqliteConversationRepo) ListIDsForUser(ctx context.Context, userID string, limit int) ([]string, error) {
	return r.listIDs(ctx, userID, limit, 0)
}

func (r *sqliteConversationRepo) listIDs(ctx context.Context, userID string, limit, offset int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE p.user_id = ? AND p.left_at IS NULL
		ORDER BY COALESCE(c.last_message_at, c.created_at) DESC, c.rowid DESC
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}
	return ids, nil
}

func (r *sqliteConversationRepo) ActiveParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id FROM conversation_participants
		WHERE conversation_id = ? AND left_at IS NULL
		ORDER BY joined_at`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *sqliteConversationRepo) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = ? AND user_id = ? AND left_at IS NULL)`,
		conversationID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return exists, nil
}

// ─── Read state ───

func (r *sqliteConversationRepo) MarkAsRead(ctx context.Context, conversationID, userID string) (int, error) {
	var written int
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		ts := now()

		res, err := tx.ExecContext(ctx, `
			UPDATE conversation_participants
			SET last_read_at = ?, unread_count = 0
			WHERE conversation_id = ? AND user_id = ? AND left_at IS NULL`,
			ts, conversationID, userID)
		if err != nil {
			return fmt.Errorf("failed to reset unread count: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: not a participant of this conversation", pkg.ErrForbidden)
		}

		// WHERE is required before ON CONFLICT in INSERT ... SELECT.
		res, err = tx.ExecContext(ctx, `
			INSERT INTO message_read_receipts (message_id, user_id, read_at)
			SELECT m.id, ?, ?
			FROM messages m
			WHERE m.conversation_id = ?
			  AND m.sender_id != ?
			  AND m.is_deleted = 0
			  AND NOT EXISTS (
			      SELECT 1 FROM message_read_receipts rr
			      WHERE rr.message_id = m.id AND rr.user_id = ?)
			ON CONFLICT (message_id, user_id) DO NOTHING`,
			userID, ts, conversationID, userID, userID)
		if err != nil {
			return fmt.Errorf("failed to write read receipts: %w", err)
		}
		n, _ := res.RowsAffected()
		written = int(n)

		if written > 0 {
			if _, err := tx.ExecContext(ctx, `
				UPDATE messages SET status = 'read'
				WHERE conversation_id = ? AND sender_id != ? AND status = 'sent' AND is_deleted = 0
				  AND EXISTS (
				      SELECT 1 FROM message_read_receipts rr
				      WHERE rr.message_id = messages.id AND rr.user_id = ?)`,
				conversationID, userID, userID); err != nil {
				return fmt.Errorf("failed to update message status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (r *sqliteConversationRepo) GetTotalUnreadCount(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(unread_count), 0)
		FROM conversation_participants
		WHERE user_id = ? AND left_at IS NULL`, userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum unread counts: %w", err)
	}
	return total, nil
}

func (r *sqliteConversationRepo) ReconcileUnread(ctx context.Context, conversationID string) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return reconcileUnread(ctx, tx, conversationID)
	})
}

// reconcileUnread recomputes every active counter: non-deleted messages from
// others, sent since the participant joined, without a receipt.
func reconcileUnread(ctx context.Context, q database.TxQuerier, conversationID string) error {
	_, err := q.ExecContext(ctx, `
		UPDATE conversation_participants
		SET unread_count = (
			SELECT COUNT(*) FROM messages m
			WHERE m.conversation_id = conversation_participants.conversation_id
			  AND m.is_deleted = 0
			  AND m.sender_id != conversation_participants.user_id
			  AND m.created_at >= conversation_participants.joined_at
			  AND NOT EXISTS (
			      SELECT 1 FROM message_read_receipts rr
			      WHERE rr.message_id = m.id AND rr.user_id = conversation_participants.user_id)
		)
		WHERE conversation_id = ? AND left_at IS NULL`, conversationID)
	if err != nil {
		return fmt.Errorf("failed to reconcile unread counts: %w", err)
	}
	return nil
}

// ─── Membership ───

// AddParticipant inserts the row or reactivates a departed one. A
// reactivated participant starts over: joined_at moves to now and the
// counter is cleared, so messages from the absence never count as unread.
// Adding an active participant is a no-op.
func (r *sqliteConversationRepo) AddParticipant(ctx context.Context, conversationID, userID string) error {
	ts := now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversation_participants (conversation_id, user_id, joined_at)
		VALUES (?, ?, ?)
		ON CONFLICT (conversation_id, user_id) DO UPDATE SET
			left_at = NULL,
			joined_at = excluded.joined_at,
			unread_count = 0
		WHERE conversation_participants.left_at IS NOT NULL`,
		conversationID, userID, ts)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: unknown user or conversation", pkg.ErrBadRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (r *sqliteConversationRepo) RemoveParticipant(ctx context.Context, conversationID, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE conversation_participants
		SET left_at = ?, unread_count = 0
		WHERE conversation_id = ? AND user_id = ? AND left_at IS NULL`,
		now(), conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: participant not found", pkg.ErrNotFound)
	}
	return nil
}

func (r *sqliteConversationRepo) SetMuted(ctx context.Context, conversationID, userID string, muted bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE conversation_participants SET is_muted = ?
		WHERE conversation_id = ? AND user_id = ? AND left_at IS NULL`,
		muted, conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to set mute: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: participant not found", pkg.ErrNotFound)
	}
	return nil
}
