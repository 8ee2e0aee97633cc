package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/akinalp/leasehub/database"
	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
)

type sqliteMessageRepo struct {
	db *sql.DB
}

// NewSQLiteMessageRepo returns the SQLite MessageRepository.
func NewSQLiteMessageRepo(db *sql.DB) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

func (r *sqliteMessageRepo) Create(ctx context.Context, conversationID, senderID, content string, attachments []models.Attachment) (*models.Message, error) {
	encoded, err := encodeAttachments(attachments)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	err = database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertMessage(ctx, tx, id, conversationID, senderID, content, encoded)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// insertMessage stores one message, bumps the conversation activity and
// increments every other active participant's counter. Callers run it
// inside a transaction.
func insertMessage(ctx context.Context, q database.TxQuerier, id, conversationID, senderID, content, encodedAttachments string) error {
	ts := now()

	if _, err := q.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, attachments, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'sent', ?, ?)`,
		id, conversationID, senderID, content, encodedAttachments, ts, ts,
	); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: unknown conversation or sender", pkg.ErrBadRequest)
		}
		return fmt.Errorf("failed to create message: %w", err)
	}

	if _, err := q.ExecContext(ctx, `
		UPDATE conversations SET last_message_at = ?, updated_at = ? WHERE id = ?`,
		ts, ts, conversationID,
	); err != nil {
		return fmt.Errorf("failed to bump conversation: %w", err)
	}

	if _, err := q.ExecContext(ctx, `
		UPDATE conversation_participants
		SET unread_count = unread_count + 1
		WHERE conversation_id = ? AND user_id != ? AND left_at IS NULL`,
		conversationID, senderID,
	); err != nil {
		return fmt.Errorf("failed to increment unread counts: %w", err)
	}
	return nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	msg, err := scanMessage(r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// FindByConversationID fetches limit+1 rows newest first to learn hasMore
// without a second page query, then reverses for display. The cursor
// compares (created_at, rowid) so equal timestamps never skip or repeat.
func (r *sqliteMessageRepo) FindByConversationID(ctx context.Context, conversationID string, limit int, before string) (*models.MessagePage, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_id = ?`
	args := []any{conversationID}

	if before != "" {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM messages WHERE id = ? AND conversation_id = ?)",
			before, conversationID,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check cursor: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: invalid cursor", pkg.ErrBadRequest)
		}

		query += ` AND (m.created_at, m.rowid) < (SELECT created_at, rowid FROM messages WHERE id = ?)`
		args = append(args, before)
	}

	query += ` ORDER BY m.created_at DESC, m.rowid DESC LIMIT ?`
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	page := &models.MessagePage{Messages: messages, HasMore: hasMore}
	if hasMore && len(messages) > 0 {
		cursor := messages[0].ID
		page.NextCursor = &cursor
	}

	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE conversation_id = ? AND is_deleted = 0",
		conversationID,
	).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}

	return page, nil
}

func (r *sqliteMessageRepo) Delete(ctx context.Context, id string) (*models.Message, error) {
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var conversationID string
		var deleted bool
		err := tx.QueryRowContext(ctx,
			"SELECT conversation_id, is_deleted FROM messages WHERE id = ?", id,
		).Scan(&conversationID, &deleted)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: message not found", pkg.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get message: %w", err)
		}
		if deleted {
			return nil
		}

		ts := now()
		if _, err := tx.ExecContext(ctx, `
			UPDATE messages
			SET content = ?, attachments = '[]', is_deleted = 1, deleted_at = ?, updated_at = ?
			WHERE id = ?`,
			models.DeletedMessageContent, ts, ts, id,
		); err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}

		return reconcileUnread(ctx, tx, conversationID)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *sqliteMessageRepo) Search(ctx context.Context, userID, query string, limit int) ([]models.MessageSearchResult, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+messageColumns+`, c.subject
		FROM messages m
		JOIN conversation_participants p
		  ON p.conversation_id = m.conversation_id AND p.user_id = ? AND p.left_at IS NULL
		JOIN conversations c ON c.id = m.conversation_id
		JOIN users u ON u.id = m.sender_id
		WHERE m.is_deleted = 0
		  AND LOWER(m.content) LIKE ? ESCAPE '\'
		ORDER BY m.created_at DESC, m.rowid DESC
		LIMIT ?`,
		userID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer rows.Close()

	results := []models.MessageSearchResult{}
	for rows.Next() {
		var subject sql.NullString
		msg, err := scanMessage(searchRow{rows: rows, subject: &subject})
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		res := models.MessageSearchResult{Message: *msg}
		if subject.Valid {
			res.ConversationSubject = &subject.String
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}
	return results, nil
}

// searchRow appends the conversation subject to the message columns.
type searchRow struct {
	rows    *sql.Rows
	subject *sql.NullString
}

func (s searchRow) Scan(dest ...any) error {
	return s.rows.Scan(append(dest, s.subject)...)
}

func (r *sqliteMessageRepo) GetUnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversation_participants p
		  ON p.conversation_id = m.conversation_id AND p.user_id = ?
		WHERE m.conversation_id = ?
		  AND m.is_deleted = 0
		  AND m.sender_id != ?
		  AND m.created_at >= p.joined_at
		  AND NOT EXISTS (
		      SELECT 1 FROM message_read_receipts rr
		      WHERE rr.message_id = m.id AND rr.user_id = ?)`,
		userID, conversationID, userID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
