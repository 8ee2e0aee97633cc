package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/akinalp/leasehub/models"
)

// now is the single clock of the store. Everything is written in UTC from Go
// so text comparisons on DATETIME columns order correctly.
func now() time.Time {
	return time.Now().UTC()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// escapeLike escapes LIKE wildcards; queries use ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func encodeAttachments(list []models.Attachment) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode attachments: %w", err)
	}
	return string(b), nil
}

func decodeAttachments(raw string) ([]models.Attachment, error) {
	list := []models.Attachment{}
	if raw == "" {
		return list, nil
	}
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("failed to decode attachments: %w", err)
	}
	return list, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// messageColumns selects a message joined with its sender; use with scanMessage.
const messageColumns = `
	m.id, m.conversation_id, m.sender_id, m.content, m.attachments, m.status,
	m.is_deleted, m.deleted_at, m.created_at, m.updated_at,
	u.id, u.display_name, u.avatar_url, u.role`

func scanMessage(s rowScanner) (*models.Message, error) {
	var (
		msg         models.Message
		sender      models.UserSummary
		attachments string
		deletedAt   sql.NullTime
	)
	if err := s.Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &attachments, &msg.Status,
		&msg.IsDeleted, &deletedAt, &msg.CreatedAt, &msg.UpdatedAt,
		&sender.ID, &sender.DisplayName, &sender.AvatarURL, &sender.Role,
	); err != nil {
		return nil, err
	}

	list, err := decodeAttachments(attachments)
	if err != nil {
		return nil, err
	}
	msg.Attachments = list
	if deletedAt.Valid {
		t := deletedAt.Time.UTC()
		msg.DeletedAt = &t
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	msg.UpdatedAt = msg.UpdatedAt.UTC()
	msg.Sender = &sender
	return &msg, nil
}
